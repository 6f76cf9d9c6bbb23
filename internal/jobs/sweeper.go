package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkpage/internal/metrics"
	"linkpage/internal/models"
	"linkpage/internal/storage"
)

const sweepBatchSize = 50

// IntentStore is the part of the database the sweeper needs.
type IntentStore interface {
	ListStaleIntents(ctx context.Context, maxAge time.Duration, limit int) ([]models.StorageIntent, error)
	IsObjectReferenced(ctx context.Context, key, publicURL string) (bool, error)
	ResolveIntent(ctx context.Context, id uuid.UUID, state string) error
}

// OrphanSweeper finishes storage workflows that were interrupted between
// the object store and the database.
type OrphanSweeper struct {
	store    IntentStore
	objects  storage.Store
	interval time.Duration
	maxAge   time.Duration
	log      *zap.Logger
}

// NewOrphanSweeper creates a sweeper that looks at intents pending for
// longer than maxAge every interval.
func NewOrphanSweeper(store IntentStore, objects storage.Store, interval, maxAge time.Duration, log *zap.Logger) *OrphanSweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrphanSweeper{
		store:    store,
		objects:  objects,
		interval: interval,
		maxAge:   maxAge,
		log:      log.Named("sweeper"),
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *OrphanSweeper) Start(ctx context.Context) {
	s.log.Info("orphan sweeper started", zap.Duration("interval", s.interval), zap.Duration("max_age", s.maxAge))

	// Run immediately on start
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("orphan sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep resolves one batch of stale intents and returns how many it
// resolved.
func (s *OrphanSweeper) Sweep(ctx context.Context) int {
	intents, err := s.store.ListStaleIntents(ctx, s.maxAge, sweepBatchSize)
	if err != nil {
		s.log.Error("failed to list stale intents", zap.Error(err))
		return 0
	}
	if len(intents) == 0 {
		return 0
	}

	s.log.Debug("sweeping intents", zap.Int("count", len(intents)))

	swept := 0
	for _, intent := range intents {
		if ctx.Err() != nil {
			break
		}
		if s.sweepOne(ctx, intent) {
			swept++
		}
	}
	return swept
}

func (s *OrphanSweeper) sweepOne(ctx context.Context, intent models.StorageIntent) bool {
	log := s.log.With(
		zap.String("intent", intent.ID.String()),
		zap.String("action", intent.Action),
		zap.String("key", intent.ObjectKey),
	)

	switch intent.Action {
	case models.IntentPut:
		referenced, err := s.store.IsObjectReferenced(ctx, intent.ObjectKey, s.objects.PublicURL(intent.ObjectKey))
		if err != nil {
			log.Error("failed to check object references", zap.Error(err))
			return false
		}
		// A referenced object means the row was written and only the
		// intent update was lost.
		if !referenced {
			if err := s.objects.Delete(ctx, intent.ObjectKey); err != nil {
				log.Warn("failed to delete orphaned object", zap.Error(err))
				return false
			}
		}
	case models.IntentDelete:
		if err := s.objects.Delete(ctx, intent.ObjectKey); err != nil {
			log.Warn("failed to retry object delete", zap.Error(err))
			return false
		}
	default:
		log.Warn("unknown intent action")
	}

	if err := s.store.ResolveIntent(ctx, intent.ID, models.IntentSwept); err != nil {
		log.Error("failed to resolve intent", zap.Error(err))
		return false
	}
	metrics.ObserveSwept(intent.Action)
	log.Info("intent swept")
	return true
}
