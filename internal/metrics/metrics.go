package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"linkpage/internal/db"
)

// Commit outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeNoop      = "noop"
	OutcomeFailed    = "failed"
)

var (
	pageViewDesc = prometheus.NewDesc(
		"linkpage_page_views_total",
		"Total public page views by handle",
		[]string{"handle"},
		nil,
	)
	sectionsDesc = prometheus.NewDesc(
		"linkpage_sections",
		"Number of sections by kind and visibility",
		[]string{"kind", "active"},
		nil,
	)
	pendingIntentsDesc = prometheus.NewDesc(
		"linkpage_storage_intents_pending",
		"Storage writes recorded but not yet confirmed",
		nil,
		nil,
	)

	draftCommits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkpage_draft_commits_total",
		Help: "Draft commits by container scope and outcome",
	}, []string{"scope", "outcome"})

	commitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkpage_draft_commit_duration_seconds",
		Help:    "Time spent writing a draft to the database",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkpage_uploads_total",
		Help: "Uploads by asset kind and outcome",
	}, []string{"kind", "outcome"})

	sweptIntents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkpage_storage_intents_swept_total",
		Help: "Stale storage intents resolved by the orphan sweeper",
	}, []string{"action"})
)

// Source is the database view the content collector reads on each scrape.
type Source interface {
	GetAllPageViews(ctx context.Context) ([]db.PageViewCount, error)
	CountSectionsByKind(ctx context.Context) ([]db.SectionKindCount, error)
	CountPendingIntents(ctx context.Context) (int, error)
}

// ContentCollector is a custom Prometheus collector that reads content
// counts from the database on each scrape.
type ContentCollector struct {
	src Source
	log *zap.Logger
}

// NewContentCollector creates a collector over src.
func NewContentCollector(src Source, log *zap.Logger) *ContentCollector {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContentCollector{src: src, log: log}
}

// Describe sends the metric descriptors to the channel.
func (c *ContentCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- pageViewDesc
	ch <- sectionsDesc
	ch <- pendingIntentsDesc
}

// Collect queries the database and emits the current counts.
func (c *ContentCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	views, err := c.src.GetAllPageViews(ctx)
	if err != nil {
		c.log.Error("failed to collect page view metrics", zap.Error(err))
	}
	for _, v := range views {
		ch <- prometheus.MustNewConstMetric(pageViewDesc, prometheus.CounterValue, float64(v.Count), v.Handle)
	}

	sections, err := c.src.CountSectionsByKind(ctx)
	if err != nil {
		c.log.Error("failed to collect section metrics", zap.Error(err))
	}
	for _, s := range sections {
		ch <- prometheus.MustNewConstMetric(sectionsDesc, prometheus.GaugeValue, float64(s.Count),
			s.Kind, strconv.FormatBool(s.Active))
	}

	pending, err := c.src.CountPendingIntents(ctx)
	if err != nil {
		c.log.Error("failed to collect storage intent metrics", zap.Error(err))
		return
	}
	ch <- prometheus.MustNewConstMetric(pendingIntentsDesc, prometheus.GaugeValue, float64(pending))
}

// PageViewRecorder is the write side used to count page views.
type PageViewRecorder interface {
	IncrementPageView(ctx context.Context, userID uuid.UUID) error
}

// Recorder provides async page view recording.
type Recorder struct {
	db  PageViewRecorder
	log *zap.Logger
}

var (
	recorder     *Recorder
	recorderOnce sync.Once
)

// Init registers the collectors and initializes the recorder.
// Must be called once at startup.
func Init(database *db.DB, log *zap.Logger) {
	recorderOnce.Do(func() {
		if log == nil {
			log = zap.NewNop()
		}
		recorder = &Recorder{db: database, log: log}
		prometheus.MustRegister(
			NewContentCollector(database, log),
			draftCommits,
			commitDuration,
			uploads,
			sweptIntents,
		)
	})
}

// RecordPageView asynchronously counts one view of a user's public page.
func RecordPageView(userID uuid.UUID) {
	if recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.db.IncrementPageView(ctx, userID); err != nil {
			recorder.log.Error("failed to record page view", zap.String("user", userID.String()), zap.Error(err))
		}
	}()
}

// ObserveCommit records the outcome of a draft commit.
func ObserveCommit(scope, outcome string, elapsed time.Duration) {
	draftCommits.WithLabelValues(scope, outcome).Inc()
	if outcome != OutcomeNoop {
		commitDuration.WithLabelValues(scope).Observe(elapsed.Seconds())
	}
}

// ObserveUpload records an upload attempt.
func ObserveUpload(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	uploads.WithLabelValues(kind, outcome).Inc()
}

// ObserveSwept records an intent resolved by the sweeper.
func ObserveSwept(action string) {
	sweptIntents.WithLabelValues(action).Inc()
}
