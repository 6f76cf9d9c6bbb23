// Package media runs the upload and removal workflows for photos and
// avatars. Every object write is logged as a storage intent first, so a
// crash between the object store and the database leaves a trail the
// sweeper can finish.
package media

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkpage/internal/metrics"
	"linkpage/internal/models"
	"linkpage/internal/storage"
)

// Upload kinds, used as metric labels.
const (
	KindPhoto  = "photo"
	KindAvatar = "avatar"
)

// Store is the database side of the workflows.
type Store interface {
	RecordIntent(ctx context.Context, userID uuid.UUID, key, action string) (uuid.UUID, error)
	ResolveIntent(ctx context.Context, id uuid.UUID, state string) error
	AttachUploadedPhoto(ctx context.Context, p *models.Photo, putIntent uuid.UUID) error
	SwapAvatar(ctx context.Context, userID uuid.UUID, url *string, putIntent *uuid.UUID,
		keyFromURL func(string) (string, bool)) (*models.StorageIntent, error)
	DeletePhotoReleasing(ctx context.Context, id, userID uuid.UUID) (*models.Photo, *models.StorageIntent, error)
}

// Upload is one file received from a client.
type Upload struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

type Service struct {
	store   Store
	objects storage.Store
	log     *zap.Logger
}

func NewService(store Store, objects storage.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, objects: objects, log: log.Named("media")}
}

// UploadPhoto stores a photo and records it in the user's library.
func (s *Service) UploadPhoto(ctx context.Context, userID uuid.UUID, up Upload, caption string) (photo *models.Photo, err error) {
	defer func() { metrics.ObserveUpload(KindPhoto, err) }()

	key, putIntent, err := s.put(ctx, userID, up, storage.MaxPhotoSize, storage.PhotoKey)
	if err != nil {
		return nil, err
	}

	photo = &models.Photo{
		UserID:     userID,
		URL:        s.objects.PublicURL(key),
		Caption:    caption,
		StorageKey: &key,
	}
	if err := s.store.AttachUploadedPhoto(ctx, photo, putIntent); err != nil {
		s.log.Warn("photo stored but not recorded", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("record photo: %w", err)
	}
	return photo, nil
}

// ReplaceAvatar stores a new avatar, points the profile at it and removes
// the previous avatar object.
func (s *Service) ReplaceAvatar(ctx context.Context, userID uuid.UUID, up Upload) (url string, err error) {
	defer func() { metrics.ObserveUpload(KindAvatar, err) }()

	key, putIntent, err := s.put(ctx, userID, up, storage.MaxAvatarSize, storage.AvatarKey)
	if err != nil {
		return "", err
	}

	url = s.objects.PublicURL(key)
	released, err := s.store.SwapAvatar(ctx, userID, &url, &putIntent, s.objects.KeyFromURL)
	if err != nil {
		s.log.Warn("avatar stored but not recorded", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("set avatar: %w", err)
	}
	s.release(ctx, released)
	return url, nil
}

// RemoveAvatar clears the avatar and removes its object.
func (s *Service) RemoveAvatar(ctx context.Context, userID uuid.UUID) error {
	released, err := s.store.SwapAvatar(ctx, userID, nil, nil, s.objects.KeyFromURL)
	if err != nil {
		return fmt.Errorf("clear avatar: %w", err)
	}
	s.release(ctx, released)
	return nil
}

// DeletePhoto removes a photo, its section memberships and its object.
func (s *Service) DeletePhoto(ctx context.Context, id, userID uuid.UUID) error {
	_, released, err := s.store.DeletePhotoReleasing(ctx, id, userID)
	if err != nil {
		return err
	}
	s.release(ctx, released)
	return nil
}

func (s *Service) put(ctx context.Context, userID uuid.UUID, up Upload, limit int64,
	keyFor func(uuid.UUID, string) string) (string, uuid.UUID, error) {
	if err := storage.CheckSize(up.Size, limit); err != nil {
		return "", uuid.Nil, err
	}
	ext, err := storage.ExtensionFor(up.ContentType)
	if err != nil {
		return "", uuid.Nil, err
	}

	key := keyFor(userID, ext)
	intent, err := s.store.RecordIntent(ctx, userID, key, models.IntentPut)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("record put intent: %w", err)
	}

	body := &limitedReader{r: up.Body, left: limit}
	if err := s.objects.Put(ctx, key, body); err != nil {
		// The intent stays pending; the sweeper removes whatever was written.
		return "", uuid.Nil, fmt.Errorf("store object: %w", err)
	}
	return key, intent, nil
}

// release deletes an object whose row is already gone. Failures leave the
// intent pending for the sweeper and are not reported to the caller.
func (s *Service) release(ctx context.Context, intent *models.StorageIntent) {
	if intent == nil {
		return
	}
	if err := s.objects.Delete(ctx, intent.ObjectKey); err != nil {
		s.log.Warn("failed to delete object", zap.String("key", intent.ObjectKey), zap.Error(err))
		return
	}
	if err := s.store.ResolveIntent(ctx, intent.ID, models.IntentDone); err != nil {
		s.log.Warn("failed to resolve delete intent", zap.String("intent", intent.ID.String()), zap.Error(err))
	}
}

// limitedReader fails once more than left bytes are read, so a client
// that under-reports its size cannot exceed the limit.
type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, storage.ErrTooLarge
	}
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, storage.ErrTooLarge
	}
	return n, err
}
