package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linkpage/internal/models"
)

// AttachUploadedPhoto records a photo whose object has been stored and
// resolves the put intent that covered the upload, in one transaction.
func (d *DB) AttachUploadedPhoto(ctx context.Context, p *models.Photo, putIntent uuid.UUID) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		if err := InsertPhoto(ctx, tx, p); err != nil {
			return err
		}
		return ResolveIntent(ctx, tx, putIntent, models.IntentDone)
	})
}

// SwapAvatar points the profile at url (nil clears it). When putIntent is
// set it is resolved in the same transaction. If the previous avatar was a
// stored object, a delete intent for it is recorded and returned; the
// caller deletes the object and resolves that intent.
func (d *DB) SwapAvatar(ctx context.Context, userID uuid.UUID, url *string, putIntent *uuid.UUID,
	keyFromURL func(string) (string, bool)) (*models.StorageIntent, error) {
	var released *models.StorageIntent
	err := d.WithTx(ctx, func(tx pgx.Tx) error {
		previous, err := SetAvatarURL(ctx, tx, userID, url)
		if err != nil {
			return err
		}
		if putIntent != nil {
			if err := ResolveIntent(ctx, tx, *putIntent, models.IntentDone); err != nil {
				return err
			}
		}
		if previous == nil || (url != nil && *previous == *url) {
			return nil
		}
		key, ok := keyFromURL(*previous)
		if !ok {
			return nil
		}
		released, err = releaseObject(ctx, tx, userID, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// DeletePhotoReleasing deletes a photo and, when it owns a stored object,
// records the delete intent for that object in the same transaction.
func (d *DB) DeletePhotoReleasing(ctx context.Context, id, userID uuid.UUID) (*models.Photo, *models.StorageIntent, error) {
	var (
		photo    *models.Photo
		released *models.StorageIntent
	)
	err := d.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		photo, err = DeletePhotoTx(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if photo.StorageKey == nil {
			return nil
		}
		released, err = releaseObject(ctx, tx, userID, *photo.StorageKey)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return photo, released, nil
}

func releaseObject(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key string) (*models.StorageIntent, error) {
	id, err := RecordIntent(ctx, tx, userID, key, models.IntentDelete)
	if err != nil {
		return nil, err
	}
	return &models.StorageIntent{
		ID:        id,
		UserID:    userID,
		ObjectKey: key,
		Action:    models.IntentDelete,
		State:     models.IntentPending,
	}, nil
}
