// Package storage holds uploaded binary assets (photos and avatars) and
// maps them to public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Upload size limits, checked before any bytes are written.
const (
	MaxPhotoSize  int64 = 5 << 20
	MaxAvatarSize int64 = 2 << 20
)

var (
	ErrTooLarge       = errors.New("file exceeds the maximum upload size")
	ErrUnsupported    = errors.New("unsupported image type")
	ErrInvalidKey     = errors.New("invalid object key")
	ErrObjectNotFound = errors.New("object not found")
)

// Store is an object store addressed by slash-separated keys.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	// KeyFromURL reverses PublicURL. ok is false for URLs this store did
	// not produce.
	KeyFromURL(url string) (key string, ok bool)
}

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ExtensionFor returns the file extension for an image content type.
func ExtensionFor(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageExtensions[ct]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, contentType)
	}
	return ext, nil
}

// CheckSize rejects uploads above limit.
func CheckSize(size, limit int64) error {
	if size > limit {
		return fmt.Errorf("%w (%d bytes, limit %d)", ErrTooLarge, size, limit)
	}
	return nil
}

// PhotoKey returns a fresh key for a user's photo.
func PhotoKey(userID uuid.UUID, ext string) string {
	return path.Join(userID.String(), uuid.NewString()+"."+ext)
}

// AvatarKey returns a fresh key for a user's avatar.
func AvatarKey(userID uuid.UUID, ext string) string {
	return path.Join(userID.String(), "avatars", "avatar-"+uuid.NewString()+"."+ext)
}

// ValidKey reports whether key is a clean relative path.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	if path.Clean(key) != key {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return false
		}
	}
	return true
}
