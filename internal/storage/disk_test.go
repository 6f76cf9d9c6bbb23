package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_PutDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/media")
	require.NoError(t, err)

	ctx := context.Background()
	key := PhotoKey(uuid.New(), "png")

	require.NoError(t, store.Put(ctx, key, strings.NewReader("png-bytes")))
	assert.True(t, store.Exists(key))

	require.NoError(t, store.Delete(ctx, key))
	assert.False(t, store.Exists(key))

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, key))
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/media")
	require.NoError(t, err)

	for _, key := range []string{"../escape.png", "/abs.png", "a/../../b.png", "", "a/./b.png"} {
		err := store.Put(context.Background(), key, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestDiskStore_URLRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "https://cdn.example.com/media/")
	require.NoError(t, err)

	key := AvatarKey(uuid.New(), "jpg")
	url := store.PublicURL(key)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/media/"))

	got, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = store.KeyFromURL("https://elsewhere.example.com/a.png")
	assert.False(t, ok)
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, CheckSize(MaxPhotoSize, MaxPhotoSize))
	assert.ErrorIs(t, CheckSize(MaxPhotoSize+1, MaxPhotoSize), ErrTooLarge)
	assert.ErrorIs(t, CheckSize(MaxAvatarSize+1, MaxAvatarSize), ErrTooLarge)
}

func TestExtensionFor(t *testing.T) {
	ext, err := ExtensionFor("image/JPEG; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "jpg", ext)

	_, err = ExtensionFor("application/pdf")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestKeys(t *testing.T) {
	user := uuid.New()
	assert.True(t, strings.HasPrefix(PhotoKey(user, "png"), user.String()+"/"))
	assert.True(t, strings.HasPrefix(AvatarKey(user, "png"), user.String()+"/avatars/avatar-"))
	assert.True(t, ValidKey(AvatarKey(user, "png")))
}
