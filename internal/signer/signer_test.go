package signer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapvault/pkg/objstore"
)

func TestAllowedContentType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif", "image/avif"} {
		assert.True(t, AllowedContentType(ct), ct)
	}
	assert.True(t, AllowedContentType(" IMAGE/PNG "))

	for _, ct := range []string{"application/pdf", "text/html", "image/svg+xml", ""} {
		assert.False(t, AllowedContentType(ct), ct)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "My-Photo-.heic", SanitizeFilename("My Photo!!.heic"))
	assert.Equal(t, "image", SanitizeFilename(""))
	assert.Equal(t, "image", SanitizeFilename("!!!"))
	assert.Equal(t, "a_b-c.png", SanitizeFilename("a_b-c.png"))

	long := strings.Repeat("x", 200)
	assert.Len(t, SanitizeFilename(long), 120)
}

func TestDetectExt(t *testing.T) {
	// content type wins
	assert.Equal(t, ".png", DetectExt("image/png", "photo.jpg"))
	assert.Equal(t, ".jpg", DetectExt("image/jpeg", "photo.png"))
	// fallback to the filename
	assert.Equal(t, ".webp", DetectExt("", "photo.webp"))
	assert.Equal(t, ".jpg", DetectExt("", "photo.jpeg"))
	// nothing usable
	assert.Equal(t, ".jpg", DetectExt("", "photo"))
}

func TestBuildKey(t *testing.T) {
	now := time.Date(2025, time.September, 3, 12, 0, 0, 0, time.UTC)

	// content type decides the final extension; an unrecognized original
	// extension is kept as part of the base name
	key := BuildKey("photo", "My Photo!!.heic", "image/png", "abc123", now)
	assert.Equal(t, "images/photos/2025/09/abc123_My-Photo-.heic.png", key)
	assert.NotContains(t, key, "!")
	assert.NotContains(t, key, " ")
	assert.True(t, strings.HasSuffix(key, ".png"))

	key = BuildKey("screenshot", "boss_fight.png", "image/png", "d1", now)
	assert.Equal(t, "images/screenshots/2025/09/d1_boss_fight.png", key)
}

func TestAuthorize(t *testing.T) {
	store := objstore.NewMemStore()
	store.PublicBase = "https://media.example.com"
	s := New(store)

	grant, err := s.Authorize(context.Background(), "photo", "Phone Camera", "holiday.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(grant.Key, "images/photos/"))
	assert.True(t, strings.HasSuffix(grant.Key, ".jpg"))
	assert.Equal(t, "https://media.example.com/"+grant.Key, grant.PublicURL)
	assert.NotEmpty(t, grant.UploadURL)
	assert.Equal(t, "photo", grant.Kind)
	assert.Equal(t, "image/jpeg", grant.ContentType)

	// unknown kinds collapse to photo
	grant, err = s.Authorize(context.Background(), "banana", "", "x.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "photo", grant.Kind)

	_, err = s.Authorize(context.Background(), "photo", "", "doc.pdf", "application/pdf")
	require.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestAuthorizeKeysDoNotCollide(t *testing.T) {
	s := New(objstore.NewMemStore())

	a, err := s.Authorize(context.Background(), "photo", "", "same.jpg", "image/jpeg")
	require.NoError(t, err)
	b, err := s.Authorize(context.Background(), "photo", "", "same.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
}
