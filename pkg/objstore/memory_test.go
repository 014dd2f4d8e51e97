package objstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreGetMissing(t *testing.T) {
	s := NewMemStore()
	_, _, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreConditionalPut(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	info, err := s.Put(ctx, "doc", []byte("v1"), PutOptions{IfAbsent: true})
	require.NoError(t, err)
	require.NotEmpty(t, info.ETag)

	// create-if-absent fails once the object exists
	_, err = s.Put(ctx, "doc", []byte("v2"), PutOptions{IfAbsent: true})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	// stale ETag fails, current ETag succeeds
	_, err = s.Put(ctx, "doc", []byte("v2"), PutOptions{MatchETag: "stale"})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	info2, err := s.Put(ctx, "doc", []byte("v2"), PutOptions{MatchETag: info.ETag})
	require.NoError(t, err)
	assert.NotEqual(t, info.ETag, info2.ETag)

	data, got, err := s.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
	assert.Equal(t, info2.ETag, got.ETag)
}

func TestMemStorePublicURL(t *testing.T) {
	s := NewMemStore()
	assert.Equal(t, "/images/photos/x.jpg", s.PublicURL("images/photos/x.jpg"))

	s.PublicBase = "https://media.example.com"
	assert.Equal(t, "https://media.example.com/images/photos/x.jpg", s.PublicURL("images/photos/x.jpg"))
}
