package objstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// MemStore is an in-memory Store with real ETag and precondition semantics.
// It backs the tests and any wiring that needs a content store without
// credentials; production always talks to MinioStore.
type MemStore struct {
	mu      sync.Mutex
	objects map[string]memObject

	// PresignBase is the URL prefix presigned PUTs point at. Tests set it
	// to an httptest server.
	PresignBase string
	// PublicBase mirrors the configured public read base.
	PublicBase string
}

type memObject struct {
	data        []byte
	etag        string
	contentType string
	modified    time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]memObject)}
}

func (s *MemStore) Get(ctx context.Context, key string) ([]byte, ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, ObjectInfo{}, ErrNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ETag:         obj.etag,
		LastModified: obj.modified,
	}, nil
}

func (s *MemStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) (ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.objects[key]
	if opts.MatchETag != "" && (!exists || current.etag != opts.MatchETag) {
		return ObjectInfo{}, ErrPreconditionFailed
	}
	if opts.IfAbsent && exists {
		return ObjectInfo{}, ErrPreconditionFailed
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	sum := md5.Sum(stored)
	obj := memObject{
		data:        stored,
		etag:        hex.EncodeToString(sum[:]),
		contentType: opts.ContentType,
		modified:    time.Now().UTC(),
	}
	s.objects[key] = obj

	return ObjectInfo{Key: key, Size: int64(len(stored)), ETag: obj.etag}, nil
}

func (s *MemStore) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*url.URL, error) {
	base := s.PresignBase
	if base == "" {
		base = "https://signed.example"
	}
	return url.Parse(fmt.Sprintf("%s/%s?X-Expires=%d", base, key, int(expiry.Seconds())))
}

func (s *MemStore) PublicURL(key string) string {
	if s.PublicBase == "" {
		return "/" + key
	}
	return s.PublicBase + "/" + key
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

// Len reports the number of stored objects.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
