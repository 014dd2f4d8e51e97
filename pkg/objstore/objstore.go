package objstore

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// Package objstore wraps the S3-compatible content store (Cloudflare R2,
// MinIO, AWS S3). All access to objects goes through the Store interface so
// handlers and tests never touch the SDK directly.

var (
	// ErrNotFound is returned by Get when no object exists at the key.
	ErrNotFound = errors.New("objstore: object not found")
	// ErrPreconditionFailed is returned by Put when an ETag condition in
	// PutOptions did not hold. Callers re-read and retry.
	ErrPreconditionFailed = errors.New("objstore: precondition failed")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// PutOptions control a single object write.
//
// MatchETag and IfAbsent make the write conditional: MatchETag requires the
// current object version to carry that ETag, IfAbsent requires that no
// object exists at the key yet. At most one of the two may be set.
type PutOptions struct {
	ContentType string
	MatchETag   string
	IfAbsent    bool
}

// Store is the narrow object-storage surface the rest of the code uses.
type Store interface {
	// Get reads the whole object at key.
	Get(ctx context.Context, key string) ([]byte, ObjectInfo, error)
	// Put writes data to key, honoring any conditions in opts.
	Put(ctx context.Context, key string, data []byte, opts PutOptions) (ObjectInfo, error)
	// PresignPut issues a short-lived write-only URL for key, pinned to
	// contentType.
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*url.URL, error)
	// PublicURL builds the browser-facing read locator for key. When no
	// public base is configured it returns "/"+key, which callers must
	// treat as not yet servable.
	PublicURL(key string) string
	// Ping verifies the backing bucket is reachable.
	Ping(ctx context.Context) error
}
