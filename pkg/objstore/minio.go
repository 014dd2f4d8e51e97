package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store against any S3-compatible endpoint via the
// MinIO SDK. It works with Cloudflare R2, MinIO and AWS S3 alike.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStore connects a Store to the bucket described by cfg.
func NewMinioStore(cfg Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: cfg.PublicBaseURL,
	}, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("read %s: %w", key, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}

	return data, ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
	}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) (ObjectInfo, error) {
	po := minio.PutObjectOptions{ContentType: opts.ContentType}
	if opts.MatchETag != "" {
		po.SetMatchETag(opts.MatchETag)
	} else if opts.IfAbsent {
		po.SetMatchETagExcept("*")
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), po)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == http.StatusPreconditionFailed || resp.Code == "PreconditionFailed" {
			return ObjectInfo{}, ErrPreconditionFailed
		}
		return ObjectInfo{}, fmt.Errorf("put %s: %w", key, err)
	}

	return ObjectInfo{Key: key, Size: info.Size, ETag: info.ETag}, nil
}

func (s *MinioStore) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*url.URL, error) {
	// PresignHeader pins Content-Type into the signature, so the credential
	// only authorizes a PUT carrying the declared type.
	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, expiry,
		url.Values{}, http.Header{"Content-Type": []string{contentType}})
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return u, nil
}

func (s *MinioStore) PublicURL(key string) string {
	if s.publicBase == "" {
		return "/" + key
	}
	return s.publicBase + "/" + key
}

func (s *MinioStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}
