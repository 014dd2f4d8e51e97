package signer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"snapvault/pkg/models"
	"snapvault/pkg/objstore"
)

// SignedURLTTL is how long an issued write credential stays valid. Minutes,
// not hours: the credential covers exactly one upload attempt.
const SignedURLTTL = 5 * time.Minute

// ErrUnsupportedContentType is returned for content types outside the image
// allow-list. Handlers map it to a client error.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// extByContentType maps allowed image MIME types to the canonical extension.
// The content type wins over whatever extension the filename carries.
var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

var (
	unsafeRunes = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	dashRuns    = regexp.MustCompile(`-+`)
	imageExt    = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif|avif)$`)
)

// AllowedContentType reports whether ct is on the image allow-list.
func AllowedContentType(ct string) bool {
	_, ok := extByContentType[strings.ToLower(strings.TrimSpace(ct))]
	return ok
}

// SanitizeFilename reduces a user-supplied filename to a restricted
// character set safe for storage keys and URLs, capped at 120 runes.
func SanitizeFilename(name string) string {
	s := strings.TrimSpace(name)
	s = unsafeRunes.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 120 {
		s = s[:120]
	}
	if s == "" {
		return "image"
	}
	return s
}

// DetectExt picks the object extension: the content type decides when it is
// a known image type, otherwise the original filename's extension, otherwise
// ".jpg".
func DetectExt(contentType, fallbackName string) string {
	if ext, ok := extByContentType[strings.ToLower(contentType)]; ok {
		return ext
	}
	m := imageExt.FindString(strings.ToLower(fallbackName))
	if m == "" {
		return ".jpg"
	}
	if m == ".jpeg" {
		return ".jpg"
	}
	return m
}

// KeyFolder maps a record kind to the key prefix segment. Anything that is
// not a screenshot counts as a photo, matching the record kinds.
func KeyFolder(kind string) string {
	if kind == models.KindScreenshot {
		return "screenshots"
	}
	return "photos"
}

// BuildKey constructs the canonical object key:
//
//	images/{photos|screenshots}/YYYY/MM/{disambiguator}_{sanitized}{ext}
//
// The disambiguator keeps unrelated uploads of identically named files from
// colliding on the object layer.
func BuildKey(kind, filename, contentType, disambiguator string, now time.Time) string {
	now = now.UTC()

	safe := SanitizeFilename(filename)
	ext := DetectExt(contentType, safe)
	base := imageExt.ReplaceAllString(safe, "")

	return fmt.Sprintf("images/%s/%04d/%02d/%s_%s%s",
		KeyFolder(kind), now.Year(), int(now.Month()), disambiguator, base, ext)
}

// Grant is one issued upload authorization.
type Grant struct {
	Key         string `json:"key"`
	UploadURL   string `json:"uploadUrl"`
	PublicURL   string `json:"publicUrl"`
	Kind        string `json:"type"`
	Source      string `json:"source"`
	ContentType string `json:"contentType"`
}

// Signer issues single-purpose write credentials for the content store.
// It keeps no state between calls.
type Signer struct {
	Store objstore.Store
}

func New(store objstore.Store) *Signer {
	return &Signer{Store: store}
}

// Authorize validates the declared content type, computes the storage key
// and returns a short-lived presigned PUT URL plus the public read locator
// for the same key.
func (s *Signer) Authorize(ctx context.Context, kind, source, filename, contentType string) (Grant, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if !AllowedContentType(ct) {
		return Grant{}, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	if kind != models.KindScreenshot {
		kind = models.KindPhoto
	}

	key := BuildKey(kind, filename, ct, uuid.NewString(), time.Now())

	uploadURL, err := s.Store.PresignPut(ctx, key, ct, SignedURLTTL)
	if err != nil {
		return Grant{}, fmt.Errorf("presign upload: %w", err)
	}

	return Grant{
		Key:         key,
		UploadURL:   uploadURL.String(),
		PublicURL:   s.Store.PublicURL(key),
		Kind:        kind,
		Source:      source,
		ContentType: ct,
	}, nil
}
