package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"snapvault/pkg/models"
	"snapvault/pkg/objstore"
)

// ErrInvalidRecord marks records rejected by validation before any write.
var ErrInvalidRecord = errors.New("invalid record")

// ErrTooManyConflicts is returned when the conditional write keeps losing
// against concurrent writers.
var ErrTooManyConflicts = errors.New("catalog upsert: too many concurrent writers")

const maxUpsertAttempts = 4

// Store holds the shared catalog: one JSON document at a well-known key in
// the content store, read in full before every mutation and rewritten in
// full after it.
//
// Mutations go through an ETag check-and-retry loop, so two writers going
// through this Store cannot silently drop each other's records. Writers that
// bypass the API and overwrite the document directly still win by
// last-write, which the gallery tolerates.
type Store struct {
	Objects objstore.Store
	Key     string
}

func NewStore(objects objstore.Store, key string) *Store {
	if key == "" {
		key = "catalog.json"
	}
	return &Store{Objects: objects, Key: key}
}

// ReadAll returns the current record sequence. An absent or unparsable
// document reads as empty: the catalog is allowed to not exist yet, and the
// gallery must never see an error from this path.
func (s *Store) ReadAll(ctx context.Context) []models.CatalogRecord {
	items, _, found, err := s.read(ctx)
	if err != nil || !found {
		return []models.CatalogRecord{}
	}
	return items
}

// Upsert validates the record, replaces the existing record with the same id
// (or appends), resorts the sequence newest-first and rewrites the document.
// Returns the stored record and the resulting total count.
func (s *Store) Upsert(ctx context.Context, rec models.CatalogRecord) (models.CatalogRecord, int, error) {
	cleaned, err := Clean(rec)
	if err != nil {
		return models.CatalogRecord{}, 0, err
	}

	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		items, etag, found, err := s.read(ctx)
		if err != nil {
			return models.CatalogRecord{}, 0, fmt.Errorf("read catalog: %w", err)
		}

		replaced := false
		for i := range items {
			if items[i].ID == cleaned.ID {
				items[i] = cleaned
				replaced = true
				break
			}
		}
		if !replaced {
			items = append(items, cleaned)
		}
		SortRecords(items)

		body, err := json.Marshal(models.Catalog{Items: items})
		if err != nil {
			return models.CatalogRecord{}, 0, fmt.Errorf("marshal catalog: %w", err)
		}

		opts := objstore.PutOptions{ContentType: "application/json"}
		if found {
			opts.MatchETag = etag
		} else {
			opts.IfAbsent = true
		}

		_, err = s.Objects.Put(ctx, s.Key, body, opts)
		if errors.Is(err, objstore.ErrPreconditionFailed) {
			// lost the race; re-read and re-merge
			continue
		}
		if err != nil {
			return models.CatalogRecord{}, 0, fmt.Errorf("write catalog: %w", err)
		}
		return cleaned, len(items), nil
	}

	return models.CatalogRecord{}, 0, ErrTooManyConflicts
}

// read fetches and decodes the document, reporting whether it exists along
// with the ETag needed for a conditional rewrite. A document that exists but
// does not parse counts as present-and-empty, so the next write replaces it.
func (s *Store) read(ctx context.Context) ([]models.CatalogRecord, string, bool, error) {
	data, info, err := s.Objects.Get(ctx, s.Key)
	if errors.Is(err, objstore.ErrNotFound) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}

	var doc models.Catalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return []models.CatalogRecord{}, info.ETag, true, nil
	}
	if doc.Items == nil {
		doc.Items = []models.CatalogRecord{}
	}
	return doc.Items, info.ETag, true, nil
}

// SortRecords orders records by capture date descending, newest first.
// Records with equal or missing dates keep their relative order.
func SortRecords(items []models.CatalogRecord) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})
}

// Clean validates and normalizes one record before a write: id and src are
// mandatory, kind must be a known variant, thumb defaults to src, and year
// falls back to the date prefix and then to the current year.
func Clean(rec models.CatalogRecord) (models.CatalogRecord, error) {
	if rec.ID == "" {
		return rec, fmt.Errorf("%w: id is required", ErrInvalidRecord)
	}
	if !models.ValidKind(rec.Kind) {
		return rec, fmt.Errorf("%w: type must be photo|screenshot", ErrInvalidRecord)
	}
	if rec.Src == "" {
		return rec, fmt.Errorf("%w: src is required", ErrInvalidRecord)
	}
	if rec.Thumb == "" {
		rec.Thumb = rec.Src
	}
	if rec.Year == 0 {
		rec.Year = DeriveYear(rec.Date, time.Now())
	}
	return rec, nil
}

// DeriveYear parses the leading "YYYY" of an ISO date, falling back to the
// current year. The fallback is a display approximation, nothing more.
func DeriveYear(date string, now time.Time) int {
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil && y > 0 {
			return y
		}
	}
	return now.UTC().Year()
}
