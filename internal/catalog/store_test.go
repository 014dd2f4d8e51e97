package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapvault/pkg/models"
	"snapvault/pkg/objstore"
)

func record(id, date string) models.CatalogRecord {
	return models.CatalogRecord{
		ID:   id,
		Kind: models.KindPhoto,
		Date: date,
		Src:  "https://media.example.com/images/photos/" + id + ".jpg",
	}
}

func TestReadAllMissingDocument(t *testing.T) {
	s := NewStore(objstore.NewMemStore(), "catalog.json")

	items := s.ReadAll(context.Background())
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestReadAllUnparsableDocument(t *testing.T) {
	mem := objstore.NewMemStore()
	_, err := mem.Put(context.Background(), "catalog.json", []byte("{not json"), objstore.PutOptions{})
	require.NoError(t, err)

	s := NewStore(mem, "catalog.json")
	assert.Empty(t, s.ReadAll(context.Background()))
}

func TestUpsertCreatesCatalogAndSortsDescending(t *testing.T) {
	ctx := context.Background()
	s := NewStore(objstore.NewMemStore(), "catalog.json")

	_, total, err := s.Upsert(ctx, record("a", "2025-09-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = s.Upsert(ctx, record("b", "2025-09-03"))
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	items := s.ReadAll(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID) // 2025-09-03 first
	assert.Equal(t, "a", items[1].ID)
}

func TestUpsertReplacesById(t *testing.T) {
	ctx := context.Background()
	s := NewStore(objstore.NewMemStore(), "catalog.json")

	_, _, err := s.Upsert(ctx, record("a", "2025-09-01"))
	require.NoError(t, err)

	updated := record("a", "2025-09-01")
	updated.Src = "https://media.example.com/images/photos/a-v2.jpg"
	_, total, err := s.Upsert(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "colliding id must replace, not append")

	items := s.ReadAll(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "https://media.example.com/images/photos/a-v2.jpg", items[0].Src)
}

func TestUpsertIdempotentResubmission(t *testing.T) {
	ctx := context.Background()
	s := NewStore(objstore.NewMemStore(), "catalog.json")

	rec := record("same", "2025-05-05")
	_, first, err := s.Upsert(ctx, rec)
	require.NoError(t, err)
	_, second, err := s.Upsert(ctx, rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestUpsertMissingDatesSortLast(t *testing.T) {
	ctx := context.Background()
	s := NewStore(objstore.NewMemStore(), "catalog.json")

	_, _, err := s.Upsert(ctx, record("undated-1", ""))
	require.NoError(t, err)
	_, _, err = s.Upsert(ctx, record("dated", "2020-01-01"))
	require.NoError(t, err)
	_, _, err = s.Upsert(ctx, record("undated-2", ""))
	require.NoError(t, err)

	items := s.ReadAll(ctx)
	require.Len(t, items, 3)
	assert.Equal(t, "dated", items[0].ID)
	// missing dates are treated as earliest and stay order-stable
	assert.Equal(t, "undated-1", items[1].ID)
	assert.Equal(t, "undated-2", items[2].ID)
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(objstore.NewMemStore(), "catalog.json")

	_, _, err := s.Upsert(ctx, models.CatalogRecord{Kind: models.KindPhoto, Src: "x"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, _, err = s.Upsert(ctx, models.CatalogRecord{ID: "a", Kind: "video", Src: "x"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, _, err = s.Upsert(ctx, models.CatalogRecord{ID: "a", Kind: models.KindPhoto})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestCleanDefaults(t *testing.T) {
	rec, err := Clean(models.CatalogRecord{
		ID:   "a",
		Kind: models.KindScreenshot,
		Date: "2023-07-09",
		Src:  "https://m/x.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://m/x.png", rec.Thumb, "thumb defaults to src")
	assert.Equal(t, 2023, rec.Year, "year derives from the date prefix")
}

func TestDeriveYear(t *testing.T) {
	now := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 2025, DeriveYear("2025-09-01", now))
	assert.Equal(t, 1999, DeriveYear("1999-12-31", now))
	assert.Equal(t, 2026, DeriveYear("", now))
	assert.Equal(t, 2026, DeriveYear("bad", now))
}

// conflictingStore fails the first conditional write, as if another writer
// landed in between, then behaves normally.
type conflictingStore struct {
	*objstore.MemStore
	conflicts int
}

func (c *conflictingStore) Put(ctx context.Context, key string, data []byte, opts objstore.PutOptions) (objstore.ObjectInfo, error) {
	if c.conflicts > 0 && (opts.MatchETag != "" || opts.IfAbsent) {
		c.conflicts--
		// simulate the other writer's record landing first
		other, _ := json.Marshal(models.Catalog{Items: []models.CatalogRecord{
			{ID: "other", Kind: models.KindPhoto, Date: "2024-01-01", Year: 2024, Src: "https://m/other.jpg", Thumb: "https://m/other.jpg"},
		}})
		_, err := c.MemStore.Put(ctx, key, other, objstore.PutOptions{ContentType: "application/json"})
		if err != nil {
			return objstore.ObjectInfo{}, err
		}
		return objstore.ObjectInfo{}, objstore.ErrPreconditionFailed
	}
	return c.MemStore.Put(ctx, key, data, opts)
}

func TestUpsertRetriesOnConflictAndKeepsBothRecords(t *testing.T) {
	ctx := context.Background()
	cs := &conflictingStore{MemStore: objstore.NewMemStore(), conflicts: 1}
	s := NewStore(cs, "catalog.json")

	_, total, err := s.Upsert(ctx, record("mine", "2025-03-03"))
	require.NoError(t, err)
	assert.Equal(t, 2, total, "the concurrent writer's record must survive the merge")

	items := s.ReadAll(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "mine", items[0].ID)
	assert.Equal(t, "other", items[1].ID)
}

func TestUpsertGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	cs := &conflictingStore{MemStore: objstore.NewMemStore(), conflicts: 100}
	s := NewStore(cs, "catalog.json")

	_, _, err := s.Upsert(ctx, record("mine", "2025-03-03"))
	assert.ErrorIs(t, err, ErrTooManyConflicts)
}
