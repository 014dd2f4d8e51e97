package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapvault/pkg/database"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func run(id string, started time.Time) Run {
	return Run{
		ID:         id,
		Kind:       "photo",
		Source:     "Phone Camera",
		Selected:   2,
		Published:  2,
		StartedAt:  started,
		FinishedAt: started.Add(5 * time.Second),
	}
}

func TestInsertAndListRuns(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	base := time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, run("run-1", base), []Item{
		{RunID: "run-1", RecordID: "ph-2025-09-01-001", Title: "early", Date: "2025-09-01", Src: "https://m/a.jpg"},
		{RunID: "run-1", RecordID: "ph-2025-09-01-002", Title: "late", Date: "2025-09-01", Src: "https://m/b.jpg"},
	}))
	require.NoError(t, repo.Insert(ctx, run("run-2", base.Add(time.Hour)), nil))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID, "newest run first")
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, 2, runs[1].Published)
	assert.Empty(t, runs[0].HaltReason)
}

func TestInsertHaltedRun(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	halted := run("run-halt", time.Now().UTC())
	halted.Published = 1
	halted.HaltReason = "authorize second.png: sign refused"
	require.NoError(t, repo.Insert(ctx, halted, []Item{
		{RunID: "run-halt", RecordID: "ph-x-001", Title: "first", Date: "2025-09-01", Src: "https://m/a.jpg"},
	}))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "authorize second.png: sign refused", runs[0].HaltReason)
}

func TestItemsForRun(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	require.NoError(t, repo.Insert(ctx, run("run-1", time.Now().UTC()), []Item{
		{RunID: "run-1", RecordID: "b", Title: "second", Date: "2025-09-02", Src: "https://m/b.jpg"},
		{RunID: "run-1", RecordID: "a", Title: "first", Date: "2025-09-01", Src: "https://m/a.jpg"},
	}))

	items, err := repo.ItemsForRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].RecordID, "ordered by date")

	items, err = repo.ItemsForRun(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInsertDuplicateRunFails(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	r := run("dup", time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, r, nil))
	assert.Error(t, repo.Insert(ctx, r, nil))
}
