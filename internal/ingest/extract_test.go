package ingest

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateFromModTime(t *testing.T) {
	mod := time.Date(2025, time.September, 3, 23, 5, 0, 0, time.Local)
	assert.Equal(t, "2025-09-03", DateFromModTime(mod))

	// single-digit months and days stay zero padded
	mod = time.Date(2024, time.January, 7, 1, 0, 0, 0, time.Local)
	assert.Equal(t, "2024-01-07", DateFromModTime(mod))
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "boss fight", TitleFromFilename("boss_fight.png"))
	assert.Equal(t, "summer trip 03", TitleFromFilename("summer--trip__03.jpg"))
	assert.Equal(t, "Untitled", TitleFromFilename("___.png"))
	assert.Equal(t, "Untitled", TitleFromFilename(".png"))
	assert.Equal(t, "IMG 1234", TitleFromFilename("IMG_1234.jpeg"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "phone-camera", Slugify("Phone Camera"))
	assert.Equal(t, "bobs-game", Slugify("Bob's Game"))
	assert.Equal(t, "", Slugify("  "))
	assert.LessOrEqual(t, len(Slugify("a very long source label that keeps going and going")), 40)
}

func TestMakeID(t *testing.T) {
	assert.Equal(t, "ph-2025-09-01-phone-camera-001", MakeID("photo", "2025-09-01", "Phone Camera", 1))
	assert.Equal(t, "ss-2025-09-03-012", MakeID("screenshot", "2025-09-03", "", 12))
	assert.Equal(t, "ph-unknown-date-001", MakeID("photo", "", "", 1))
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	return path
}

func TestMeasure(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png", 640, 480)

	corrupt := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a png"), 0o644))

	items := []*PendingItem{
		{Path: good, Name: "good.png"},
		{Path: corrupt, Name: "corrupt.png"},
	}

	failed := Measure(context.Background(), items)

	assert.Equal(t, 1, failed)
	assert.Equal(t, 640, items[0].Width)
	assert.Equal(t, 480, items[0].Height)
	assert.Equal(t, "640x480", items[0].Resolution())
	assert.Zero(t, items[1].Width)
	assert.Equal(t, "", items[1].Resolution(), "failed probe leaves resolution empty")
}
