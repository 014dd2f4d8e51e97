package ingest

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	// Dimension probing only needs the config decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"snapvault/pkg/models"
)

// measureConcurrency bounds the dimension fan-out; probing is read-only, so
// this is the single place batch work runs in parallel.
const measureConcurrency = 4

var (
	separatorRuns = regexp.MustCompile(`[_-]+`)
	nonSlugRunes  = regexp.MustCompile(`[^a-z0-9]+`)
)

// DateFromModTime renders a file's last-modified timestamp as a zero-padded
// ISO day. Best effort: phone photos and screenshots carry a meaningful
// mtime, downloads may not.
func DateFromModTime(mod time.Time) string {
	return mod.Format("2006-01-02")
}

// TitleFromFilename derives a display title: extension stripped, runs of
// underscores and dashes collapsed to single spaces, trimmed; "Untitled"
// when nothing is left.
func TitleFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	title := strings.TrimSpace(separatorRuns.ReplaceAllString(base, " "))
	if title == "" {
		return "Untitled"
	}
	return title
}

// Slugify lowercases s and reduces it to dash-separated alphanumerics,
// capped at 40 runes. Empty input slugs to "".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, `"`, "")
	s = nonSlugRunes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = strings.Trim(s[:40], "-")
	}
	return s
}

// MakeID builds the stable record identity for one item of a batch:
//
//	ph|ss-<date>[-<source-slug>]-NNN
//
// Re-ingesting the same files with the same source yields the same ids,
// which is what turns resubmission into an update instead of a duplicate.
func MakeID(kind, date, source string, seq int) string {
	prefix := "ph"
	if kind == models.KindScreenshot {
		prefix = "ss"
	}
	if date == "" {
		date = "unknown-date"
	}
	if slug := Slugify(source); slug != "" {
		return fmt.Sprintf("%s-%s-%s-%03d", prefix, date, slug, seq)
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, date, seq)
}

// Measure probes pixel dimensions for all items concurrently. A file that
// fails to decode keeps zero dimensions and the batch proceeds; the count of
// failed probes is returned for the status line.
func Measure(ctx context.Context, items []*PendingItem) int {
	var g errgroup.Group
	g.SetLimit(measureConcurrency)

	failed := make([]bool, len(items))
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			if ctx.Err() != nil {
				failed[i] = true
				return nil
			}
			w, h, err := probeDimensions(it.Path)
			if err != nil {
				failed[i] = true
				return nil
			}
			it.Width, it.Height = w, h
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	return n
}

// probeDimensions decodes just the image header. A separate read handle is
// used so probing never disturbs the item's held byte stream.
func probeDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(io.LimitReader(f, 1<<20))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
