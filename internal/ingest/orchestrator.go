package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"snapvault/internal/catalog"
	"snapvault/pkg/models"
)

// contentTypeForExt declares the upload type per file extension; the
// authorizer re-checks it against the allow-list server-side.
var contentTypeForExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".avif": "image/avif",
}

// Report is the final outcome of one batch: everything durably published
// plus, for a halted batch, where and why it stopped. Published items stay
// in the catalog either way; there is no rollback.
type Report struct {
	Kind       string
	Source     string
	Selected   int
	Published  []models.CatalogRecord
	Halted     bool
	HaltFile   string
	HaltStage  string
	HaltReason string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Orchestrator drives one batch at a time through extract → sign → upload →
// publish. Storage-mutating calls run strictly in sequence; only dimension
// probing fans out.
type Orchestrator struct {
	API    *Client
	Status func(string) // invoked at every suspension boundary; may be nil

	kind   string
	source string
	items  []*PendingItem
}

func NewOrchestrator(api *Client) *Orchestrator {
	return &Orchestrator{API: api}
}

func (o *Orchestrator) setStatus(msg string) {
	if o.Status != nil {
		o.Status(msg)
	}
}

// Select builds the pending batch from local paths, discarding any previous
// selection first. Files are stat'ed, opened and dimension-probed here;
// nothing touches the network yet. A path with an extension outside the
// image set is rejected immediately, before any side effect.
func (o *Orchestrator) Select(ctx context.Context, paths []string, kind, source string) error {
	o.Reset()

	if kind != models.KindScreenshot {
		kind = models.KindPhoto
	}
	source = strings.TrimSpace(source)
	if source == "" {
		if kind == models.KindScreenshot {
			source = "Game"
		} else {
			source = "Phone Camera"
		}
	}
	o.kind = kind
	o.source = source

	for _, path := range paths {
		name := filepath.Base(path)
		ct, ok := contentTypeForExt[strings.ToLower(filepath.Ext(name))]
		if !ok {
			o.Reset()
			return fmt.Errorf("%s: not a supported image type", name)
		}

		f, err := os.Open(path)
		if err != nil {
			o.Reset()
			return fmt.Errorf("open %s: %w", name, err)
		}
		fi, err := f.Stat()
		if err != nil {
			_ = f.Close()
			o.Reset()
			return fmt.Errorf("stat %s: %w", name, err)
		}

		o.items = append(o.items, &PendingItem{
			Path:        path,
			Name:        name,
			ContentType: ct,
			Size:        fi.Size(),
			Date:        DateFromModTime(fi.ModTime()),
			file:        f,
		})
	}

	if len(o.items) == 0 {
		return fmt.Errorf("no files selected")
	}

	// Read-only fan-out; per-file failures degrade to missing resolution.
	if failed := Measure(ctx, o.items); failed > 0 {
		o.setStatus(fmt.Sprintf("Loaded %d images (%d without dimensions).", len(o.items), failed))
	} else {
		o.setStatus(fmt.Sprintf("Loaded %d images.", len(o.items)))
	}
	return nil
}

// Reset discards the current batch and releases every held byte stream.
func (o *Orchestrator) Reset() {
	for _, it := range o.items {
		it.Release()
	}
	o.items = nil
}

// Run publishes the selected batch: items are ordered by (date, filename)
// ascending for reproducible output, then each one is signed, uploaded and
// upserted in sequence. The first failing item halts the batch; records
// already published stay published.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if len(o.items) == 0 {
		return nil, fmt.Errorf("no files selected")
	}
	defer o.Reset()

	items := make([]*PendingItem, len(o.items))
	copy(items, o.items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].Name < items[j].Name
	})

	report := &Report{
		Kind:      o.kind,
		Source:    o.source,
		Selected:  len(items),
		StartedAt: time.Now().UTC(),
	}

	for i, it := range items {
		seq := i + 1

		o.setStatus(fmt.Sprintf("Signing %s (%d/%d)...", it.Name, seq, len(items)))
		grant, err := o.API.Sign(ctx, o.kind, o.source, it.Name, it.ContentType)
		if err != nil {
			return o.halt(report, it, "authorize", err)
		}

		o.setStatus(fmt.Sprintf("Uploading %s (%d/%d)...", it.Name, seq, len(items)))
		stream, err := it.Stream()
		if err != nil {
			return o.halt(report, it, "upload", err)
		}
		if err := PutObject(ctx, o.API.HTTP, grant.UploadURL, grant.ContentType, stream, it.Size); err != nil {
			return o.halt(report, it, "upload", err)
		}

		rec := models.CatalogRecord{
			ID:         MakeID(o.kind, it.Date, o.source, seq),
			Kind:       o.kind,
			Title:      TitleFromFilename(it.Name),
			Date:       it.Date,
			Year:       catalog.DeriveYear(it.Date, time.Now()),
			Source:     o.source,
			Resolution: it.Resolution(),
			Thumb:      grant.PublicURL,
			Src:        grant.PublicURL,
		}

		o.setStatus(fmt.Sprintf("Publishing %s (%d/%d)...", it.Name, seq, len(items)))
		saved, count, err := o.API.Publish(ctx, rec)
		if err != nil {
			return o.halt(report, it, "publish", err)
		}

		report.Published = append(report.Published, saved)
		o.setStatus(fmt.Sprintf("Published %s (catalog now %d items).", it.Name, count))
	}

	report.FinishedAt = time.Now().UTC()
	o.setStatus(fmt.Sprintf("Done: published %d of %d items.", len(report.Published), len(items)))
	return report, nil
}

// halt finalizes a failed batch. Everything published before this item
// remains committed; the report names the file and the underlying cause.
func (o *Orchestrator) halt(report *Report, it *PendingItem, stage string, cause error) (*Report, error) {
	report.Halted = true
	report.HaltFile = it.Name
	report.HaltStage = stage
	report.HaltReason = cause.Error()
	report.FinishedAt = time.Now().UTC()

	o.setStatus(fmt.Sprintf("Halted at %s (%s): %v", it.Name, stage, cause))
	return report, fmt.Errorf("%s %s: %w", stage, it.Name, cause)
}
