package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"snapvault/internal/ingest"
)

func main() {
	_ = godotenv.Load()

	var (
		baseURL = flag.String("api", "http://localhost:8080", "API base URL")
		out     = flag.String("out", "data/catalog.csv", "output CSV path")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := exportCatalog(ctx, *baseURL, *out); err != nil {
		log.Fatalf("export catalog failed: %v", err)
	}

	log.Printf("✅ exported catalog to %s", *out)
}

func exportCatalog(ctx context.Context, baseURL, outPath string) error {
	client := ingest.NewClient(baseURL, "")
	items, err := client.Fetch(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "type", "title", "date", "year", "source", "location", "resolution", "tags", "thumb", "src"}); err != nil {
		return err
	}

	for _, rec := range items {
		row := []string{
			rec.ID,
			rec.Kind,
			rec.Title,
			rec.Date,
			strconv.Itoa(rec.Year),
			rec.Source,
			rec.Location,
			rec.Resolution,
			strings.Join(rec.Tags, "|"),
			rec.Thumb,
			rec.Src,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
