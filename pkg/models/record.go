package models

// CatalogRecord is the canonical description of one visual asset in the
// shared catalog. Every importer maps into this structure first, then the
// catalog document is written from this representation.
//
// The JSON field names are the wire/document format consumed by the gallery,
// so they must stay stable.
type CatalogRecord struct {
	ID         string   `json:"id"`                   // stable identity key for upsert/dedup
	Kind       string   `json:"type"`                 // "photo" or "screenshot"
	Title      string   `json:"title"`                // human-readable, derived or user-supplied
	Date       string   `json:"date,omitempty"`       // capture date, "YYYY-MM-DD"
	Year       int      `json:"year"`                 // redundant with Date for fast filtering
	Source     string   `json:"source,omitempty"`     // free-text provenance (device or app)
	Location   string   `json:"location,omitempty"`   // optional
	Resolution string   `json:"resolution,omitempty"` // "WIDTHxHEIGHT", only when measured
	Tags       []string `json:"tags,omitempty"`
	Thumb      string   `json:"thumb"` // display-size locator; defaults to Src
	Src        string   `json:"src"`   // full-resolution locator
}

// Record kinds.
const (
	KindPhoto      = "photo"
	KindScreenshot = "screenshot"
)

// ValidKind reports whether k is one of the two known record kinds.
func ValidKind(k string) bool {
	return k == KindPhoto || k == KindScreenshot
}

// Catalog is the single shared document: an ordered sequence of records,
// newest capture date first.
type Catalog struct {
	Items []CatalogRecord `json:"items"`
}
