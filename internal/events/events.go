package events

import "time"

const CatalogUpsertType = "catalog.upsert"

// CatalogEvent is pushed to subscribers after every successful catalog
// write, so galleries can refresh without polling the document.
type CatalogEvent struct {
	Type  string    `json:"type"` // "catalog.upsert"
	ID    string    `json:"id"`
	Kind  string    `json:"kind"`
	Title string    `json:"title,omitempty"`
	Count int       `json:"count"` // catalog size after the write
	At    time.Time `json:"at"`
}
