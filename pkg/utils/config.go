package utils

import "os"

type ServerConfig struct {
	HTTPAddr   string
	EventsAddr string // TCP catalog event feed
	CatalogKey string // well-known key of the shared catalog document
	UploadAuth string // "user:pass" for the upload gate; empty locks uploads
}

func LoadServerConfig() ServerConfig {
	addr := os.Getenv("SNAPVAULT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	eventsAddr := os.Getenv("SNAPVAULT_EVENTS_ADDR")
	if eventsAddr == "" {
		eventsAddr = ":7070"
	}

	catalogKey := os.Getenv("SNAPVAULT_CATALOG_KEY")
	if catalogKey == "" {
		catalogKey = "catalog.json"
	}

	return ServerConfig{
		HTTPAddr:   addr,
		EventsAddr: eventsAddr,
		CatalogKey: catalogKey,
		UploadAuth: os.Getenv("SNAPVAULT_UPLOAD_AUTH"),
	}
}
