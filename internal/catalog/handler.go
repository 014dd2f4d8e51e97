package catalog

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"snapvault/internal/events"
	"snapvault/pkg/models"
)

type Handler struct {
	Store *Store
	Hub   *events.Hub
}

func NewHandler(store *Store, hub *events.Hub) *Handler {
	return &Handler{Store: store, Hub: hub}
}

// RegisterRead mounts the public read endpoint consumed by the gallery.
func (h *Handler) RegisterRead(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.get)
}

// RegisterWrite mounts the upsert endpoint; callers gate it.
func (h *Handler) RegisterWrite(rg *gin.RouterGroup) {
	rg.POST("/catalog", h.add)
}

// get always answers 200 with the item list. An empty or unreadable catalog
// is an empty list, never an error, so the gallery keeps rendering.
func (h *Handler) get(c *gin.Context) {
	items := h.Store.ReadAll(c.Request.Context())
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) add(c *gin.Context) {
	var rec models.CatalogRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	saved, total, err := h.Store.Upsert(c.Request.Context(), rec)
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog write failed"})
		return
	}

	if h.Hub != nil {
		ev := events.CatalogEvent{
			Type:  events.CatalogUpsertType,
			ID:    saved.ID,
			Kind:  saved.Kind,
			Title: saved.Title,
			Count: total,
			At:    time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"item":       saved,
		"count":      total,
		"catalogKey": h.Store.Key,
	})
}
