package signer

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Signer *Signer
}

func NewHandler(s *Signer) *Handler {
	return &Handler{Signer: s}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sign", h.sign) // POST /api/sign
}

type signReq struct {
	Kind        string `json:"type"`
	Source      string `json:"source"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

func (h *Handler) sign(c *gin.Context) {
	var req signReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if strings.TrimSpace(req.ContentType) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contentType required"})
		return
	}

	grant, err := h.Signer.Authorize(c.Request.Context(), req.Kind, req.Source, req.Filename, req.ContentType)
	if err != nil {
		if errors.Is(err, ErrUnsupportedContentType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign failed"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, grant)
}
