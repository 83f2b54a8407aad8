package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"

	"apparel-backoffice/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxContentBytes = 1 << 20

var contentKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// ContentRepository stores the named JSON blobs edited from the admin UI.
type ContentRepository interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Put(ctx context.Context, key string, blob json.RawMessage) error
}

type ContentHandler struct {
	store  ContentRepository
	logger *zap.Logger
}

func NewContentHandler(store ContentRepository, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{store: store, logger: logging.OrNop(logger)}
}

// GetContent returns a named content blob
// @Summary Read content
// @Description Return the JSON blob stored under key
// @Tags content
// @Produce json
// @Param key path string true "Content key"
// @Success 200 {object} object
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /data/{key} [get]
func (h *ContentHandler) GetContent(c *gin.Context) {
	key := c.Param("key")
	if !contentKeyPattern.MatchString(key) {
		fail(c, http.StatusNotFound, "Not found")
		return
	}

	blob, found, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err, false)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "Not found")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", blob)
}

// PutContent replaces a named content blob
// @Summary Write content
// @Description Store a JSON blob under key
// @Tags content
// @Accept json
// @Produce json
// @Param key path string true "Content key"
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /data/{key} [post]
func (h *ContentHandler) PutContent(c *gin.Context) {
	key := c.Param("key")
	if !contentKeyPattern.MatchString(key) {
		fail(c, http.StatusBadRequest, "Invalid content key")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxContentBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body) > maxContentBytes {
		fail(c, http.StatusRequestEntityTooLarge, "Content too large")
		return
	}
	if !json.Valid(body) {
		fail(c, http.StatusBadRequest, "Body must be valid JSON")
		return
	}

	if err := h.store.Put(c.Request.Context(), key, json.RawMessage(body)); err != nil {
		respondError(c, h.logger, err, true)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
