package handlers

import (
	"net/http"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/models"
	"apparel-backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QuoteHandler struct {
	quotes *services.QuoteService
	logger *zap.Logger
}

func NewQuoteHandler(quotes *services.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, logger: logging.OrNop(logger)}
}

type StatusUpdateRequest struct {
	QuoteID string `json:"quoteId"`
	Status  string `json:"status"`
}

type QuoteListResponse struct {
	Success bool           `json:"success"`
	Quotes  []models.Quote `json:"quotes"`
}

type TrackResponse struct {
	Success bool               `json:"success"`
	Quote   models.PublicQuote `json:"quote"`
}

// SubmitQuote records a quote or order request
// @Summary Submit a quote request
// @Description Validate a storefront submission, append it to the ledger and return its id. Limited per client IP.
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body services.SubmitRequest true "Quote request"
// @Success 200 {object} SubmitQuoteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quotes [post]
func (h *QuoteHandler) SubmitQuote(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.quotes.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, false)
		return
	}
	c.JSON(http.StatusOK, SubmitQuoteResponse{Success: true, ID: id})
}

// ListQuotes returns every ledger row
// @Summary List quotes
// @Description Full ledger projection for the admin dashboard, newest first
// @Tags quotes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} QuoteListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	quotes, err := h.quotes.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, true)
		return
	}
	c.JSON(http.StatusOK, QuoteListResponse{Success: true, Quotes: quotes})
}

// UpdateStatus moves a quote to a new workflow status
// @Summary Update quote status
// @Description Set the status cell of a ledger row. Status must be one of New, Contacted, In Progress, Completed, Cancelled.
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body StatusUpdateRequest true "Status change"
// @Security BearerAuth
// @Success 200 {object} StatusUpdateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quotes [put]
func (h *QuoteHandler) UpdateStatus(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, err := h.quotes.UpdateStatus(c.Request.Context(), req.QuoteID, req.Status)
	if err != nil {
		respondError(c, h.logger, err, true)
		return
	}
	c.JSON(http.StatusOK, StatusUpdateResponse{Success: true, QuoteID: req.QuoteID, Status: string(status)})
}

// TrackQuote returns the public view of a quote
// @Summary Track an order
// @Description Restricted projection for customers: id, date, status, name and items only
// @Tags quotes
// @Produce json
// @Param id path string true "Quote id"
// @Success 200 {object} TrackResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /track/{id} [get]
func (h *QuoteHandler) TrackQuote(c *gin.Context) {
	public, err := h.quotes.Track(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, false)
		return
	}
	c.JSON(http.StatusOK, TrackResponse{Success: true, Quote: public})
}
