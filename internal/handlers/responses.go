package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"apparel-backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type SubmitQuoteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type StatusUpdateResponse struct {
	Success bool   `json:"success"`
	QuoteID string `json:"quoteId"`
	Status  string `json:"status"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Success: false, Message: message})
}

// errorStatus maps a service error onto an HTTP status and a client-safe message.
func errorStatus(err error) (int, string) {
	var validation *services.ValidationError
	var netErr net.Error

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests. Please try again later."
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrNotInitialized):
		return http.StatusInternalServerError, "Admin credentials are not initialized"
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again."
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusInternalServerError, "Server is misconfigured"
	case errors.Is(err, services.ErrUpstream):
		return http.StatusInternalServerError, "Could not reach the order ledger. Please try again later."
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respondError writes err once at the boundary. Detail is only exposed on admin routes;
// server errors are always logged with their full cause.
func respondError(c *gin.Context, logger *zap.Logger, err error, admin bool) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
		_ = c.Error(err)
	}

	resp := ErrorResponse{Success: false, Message: message}
	if admin && status >= http.StatusInternalServerError {
		resp.Detail = err.Error()
	}
	c.JSON(status, resp)
}
