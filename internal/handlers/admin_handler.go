package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/middleware"
	"apparel-backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	auth    *services.AuthService
	lockout time.Duration
	logger  *zap.Logger
}

func NewAdminHandler(auth *services.AuthService, lockout time.Duration, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{auth: auth, lockout: lockout, logger: logging.OrNop(logger)}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges admin credentials for a session token
// @Summary Admin login
// @Description Check the admin username and password and return a session token. Repeated failures lock the client out.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Admin credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.auth.Login(c.Request.Context(), c.ClientIP(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token})
	case errors.Is(err, services.ErrRateLimited):
		c.Header("Retry-After", fmt.Sprintf("%d", int(h.lockout.Seconds())))
		fail(c, http.StatusTooManyRequests,
			fmt.Sprintf("Too many failed login attempts. Please try again in %d minutes.", int(h.lockout.Minutes())))
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid username or password")
	default:
		respondError(c, h.logger, err, false)
	}
}

// ChangeCredentials replaces the admin username and password
// @Summary Change admin credentials
// @Description Replace the stored admin username and password. The password needs at least 8 characters.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "New credentials"
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/credentials [post]
func (h *AdminHandler) ChangeCredentials(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.auth.ChangeCredentials(c.Request.Context(), req.Username, req.Password); err != nil {
		respondError(c, h.logger, err, true)
		return
	}

	h.logger.Info("credentials changed by admin", zap.String("subject", c.GetString(middleware.AdminSubjectKey)))
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
