package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	kv            Pinger
	kvDistributed func() bool
	ledger        Pinger
	ledgerBackend string
	timeout       time.Duration
}

func NewHealthHandler(kv Pinger, kvDistributed func() bool, ledger Pinger, ledgerBackend string, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		kv:            kv,
		kvDistributed: kvDistributed,
		ledger:        ledger,
		ledgerBackend: ledgerBackend,
		timeout:       timeout,
	}
}

// Health reports KV and ledger reachability
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} object
// @Failure 503 {object} object
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	kvState := "local_cache_only"
	if h.kvDistributed != nil && h.kvDistributed() {
		kvState = "connected"
	}
	if h.kv != nil {
		if err := h.kv.Ping(ctx); err != nil {
			kvState = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	ledgerState := "connected"
	if h.ledger != nil {
		if err := h.ledger.Ping(ctx); err != nil {
			ledgerState = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    overall,
		"timestamp": time.Now().Unix(),
		"services": map[string]string{
			"kv":             kvState,
			"ledger":         ledgerState,
			"ledger_backend": h.ledgerBackend,
		},
	})
}
