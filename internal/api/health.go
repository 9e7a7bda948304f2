package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports backing-store connectivity. Satisfied by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves liveness and readiness probes.
type Health struct {
	pinger Pinger
	logger *slog.Logger
}

// NewHealth creates the probe handler. pinger may be nil (readiness then
// only reports process liveness); logger may be nil.
func NewHealth(pinger Pinger, logger *slog.Logger) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	return &Health{pinger: pinger, logger: logger}
}

// Live handles GET /health: the process is up.
func (h *Health) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready: the process can reach its database.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", "error", err)
			writeError(w, h.logger, http.StatusServiceUnavailable,
				"not_ready", "database unreachable")
			return
		}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ready"})
}
