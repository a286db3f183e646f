package api

import (
	"context"
	"net/http"

	"github.com/okian/gradeadjust/internal/domain/model"
)

// StatusDependencies defines the interface for the liveness payload.
type StatusDependencies interface {
	GetStatus(ctx context.Context) model.Status
}

// StatusHandler handles root requests.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET / requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.GetStatus(r.Context()))
}
