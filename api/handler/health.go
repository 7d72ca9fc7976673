package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/internal/infrastructure/monitor"
	"github.com/fastygo/datewheel/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
	storage string
}

// NewHealthHandler reports the local storage driver and, when sync is
// enabled, the remote dependencies. mon may be nil.
func NewHealthHandler(mon *monitor.Monitor, storage string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		storage:     storage,
	}
}

// Check always answers 200: the local store is the source of truth and an
// unreachable mirror only marks the service as degraded. The monitor exists
// only when sync is enabled, so a missing Postgres probe counts as unreachable.
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	payload := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"storage":   h.storage,
	}
	if h.monitor != nil {
		status := h.monitor.GetStatus()
		payload["sync"] = status
		if !status.PostgreSQL.Healthy {
			payload["status"] = "degraded"
		}
	}
	h.respondSuccess(ctx, http.StatusOK, payload)
}
