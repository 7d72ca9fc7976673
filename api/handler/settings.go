package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/pkg/httpcontext"
	"github.com/fastygo/datewheel/usecase/settings"
)

type SettingsHandler struct {
	baseHandler
	settings *settings.Service
}

func NewSettingsHandler(svc *settings.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		settings:    svc,
	}
}

func (h *SettingsHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	current, err := h.settings.Get(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, current)
}

func (h *SettingsHandler) Update(ctx *fasthttp.RequestCtx) {
	var patch domain.SettingsPatch
	if !h.decode(ctx, &patch) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.settings.Update(stdCtx, patch)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

func (h *SettingsHandler) ToggleTheme(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.settings.ToggleTheme(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}
