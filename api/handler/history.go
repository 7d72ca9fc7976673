package handler

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/pkg/httpcontext"
	"github.com/fastygo/datewheel/usecase/history"
)

type HistoryHandler struct {
	baseHandler
	log *history.Log
}

func NewHistoryHandler(log *history.Log, adapter *httpcontext.Adapter, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		baseHandler: newBaseHandler(adapter, logger),
		log:         log,
	}
}

func (h *HistoryHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.log.List(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, entries, len(entries))
}

func (h *HistoryHandler) Clear(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.log.Clear(stdCtx); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}
