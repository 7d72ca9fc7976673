package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/pkg/httpcontext"
	"github.com/fastygo/datewheel/usecase/draw"
	"github.com/fastygo/datewheel/usecase/pool"
)

// DrawHandler drives the draw state machine for a rendering client: POST
// starts a draw over the current wheel, /complete reveals it once the
// animation has finished, /reset returns to idle.
type DrawHandler struct {
	baseHandler
	engine *draw.Engine
	pool   *pool.Manager
}

func NewDrawHandler(engine *draw.Engine, p *pool.Manager, adapter *httpcontext.Adapter, logger *zap.Logger) *DrawHandler {
	return &DrawHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
		pool:        p,
	}
}

func (h *DrawHandler) Status(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.engine.Status())
}

func (h *DrawHandler) Begin(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.engine.BeginDraw(h.pool.Members())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

func (h *DrawHandler) Complete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.engine.Complete(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

func (h *DrawHandler) Reset(ctx *fasthttp.RequestCtx) {
	h.engine.Reset()
	h.respondSuccess(ctx, http.StatusOK, h.engine.Status())
}
