package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/api/transport"
	"github.com/fastygo/datewheel/pkg/httpcontext"
	"github.com/fastygo/datewheel/usecase/pool"
)

type PoolHandler struct {
	baseHandler
	pool *pool.Manager
}

func NewPoolHandler(p *pool.Manager, adapter *httpcontext.Adapter, logger *zap.Logger) *PoolHandler {
	return &PoolHandler{
		baseHandler: newBaseHandler(adapter, logger),
		pool:        p,
	}
}

func (h *PoolHandler) Get(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.snapshot())
}

func (h *PoolHandler) Replace(ctx *fasthttp.RequestCtx) {
	var req transport.PoolRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if _, err := h.pool.Replace(stdCtx, req.IDs); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.snapshot())
}

// Toggle reports the toggle outcome in meta so clients can warn about the
// minimum or the cap.
func (h *PoolHandler) Toggle(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.pool.Toggle(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(h.snapshot(), result))
}

func (h *PoolHandler) snapshot() transport.PoolResponse {
	members := h.pool.Members()
	ids := make([]string, len(members))
	for i, a := range members {
		ids[i] = a.ID
	}
	n := len(members)
	return transport.PoolResponse{
		Activities: members,
		IDs:        ids,
		Size:       n,
		CanDraw:    n >= pool.MinSize && n <= pool.MaxSize,
		MinSize:    pool.MinSize,
		MaxSize:    pool.MaxSize,
	}
}
