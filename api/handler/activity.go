package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/api/transport"
	"github.com/fastygo/datewheel/pkg/httpcontext"
	"github.com/fastygo/datewheel/usecase/registry"
)

type ActivityHandler struct {
	baseHandler
	registry *registry.Registry
}

func NewActivityHandler(reg *registry.Registry, adapter *httpcontext.Adapter, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    reg,
	}
}

// List returns every activity, or the search result when q or category is given.
func (h *ActivityHandler) List(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	query := string(args.Peek("q"))
	category := string(args.Peek("category"))

	activities := h.registry.List()
	if query != "" || category != "" {
		activities = h.registry.Search(query, category)
	}
	h.respondList(ctx, activities, len(activities))
}

func (h *ActivityHandler) Recent(ctx *fasthttp.RequestCtx) {
	limit, _ := strconv.Atoi(string(ctx.QueryArgs().Peek("limit")))
	recent := h.registry.Recent(limit)
	h.respondList(ctx, recent, len(recent))
}

func (h *ActivityHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.ActivityRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.registry.Create(stdCtx, req.Fields())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// Update answers 204 when the id is unknown, mirroring the registry's no-op.
func (h *ActivityHandler) Update(ctx *fasthttp.RequestCtx) {
	id := pathID(ctx)
	var req transport.ActivityRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.registry.Update(stdCtx, id, req.Patch()); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	updated, ok := h.registry.Get(id)
	if !ok {
		h.respondNoContent(ctx)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

func (h *ActivityHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.registry.Remove(stdCtx, pathID(ctx)); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

func (h *ActivityHandler) Reset(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.registry.Reset(stdCtx); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	activities := h.registry.List()
	h.respondList(ctx, activities, len(activities))
}
