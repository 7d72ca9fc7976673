package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/api/transport"
	"github.com/fastygo/datewheel/pkg/httpcontext"
	"github.com/fastygo/datewheel/usecase/schedule"
)

type ScheduleHandler struct {
	baseHandler
	scheduler *schedule.Scheduler
	now       func() time.Time
}

func NewScheduleHandler(s *schedule.Scheduler, adapter *httpcontext.Adapter, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		baseHandler: newBaseHandler(adapter, logger),
		scheduler:   s,
		now:         time.Now,
	}
}

// Month resolves ?year=&month=, defaulting to the current month.
func (h *ScheduleHandler) Month(ctx *fasthttp.RequestCtx) {
	now := h.now()
	year, month := now.Year(), now.Month()
	args := ctx.QueryArgs()
	if v := string(args.Peek("year")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.respondInvalid(ctx, "year must be a number")
			return
		}
		year = parsed
	}
	if v := string(args.Peek("month")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.respondInvalid(ctx, "month must be a number")
			return
		}
		month = time.Month(parsed)
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	slots, err := h.scheduler.ScheduleFor(stdCtx, year, month)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, slots, len(slots))
}

func (h *ScheduleHandler) Reassign(ctx *fasthttp.RequestCtx) {
	var req transport.ScheduleRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.Date.IsZero() || req.ActivityID == "" {
		h.respondInvalid(ctx, "date and activityId are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entry, err := h.scheduler.Reassign(stdCtx, req.Date, req.ActivityID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entry)
}
