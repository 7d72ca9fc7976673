package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/datewheel/api/handler"
)

type Handlers struct {
	Activity *apiHandler.ActivityHandler
	Pool     *apiHandler.PoolHandler
	Draw     *apiHandler.DrawHandler
	Schedule *apiHandler.ScheduleHandler
	History  *apiHandler.HistoryHandler
	Settings *apiHandler.SettingsHandler
	Health   *apiHandler.HealthHandler
}

type Options struct {
	EnableMetrics bool
	EnablePprof   bool
}

// New wires the API. Reads are public; every mutating route goes through auth.
func New(handlers Handlers, auth func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if opts.EnableMetrics {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	}
	if opts.EnablePprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	api := r.Group("/api/v1")

	api.GET("/activities", handlers.Activity.List)
	api.GET("/activities/recent", handlers.Activity.Recent)
	api.POST("/activities", auth(handlers.Activity.Create))
	api.POST("/activities/reset", auth(handlers.Activity.Reset))
	api.PUT("/activities/{id}", auth(handlers.Activity.Update))
	api.DELETE("/activities/{id}", auth(handlers.Activity.Delete))

	api.GET("/pool", handlers.Pool.Get)
	api.PUT("/pool", auth(handlers.Pool.Replace))
	api.POST("/pool/toggle/{id}", auth(handlers.Pool.Toggle))

	api.GET("/draw", handlers.Draw.Status)
	api.POST("/draw", auth(handlers.Draw.Begin))
	api.POST("/draw/complete", auth(handlers.Draw.Complete))
	api.POST("/draw/reset", auth(handlers.Draw.Reset))

	api.GET("/schedule", handlers.Schedule.Month)
	api.PUT("/schedule", auth(handlers.Schedule.Reassign))

	api.GET("/history", handlers.History.List)
	api.DELETE("/history", auth(handlers.History.Clear))

	api.GET("/settings", handlers.Settings.Get)
	api.PUT("/settings", auth(handlers.Settings.Update))
	api.POST("/settings/theme", auth(handlers.Settings.ToggleTheme))

	return r
}
