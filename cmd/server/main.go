package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/datewheel/api/handler"
	"github.com/fastygo/datewheel/internal/app"
	"github.com/fastygo/datewheel/internal/config"
	"github.com/fastygo/datewheel/internal/middleware"
	"github.com/fastygo/datewheel/internal/router"
	"github.com/fastygo/datewheel/internal/services/lifecycle"
	"github.com/fastygo/datewheel/pkg/httpcontext"
	"github.com/fastygo/datewheel/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   cfg.Logger.Output,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.Listen(context.Background())
	defer cancel()

	wheel, err := app.Build(appCtx, cfg, zapLogger, manager)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		zapLogger.Fatal("startup failed", zap.Error(err))
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Activity: apiHandler.NewActivityHandler(wheel.Registry, ctxAdapter, zapLogger),
		Pool:     apiHandler.NewPoolHandler(wheel.Pool, ctxAdapter, zapLogger),
		Draw:     apiHandler.NewDrawHandler(wheel.Engine, wheel.Pool, ctxAdapter, zapLogger),
		Schedule: apiHandler.NewScheduleHandler(wheel.Scheduler, ctxAdapter, zapLogger),
		History:  apiHandler.NewHistoryHandler(wheel.History, ctxAdapter, zapLogger),
		Settings: apiHandler.NewSettingsHandler(wheel.Settings, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(wheel.Monitor, cfg.Storage.Driver, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware, router.Options{
		EnableMetrics: cfg.HTTP.EnableMetrics,
		EnablePprof:   cfg.HTTP.EnablePprof,
	})

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
