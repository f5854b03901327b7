package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MarketHeat/internal/handler/api"
	"MarketHeat/internal/usecase"
	"MarketHeat/pkg/cache"
	pkgch "MarketHeat/pkg/clickhouse"
	"MarketHeat/pkg/config"
	xhttp "MarketHeat/pkg/http"
	applogger "MarketHeat/pkg/logger"

	"github.com/robfig/cron/v3"
)

// App encapsulates the entire application lifecycle: the cron-driven
// recompute, the serving HTTP API, and graceful teardown of every client.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	rec        *usecase.Recompute
	handler    *api.IndexEchoHandler
	chClient   *pkgch.Client
	redis      cache.Service
	httpServer *xhttp.Server
	scheduler  *cron.Cron
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	rec *usecase.Recompute,
	handler *api.IndexEchoHandler,
	chClient *pkgch.Client,
	redis cache.Service,
) *App {
	return &App{
		cfg:      cfg,
		l:        l,
		rec:      rec,
		handler:  handler,
		chClient: chClient,
		redis:    redis,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
	)

	// recompute once at startup so a fresh deployment serves data immediately
	go func() {
		if err := a.rec.Run(ctx); err != nil {
			a.l.Error("startup recompute error", applogger.Error(err))
		}
	}()

	a.scheduler = cron.New()
	if _, err := a.scheduler.AddFunc(a.cfg.MarketData.Schedule, func() {
		if err := a.rec.Run(ctx); err != nil {
			a.l.Error("scheduled recompute error", applogger.Error(err))
		}
	}); err != nil {
		a.l.Error("invalid recompute schedule",
			applogger.String("schedule", a.cfg.MarketData.Schedule),
			applogger.Error(err),
		)
		return err
	}
	a.scheduler.Start()
	a.l.Info("scheduler started", applogger.String("schedule", a.cfg.MarketData.Schedule))

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.scheduler != nil {
		stopCtx := a.scheduler.Stop()
		<-stopCtx.Done() // let an in-flight recompute finish
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	// downstream resources owned by the use case (kafka publisher)
	a.rec.Close()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
