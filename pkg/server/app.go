package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	xhttp "MacroLens/pkg/http"
	applogger "MacroLens/pkg/logger"
)

// Worker is a background component started with the HTTP server.
type Worker interface {
	Start()
	Stop()
}

// App encapsulates the entire application lifecycle.
type App struct {
	httpServer *xhttp.Server
	workers    []Worker
	l          *applogger.Logger
}

// New creates a new App. Infrastructure clients are closed by whoever built
// them, after Run returns.
func New(httpServer *xhttp.Server, l *applogger.Logger, workers ...Worker) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{httpServer: httpServer, workers: workers, l: l}
}

// Run starts the application and blocks until interrupted or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, w := range a.workers {
		w.Start()
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	for _, w := range a.workers {
		w.Stop()
	}

	a.l.Info("shutdown complete")
	return nil
}
