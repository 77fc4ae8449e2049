// Package app assembles the run server from its configuration.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/jpkabala96/geeSSEBI/internal/controllers/restserver"
	"github.com/jpkabala96/geeSSEBI/internal/jobs"
	"github.com/jpkabala96/geeSSEBI/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	stack, err := NewStack(cfg, a.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	manager, err := jobs.NewManager(ctx, stack.Pipeline, cfg.REST.MaxConcurrentRuns, cfg.REST.RetainedRuns, a.logger.Named("jobs"))
	if err != nil {
		return err
	}

	ctrl := restserver.NewController(ctx, &wg, cfg.REST, cfg.Model, manager, a.logger.Named("rest"))
	if err := ctrl.StartController(); err != nil {
		manager.Close()
		return err
	}

	a.logger.Infow("application started successfully",
		"forcing", cfg.Forcing.Backend, "landsat", cfg.Landsat.Dir, "workers", cfg.REST.MaxConcurrentRuns)

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to stop the server and any running model
	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	manager.Close()
	a.logger.Info("shutdown complete")

	return nil
}
