package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/basinview/internal/log"
	"github.com/chrissnell/basinview/internal/managers"
	"github.com/chrissnell/basinview/internal/viewer"
	"github.com/chrissnell/basinview/pkg/config"
	"go.uber.org/zap"
)

// App wires the basin catalog, the artifact store and the controllers together
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	notify         func(c chan<- os.Signal, sig ...os.Signal)

	wg     sync.WaitGroup
	cancel context.CancelFunc
	viewer *viewer.Viewer
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
		notify:         signal.Notify,
	}
}

// Start loads the configuration, opens the artifact store and starts every
// controller. Controllers stop when ctx is cancelled or Shutdown is called.
func (a *App) Start(ctx context.Context) error {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	v, err := viewer.NewFromConfig(cfg, a.logger)
	if err != nil {
		return err
	}
	for _, s := range v.Catalog.Sources() {
		a.logger.Infof("data source %s offers %d selections", s.DataSource, len(s.Basins))
	}
	a.logger.Infof("serving %d data sources from %s storage", len(v.Catalog.Sources()), cfg.Storage.Backend)
	a.viewer = v

	ctx, a.cancel = context.WithCancel(ctx)

	cm, err := managers.NewControllerManager(ctx, &a.wg, cfg.Controllers, v, a.logger)
	if err != nil {
		a.cancel()
		return err
	}
	if err := cm.StartControllers(); err != nil {
		a.Shutdown()
		return err
	}

	log.Info("Application started successfully")
	return nil
}

// Viewer returns the services built by Start
func (a *App) Viewer() *viewer.Viewer {
	return a.viewer
}

// Shutdown stops the controllers and waits for their workers to exit
func (a *App) Shutdown() {
	if a.cancel == nil {
		return
	}
	a.cancel()

	a.logger.Info("waiting for all workers to terminate...")
	a.wg.Wait()
	a.logger.Infof("shutdown complete, %d sessions were open", a.viewer.Sessions.Len())
}

// Run starts the application and blocks until a shutdown signal arrives or ctx ends
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	a.notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		a.logger.Infof("%v received, initiating graceful shutdown...", sig)
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	a.Shutdown()
	return nil
}
