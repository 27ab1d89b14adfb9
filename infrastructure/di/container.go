package di

import (
	"context"
	"net/http"

	"braindump/application/commands/bus"
	querybus "braindump/application/queries/bus"
	"braindump/application/services"
	"braindump/infrastructure/config"
	"braindump/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *observability.Collector
	Store       *services.GraphStore
	Coordinator *services.PersistenceCoordinator
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	Handler     http.Handler
	// Watcher is nil when no CONFIG_FILE is set
	Watcher *config.ConfigWatcher
	// Exporter is nil unless ENABLE_CLOUDWATCH is set
	Exporter *observability.CloudWatchExporter
}

// Shutdown writes every pending change and stops background work. The
// injector's cleanup function must still be called afterwards to release
// storage.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}

	err := c.Coordinator.FlushAll(ctx)
	if err != nil {
		c.Logger.Error("Failed to flush pending changes", zap.Error(err))
	}
	c.Coordinator.Wait()
	c.Coordinator.Close()

	if exportErr := c.Exporter.Export(ctx); exportErr != nil {
		c.Logger.Warn("Failed to export metrics", zap.Error(exportErr))
	}
	return err
}
