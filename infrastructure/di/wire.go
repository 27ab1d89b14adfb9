//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"braindump/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideCloudWatchExporter,
	ProvideDocumentStorage,
	ProvideEventPublisher,
	ProvideVisibilityResolver,
	ProvideLayoutEngine,
	ProvideSynonymMatcher,
	ProvideTopicPlanner,
	ProvidePersistenceCoordinator,
	ProvideGraphStore,
	ProvideTopicService,
	ProvideSynonymService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideErrorHandler,
	ProvideHTTPHandler,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
