package di

import (
	"context"
	"fmt"
	"net/http"

	"braindump/application/commands/bus"
	commandhandlers "braindump/application/commands/handlers"
	"braindump/application/ports"
	querybus "braindump/application/queries/bus"
	queryhandlers "braindump/application/queries/handlers"
	"braindump/application/services"
	domainconfig "braindump/domain/config"
	domainservices "braindump/domain/services"
	"braindump/infrastructure/config"
	"braindump/infrastructure/messaging/eventbridge"
	"braindump/infrastructure/messaging/logging"
	"braindump/infrastructure/persistence/dynamodb"
	"braindump/infrastructure/persistence/memory"
	"braindump/infrastructure/persistence/resilient"
	"braindump/infrastructure/persistence/sqlite"
	"braindump/interfaces/http/rest"
	"braindump/pkg/auth"
	pkgerrors "braindump/pkg/errors"
	"braindump/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("braindump")
}

// ProvideDomainConfig derives business settings from the app config
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCloudWatchExporter returns nil unless ENABLE_CLOUDWATCH is set
func ProvideCloudWatchExporter(
	cfg *config.Config,
	client *awscloudwatch.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) *observability.CloudWatchExporter {
	if !cfg.EnableCloudWatch {
		return nil
	}
	namespace := cfg.CloudWatchNamespace
	if namespace == "" {
		namespace = fmt.Sprintf("Braindump/%s", cfg.Environment)
	}
	return observability.NewCloudWatchExporter(client, metrics, namespace, logger)
}

// ProvideDocumentStorage selects the storage backend. Remote and on-disk
// backends sit behind the circuit breaker.
func ProvideDocumentStorage(
	ctx context.Context,
	cfg *config.Config,
	client *awsdynamodb.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) (ports.DocumentStorage, func(), error) {
	breaker := resilient.BreakerConfig{
		Name:             "storage-" + cfg.StorageDriver,
		MaxRequests:      cfg.BreakerMaxRequests,
		Interval:         cfg.BreakerInterval,
		Timeout:          cfg.BreakerTimeout,
		FailureThreshold: cfg.BreakerFailureThreshold,
		MinRequests:      cfg.BreakerMinRequests,
	}

	switch cfg.StorageDriver {
	case config.StorageSQLite:
		store, err := sqlite.NewDocumentStore(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close sqlite store", zap.Error(err))
			}
		}
		return resilient.NewDocumentStorage(store, breaker, metrics, logger), cleanup, nil

	case config.StorageDynamoDB:
		repo := dynamodb.NewDocumentRepository(client, cfg.TableName, logger)
		return resilient.NewDocumentStorage(repo, breaker, metrics, logger), func() {}, nil

	default:
		logger.Warn("Using in-memory storage; brain dumps are lost on restart")
		return memory.NewDocumentStore(), func() {}, nil
	}
}

// ProvideEventPublisher publishes to EventBridge when enabled, else logs
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return logging.NewPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideVisibilityResolver creates the visibility resolver
func ProvideVisibilityResolver() *domainservices.VisibilityResolver {
	return domainservices.NewVisibilityResolver()
}

// ProvideLayoutEngine creates the layout engine
func ProvideLayoutEngine(dc *domainconfig.DomainConfig) *domainservices.LayoutEngine {
	return domainservices.NewLayoutEngine(dc)
}

// ProvideSynonymMatcher creates the synonym matcher
func ProvideSynonymMatcher(dc *domainconfig.DomainConfig) *domainservices.SynonymMatcher {
	return domainservices.NewSynonymMatcher(dc)
}

// ProvideTopicPlanner creates the topic planner
func ProvideTopicPlanner(dc *domainconfig.DomainConfig) *domainservices.TopicPlanner {
	return domainservices.NewTopicPlanner(dc)
}

// ProvidePersistenceCoordinator creates the coordinator without its snapshot
// source; ProvideGraphStore closes the cycle
func ProvidePersistenceCoordinator(
	storage ports.DocumentStorage,
	publisher ports.EventPublisher,
	dc *domainconfig.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.PersistenceCoordinator {
	return services.NewPersistenceCoordinator(storage, publisher, dc, metrics, logger)
}

// ProvideGraphStore creates the graph store and links it with the
// coordinator in both directions
func ProvideGraphStore(
	storage ports.DocumentStorage,
	coordinator *services.PersistenceCoordinator,
	layout *domainservices.LayoutEngine,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.GraphStore {
	store := services.NewGraphStore(storage, layout, dc, logger)
	store.SetScheduler(coordinator)
	coordinator.SetSnapshotSource(store)
	return store
}

// ProvideTopicService creates the topic extraction service
func ProvideTopicService(
	store *services.GraphStore,
	coordinator *services.PersistenceCoordinator,
	planner *domainservices.TopicPlanner,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.TopicExtractionService {
	return services.NewTopicExtractionService(store, coordinator, planner, metrics, logger)
}

// ProvideSynonymService creates the synonym service
func ProvideSynonymService(
	store *services.GraphStore,
	matcher *domainservices.SynonymMatcher,
	logger *zap.Logger,
) *services.SynonymService {
	return services.NewSynonymService(store, matcher, logger)
}

// ProvideCommandBus creates the command bus with every handler registered
func ProvideCommandBus(
	store *services.GraphStore,
	coordinator *services.PersistenceCoordinator,
	topics *services.TopicExtractionService,
	synonyms *services.SynonymService,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	pipeline := bus.NewPipeline(bus.LoggingMiddleware(logger))

	set := commandhandlers.Set{
		Nodes:    commandhandlers.NewNodeHandler(store, logger),
		Edges:    commandhandlers.NewEdgeHandler(store, logger),
		Entries:  commandhandlers.NewEntryHandler(store, coordinator, logger),
		Topics:   commandhandlers.NewTopicHandler(store, topics, logger),
		Synonyms: commandhandlers.NewSynonymHandler(store, synonyms, logger),
	}
	if err := commandhandlers.Register(commandBus, pipeline, set); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus with every handler registered
func ProvideQueryBus(
	store *services.GraphStore,
	coordinator *services.PersistenceCoordinator,
	synonyms *services.SynonymService,
	visibility *domainservices.VisibilityResolver,
	layout *domainservices.LayoutEngine,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	handler := queryhandlers.NewGraphQueryHandler(store, coordinator, synonyms, visibility, layout, logger)
	if err := handler.Register(queryBus); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideJWTValidator creates the token validator; nil when auth is disabled
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.AuthDisabled {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideHTTPHandler builds the REST router
func ProvideHTTPHandler(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *auth.JWTValidator,
	metrics *observability.Collector,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) http.Handler {
	router := rest.NewRouter(commandBus, queryBus, validator, metrics, errorHandler, rest.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		EnableCORS:     cfg.EnableCORS,
		EnableMetrics:  cfg.EnableMetrics,
		AuthDisabled:   cfg.AuthDisabled,
	}, logger)
	return router.Setup()
}

// ProvideConfigWatcher watches CONFIG_FILE and pushes a changed debounce
// window into the coordinator. Returns nil without a config file.
func ProvideConfigWatcher(
	cfg *config.Config,
	coordinator *services.PersistenceCoordinator,
	logger *zap.Logger,
) (*config.ConfigWatcher, error) {
	if cfg.ConfigFile == "" {
		return nil, nil
	}

	watcher, err := config.NewConfigWatcher(cfg.ConfigFile, logger)
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(fc *config.FileConfig) {
		window, ok := fc.DebounceWindow()
		if !ok || window == coordinator.DebounceWindow() {
			return
		}
		coordinator.SetDebounceWindow(window)
		logger.Info("Debounce window updated", zap.Duration("window", window))
	})
	watcher.Start()
	return watcher, nil
}
