package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "braindump/domain/config"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	StorageDriver string
	SQLitePath    string

	// AWS configuration
	AWSRegion    string
	TableName    string
	EventBusName string
	EnableEvents bool

	// Logging
	LogLevel string

	// Authentication
	JWTSecret    string
	JWTIssuer    string
	AuthDisabled bool

	// Persistence timing
	DebounceWindow   time.Duration
	ErrorRevertDelay time.Duration
	SavedRevertDelay time.Duration

	// Layout
	HorizontalSpacing float64
	VerticalSpacing   float64

	// Storage circuit breaker
	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold float64
	BreakerMinRequests      uint32

	// Feature flags
	EnableMetrics  bool
	EnableCORS     bool
	AllowedOrigins []string

	// CloudWatch export for deployments nothing scrapes
	EnableCloudWatch    bool
	CloudWatchNamespace string

	// ConfigFile is an optional YAML overlay, watched for changes
	ConfigFile string
}

// LoadConfig loads configuration from a .env file if present, the
// environment, and the YAML file named by CONFIG_FILE, in that order
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	defaults := domainconfig.DefaultDomainConfig()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		SQLitePath:    getEnv("SQLITE_PATH", "braindump.db"),

		AWSRegion:    getEnv("AWS_REGION", "us-west-2"),
		TableName:    getEnv("TABLE_NAME", "braindump"),
		EventBusName: getEnv("EVENT_BUS_NAME", "braindump-events"),
		EnableEvents: getEnvBool("ENABLE_EVENTS", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", "braindump"),
		AuthDisabled: getEnvBool("AUTH_DISABLED", false),

		DebounceWindow:   getEnvDuration("DEBOUNCE_WINDOW", defaults.DebounceWindow),
		ErrorRevertDelay: getEnvDuration("ERROR_REVERT_DELAY", defaults.ErrorRevertDelay),
		SavedRevertDelay: getEnvDuration("SAVED_REVERT_DELAY", defaults.SavedRevertDelay),

		HorizontalSpacing: getEnvFloat("HORIZONTAL_SPACING", defaults.HorizontalSpacing),
		VerticalSpacing:   getEnvFloat("VERTICAL_SPACING", defaults.VerticalSpacing),

		BreakerMaxRequests:      uint32(getEnvInt("BREAKER_MAX_REQUESTS", 3)),
		BreakerInterval:         getEnvDuration("BREAKER_INTERVAL", 30*time.Second),
		BreakerTimeout:          getEnvDuration("BREAKER_TIMEOUT", 20*time.Second),
		BreakerFailureThreshold: getEnvFloat("BREAKER_FAILURE_THRESHOLD", 0.6),
		BreakerMinRequests:      uint32(getEnvInt("BREAKER_MIN_REQUESTS", 5)),

		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),

		EnableCloudWatch:    getEnvBool("ENABLE_CLOUDWATCH", false),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", ""),

		ConfigFile: getEnv("CONFIG_FILE", ""),
	}

	if cfg.ConfigFile != "" {
		overlay, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		overlay.ApplyTo(cfg)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageDynamoDB:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.StorageDriver == StorageDynamoDB && c.TableName == "" {
		return fmt.Errorf("TABLE_NAME is required for the dynamodb driver")
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	if c.DebounceWindow <= 0 {
		return fmt.Errorf("DEBOUNCE_WINDOW must be positive")
	}
	if c.ErrorRevertDelay < 0 || c.SavedRevertDelay < 0 {
		return fmt.Errorf("revert delays cannot be negative")
	}
	if c.HorizontalSpacing <= 0 || c.VerticalSpacing <= 0 {
		return fmt.Errorf("layout spacing must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.AuthDisabled {
			return fmt.Errorf("AUTH_DISABLED is not allowed in production")
		}
	}

	return nil
}

// DomainConfig derives the business settings from c
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	var dc *domainconfig.DomainConfig
	if c.IsProduction() {
		dc = domainconfig.ProductionDomainConfig()
	} else {
		dc = domainconfig.DevelopmentDomainConfig()
	}

	dc.DebounceWindow = c.DebounceWindow
	dc.ErrorRevertDelay = c.ErrorRevertDelay
	dc.SavedRevertDelay = c.SavedRevertDelay
	dc.HorizontalSpacing = c.HorizontalSpacing
	dc.VerticalSpacing = c.VerticalSpacing
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvDuration accepts Go durations ("1500ms") or plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
