package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Layout
	HorizontalSpacing float64
	VerticalSpacing   float64

	// Topic extraction moves the origin node to this point in the new document
	CanonicalOriginX float64
	CanonicalOriginY float64

	// Persistence
	DebounceWindow   time.Duration
	ErrorRevertDelay time.Duration
	SavedRevertDelay time.Duration

	// Synonym matching
	MinFuzzyQueryLength int

	// Document limits
	MaxNodesPerDocument int
	MaxEdgesPerDocument int
	MaxLabelLength      int

	// Validation settings
	AllowSelfConnections bool
	AllowDuplicateEdges  bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Layout
		HorizontalSpacing: 250,
		VerticalSpacing:   100,

		CanonicalOriginX: 400,
		CanonicalOriginY: 300,

		// Persistence
		DebounceWindow:   1 * time.Second,
		ErrorRevertDelay: 3 * time.Second,
		SavedRevertDelay: 2 * time.Second,

		MinFuzzyQueryLength: 3,

		MaxNodesPerDocument: 10000,
		MaxEdgesPerDocument: 50000,
		MaxLabelLength:      500,

		AllowSelfConnections: false,
		AllowDuplicateEdges:  false,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerDocument = 5000
	config.MaxEdgesPerDocument = 25000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerDocument = 100000
	config.MaxEdgesPerDocument = 500000
	config.AllowDuplicateEdges = true

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.HorizontalSpacing <= 0 || c.VerticalSpacing <= 0 {
		return fmt.Errorf("layout spacing must be positive")
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("debounce window must be positive")
	}
	if c.ErrorRevertDelay < 0 || c.SavedRevertDelay < 0 {
		return fmt.Errorf("status revert delays cannot be negative")
	}
	if c.MinFuzzyQueryLength < 1 {
		return fmt.Errorf("minimum fuzzy query length must be at least 1")
	}
	return nil
}
