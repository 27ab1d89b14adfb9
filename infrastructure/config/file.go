package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML overlay. Only the settings that may change at
// runtime live here; unset fields keep the environment value.
type FileConfig struct {
	LogLevel    *string      `yaml:"logLevel"`
	Persistence *Persistence `yaml:"persistence"`
	Layout      *Layout      `yaml:"layout"`
}

// Persistence holds save timing
type Persistence struct {
	DebounceWindow   *time.Duration `yaml:"debounceWindow"`
	ErrorRevertDelay *time.Duration `yaml:"errorRevertDelay"`
	SavedRevertDelay *time.Duration `yaml:"savedRevertDelay"`
}

// Layout holds node spacing
type Layout struct {
	HorizontalSpacing *float64 `yaml:"horizontalSpacing"`
	VerticalSpacing   *float64 `yaml:"verticalSpacing"`
}

// LoadFile reads and validates a YAML overlay
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

// Validate rejects values that would break the running service
func (f *FileConfig) Validate() error {
	if p := f.Persistence; p != nil {
		if p.DebounceWindow != nil && *p.DebounceWindow <= 0 {
			return fmt.Errorf("debounceWindow must be positive")
		}
		if p.ErrorRevertDelay != nil && *p.ErrorRevertDelay < 0 {
			return fmt.Errorf("errorRevertDelay cannot be negative")
		}
		if p.SavedRevertDelay != nil && *p.SavedRevertDelay < 0 {
			return fmt.Errorf("savedRevertDelay cannot be negative")
		}
	}
	if l := f.Layout; l != nil {
		if l.HorizontalSpacing != nil && *l.HorizontalSpacing <= 0 {
			return fmt.Errorf("horizontalSpacing must be positive")
		}
		if l.VerticalSpacing != nil && *l.VerticalSpacing <= 0 {
			return fmt.Errorf("verticalSpacing must be positive")
		}
	}
	return nil
}

// ApplyTo copies every set field onto cfg
func (f *FileConfig) ApplyTo(cfg *Config) {
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
	if p := f.Persistence; p != nil {
		if p.DebounceWindow != nil {
			cfg.DebounceWindow = *p.DebounceWindow
		}
		if p.ErrorRevertDelay != nil {
			cfg.ErrorRevertDelay = *p.ErrorRevertDelay
		}
		if p.SavedRevertDelay != nil {
			cfg.SavedRevertDelay = *p.SavedRevertDelay
		}
	}
	if l := f.Layout; l != nil {
		if l.HorizontalSpacing != nil {
			cfg.HorizontalSpacing = *l.HorizontalSpacing
		}
		if l.VerticalSpacing != nil {
			cfg.VerticalSpacing = *l.VerticalSpacing
		}
	}
}

// DebounceWindow returns the configured window, if any
func (f *FileConfig) DebounceWindow() (time.Duration, bool) {
	if f.Persistence == nil || f.Persistence.DebounceWindow == nil {
		return 0, false
	}
	return *f.Persistence.DebounceWindow, true
}
