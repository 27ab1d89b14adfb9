package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DEBOUNCE_WINDOW", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, time.Second, cfg.DebounceWindow)
	assert.Equal(t, 3*time.Second, cfg.ErrorRevertDelay)
	assert.Equal(t, 2*time.Second, cfg.SavedRevertDelay)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("DEBOUNCE_WINDOW", "250")
	t.Setenv("SAVED_REVERT_DELAY", "5s")
	t.Setenv("HORIZONTAL_SPACING", "300")
	t.Setenv("ENABLE_CLOUDWATCH", "true")
	t.Setenv("CLOUDWATCH_NAMESPACE", "Braindump/staging")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, 5*time.Second, cfg.SavedRevertDelay)
	assert.Equal(t, 300.0, cfg.HorizontalSpacing)
	assert.True(t, cfg.EnableCloudWatch)
	assert.Equal(t, "Braindump/staging", cfg.CloudWatchNamespace)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:       "development",
			StorageDriver:     StorageMemory,
			DebounceWindow:    time.Second,
			HorizontalSpacing: 250,
			VerticalSpacing:   100,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.StorageDriver = "postgres" }, true},
		{"sqlite without path", func(c *Config) { c.StorageDriver = StorageSQLite }, true},
		{"dynamodb without table", func(c *Config) { c.StorageDriver = StorageDynamoDB }, true},
		{"zero debounce", func(c *Config) { c.DebounceWindow = 0 }, true},
		{"production without secret", func(c *Config) { c.Environment = "production" }, true},
		{"production with auth disabled", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s"
			c.AuthDisabled = true
		}, true},
		{"production with secret", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DomainConfig(t *testing.T) {
	c := &Config{
		Environment:       "production",
		DebounceWindow:    500 * time.Millisecond,
		ErrorRevertDelay:  time.Second,
		SavedRevertDelay:  time.Second,
		HorizontalSpacing: 200,
		VerticalSpacing:   80,
	}

	dc := c.DomainConfig()
	assert.Equal(t, 500*time.Millisecond, dc.DebounceWindow)
	assert.Equal(t, 200.0, dc.HorizontalSpacing)
	assert.Equal(t, 80.0, dc.VerticalSpacing)
	assert.Equal(t, 5000, dc.MaxNodesPerDocument)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "braindump.yaml")
	writeFile(t, path, "logLevel: debug\npersistence:\n  debounceWindow: 750ms\nlayout:\n  verticalSpacing: 120\n")

	fc, err := LoadFile(path)
	require.NoError(t, err)

	cfg := &Config{LogLevel: "info", DebounceWindow: time.Second, HorizontalSpacing: 250, VerticalSpacing: 100}
	fc.ApplyTo(cfg)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 750*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, 250.0, cfg.HorizontalSpacing)
	assert.Equal(t, 120.0, cfg.VerticalSpacing)

	window, ok := fc.DebounceWindow()
	assert.True(t, ok)
	assert.Equal(t, 750*time.Millisecond, window)
}

func TestLoadFile_RejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "braindump.yaml")
	writeFile(t, path, "persistence:\n  debounceWindow: -1s\n")

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestConfigWatcher_NotifiesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "braindump.yaml")
	writeFile(t, path, "persistence:\n  debounceWindow: 1s\n")

	w, err := NewConfigWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	changes := make(chan time.Duration, 4)
	w.OnChange(func(fc *FileConfig) {
		if d, ok := fc.DebounceWindow(); ok {
			changes <- d
		}
	})
	w.Start()

	writeFile(t, path, "persistence:\n  debounceWindow: 2s\n")

	select {
	case d := <-changes:
		assert.Equal(t, 2*time.Second, d)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	window, _ := w.Current().DebounceWindow()
	assert.Equal(t, 2*time.Second, window)
}
