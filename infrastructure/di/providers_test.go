package di

import (
	"testing"

	"braindump/infrastructure/config"
	"braindump/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestProvideCloudWatchExporter(t *testing.T) {
	client := ProvideCloudWatchClient(aws.Config{Region: "us-east-1"})
	metrics := observability.NewCollector("braindump")

	t.Run("disabled", func(t *testing.T) {
		cfg := &config.Config{Environment: "test"}
		assert.Nil(t, ProvideCloudWatchExporter(cfg, client, metrics, zap.NewNop()))
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := &config.Config{Environment: "test", EnableCloudWatch: true}
		assert.NotNil(t, ProvideCloudWatchExporter(cfg, client, metrics, zap.NewNop()))
	})
}
