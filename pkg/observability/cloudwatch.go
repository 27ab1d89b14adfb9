package observability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

// CloudWatchAPI is the part of the CloudWatch client the exporter needs
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// PutMetricData accepts at most this many datums per call
const maxDatumsPerCall = 1000

// exportedFamilies maps collector metric names, without namespace, to
// CloudWatch metric names
var exportedFamilies = map[string]string{
	"document_saves_total":     "DocumentSaves",
	"debounce_coalesced_total": "CoalescedSaves",
	"pending_changes":          "PendingChanges",
	"topic_operations_total":   "TopicOperations",
	"storage_operations_total": "StorageOperations",
}

// CloudWatchExporter pushes the collector's persistence and topic metrics to
// CloudWatch for deployments where nothing scrapes /metrics. Counters are
// sent as their increase since the last successful export, gauges as their
// current value.
type CloudWatchExporter struct {
	client    CloudWatchAPI
	collector *Collector
	namespace string
	logger    *zap.Logger

	mu   sync.Mutex
	last map[string]float64
}

// NewCloudWatchExporter creates an exporter publishing under namespace
func NewCloudWatchExporter(client CloudWatchAPI, collector *Collector, namespace string, logger *zap.Logger) *CloudWatchExporter {
	return &CloudWatchExporter{
		client:    client,
		collector: collector,
		namespace: namespace,
		logger:    logger,
		last:      make(map[string]float64),
	}
}

// Export sends what was recorded since the previous export. A nil exporter
// does nothing. When a call fails the counters are sent again next time.
func (e *CloudWatchExporter) Export(ctx context.Context) error {
	if e == nil || e.collector == nil {
		return nil
	}

	families, err := e.collector.Registry().Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	totals := make(map[string]float64)
	var data []types.MetricDatum

	for _, mf := range families {
		name, ok := exportedFamilies[strings.TrimPrefix(mf.GetName(), e.collector.namespace+"_")]
		if !ok {
			continue
		}
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				key := mf.GetName() + labelKey(m.GetLabel())
				value := m.GetCounter().GetValue()
				totals[key] = value
				if delta := value - e.last[key]; delta > 0 {
					data = append(data, datum(name, m.GetLabel(), delta, types.StandardUnitCount, now))
				}
			case dto.MetricType_GAUGE:
				data = append(data, datum(name, m.GetLabel(), m.GetGauge().GetValue(), types.StandardUnitCount, now))
			}
		}
	}

	for start := 0; start < len(data); start += maxDatumsPerCall {
		end := start + maxDatumsPerCall
		if end > len(data) {
			end = len(data)
		}
		_, err := e.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(e.namespace),
			MetricData: data[start:end],
		})
		if err != nil {
			e.logger.Warn("Failed to send metrics to CloudWatch",
				zap.String("namespace", e.namespace),
				zap.Int("datums", end-start),
				zap.Error(err),
			)
			return fmt.Errorf("failed to put metric data: %w", err)
		}
	}

	for key, value := range totals {
		e.last[key] = value
	}
	return nil
}

func datum(name string, labels []*dto.LabelPair, value float64, unit types.StandardUnit, at time.Time) types.MetricDatum {
	dims := make([]types.Dimension, 0, len(labels))
	for _, l := range labels {
		dims = append(dims, types.Dimension{
			Name:  aws.String(l.GetName()),
			Value: aws.String(l.GetValue()),
		})
	}
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(at),
	}
}

func labelKey(labels []*dto.LabelPair) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.GetName()+"="+l.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
