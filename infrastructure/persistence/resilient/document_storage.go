package resilient

import (
	"context"
	"fmt"
	"time"

	"braindump/application/ports"
	"braindump/domain/core/aggregates"
	pkgerrors "braindump/pkg/errors"
	"braindump/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the storage circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// ReadyToTrip trips once at least MinRequests were seen and the failure
	// ratio reaches FailureThreshold
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// DocumentStorage decorates a storage backend with a circuit breaker and
// per-call metrics. Domain outcomes such as NotFound or Conflict count as
// successful calls; only backend faults move the breaker.
type DocumentStorage struct {
	next    ports.DocumentStorage
	breaker *gobreaker.CircuitBreaker
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewDocumentStorage wraps next
func NewDocumentStorage(next ports.DocumentStorage, cfg BreakerConfig, metrics *observability.Collector, logger *zap.Logger) *DocumentStorage {
	s := &DocumentStorage{
		next:    next,
		metrics: metrics,
		logger:  logger,
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Storage circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, stateValue(to))
		},
		IsSuccessful: isBackendHealthy,
	})
	metrics.SetBreakerState(cfg.Name, stateValue(gobreaker.StateClosed))

	return s
}

// State returns the breaker's current state
func (s *DocumentStorage) State() gobreaker.State {
	return s.breaker.State()
}

// LoadDocument implements ports.DocumentStorage
func (s *DocumentStorage) LoadDocument(ctx context.Context, id string) (*aggregates.DocumentRecord, error) {
	result, err := s.execute("load", func() (interface{}, error) {
		return s.next.LoadDocument(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*aggregates.DocumentRecord), nil
}

// SaveDocument implements ports.DocumentStorage
func (s *DocumentStorage) SaveDocument(ctx context.Context, id string, patch ports.DocumentPatch) error {
	_, err := s.execute("save", func() (interface{}, error) {
		return nil, s.next.SaveDocument(ctx, id, patch)
	})
	return err
}

// CreateDocument implements ports.DocumentStorage
func (s *DocumentStorage) CreateDocument(ctx context.Context, record aggregates.DocumentRecord) (*aggregates.DocumentRecord, error) {
	result, err := s.execute("create", func() (interface{}, error) {
		return s.next.CreateDocument(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return result.(*aggregates.DocumentRecord), nil
}

// DeleteDocument implements ports.DocumentStorage
func (s *DocumentStorage) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.execute("delete", func() (interface{}, error) {
		return nil, s.next.DeleteDocument(ctx, id)
	})
	return err
}

// ListDocuments implements ports.DocumentStorage
func (s *DocumentStorage) ListDocuments(ctx context.Context, userID string) ([]ports.DocumentSummary, error) {
	result, err := s.execute("list", func() (interface{}, error) {
		return s.next.ListDocuments(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]ports.DocumentSummary), nil
}

func (s *DocumentStorage) execute(operation string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	result, err := s.breaker.Execute(fn)
	s.metrics.RecordStorageOperation(operation, err, time.Since(start))

	switch err {
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		s.logger.Warn("Storage call rejected by circuit breaker",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil, fmt.Errorf("storage unavailable: %w", err)
	}
	return result, err
}

// isBackendHealthy treats domain answers as healthy responses
func isBackendHealthy(err error) bool {
	if err == nil {
		return true
	}
	return pkgerrors.IsNotFound(err) || pkgerrors.IsConflict(err) || pkgerrors.IsValidation(err)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
