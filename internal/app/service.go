// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	repository "github.com/okian/ahcview/internal/adapters/repository"
	"github.com/okian/ahcview/internal/domain/catalog"
	"github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/internal/domain/types"
	"github.com/okian/ahcview/pkg/logger"
	"github.com/okian/ahcview/pkg/metrics"
)

// Service implements the API dependencies for the result viewer.
type Service struct {
	store       repository.Store
	logger      logger.Logger
	tracer      trace.Tracer
	concurrency int
	source      string

	startedAt   time.Time
	queries     atomic.Int64
	catalogSize atomic.Int64
	lastQuery   atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the dataset source.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConcurrency bounds how many contests are evaluated at once per query.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSourceKind labels the dataset source in stats ("fs", "s3", ...).
func WithSourceKind(kind string) Option {
	return func(s *Service) {
		s.source = kind
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:       repository.NewMemoryStore(),
		tracer:      otel.Tracer("ahcview-service"),
		concurrency: runtime.NumCPU(),
		source:      "memory",
		startedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	return s
}

// Contests resolves the catalog in display order. A missing or unreadable
// catalog yields an empty list.
func (s *Service) Contests(ctx context.Context) []model.ContestID {
	lists, err := s.store.Catalog(ctx)
	if err != nil {
		outcome := outcomeOf(err)
		metrics.RecordDatasetLoad("catalog", outcome)
		s.logger.Warn(ctx, "catalog unavailable, treating as empty",
			logger.String("outcome", outcome),
			logger.Error(err),
		)
		metrics.UpdateCatalogSize(0)
		s.catalogSize.Store(0)
		return nil
	}
	metrics.RecordDatasetLoad("catalog", metrics.OutcomeOK)

	ids := catalog.Resolve(lists)
	metrics.UpdateCatalogSize(len(ids))
	s.catalogSize.Store(int64(len(ids)))
	return ids
}

// Results looks user up in every contest of the catalog, in catalog order.
// Per-contest failures degrade that contest to nulls; the only errors are
// ErrEmptyUser and the caller's context ending.
func (s *Service) Results(ctx context.Context, user string) ([]types.Result, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, ErrEmptyUser
	}

	ctx, span := s.tracer.Start(ctx, "Service.Results",
		trace.WithAttributes(attribute.String("user", user)),
	)
	defer span.End()

	start := time.Now()
	ids := s.Contests(ctx)
	span.SetAttributes(attribute.Int("catalog.size", len(ids)))

	results := make([]types.Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.evaluate(gctx, id, user)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return s.fail(ctx, span, start, err)
	}
	// A cancelled request may have degraded some contests to nulls.
	if err := ctx.Err(); err != nil {
		return s.fail(ctx, span, start, err)
	}

	elapsed := time.Since(start)
	s.queries.Add(1)
	s.lastQuery.Store(elapsed.Milliseconds())
	metrics.RecordQuery(float64(elapsed.Microseconds()) / 1000.0)
	s.logger.Debug(ctx, "lookup served",
		logger.String("user", user),
		logger.Int("contests", len(results)),
		logger.Duration("elapsed", elapsed),
	)
	return results, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, start time.Time, err error) ([]types.Result, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.RecordErrorByComponent("service", "canceled")
	metrics.RecordErrorLatency("service", "canceled", float64(time.Since(start).Milliseconds()))
	s.logger.Warn(ctx, "lookup abandoned", logger.Error(err))
	return nil, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	return types.Stats{
		QueriesServed:   s.queries.Load(),
		CatalogSize:     int(s.catalogSize.Load()),
		Source:          s.source,
		Concurrency:     s.concurrency,
		UptimeSeconds:   int64(time.Since(s.startedAt).Seconds()),
		LastQueryMillis: s.lastQuery.Load(),
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return metrics.OutcomeMissing
	case errors.Is(err, repository.ErrMalformed):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeError
	}
}
