// Package decorators wraps the remote store clients with cross-cutting
// behavior: per-call timeouts, a circuit breaker, logging and metrics. The
// decorated value keeps the interface of the wrapped client.
package decorators

import (
	"context"
	"errors"
	"time"

	"zeus-backend/internal/infrastructure/observability"
	apperrors "zeus-backend/pkg/errors"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BreakerConfig holds configuration for a store's circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// LoggingConfig controls what information is logged
type LoggingConfig struct {
	LogErrors     bool
	LogTiming     bool
	SlowThreshold time.Duration
}

type Options struct {
	Breaker BreakerConfig
	// CallTimeout bounds every remote call. Zero means no bound.
	CallTimeout time.Duration
	Logging     LoggingConfig
	Metrics     *observability.Collector
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		Breaker: BreakerConfig{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		CallTimeout: 15 * time.Second,
		Logging: LoggingConfig{
			LogErrors:     true,
			LogTiming:     true,
			SlowThreshold: time.Second,
		},
	}
}

// guard runs remote calls for one store.
type guard struct {
	store  string
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
	opts   Options
}

func newGuard(store string, logger *zap.Logger, opts Options) *guard {
	g := &guard{
		store:  store,
		logger: logger.Named(store + "_store"),
		opts:   opts,
	}
	cfg := opts.Breaker
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        store,
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
			g.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// caller cancellations say nothing about the store's health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return g
}

// run executes fn under the breaker and the call timeout, then logs and records it.
func run[T any](ctx context.Context, g *guard, operation, target string, fn func(context.Context) (T, error)) (T, error) {
	if g.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	var result T
	_, err := g.cb.Execute(func() (any, error) {
		var err error
		result, err = fn(ctx)
		return nil, err
	})
	duration := time.Since(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = apperrors.NewUnavailable(g.store+" store temporarily unavailable", err)
	}
	g.opts.Metrics.RecordStoreOperation(g.store, operation, err, duration)

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("operation_id", uuid.NewString()),
		zap.String("target", target),
		zap.Duration("duration", duration),
	}
	if err != nil {
		if g.opts.Logging.LogErrors {
			g.logger.Warn(operation+" failed", append(fields, zap.Error(err))...)
		}
		return result, err
	}

	level := zapcore.DebugLevel
	message := operation + " completed"
	if g.opts.Logging.LogTiming && g.opts.Logging.SlowThreshold > 0 && duration > g.opts.Logging.SlowThreshold {
		level = zapcore.WarnLevel
		message = "slow " + message
	}
	if ce := g.logger.Check(level, message); ce != nil {
		ce.Write(fields...)
	}
	return result, nil
}

func runErr(ctx context.Context, g *guard, operation, target string, fn func(context.Context) error) error {
	_, err := run(ctx, g, operation, target, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
