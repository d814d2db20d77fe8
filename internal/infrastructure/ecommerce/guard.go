package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RemoteCallRecorder receives the duration and result of every remote call
type RemoteCallRecorder interface {
	RecordRemoteCall(ctx context.Context, platform, operation string, d time.Duration, err error)
}

// GuardConfig tunes the protection wrapped around one store's remote calls
type GuardConfig struct {
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	// InitialBackoff is the first retry delay; it grows exponentially
	InitialBackoff   time.Duration
	FailureThreshold int
	OpenTimeout      time.Duration
}

// guard rate-limits, retries and circuit-breaks the calls of one store.
// Each remote request goes through call exactly once per attempt.
type guard struct {
	platform catalogsync.PlatformCode
	cfg      GuardConfig
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	recorder RemoteCallRecorder
	logger   *zap.Logger
}

func newGuard(name string, platform catalogsync.PlatformCode, cfg GuardConfig, recorder RemoteCallRecorder, logger *zap.Logger) *guard {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)

	threshold := uint32(max(cfg.FailureThreshold, 1))
	g := &guard{
		platform: platform,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, burst),
		recorder: recorder,
		logger:   logger,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// only outages trip the breaker; a rejected request says nothing about availability
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Platform circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return g
}

// call runs fn under the rate limiter and circuit breaker, retrying
// transient failures with exponential backoff.
func (g *guard) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := g.retry(ctx, operation, fn)
	if g.recorder != nil {
		g.recorder.RecordRemoteCall(ctx, string(g.platform), operation, time.Since(start), err)
	}
	return err
}

func (g *guard) retry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempt := func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		_, err := g.breaker.Execute(func() (interface{}, error) {
			return nil, fn(ctx)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(fmt.Errorf("%w: %s circuit open: %v", catalogsync.ErrPlatformUnavailable, g.platform, err))
		case isTransient(err):
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	if g.cfg.InitialBackoff > 0 {
		policy.InitialInterval = g.cfg.InitialBackoff
	}
	retries := uint64(max(g.cfg.MaxRetries, 0))

	notify := func(err error, wait time.Duration) {
		g.logger.Debug("Retrying platform call",
			zap.String("platform", string(g.platform)),
			zap.String("operation", operation),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	return backoff.RetryNotify(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx), notify)
}

// isTransient reports errors worth retrying
func isTransient(err error) bool {
	return errors.Is(err, catalogsync.ErrPlatformUnavailable) || errors.Is(err, catalogsync.ErrPlatformRateLimited)
}
