package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/backend/internal/domain/catalogsync"
)

type recordedCall struct {
	platform  string
	operation string
	err       error
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) RecordRemoteCall(_ context.Context, platform, operation string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{platform: platform, operation: operation, err: err})
}

func TestGuard_RetriesTransientErrors(t *testing.T) {
	rec := &fakeRecorder{}
	g := newGuard("test", catalogsync.PlatformShopify, GuardConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, FailureThreshold: 10}, rec, nil)

	attempts := 0
	err := g.call(context.Background(), "fetch", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("%w: 503", catalogsync.ErrPlatformUnavailable)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	require.Len(t, rec.calls, 1, "one record per logical call")
	assert.Equal(t, "shopify", rec.calls[0].platform)
	assert.Equal(t, "fetch", rec.calls[0].operation)
	assert.NoError(t, rec.calls[0].err)
}

func TestGuard_DoesNotRetryPermanentErrors(t *testing.T) {
	g := newGuard("test", catalogsync.PlatformWooCommerce, GuardConfig{MaxRetries: 3, InitialBackoff: time.Millisecond}, nil, nil)

	attempts := 0
	err := g.call(context.Background(), "fetch", func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("%w: 400", catalogsync.ErrPlatformRequestFailed)
	})
	assert.ErrorIs(t, err, catalogsync.ErrPlatformRequestFailed)
	assert.Equal(t, 1, attempts)
}

func TestGuard_GivesUpAfterMaxRetries(t *testing.T) {
	g := newGuard("test", catalogsync.PlatformWooCommerce, GuardConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, FailureThreshold: 10}, nil, nil)

	attempts := 0
	err := g.call(context.Background(), "fetch", func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("%w: 429", catalogsync.ErrPlatformRateLimited)
	})
	assert.ErrorIs(t, err, catalogsync.ErrPlatformRateLimited)
	assert.Equal(t, 3, attempts)
}

func TestGuard_BreakerOpensOnConsecutiveOutages(t *testing.T) {
	g := newGuard("test", catalogsync.PlatformShopify, GuardConfig{MaxRetries: 0, FailureThreshold: 2, OpenTimeout: time.Minute}, nil, nil)

	outage := func(ctx context.Context) error {
		return fmt.Errorf("%w: 502", catalogsync.ErrPlatformUnavailable)
	}
	for i := 0; i < 2; i++ {
		require.Error(t, g.call(context.Background(), "fetch", outage))
	}

	called := false
	err := g.call(context.Background(), "fetch", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called, "open breaker must short-circuit")
	assert.ErrorIs(t, err, catalogsync.ErrPlatformUnavailable)
	assert.Contains(t, err.Error(), "circuit open")
}

func TestGuard_RejectionsDoNotTripBreaker(t *testing.T) {
	g := newGuard("test", catalogsync.PlatformShopify, GuardConfig{FailureThreshold: 1, OpenTimeout: time.Minute}, nil, nil)

	for i := 0; i < 3; i++ {
		err := g.call(context.Background(), "update", func(ctx context.Context) error {
			return catalogsync.ErrPlatformAuthFailed
		})
		assert.ErrorIs(t, err, catalogsync.ErrPlatformAuthFailed)
	}
	assert.NoError(t, g.call(context.Background(), "update", func(ctx context.Context) error { return nil }))
}

func TestGuard_ContextCancelled(t *testing.T) {
	g := newGuard("test", catalogsync.PlatformShopify, GuardConfig{RequestsPerSecond: 1, Burst: 1}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.call(ctx, "fetch", func(ctx context.Context) error { return nil })
	assert.True(t, errors.Is(err, context.Canceled))
}
