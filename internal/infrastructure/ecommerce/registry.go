package ecommerce

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Registry implements catalogsync.GatewayRegistry. Gateways are built per
// store and cached until the store is modified, so that each store keeps its
// own rate limiter and circuit breaker across requests.
type Registry struct {
	cfg       config.PlatformConfig
	transport http.RoundTripper
	recorder  RemoteCallRecorder
	logger    *zap.Logger

	mu       sync.Mutex
	gateways map[uuid.UUID]cachedGateway
}

type cachedGateway struct {
	updatedAt time.Time
	gateway   catalogsync.CatalogGateway
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithTransport replaces the outbound HTTP transport
func WithTransport(t http.RoundTripper) RegistryOption {
	return func(r *Registry) {
		r.transport = t
	}
}

// WithRecorder sets the remote call metrics recorder
func WithRecorder(rec RemoteCallRecorder) RegistryOption {
	return func(r *Registry) {
		r.recorder = rec
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a gateway registry. Outbound requests are traced with otelhttp.
func NewRegistry(cfg config.PlatformConfig, opts ...RegistryOption) *Registry {
	r := &Registry{
		cfg:       cfg,
		transport: otelhttp.NewTransport(http.DefaultTransport),
		logger:    zap.NewNop(),
		gateways:  make(map[uuid.UUID]cachedGateway),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GatewayFor returns the gateway of store, building it on first use
func (r *Registry) GatewayFor(store *catalogsync.Store) (catalogsync.CatalogGateway, error) {
	if store == nil {
		return nil, catalogsync.ErrPlatformNotConfigured
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.gateways[store.ID]; ok && cached.updatedAt.Equal(store.UpdatedAt) {
		return cached.gateway, nil
	}

	gw, err := r.build(store)
	if err != nil {
		return nil, err
	}
	r.gateways[store.ID] = cachedGateway{updatedAt: store.UpdatedAt, gateway: gw}
	r.logger.Debug("Built platform gateway",
		zap.String("store_id", store.ID.String()),
		zap.String("platform", string(store.Platform)),
	)
	return gw, nil
}

// Evict drops the cached gateway of a store
func (r *Registry) Evict(storeID uuid.UUID) {
	r.mu.Lock()
	delete(r.gateways, storeID)
	r.mu.Unlock()
}

func (r *Registry) build(store *catalogsync.Store) (catalogsync.CatalogGateway, error) {
	guard := GuardConfig{
		RequestsPerSecond: r.cfg.RequestsPerSecond,
		Burst:             r.cfg.Burst,
		MaxRetries:        r.cfg.MaxRetries,
		FailureThreshold:  r.cfg.BreakerFailureThreshold,
		OpenTimeout:       r.cfg.BreakerOpenTimeout,
	}
	logger := r.logger.With(zap.String("store_id", store.ID.String()))

	switch store.Platform {
	case catalogsync.PlatformWooCommerce:
		gw, err := NewWooCommerceAdapter(&WooCommerceConfig{
			BaseURL:        store.BaseURL,
			ConsumerKey:    store.Credentials.ConsumerKey,
			ConsumerSecret: store.Credentials.ConsumerSecret,
			BatchSize:      r.cfg.WooCommerceBatchSize,
			Timeout:        r.cfg.Timeout,
		}, r.transport, guard, r.recorder, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", catalogsync.ErrPlatformNotConfigured, err)
		}
		return gw, nil
	case catalogsync.PlatformShopify:
		gw, err := NewShopifyAdapter(&ShopifyConfig{
			ShopURL:      store.BaseURL,
			AccessToken:  store.Credentials.AccessToken,
			LocationID:   store.Credentials.LocationID,
			APIVersion:   r.cfg.ShopifyAPIVersion,
			SKUChunkSize: r.cfg.ShopifySKUChunkSize,
			Timeout:      r.cfg.Timeout,
		}, r.transport, guard, r.recorder, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", catalogsync.ErrPlatformNotConfigured, err)
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("%w: %s", catalogsync.ErrUnsupportedPlatform, store.Platform)
	}
}
