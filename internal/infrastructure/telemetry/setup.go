package telemetry

import (
	"context"
	"errors"

	"github.com/storesync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Providers groups the three OpenTelemetry providers of the process
type Providers struct {
	Tracer *TracerProvider
	Meter  *MeterProvider
	Logs   *LoggerProvider

	cfg    config.TelemetryConfig
	logger *zap.Logger
}

// Setup creates the tracer, meter and logger providers from cfg. Providers
// are inert when telemetry is disabled; log export additionally requires
// LogExportEnabled.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tp, err := NewTracerProvider(ctx, Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}

	mp, err := NewMeterProvider(ctx, MetricsConfig{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	lp, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           cfg.Enabled && cfg.LogExportEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	return &Providers{Tracer: tp, Meter: mp, Logs: lp, cfg: cfg, logger: logger}, nil
}

// InstrumentDB registers query tracing and query metrics on db according to
// the telemetry configuration. The returned DBMetrics is nil when metrics are
// disabled; otherwise the caller stops it on shutdown.
func (p *Providers) InstrumentDB(ctx context.Context, db *gorm.DB) (*DBMetrics, error) {
	tracing := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         p.cfg.Enabled && p.cfg.DBTraceEnabled,
		LogFullSQL:      p.cfg.DBLogFullSQL,
		SlowQueryThresh: p.cfg.DBSlowQueryThresh,
	}, p.logger)
	if err := tracing.RegisterOtelGorm(db); err != nil {
		return nil, err
	}

	if !p.Meter.IsEnabled() {
		return nil, nil
	}
	metrics, err := NewDBMetrics(p.Meter.Meter("storesync.db"), DBMetricsConfig{
		SlowQueryThreshold: p.cfg.DBSlowQueryThresh,
	}, p.logger)
	if err != nil {
		return nil, err
	}
	if err := db.Use(metrics); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.StartPoolStatsCollection(ctx, sqlDB)
	return metrics, nil
}

// Shutdown flushes and stops every provider, logs last
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Tracer.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Logs.Shutdown(ctx),
	)
}
