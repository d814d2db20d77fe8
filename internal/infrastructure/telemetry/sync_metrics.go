package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics provides business metrics for catalog synchronization.
// It tracks previews, applies, per-item outcomes, remote platform calls
// and the health of the audit trail.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	previewTotal     *Counter
	applyTotal       *Counter
	itemsTotal       *Counter
	quotaConsumed    *Counter
	auditChunksTotal *Counter

	// Histogram metrics
	remoteCallDuration *Histogram

	// Gauge metrics (point-in-time values)
	incompleteAudits *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	auditProvider AuditHealthProvider
}

// AuditHealthProvider provides audit trail data for periodic metrics collection.
// This interface allows the telemetry layer to query persistence state without
// depending on the catalog sync domain directly.
type AuditHealthProvider interface {
	// CountIncompleteSummaries returns how many summaries have fewer persisted chunks than planned
	CountIncompleteSummaries(ctx context.Context) (int64, error)
}

// SyncMetricsConfig holds configuration for sync metrics
type SyncMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	AuditProvider   AuditHealthProvider
}

// NewSyncMetrics creates a new SyncMetrics instance
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		auditProvider: cfg.AuditProvider,
	}

	var err error

	sm.previewTotal, err = NewCounter(
		cfg.Meter,
		"storesync_preview_total",
		"Total number of sync previews built",
		"{previews}",
	)
	if err != nil {
		return nil, err
	}

	sm.applyTotal, err = NewCounter(
		cfg.Meter,
		"storesync_apply_total",
		"Total number of confirmed sync attempts",
		"{applies}",
	)
	if err != nil {
		return nil, err
	}

	sm.itemsTotal, err = NewCounter(
		cfg.Meter,
		"storesync_items_total",
		"Total number of SKUs processed by confirmed syncs, by final status",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	sm.quotaConsumed, err = NewCounter(
		cfg.Meter,
		"storesync_quota_consumed_total",
		"Total number of syncs deducted from user quotas",
		"{syncs}",
	)
	if err != nil {
		return nil, err
	}

	sm.auditChunksTotal, err = NewCounter(
		cfg.Meter,
		"storesync_audit_chunks_total",
		"Total number of audit detail chunk writes",
		"{chunks}",
	)
	if err != nil {
		return nil, err
	}

	sm.remoteCallDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "storesync_remote_call_duration_seconds",
		Description: "Duration of calls to e-commerce platform APIs",
		Unit:        "s",
		Boundaries:  RemoteCallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.incompleteAudits, err = NewGauge(
		cfg.Meter,
		"storesync_audit_incomplete_summaries",
		"Number of sync summaries whose detail chunks were not all persisted",
		"{summaries}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// =============================================================================
// Sync Metrics
// =============================================================================

// SyncResult is the outcome label of a preview or apply
type SyncResult string

const (
	SyncResultSuccess  SyncResult = "success"
	SyncResultNoop     SyncResult = "noop"
	SyncResultRejected SyncResult = "rejected"
	SyncResultFailed   SyncResult = "failed"
)

// RecordPreview records a preview build
func (sm *SyncMetrics) RecordPreview(ctx context.Context, platform string, result SyncResult) {
	sm.previewTotal.Inc(ctx,
		AttrPlatform.String(platform),
		AttrResult.String(string(result)),
	)
}

// RecordApply records a confirmed sync attempt
func (sm *SyncMetrics) RecordApply(ctx context.Context, platform string, result SyncResult) {
	sm.applyTotal.Inc(ctx,
		AttrPlatform.String(platform),
		AttrResult.String(string(result)),
	)
}

// RecordItems records per-status item counts of one apply. Zero counts are skipped.
func (sm *SyncMetrics) RecordItems(ctx context.Context, platform string, byStatus map[string]int) {
	for status, n := range byStatus {
		if n <= 0 {
			continue
		}
		sm.itemsTotal.Add(ctx, int64(n),
			AttrPlatform.String(platform),
			AttrItemStatus.String(status),
		)
	}
}

// RecordQuotaConsumed records one sync deducted from a user quota
func (sm *SyncMetrics) RecordQuotaConsumed(ctx context.Context, platform string) {
	sm.quotaConsumed.Inc(ctx, AttrPlatform.String(platform))
}

// RecordAuditChunk records one chunk write. stage is "summary" for the chunk
// written with the summary and "detail" for later chunks.
func (sm *SyncMetrics) RecordAuditChunk(ctx context.Context, stage string, err error) {
	result := SyncResultSuccess
	if err != nil {
		result = SyncResultFailed
	}
	sm.auditChunksTotal.Inc(ctx,
		AttrAuditStage.String(stage),
		AttrResult.String(string(result)),
	)
}

// RecordRemoteCall records the duration of one platform API call
func (sm *SyncMetrics) RecordRemoteCall(ctx context.Context, platform, operation string, d time.Duration, err error) {
	result := SyncResultSuccess
	if err != nil {
		result = SyncResultFailed
	}
	sm.remoteCallDuration.RecordDuration(ctx, d,
		AttrPlatform.String(platform),
		AttrOperation.String(operation),
		AttrResult.String(string(result)),
	)
}

// RecordIncompleteAudits records the number of incomplete audit summaries
func (sm *SyncMetrics) RecordIncompleteAudits(ctx context.Context, count int64) {
	sm.incompleteAudits.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (sm *SyncMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go sm.runPeriodicCollection(ctx, interval)
	})
}

func (sm *SyncMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sm.collectAuditMetrics(ctx)

	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic sync metrics collection")
			return
		case <-ctx.Done():
			sm.logger.Info("Context cancelled, stopping periodic sync metrics collection")
			return
		case <-ticker.C:
			sm.collectAuditMetrics(ctx)
		}
	}
}

func (sm *SyncMetrics) collectAuditMetrics(ctx context.Context) {
	if sm.auditProvider == nil {
		sm.logger.Debug("No audit provider configured, skipping audit metrics collection")
		return
	}

	count, err := sm.auditProvider.CountIncompleteSummaries(ctx)
	if err != nil {
		sm.logger.Warn("Failed to count incomplete audit summaries", zap.Error(err))
		return
	}
	sm.RecordIncompleteAudits(ctx, count)
}

// Stop stops the periodic collection
func (sm *SyncMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
