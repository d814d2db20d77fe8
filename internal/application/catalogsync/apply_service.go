package catalogsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ApplyService applies confirmed previews to the remote store, settles
// partial failures, consumes one sync and hands the result to the AuditRecorder.
type ApplyService struct {
	storeRepo   catalogsync.StoreReader
	accountRepo catalogsync.SyncAccountReader
	gateways    catalogsync.GatewayRegistry
	idempotency shared.IdempotencyStore
	recorder    *AuditRecorder
	opts        Options
	logger      *zap.Logger
	metrics     *telemetry.SyncMetrics
}

// NewApplyService creates a new ApplyService. idempotency may be nil, in which
// case duplicate applies of one preview are not detected.
func NewApplyService(
	storeRepo catalogsync.StoreReader,
	accountRepo catalogsync.SyncAccountReader,
	gateways catalogsync.GatewayRegistry,
	idempotency shared.IdempotencyStore,
	recorder *AuditRecorder,
	opts Options,
	logger *zap.Logger,
) *ApplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplyService{
		storeRepo:   storeRepo,
		accountRepo: accountRepo,
		gateways:    gateways,
		idempotency: idempotency,
		recorder:    recorder,
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

// SetSyncMetrics sets the sync metrics collector
func (s *ApplyService) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// Apply submits the preview's update payload. An empty payload is a free
// no-op. A total gateway failure returns ErrRemoteBatchFailed with nothing
// persisted and no quota consumed. Per-item failures are part of the outcome.
// Audit persistence problems after the remote update are returned as
// warnings, never as an error.
func (s *ApplyService) Apply(ctx context.Context, in ApplyInput) (*ApplyResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog_sync", "apply")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, in.UserID.String(),
		telemetry.SpanAttrStoreID, in.StoreID.String(),
	)

	preview := in.Preview
	if preview == nil {
		return nil, catalogsync.ErrInvalidPreview
	}
	if err := preview.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrPreviewID, preview.PreviewID.String())
	if preview.StoreID != in.StoreID {
		return nil, shared.NewDomainError(catalogsync.ErrInvalidPreview.Code,
			catalogsync.ErrInvalidPreview.Message+": preview was built for another store")
	}

	store, err := loadOwnedStore(ctx, s.storeRepo, in.UserID, in.StoreID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if preview.Platform != store.Platform {
		return nil, shared.NewDomainError(catalogsync.ErrInvalidPreview.Code,
			fmt.Sprintf("%s: preview platform %s does not match store platform %s",
				catalogsync.ErrInvalidPreview.Message, preview.Platform, store.Platform))
	}
	platform := store.Platform.String()
	telemetry.SetAttribute(span, telemetry.SpanAttrPlatform, platform)

	if !preview.HasUpdates() {
		s.recordApply(ctx, platform, telemetry.SyncResultNoop)
		return &ApplyResult{
			Outcome:       catalogsync.NoopOutcome(preview),
			AuditComplete: true,
			Warnings:      []string{},
		}, nil
	}

	if err := checkQuota(ctx, s.accountRepo, in.UserID); err != nil {
		s.recordApply(ctx, platform, telemetry.SyncResultRejected)
		telemetry.RecordError(span, err)
		return nil, err
	}

	gateway, err := s.gateways.GatewayFor(store)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.WrapDomainError(catalogsync.ErrInvalidStore, err)
	}

	if err := s.claimPreview(ctx, preview.PreviewID); err != nil {
		s.recordApply(ctx, platform, telemetry.SyncResultRejected)
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := gateway.BatchUpdate(ctx, preview.UpdatePayload)
	if err == nil && result == nil {
		err = errors.New("gateway returned no result")
	}
	if err != nil {
		err = shared.WrapDomainError(catalogsync.ErrRemoteBatchFailed, err)
		s.recordApply(ctx, platform, telemetry.SyncResultFailed)
		telemetry.RecordError(span, err)
		s.logger.Warn("Remote batch update failed",
			zap.String("preview_id", preview.PreviewID.String()),
			zap.String("store_id", store.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	settlement := catalogsync.Settle(preview, result, s.opts.ErrorSampleSize)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUpdatedCount, settlement.Outcome.UpdatedCount,
		telemetry.SpanAttrErrorCount, settlement.Outcome.ErrorCount,
	)

	out := &ApplyResult{Outcome: settlement.Outcome, Warnings: []string{}}

	receipt, err := s.recorder.Record(ctx, AuditDraft{
		UserID:   in.UserID,
		StoreID:  store.ID,
		Platform: store.Platform,
		Totals:   settlement.Totals,
		Details:  settlement.Details,
	}, consumeSync(in.UserID))
	if receipt != nil {
		summaryID := receipt.SummaryID
		out.SummaryID = &summaryID
		out.AuditComplete = receipt.Complete()
		telemetry.SetAttribute(span, telemetry.SpanAttrSummaryID, summaryID.String())
		s.recordQuotaConsumed(ctx, platform)
	}
	if err != nil {
		warning := auditWarning(err)
		out.Warnings = append(out.Warnings, warning.Error())
		telemetry.AddEvent(span, "audit_incomplete", "error", err.Error())
		s.logger.Error("Sync applied but audit trail is incomplete",
			zap.String("preview_id", preview.PreviewID.String()),
			zap.String("store_id", store.ID.String()),
			zap.Bool("summary_written", receipt != nil),
			zap.Error(err),
		)
	}

	s.recordApply(ctx, platform, telemetry.SyncResultSuccess)
	s.recordItems(ctx, platform, settlement.Details)

	s.logger.Info("Sync applied",
		zap.String("preview_id", preview.PreviewID.String()),
		zap.String("store_id", store.ID.String()),
		zap.Int("updated", out.Outcome.UpdatedCount),
		zap.Int("errors", out.Outcome.ErrorCount),
		zap.Bool("audit_complete", out.AuditComplete),
	)
	return out, nil
}

// claimPreview makes sure a preview is applied at most once
func (s *ApplyService) claimPreview(ctx context.Context, previewID uuid.UUID) error {
	if s.idempotency == nil {
		return nil
	}
	claimed, err := s.idempotency.Claim(ctx, "apply:"+previewID.String(), s.opts.IdempotencyTTL)
	if err != nil {
		return fmt.Errorf("claim preview %s: %w", previewID, err)
	}
	if !claimed {
		return catalogsync.ErrPreviewAlreadyApplied
	}
	return nil
}

// consumeSync is the only place a sync is deducted from an account. It runs in
// the same transaction that creates the audit summary.
func consumeSync(userID uuid.UUID) CommitFunc {
	return func(ctx context.Context, repos TransactionalRepositories) error {
		account, err := repos.AccountRepo().FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return catalogsync.ErrQuotaExhausted
			}
			return err
		}
		if err := account.ConsumeSync(); err != nil {
			return err
		}
		return repos.AccountRepo().Save(ctx, account)
	}
}

// auditWarning presents err as an ErrAuditPersistenceFailed warning
func auditWarning(err error) *shared.DomainError {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Code == catalogsync.ErrAuditPersistenceFailed.Code {
		return de
	}
	return shared.WrapDomainError(catalogsync.ErrAuditPersistenceFailed, err)
}

func (s *ApplyService) recordApply(ctx context.Context, platform string, result telemetry.SyncResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordApply(ctx, platform, result)
}

func (s *ApplyService) recordQuotaConsumed(ctx context.Context, platform string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordQuotaConsumed(ctx, platform)
}

func (s *ApplyService) recordItems(ctx context.Context, platform string, details []catalogsync.AuditDetailDraft) {
	if s.metrics == nil {
		return
	}
	byStatus := make(map[string]int, 4)
	for _, d := range details {
		byStatus[string(d.Status)]++
	}
	s.metrics.RecordItems(ctx, platform, byStatus)
}
