package catalogsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	auditStageSummary = "summary"
	auditStageDetail  = "detail"

	reportContentType = "application/json"

	commitRetries = 3
)

// AuditDraft is one settled sync attempt, ready to be persisted
type AuditDraft struct {
	UserID   uuid.UUID
	StoreID  uuid.UUID
	Platform catalogsync.PlatformCode
	Totals   catalogsync.SyncTotals
	Details  []catalogsync.AuditDetailDraft
}

// AuditReceipt describes what the recorder managed to persist
type AuditReceipt struct {
	SummaryID       uuid.UUID
	ChunkCount      int
	PersistedChunks int
	ArchiveKey      string
}

// Complete returns true if every planned chunk was written
func (r *AuditReceipt) Complete() bool {
	return r.PersistedChunks >= r.ChunkCount
}

// CommitFunc runs inside the summary transaction, before the summary is created
type CommitFunc func(ctx context.Context, repos TransactionalRepositories) error

// AuditRecorder persists one summary and its per-SKU details. Details are
// written in contiguous chunks whose serialized size stays under a threshold;
// only chunk 0 carries the true totals.
type AuditRecorder struct {
	txScope     TransactionScope
	historyRepo catalogsync.SyncHistoryWriter
	threshold   int64
	archive     ReportArchive
	logger      *zap.Logger
	metrics     *telemetry.SyncMetrics
}

// NewAuditRecorder creates a new AuditRecorder. A threshold <= 0 uses DefaultChunkThresholdBytes.
func NewAuditRecorder(
	txScope TransactionScope,
	historyRepo catalogsync.SyncHistoryWriter,
	threshold int64,
	logger *zap.Logger,
) *AuditRecorder {
	if threshold <= 0 {
		threshold = DefaultChunkThresholdBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{
		txScope:     txScope,
		historyRepo: historyRepo,
		threshold:   threshold,
		logger:      logger,
	}
}

// SetArchive enables uploading the full report of every recorded sync
func (r *AuditRecorder) SetArchive(archive ReportArchive) {
	r.archive = archive
}

// SetSyncMetrics sets the sync metrics collector
func (r *AuditRecorder) SetSyncMetrics(m *telemetry.SyncMetrics) {
	r.metrics = m
}

// Record creates the summary in one transaction together with commit, then
// appends every detail chunk. If the transaction fails nothing is persisted and
// the receipt is nil. A failed chunk does not stop later chunks and never rolls
// back earlier ones; it is reported as ErrAuditPersistenceFailed with a receipt.
func (r *AuditRecorder) Record(ctx context.Context, draft AuditDraft, commit CommitFunc) (*AuditReceipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog_sync", "record")
	defer span.End()

	summary := catalogsync.NewSyncHistorySummary(draft.UserID, draft.StoreID, draft.Platform, draft.Totals, 0)

	header, err := json.Marshal(summary)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("serialize audit summary: %w", err)
	}
	plan, err := planChunks(draft.Details, r.threshold, int64(len(header)))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	summary.ChunkCount = len(plan)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSummaryID, summary.ID.String(),
		telemetry.SpanAttrChunkCount, len(plan),
	)

	err = r.commitSummary(ctx, summary, commit)
	r.recordChunk(ctx, auditStageSummary, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	receipt := &AuditReceipt{SummaryID: summary.ID, ChunkCount: len(plan)}

	var chunkErrs []error
	position := 0
	for seq, drafts := range plan {
		chunk := newAuditChunk(summary, seq, position, drafts)
		position += len(drafts)

		err := r.historyRepo.AppendChunk(ctx, chunk)
		r.recordChunk(ctx, auditStageDetail, err)
		if err != nil {
			r.logger.Error("Failed to persist audit chunk",
				zap.String("summary_id", summary.ID.String()),
				zap.Int("sequence", seq),
				zap.Int("details", len(drafts)),
				zap.Error(err),
			)
			chunkErrs = append(chunkErrs, fmt.Errorf("chunk %d: %w", seq, err))
			continue
		}
		receipt.PersistedChunks++
	}

	receipt.ArchiveKey = r.archiveReport(ctx, summary, draft.Details)

	if len(chunkErrs) > 0 {
		err := shared.WrapDomainError(catalogsync.ErrAuditPersistenceFailed, errors.Join(chunkErrs...))
		telemetry.RecordError(span, err)
		return receipt, err
	}
	return receipt, nil
}

// commitSummary runs commit and creates the summary in one transaction. The
// transaction is retried when an optimistic version check fails.
func (r *AuditRecorder) commitSummary(ctx context.Context, summary *catalogsync.SyncHistorySummary, commit CommitFunc) error {
	op := func() error {
		err := r.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if commit != nil {
				if err := commit(ctx, repos); err != nil {
					return err
				}
			}
			return repos.HistoryRepo().CreateSummary(ctx, summary)
		})
		if err != nil && !errors.Is(err, shared.ErrConcurrencyConflict) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, commitRetries), ctx))
}

func (r *AuditRecorder) recordChunk(ctx context.Context, stage string, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordAuditChunk(ctx, stage, err)
}

// auditReport is the archived form of one sync attempt
type auditReport struct {
	Summary *catalogsync.SyncHistorySummary `json:"summary"`
	Details []catalogsync.AuditDetailDraft  `json:"details"`
}

// archiveReport uploads the full report and returns its key, or "" if
// archiving is disabled or fails. Failures are only logged.
func (r *AuditRecorder) archiveReport(ctx context.Context, summary *catalogsync.SyncHistorySummary, details []catalogsync.AuditDetailDraft) string {
	if r.archive == nil {
		return ""
	}

	data, err := json.Marshal(auditReport{Summary: summary, Details: details})
	if err != nil {
		r.logger.Warn("Failed to serialize audit report for archive", zap.Error(err))
		return ""
	}

	key := ReportKey(summary.UserID, summary.ID)
	if err := r.archive.Upload(ctx, key, data, reportContentType); err != nil {
		r.logger.Warn("Failed to archive audit report",
			zap.String("summary_id", summary.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return ""
	}
	return key
}

// ReportKey is the storage key of an archived report
func ReportKey(userID, summaryID uuid.UUID) string {
	return fmt.Sprintf("sync-reports/%s/%s.json", userID, summaryID)
}

// newAuditChunk converts drafts into the detail records of chunk seq.
// position is the index of the first draft within the whole report.
func newAuditChunk(summary *catalogsync.SyncHistorySummary, seq, position int, drafts []catalogsync.AuditDetailDraft) *catalogsync.AuditChunk {
	chunk := &catalogsync.AuditChunk{
		SummaryID: summary.ID,
		Sequence:  seq,
		Details:   make([]catalogsync.SyncDetailRecord, len(drafts)),
	}
	if seq == 0 {
		chunk.Totals = summary.Totals
	}

	now := time.Now()
	for i, d := range drafts {
		chunk.Details[i] = catalogsync.SyncDetailRecord{
			ID:             uuid.New(),
			SummaryID:      summary.ID,
			ChunkSequence:  seq,
			Position:       position + i,
			SKU:            d.SKU,
			DisplayName:    d.DisplayName,
			Status:         d.Status,
			ChangesPayload: d.ChangesPayload,
			ErrorMessage:   d.ErrorMessage,
			CreatedAt:      now,
		}
	}
	return chunk
}

// planChunks splits details into contiguous runs whose serialized payload
// (header plus a JSON array of details) stays within threshold. A single
// detail larger than the threshold gets a chunk of its own. The plan always
// has at least one chunk so that the totals are written.
func planChunks(details []catalogsync.AuditDetailDraft, threshold, headerSize int64) ([][]catalogsync.AuditDetailDraft, error) {
	if len(details) == 0 {
		return [][]catalogsync.AuditDetailDraft{{}}, nil
	}

	var plan [][]catalogsync.AuditDetailDraft
	start := 0
	size := headerSize + 2 // []
	for i, d := range details {
		encoded, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("serialize audit detail %s: %w", d.SKU, err)
		}
		add := int64(len(encoded))
		if i > start {
			add++ // separator
		}
		if i > start && size+add > threshold {
			plan = append(plan, details[start:i])
			start = i
			size = headerSize + 2
			add = int64(len(encoded))
		}
		size += add
	}
	plan = append(plan, details[start:])
	return plan, nil
}
