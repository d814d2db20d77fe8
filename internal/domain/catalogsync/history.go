package catalogsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/shared"
)

// SyncTotals are the per-attempt counters of the audit summary
type SyncTotals struct {
	Processed int `json:"total_processed"`
	Updated   int `json:"total_updated"`
	NotFound  int `json:"total_not_found"`
	UpToDate  int `json:"total_up_to_date"`
	Errors    int `json:"total_errors"`
}

// TotalsFromOutcome derives summary totals from an outcome
func TotalsFromOutcome(o SyncOutcome, processed int) SyncTotals {
	return SyncTotals{
		Processed: processed,
		Updated:   o.UpdatedCount,
		NotFound:  o.NotFoundCount,
		UpToDate:  o.UpToDateCount,
		Errors:    o.ErrorCount,
	}
}

// Add returns the field-wise sum of t and o
func (t SyncTotals) Add(o SyncTotals) SyncTotals {
	return SyncTotals{
		Processed: t.Processed + o.Processed,
		Updated:   t.Updated + o.Updated,
		NotFound:  t.NotFound + o.NotFound,
		UpToDate:  t.UpToDate + o.UpToDate,
		Errors:    t.Errors + o.Errors,
	}
}

// IsZero returns true if every counter is zero
func (t SyncTotals) IsZero() bool {
	return t == SyncTotals{}
}

// SyncHistorySummary is created once per confirmed sync attempt and never mutated
type SyncHistorySummary struct {
	ID       uuid.UUID    `json:"id"`
	UserID   uuid.UUID    `json:"user_id"`
	StoreID  uuid.UUID    `json:"store_id"`
	Platform PlatformCode `json:"platform"`
	SyncedAt time.Time    `json:"synced_at"`
	Totals   SyncTotals   `json:"totals"`
	// ChunkCount is how many detail chunks the recorder planned to write
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSyncHistorySummary creates a summary for a sync attempt
func NewSyncHistorySummary(userID, storeID uuid.UUID, platform PlatformCode, totals SyncTotals, chunkCount int) *SyncHistorySummary {
	now := time.Now()
	return &SyncHistorySummary{
		ID:         uuid.New(),
		UserID:     userID,
		StoreID:    storeID,
		Platform:   platform,
		SyncedAt:   now,
		Totals:     totals,
		ChunkCount: chunkCount,
		CreatedAt:  now,
	}
}

// SyncDetailRecord is the persisted per-SKU audit row
type SyncDetailRecord struct {
	ID             uuid.UUID
	SummaryID      uuid.UUID
	ChunkSequence  int
	Position       int
	SKU            string
	DisplayName    string
	Status         DetailStatus
	ChangesPayload json.RawMessage
	ErrorMessage   string
	CreatedAt      time.Time
}

// AuditChunk is one size-bounded write of detail records. Only sequence 0
// carries the true totals; later chunks carry zero totals.
type AuditChunk struct {
	SummaryID uuid.UUID
	Sequence  int
	Totals    SyncTotals
	Details   []SyncDetailRecord
}

// HistoryEntry is a summary together with its persistence completeness
type HistoryEntry struct {
	Summary         SyncHistorySummary
	PersistedChunks int
}

// Complete returns true if every planned chunk was written
func (e HistoryEntry) Complete() bool {
	return e.PersistedChunks >= e.Summary.ChunkCount
}

// HistoryFilter narrows summary listings
type HistoryFilter struct {
	shared.Filter
	UserID  uuid.UUID
	StoreID *uuid.UUID
}

// DetailFilter narrows detail listings
type DetailFilter struct {
	shared.Filter
	Status DetailStatus
}

// SyncHistoryReader defines read operations on the audit trail
type SyncHistoryReader interface {
	// FindSummary returns shared.ErrNotFound unless the summary exists and belongs to userID
	FindSummary(ctx context.Context, userID, summaryID uuid.UUID) (*HistoryEntry, error)
	ListSummaries(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int64, error)
	ListDetails(ctx context.Context, summaryID uuid.UUID, filter DetailFilter) ([]SyncDetailRecord, int64, error)
	// SumChunkTotals adds up the totals of every persisted chunk of a summary
	SumChunkTotals(ctx context.Context, summaryID uuid.UUID) (SyncTotals, error)
}

// SyncHistoryWriter defines the append-only writes of the audit trail
type SyncHistoryWriter interface {
	CreateSummary(ctx context.Context, summary *SyncHistorySummary) error
	// AppendChunk writes one chunk and its details atomically
	AppendChunk(ctx context.Context, chunk *AuditChunk) error
}

// SyncHistoryRepository combines audit trail read and write operations
type SyncHistoryRepository interface {
	SyncHistoryReader
	SyncHistoryWriter
}
