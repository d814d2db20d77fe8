package catalogsync

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
)

// PreviewInput contains input for building a sync preview
type PreviewInput struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Records []catalogsync.LocalStockRecord
}

// ApplyInput contains input for applying a confirmed preview
type ApplyInput struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Preview *catalogsync.SyncPreview
}

// ApplyResult is returned by a non-fatal apply. Warnings are set when the
// remote update happened but the audit trail could not be fully written.
type ApplyResult struct {
	Outcome       catalogsync.SyncOutcome `json:"outcome"`
	SummaryID     *uuid.UUID              `json:"summary_id,omitempty"`
	AuditComplete bool                    `json:"audit_complete"`
	Warnings      []string                `json:"warnings"`
}

// HistoryListQuery filters the summary listing
type HistoryListQuery struct {
	Page     int
	PageSize int
	StoreID  *uuid.UUID
	OrderBy  string
	OrderDir string
}

// HistoryDetailQuery filters the details of one summary
type HistoryDetailQuery struct {
	Page     int
	PageSize int
	Status   string
}

// HistorySummaryResponse is one audit summary as exposed by the API
type HistorySummaryResponse struct {
	ID              uuid.UUID `json:"id"`
	StoreID         uuid.UUID `json:"store_id"`
	Platform        string    `json:"platform"`
	SyncedAt        time.Time `json:"synced_at"`
	TotalProcessed  int       `json:"total_processed"`
	TotalUpdated    int       `json:"total_updated"`
	TotalNotFound   int       `json:"total_not_found"`
	TotalUpToDate   int       `json:"total_up_to_date"`
	TotalErrors     int       `json:"total_errors"`
	ChunkCount      int       `json:"chunk_count"`
	PersistedChunks int       `json:"persisted_chunks"`
	Complete        bool      `json:"complete"`
}

// HistoryDetailResponse is one per-SKU audit row
type HistoryDetailResponse struct {
	ID           uuid.UUID       `json:"id"`
	Position     int             `json:"position"`
	SKU          string          `json:"sku"`
	DisplayName  string          `json:"display_name"`
	Status       string          `json:"status"`
	Changes      json.RawMessage `json:"changes"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// HistoryReportResponse is a summary with one page of its details
type HistoryReportResponse struct {
	Summary    HistorySummaryResponse  `json:"summary"`
	Details    []HistoryDetailResponse `json:"details"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}

// ReportDownloadResponse is a presigned link to an archived report
type ReportDownloadResponse struct {
	SummaryID uuid.UUID `json:"summary_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QuotaResponse reports a user's remaining syncs
type QuotaResponse struct {
	UserID         uuid.UUID `json:"user_id"`
	SyncsRemaining int       `json:"syncs_remaining"`
	CanSync        bool      `json:"can_sync"`
}

// RegisterStoreInput contains input for registering a store
type RegisterStoreInput struct {
	UserID         uuid.UUID
	Name           string
	Platform       string
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	LocationID     string
}

// StoreResponse is a store without its credentials
type StoreResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`
	BaseURL   string    `json:"base_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToHistorySummaryResponse converts a history entry to its response
func ToHistorySummaryResponse(e catalogsync.HistoryEntry) HistorySummaryResponse {
	s := e.Summary
	return HistorySummaryResponse{
		ID:              s.ID,
		StoreID:         s.StoreID,
		Platform:        s.Platform.String(),
		SyncedAt:        s.SyncedAt,
		TotalProcessed:  s.Totals.Processed,
		TotalUpdated:    s.Totals.Updated,
		TotalNotFound:   s.Totals.NotFound,
		TotalUpToDate:   s.Totals.UpToDate,
		TotalErrors:     s.Totals.Errors,
		ChunkCount:      s.ChunkCount,
		PersistedChunks: e.PersistedChunks,
		Complete:        e.Complete(),
	}
}

// ToHistoryDetailResponse converts a detail record to its response
func ToHistoryDetailResponse(d catalogsync.SyncDetailRecord) HistoryDetailResponse {
	changes := d.ChangesPayload
	if len(changes) == 0 {
		changes = json.RawMessage(`{}`)
	}
	return HistoryDetailResponse{
		ID:           d.ID,
		Position:     d.Position,
		SKU:          d.SKU,
		DisplayName:  d.DisplayName,
		Status:       string(d.Status),
		Changes:      changes,
		ErrorMessage: d.ErrorMessage,
	}
}

// ToQuotaResponse converts an account to its quota response
func ToQuotaResponse(a *catalogsync.SyncAccount) QuotaResponse {
	return QuotaResponse{
		UserID:         a.UserID,
		SyncsRemaining: a.SyncsRemaining,
		CanSync:        a.CanSync(),
	}
}

// ToStoreResponse converts a store to its response
func ToStoreResponse(s *catalogsync.Store) StoreResponse {
	return StoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		Platform:  s.Platform.String(),
		BaseURL:   s.BaseURL,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
