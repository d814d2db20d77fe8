package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
)

// SyncAccountModel is the persistence model for the SyncAccount aggregate
type SyncAccountModel struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SyncsRemaining int       `gorm:"not null;default:0"`
	Version        int       `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncAccountModel) TableName() string {
	return "sync_accounts"
}

// ToDomain converts the persistence model to a domain SyncAccount
func (m *SyncAccountModel) ToDomain() *catalogsync.SyncAccount {
	return &catalogsync.SyncAccount{
		UserID:         m.UserID,
		SyncsRemaining: m.SyncsRemaining,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncAccount
func (m *SyncAccountModel) FromDomain(a *catalogsync.SyncAccount) {
	m.UserID = a.UserID
	m.SyncsRemaining = a.SyncsRemaining
	m.Version = a.Version
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// SyncHistorySummaryModel is the persistence model for one sync attempt
type SyncHistorySummaryModel struct {
	ID       uuid.UUID                `gorm:"type:uuid;primary_key"`
	UserID   uuid.UUID                `gorm:"type:uuid;not null;index:idx_sync_summaries_user_synced,priority:1"`
	StoreID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	Platform catalogsync.PlatformCode `gorm:"type:varchar(20);not null"`
	SyncedAt time.Time                `gorm:"not null;index:idx_sync_summaries_user_synced,priority:2,sort:desc"`
	Totals
	ChunkCount int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncHistorySummaryModel) TableName() string {
	return "sync_history_summaries"
}

// ToDomain converts the persistence model to a domain SyncHistorySummary
func (m *SyncHistorySummaryModel) ToDomain() catalogsync.SyncHistorySummary {
	return catalogsync.SyncHistorySummary{
		ID:         m.ID,
		UserID:     m.UserID,
		StoreID:    m.StoreID,
		Platform:   m.Platform,
		SyncedAt:   m.SyncedAt,
		Totals:     m.Totals.ToDomain(),
		ChunkCount: m.ChunkCount,
		CreatedAt:  m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncHistorySummary
func (m *SyncHistorySummaryModel) FromDomain(s *catalogsync.SyncHistorySummary) {
	m.ID = s.ID
	m.UserID = s.UserID
	m.StoreID = s.StoreID
	m.Platform = s.Platform
	m.SyncedAt = s.SyncedAt
	m.Totals = TotalsFromDomain(s.Totals)
	m.ChunkCount = s.ChunkCount
	m.CreatedAt = s.CreatedAt
}

// SyncHistoryChunkModel records that one detail chunk of a summary was persisted
type SyncHistoryChunkModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	SummaryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sync_chunks_summary_seq,priority:1"`
	Sequence  int       `gorm:"not null;uniqueIndex:idx_sync_chunks_summary_seq,priority:2"`
	Totals
	DetailCount int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncHistoryChunkModel) TableName() string {
	return "sync_history_chunks"
}

// SyncHistoryDetailModel is one per-SKU audit row
type SyncHistoryDetailModel struct {
	ID             uuid.UUID                `gorm:"type:uuid;primary_key"`
	SummaryID      uuid.UUID                `gorm:"type:uuid;not null;index:idx_sync_details_summary_pos,priority:1"`
	ChunkSequence  int                      `gorm:"not null"`
	Position       int                      `gorm:"not null;index:idx_sync_details_summary_pos,priority:2"`
	SKU            string                   `gorm:"type:varchar(255);not null"`
	DisplayName    string                   `gorm:"type:text"`
	Status         catalogsync.DetailStatus `gorm:"type:varchar(20);not null"`
	ChangesPayload string                   `gorm:"type:jsonb;not null"`
	ErrorMessage   string                   `gorm:"type:text"`
	CreatedAt      time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncHistoryDetailModel) TableName() string {
	return "sync_history_details"
}

// ToDomain converts the persistence model to a domain SyncDetailRecord
func (m *SyncHistoryDetailModel) ToDomain() catalogsync.SyncDetailRecord {
	return catalogsync.SyncDetailRecord{
		ID:             m.ID,
		SummaryID:      m.SummaryID,
		ChunkSequence:  m.ChunkSequence,
		Position:       m.Position,
		SKU:            m.SKU,
		DisplayName:    m.DisplayName,
		Status:         m.Status,
		ChangesPayload: json.RawMessage(m.ChangesPayload),
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncDetailRecord
func (m *SyncHistoryDetailModel) FromDomain(d *catalogsync.SyncDetailRecord) {
	m.ID = d.ID
	m.SummaryID = d.SummaryID
	m.ChunkSequence = d.ChunkSequence
	m.Position = d.Position
	m.SKU = d.SKU
	m.DisplayName = d.DisplayName
	m.Status = d.Status
	m.ChangesPayload = string(d.ChangesPayload)
	if m.ChangesPayload == "" {
		m.ChangesPayload = "{}"
	}
	m.ErrorMessage = d.ErrorMessage
	m.CreatedAt = d.CreatedAt
}

// ToDomain converts the counters to domain totals
func (t Totals) ToDomain() catalogsync.SyncTotals {
	return catalogsync.SyncTotals{
		Processed: t.TotalProcessed,
		Updated:   t.TotalUpdated,
		NotFound:  t.TotalNotFound,
		UpToDate:  t.TotalUpToDate,
		Errors:    t.TotalErrors,
	}
}

// TotalsFromDomain converts domain totals to persisted counters
func TotalsFromDomain(t catalogsync.SyncTotals) Totals {
	return Totals{
		TotalProcessed: t.Processed,
		TotalUpdated:   t.Updated,
		TotalNotFound:  t.NotFound,
		TotalUpToDate:  t.UpToDate,
		TotalErrors:    t.Errors,
	}
}
