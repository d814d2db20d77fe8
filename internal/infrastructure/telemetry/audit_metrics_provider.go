package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormAuditHealthProvider implements AuditHealthProvider using GORM.
// It compares each summary's planned chunk count with the chunks actually persisted.
type GormAuditHealthProvider struct {
	db *gorm.DB
}

// NewGormAuditHealthProvider creates a new GormAuditHealthProvider
func NewGormAuditHealthProvider(db *gorm.DB) *GormAuditHealthProvider {
	return &GormAuditHealthProvider{db: db}
}

// CountIncompleteSummaries returns the number of summaries missing at least one chunk
func (p *GormAuditHealthProvider) CountIncompleteSummaries(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("sync_history_summaries AS s").
		Where("s.chunk_count > (SELECT COUNT(*) FROM sync_history_chunks c WHERE c.summary_id = s.id)").
		Count(&count).Error

	return count, err
}
