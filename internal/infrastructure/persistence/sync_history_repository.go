package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// detailBatchSize bounds the rows per INSERT so large chunks stay under the
// postgres bind parameter limit.
const detailBatchSize = 500

// GormSyncHistoryRepository implements catalogsync.SyncHistoryRepository using GORM.
// Summaries, chunks and details are append-only.
type GormSyncHistoryRepository struct {
	db *gorm.DB
}

// NewGormSyncHistoryRepository creates a new GormSyncHistoryRepository
func NewGormSyncHistoryRepository(db *gorm.DB) *GormSyncHistoryRepository {
	return &GormSyncHistoryRepository{db: db}
}

// CreateSummary inserts a summary row
func (r *GormSyncHistoryRepository) CreateSummary(ctx context.Context, summary *catalogsync.SyncHistorySummary) error {
	var model models.SyncHistorySummaryModel
	model.FromDomain(summary)
	return r.db.WithContext(ctx).Create(&model).Error
}

// AppendChunk writes the chunk ledger row and its details in one transaction.
// Re-appending an existing sequence yields shared.ErrAlreadyExists.
func (r *GormSyncHistoryRepository) AppendChunk(ctx context.Context, chunk *catalogsync.AuditChunk) error {
	now := time.Now()
	ledger := models.SyncHistoryChunkModel{
		ID:          uuid.New(),
		SummaryID:   chunk.SummaryID,
		Sequence:    chunk.Sequence,
		Totals:      models.TotalsFromDomain(chunk.Totals),
		DetailCount: len(chunk.Details),
		CreatedAt:   now,
	}

	rows := make([]models.SyncHistoryDetailModel, len(chunk.Details))
	for i := range chunk.Details {
		rows[i].FromDomain(&chunk.Details[i])
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, detailBatchSize).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

// FindSummary finds a summary of userID together with its persisted chunk count
func (r *GormSyncHistoryRepository) FindSummary(ctx context.Context, userID, summaryID uuid.UUID) (*catalogsync.HistoryEntry, error) {
	var model models.SyncHistorySummaryModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", summaryID, userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	counts, err := r.chunkCounts(ctx, []uuid.UUID{model.ID})
	if err != nil {
		return nil, err
	}
	return &catalogsync.HistoryEntry{
		Summary:         model.ToDomain(),
		PersistedChunks: counts[model.ID],
	}, nil
}

// ListSummaries lists summaries, newest first unless the filter orders otherwise
func (r *GormSyncHistoryRepository) ListSummaries(ctx context.Context, filter catalogsync.HistoryFilter) ([]catalogsync.HistoryEntry, int64, error) {
	page := filter.Filter.Normalize()

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", filter.UserID)
		if filter.StoreID != nil {
			db = db.Where("store_id = ?", *filter.StoreID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SyncHistorySummaryModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SyncHistorySummaryModel
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order(ValidateSortField(page.OrderBy, SyncHistorySortFields, "synced_at") + " " + ValidateSortOrder(page.OrderDir)).
		Order("id").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	counts, err := r.chunkCounts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]catalogsync.HistoryEntry, len(rows))
	for i := range rows {
		entries[i] = catalogsync.HistoryEntry{
			Summary:         rows[i].ToDomain(),
			PersistedChunks: counts[rows[i].ID],
		}
	}
	return entries, total, nil
}

// ListDetails lists the details of a summary in their original order
func (r *GormSyncHistoryRepository) ListDetails(ctx context.Context, summaryID uuid.UUID, filter catalogsync.DetailFilter) ([]catalogsync.SyncDetailRecord, int64, error) {
	page := filter.Filter.Normalize()

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("summary_id = ?", summaryID)
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SyncHistoryDetailModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SyncHistoryDetailModel
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("position ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	details := make([]catalogsync.SyncDetailRecord, len(rows))
	for i := range rows {
		details[i] = rows[i].ToDomain()
	}
	return details, total, nil
}

// SumChunkTotals adds up the totals of every persisted chunk of a summary
func (r *GormSyncHistoryRepository) SumChunkTotals(ctx context.Context, summaryID uuid.UUID) (catalogsync.SyncTotals, error) {
	var sum models.Totals
	err := r.db.WithContext(ctx).
		Model(&models.SyncHistoryChunkModel{}).
		Select("COALESCE(SUM(total_processed), 0) AS total_processed",
			"COALESCE(SUM(total_updated), 0) AS total_updated",
			"COALESCE(SUM(total_not_found), 0) AS total_not_found",
			"COALESCE(SUM(total_up_to_date), 0) AS total_up_to_date",
			"COALESCE(SUM(total_errors), 0) AS total_errors").
		Where("summary_id = ?", summaryID).
		Scan(&sum).Error
	if err != nil {
		return catalogsync.SyncTotals{}, err
	}
	return sum.ToDomain(), nil
}

type chunkCount struct {
	SummaryID uuid.UUID
	Chunks    int
}

func (r *GormSyncHistoryRepository) chunkCounts(ctx context.Context, summaryIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(summaryIDs))
	if len(summaryIDs) == 0 {
		return counts, nil
	}

	var rows []chunkCount
	err := r.db.WithContext(ctx).
		Model(&models.SyncHistoryChunkModel{}).
		Select("summary_id, COUNT(*) AS chunks").
		Where("summary_id IN ?", summaryIDs).
		Group("summary_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SummaryID] = row.Chunks
	}
	return counts, nil
}

var _ catalogsync.SyncHistoryRepository = (*GormSyncHistoryRepository)(nil)
