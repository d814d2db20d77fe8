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

// GormSyncAccountRepository implements catalogsync.SyncAccountRepository using GORM
type GormSyncAccountRepository struct {
	db *gorm.DB
}

// NewGormSyncAccountRepository creates a new GormSyncAccountRepository
func NewGormSyncAccountRepository(db *gorm.DB) *GormSyncAccountRepository {
	return &GormSyncAccountRepository{db: db}
}

// FindByUserID finds the account of a user
func (r *GormSyncAccountRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*catalogsync.SyncAccount, error) {
	var model models.SyncAccountModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new account. A second account for the same user yields
// shared.ErrAlreadyExists.
func (r *GormSyncAccountRepository) Create(ctx context.Context, account *catalogsync.SyncAccount) error {
	var model models.SyncAccountModel
	model.FromDomain(account)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save writes the counter if the stored version still matches and the
// counter stays non-negative. Any other outcome is a concurrency conflict:
// the caller reloads and retries.
func (r *GormSyncAccountRepository) Save(ctx context.Context, account *catalogsync.SyncAccount) error {
	if account.SyncsRemaining < 0 {
		return catalogsync.ErrQuotaExhausted
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.SyncAccountModel{}).
		Where("user_id = ? AND version = ?", account.UserID, account.Version).
		Updates(map[string]any{
			"syncs_remaining": account.SyncsRemaining,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	account.Version++
	account.UpdatedAt = now
	return nil
}

var _ catalogsync.SyncAccountRepository = (*GormSyncAccountRepository)(nil)
