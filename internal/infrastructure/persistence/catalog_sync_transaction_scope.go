package persistence

import (
	"context"

	appsync "github.com/storesync/backend/internal/application/catalogsync"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// The quota decrement and the summary insert of an apply commit together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsync.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// AccountRepo returns the sync account repository scoped to the current transaction
func (r *gormTransactionalRepositories) AccountRepo() catalogsync.SyncAccountRepository {
	return NewGormSyncAccountRepository(r.tx)
}

// HistoryRepo returns the sync history repository scoped to the current transaction
func (r *gormTransactionalRepositories) HistoryRepo() catalogsync.SyncHistoryRepository {
	return NewGormSyncHistoryRepository(r.tx)
}

var _ appsync.TransactionScope = (*GormTransactionScope)(nil)
var _ appsync.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
