package catalogsync

import (
	"context"

	"github.com/storesync/backend/internal/domain/catalogsync"
)

// TransactionScope provides transactional access to the quota and audit repositories.
// The Sync Applier uses it to consume one sync and create the audit summary as a
// single commit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories that share one database transaction
type TransactionalRepositories interface {
	// AccountRepo returns the sync account repository scoped to the current transaction
	AccountRepo() catalogsync.SyncAccountRepository
	// HistoryRepo returns the sync history repository scoped to the current transaction
	HistoryRepo() catalogsync.SyncHistoryRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// This is useful for testing.
type NoOpTransactionScope struct {
	accountRepo catalogsync.SyncAccountRepository
	historyRepo catalogsync.SyncHistoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	accountRepo catalogsync.SyncAccountRepository,
	historyRepo catalogsync.SyncHistoryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		accountRepo: accountRepo,
		historyRepo: historyRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// AccountRepo returns the sync account repository
func (s *NoOpTransactionScope) AccountRepo() catalogsync.SyncAccountRepository {
	return s.accountRepo
}

// HistoryRepo returns the sync history repository
func (s *NoOpTransactionScope) HistoryRepo() catalogsync.SyncHistoryRepository {
	return s.historyRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
