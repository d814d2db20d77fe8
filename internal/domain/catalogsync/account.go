package catalogsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/shared"
)

// SyncAccount is the per-user aggregate owning the remaining-sync quota.
// The counter only moves through ConsumeSync and Grant.
type SyncAccount struct {
	UserID         uuid.UUID
	SyncsRemaining int
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSyncAccount creates an account with an initial allowance
func NewSyncAccount(userID uuid.UUID, syncs int) (*SyncAccount, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "user id is required")
	}
	if syncs < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "initial syncs cannot be negative")
	}
	now := time.Now()
	return &SyncAccount{
		UserID:         userID,
		SyncsRemaining: syncs,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanSync returns true if at least one sync remains
func (a *SyncAccount) CanSync() bool {
	return a.SyncsRemaining > 0
}

// ConsumeSync spends exactly one sync
func (a *SyncAccount) ConsumeSync() error {
	if !a.CanSync() {
		return ErrQuotaExhausted
	}
	a.SyncsRemaining--
	a.UpdatedAt = time.Now()
	return nil
}

// Grant adds syncs to the account
func (a *SyncAccount) Grant(n int) error {
	if n <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "grant must be positive")
	}
	a.SyncsRemaining += n
	a.UpdatedAt = time.Now()
	return nil
}

// SyncAccountReader defines read operations for sync accounts
type SyncAccountReader interface {
	// FindByUserID returns shared.ErrNotFound if the user has no account
	FindByUserID(ctx context.Context, userID uuid.UUID) (*SyncAccount, error)
}

// SyncAccountWriter defines write operations for sync accounts
type SyncAccountWriter interface {
	// Create inserts a new account
	Create(ctx context.Context, account *SyncAccount) error
	// Save persists the account if its version is unchanged since it was read,
	// returning shared.ErrConcurrencyConflict otherwise. Version is bumped on success.
	Save(ctx context.Context, account *SyncAccount) error
}

// SyncAccountRepository combines account read and write operations
type SyncAccountRepository interface {
	SyncAccountReader
	SyncAccountWriter
}
