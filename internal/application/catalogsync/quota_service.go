package catalogsync

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// QuotaService reads and tops up sync accounts. It never consumes syncs;
// that only happens when an apply is recorded.
type QuotaService struct {
	accountRepo catalogsync.SyncAccountRepository
	logger      *zap.Logger
}

// NewQuotaService creates a new QuotaService
func NewQuotaService(accountRepo catalogsync.SyncAccountRepository, logger *zap.Logger) *QuotaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotaService{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// GetQuota returns the user's remaining syncs. A user without an account has none.
func (s *QuotaService) GetQuota(ctx context.Context, userID uuid.UUID) (*QuotaResponse, error) {
	account, err := s.accountRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &QuotaResponse{UserID: userID}, nil
		}
		return nil, err
	}
	resp := ToQuotaResponse(account)
	return &resp, nil
}

// Grant adds syncs to the user's account, creating it on first grant.
// Lost races against a concurrent apply or grant are retried.
func (s *QuotaService) Grant(ctx context.Context, userID uuid.UUID, syncs int) (*QuotaResponse, error) {
	var account *catalogsync.SyncAccount

	op := func() error {
		var err error
		account, err = s.grantOnce(ctx, userID, syncs)
		if err == nil {
			return nil
		}
		if errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, shared.ErrAlreadyExists) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx)); err != nil {
		return nil, err
	}

	s.logger.Info("Syncs granted",
		zap.String("user_id", userID.String()),
		zap.Int("granted", syncs),
		zap.Int("syncs_remaining", account.SyncsRemaining),
	)
	resp := ToQuotaResponse(account)
	return &resp, nil
}

func (s *QuotaService) grantOnce(ctx context.Context, userID uuid.UUID, syncs int) (*catalogsync.SyncAccount, error) {
	account, err := s.accountRepo.FindByUserID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		if syncs <= 0 {
			return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "grant must be positive")
		}
		account, err = catalogsync.NewSyncAccount(userID, syncs)
		if err != nil {
			return nil, err
		}
		if err := s.accountRepo.Create(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}
	if err != nil {
		return nil, err
	}

	if err := account.Grant(syncs); err != nil {
		return nil, err
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
