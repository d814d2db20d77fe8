package catalogsync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type applyFixture struct {
	userID      uuid.UUID
	store       *catalogsync.Store
	accounts    *fakeAccountRepository
	history     *fakeHistoryRepository
	gateway     *MockCatalogGateway
	idempotency shared.IdempotencyStore
	recorder    *AuditRecorder
	service     *ApplyService
}

func newApplyFixture(t *testing.T, syncs int) *applyFixture {
	t.Helper()
	userID := uuid.New()
	store := newTestStore(t, userID)

	stores := new(MockStoreRepository)
	stores.On("FindByID", mock.Anything, store.ID).Return(store, nil).Maybe()

	accounts := newFakeAccountRepository(newTestAccount(t, userID, syncs))
	history := newFakeHistoryRepository()
	gateway := &MockCatalogGateway{platform: store.Platform}
	idempotency := newMemoryIdempotency()

	recorder := NewAuditRecorder(NewNoOpTransactionScope(accounts, history), history, 0, zap.NewNop())
	service := NewApplyService(stores, accounts, &staticRegistry{gateway: gateway}, idempotency, recorder,
		DefaultOptions(), zap.NewNop())

	return &applyFixture{
		userID:      userID,
		store:       store,
		accounts:    accounts,
		history:     history,
		gateway:     gateway,
		idempotency: idempotency,
		recorder:    recorder,
		service:     service,
	}
}

func (f *applyFixture) input(p *catalogsync.SyncPreview) ApplyInput {
	return ApplyInput{UserID: f.userID, StoreID: f.store.ID, Preview: p}
}

func TestApplyService_PartialFailure(t *testing.T) {
	f := newApplyFixture(t, 3)
	preview := stalePreview(t, f.store, 3)

	result := &catalogsync.BatchUpdateResult{}
	result.Succeed("1000")
	result.Succeed("1002")
	result.Fail("1001", "stock locked")
	f.gateway.On("BatchUpdate", mock.Anything, preview.UpdatePayload).Return(result, nil).Once()

	out, err := f.service.Apply(context.Background(), f.input(preview))

	require.NoError(t, err)
	assert.Equal(t, 2, out.Outcome.UpdatedCount)
	assert.Equal(t, 1, out.Outcome.ErrorCount)
	assert.Equal(t, []string{"SKU-001: stock locked"}, out.Outcome.ErrorSamples)
	assert.True(t, out.AuditComplete)
	assert.Empty(t, out.Warnings)
	require.NotNil(t, out.SummaryID)

	assert.Equal(t, 2, f.accounts.remaining(f.userID), "exactly one sync consumed")
	assert.Equal(t, 1, f.history.summaryCount())

	details := f.history.details(*out.SummaryID)
	require.Len(t, details, 3)
	assert.Equal(t, catalogsync.DetailStatusUpdated, details[0].Status)
	assert.Equal(t, catalogsync.DetailStatusError, details[1].Status)
	assert.Equal(t, "stock locked", details[1].ErrorMessage)
	assert.Equal(t, catalogsync.DetailStatusUpdated, details[2].Status)

	totals, err := f.history.SumChunkTotals(context.Background(), *out.SummaryID)
	require.NoError(t, err)
	assert.Equal(t, catalogsync.SyncTotals{Processed: 3, Updated: 2, Errors: 1}, totals)
	f.gateway.AssertExpectations(t)
}

func TestApplyService_DuplicateSKUKeepsAccounting(t *testing.T) {
	tests := []struct {
		name        string
		settle      func(r *catalogsync.BatchUpdateResult)
		wantUpdated int
		wantErrors  int
	}{
		{
			name: "every command succeeds",
			settle: func(r *catalogsync.BatchUpdateResult) {
				r.Succeed("1000")
				r.Succeed("1001")
				r.Succeed("1000")
			},
			wantUpdated: 3,
		},
		{
			name: "duplicated variant fails",
			settle: func(r *catalogsync.BatchUpdateResult) {
				r.Fail("1000", "price rejected")
				r.Succeed("1001")
				r.Fail("1000", "price rejected")
			},
			wantUpdated: 1,
			wantErrors:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApplyFixture(t, 1)
			local, remote := staleDataset(2)
			local = append(local, local[0])
			preview, err := catalogsync.NewSyncPreview(f.store.ID, f.store.Platform,
				catalogsync.Classify(local, catalogsync.IndexBySKU(remote)))
			require.NoError(t, err)
			require.Len(t, preview.ToUpdate, 3)

			result := &catalogsync.BatchUpdateResult{}
			tt.settle(result)
			f.gateway.On("BatchUpdate", mock.Anything, preview.UpdatePayload).Return(result, nil).Once()

			out, err := f.service.Apply(context.Background(), f.input(preview))

			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdated, out.Outcome.UpdatedCount)
			assert.Equal(t, tt.wantErrors, out.Outcome.ErrorCount)
			assert.Equal(t, len(preview.ToUpdate), out.Outcome.UpdatedCount+out.Outcome.ErrorCount)
			require.NotNil(t, out.SummaryID)

			var updated, failed int
			for _, d := range f.history.details(*out.SummaryID) {
				switch d.Status {
				case catalogsync.DetailStatusUpdated:
					updated++
				case catalogsync.DetailStatusError:
					failed++
				}
			}
			totals, err := f.history.SumChunkTotals(context.Background(), *out.SummaryID)
			require.NoError(t, err)
			assert.Equal(t, updated, totals.Updated)
			assert.Equal(t, failed, totals.Errors)
			assert.Equal(t, 3, totals.Processed)
		})
	}
}

func TestApplyService_EmptyPayloadIsFree(t *testing.T) {
	f := newApplyFixture(t, 0)
	preview := catalogsync.EmptyPreview(f.store.ID, f.store.Platform)

	out, err := f.service.Apply(context.Background(), f.input(preview))

	require.NoError(t, err)
	assert.True(t, out.AuditComplete)
	assert.Nil(t, out.SummaryID)
	assert.Equal(t, 0, out.Outcome.UpdatedCount)
	assert.Equal(t, 0, f.history.summaryCount())
	f.gateway.AssertNotCalled(t, "BatchUpdate", mock.Anything, mock.Anything)
}

func TestApplyService_TotalFailurePersistsNothing(t *testing.T) {
	f := newApplyFixture(t, 2)
	preview := stalePreview(t, f.store, 2)
	f.gateway.On("BatchUpdate", mock.Anything, mock.Anything).
		Return(nil, errors.New("503 service unavailable")).Once()

	out, err := f.service.Apply(context.Background(), f.input(preview))

	assert.Nil(t, out)
	assert.ErrorIs(t, err, catalogsync.ErrRemoteBatchFailed)
	assert.Equal(t, 2, f.accounts.remaining(f.userID))
	assert.Equal(t, 0, f.history.summaryCount())
}

func TestApplyService_NilResultIsTotalFailure(t *testing.T) {
	f := newApplyFixture(t, 1)
	preview := stalePreview(t, f.store, 1)
	f.gateway.On("BatchUpdate", mock.Anything, mock.Anything).Return(nil, nil).Once()

	_, err := f.service.Apply(context.Background(), f.input(preview))

	assert.ErrorIs(t, err, catalogsync.ErrRemoteBatchFailed)
	assert.Equal(t, 1, f.accounts.remaining(f.userID))
}

func TestApplyService_DuplicateApplyIsRejected(t *testing.T) {
	f := newApplyFixture(t, 5)
	preview := stalePreview(t, f.store, 1)

	result := &catalogsync.BatchUpdateResult{}
	result.Succeed("1000")
	f.gateway.On("BatchUpdate", mock.Anything, mock.Anything).Return(result, nil).Once()

	_, err := f.service.Apply(context.Background(), f.input(preview))
	require.NoError(t, err)

	_, err = f.service.Apply(context.Background(), f.input(preview))

	assert.ErrorIs(t, err, catalogsync.ErrPreviewAlreadyApplied)
	assert.Equal(t, 4, f.accounts.remaining(f.userID))
	f.gateway.AssertNumberOfCalls(t, "BatchUpdate", 1)
}

func TestApplyService_ClaimErrorFailsClosed(t *testing.T) {
	f := newApplyFixture(t, 1)
	preview := stalePreview(t, f.store, 1)

	idem := new(MockIdempotencyStore)
	idem.On("Claim", mock.Anything, "apply:"+preview.PreviewID.String(), DefaultIdempotencyTTL).
		Return(false, errors.New("redis down")).Once()
	f.service.idempotency = idem

	_, err := f.service.Apply(context.Background(), f.input(preview))

	assert.ErrorContains(t, err, "redis down")
	f.gateway.AssertNotCalled(t, "BatchUpdate", mock.Anything, mock.Anything)
	idem.AssertExpectations(t)
}

func TestApplyService_QuotaExhaustedBeforeRemoteCall(t *testing.T) {
	f := newApplyFixture(t, 0)
	preview := stalePreview(t, f.store, 2)

	_, err := f.service.Apply(context.Background(), f.input(preview))

	assert.ErrorIs(t, err, catalogsync.ErrQuotaExhausted)
	f.gateway.AssertNotCalled(t, "BatchUpdate", mock.Anything, mock.Anything)
}

func TestApplyService_CommitFailureIsWarning(t *testing.T) {
	f := newApplyFixture(t, 1)
	preview := stalePreview(t, f.store, 1)
	f.accounts.saveErrs = []error{errors.New("disk full")}

	result := &catalogsync.BatchUpdateResult{}
	result.Succeed("1000")
	f.gateway.On("BatchUpdate", mock.Anything, mock.Anything).Return(result, nil).Once()

	out, err := f.service.Apply(context.Background(), f.input(preview))

	require.NoError(t, err)
	assert.Equal(t, 1, out.Outcome.UpdatedCount)
	assert.Nil(t, out.SummaryID)
	assert.False(t, out.AuditComplete)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "disk full")
	assert.Equal(t, 0, f.history.summaryCount())
	assert.Equal(t, 1, f.accounts.remaining(f.userID))
}

func TestApplyService_ChunkFailureIsWarning(t *testing.T) {
	f := newApplyFixture(t, 1)
	preview := stalePreview(t, f.store, 1)
	f.history.failSequence[0] = errors.New("write timeout")

	result := &catalogsync.BatchUpdateResult{}
	result.Succeed("1000")
	f.gateway.On("BatchUpdate", mock.Anything, mock.Anything).Return(result, nil).Once()

	out, err := f.service.Apply(context.Background(), f.input(preview))

	require.NoError(t, err)
	require.NotNil(t, out.SummaryID)
	assert.False(t, out.AuditComplete)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], catalogsync.ErrAuditPersistenceFailed.Message)
	assert.Equal(t, 0, f.accounts.remaining(f.userID), "the sync was performed and is paid for")
}

func TestApplyService_RejectsInconsistentPreview(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *applyFixture, p *catalogsync.SyncPreview) ApplyInput
	}{
		{
			name: "nil preview",
			mutate: func(f *applyFixture, p *catalogsync.SyncPreview) ApplyInput {
				return f.input(nil)
			},
		},
		{
			name: "payload without matching item",
			mutate: func(f *applyFixture, p *catalogsync.SyncPreview) ApplyInput {
				p.ToUpdate = p.ToUpdate[:1]
				return f.input(p)
			},
		},
		{
			name: "updated rows out of to_update order",
			mutate: func(f *applyFixture, p *catalogsync.SyncPreview) ApplyInput {
				p.ToUpdate[0], p.ToUpdate[1] = p.ToUpdate[1], p.ToUpdate[0]
				p.UpdatePayload[0], p.UpdatePayload[1] = p.UpdatePayload[1], p.UpdatePayload[0]
				return f.input(p)
			},
		},
		{
			name: "built for another store",
			mutate: func(f *applyFixture, p *catalogsync.SyncPreview) ApplyInput {
				p.StoreID = uuid.New()
				return f.input(p)
			},
		},
		{
			name: "platform mismatch",
			mutate: func(f *applyFixture, p *catalogsync.SyncPreview) ApplyInput {
				p.Platform = catalogsync.PlatformShopify
				return f.input(p)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApplyFixture(t, 1)
			preview := stalePreview(t, f.store, 2)

			_, err := f.service.Apply(context.Background(), tt.mutate(f, preview))

			assert.ErrorIs(t, err, catalogsync.ErrInvalidPreview)
			assert.Equal(t, 1, f.accounts.remaining(f.userID))
			f.gateway.AssertNotCalled(t, "BatchUpdate", mock.Anything, mock.Anything)
		})
	}
}

func TestApplyService_ForeignStoreIsNotFound(t *testing.T) {
	f := newApplyFixture(t, 1)
	preview := stalePreview(t, f.store, 1)

	_, err := f.service.Apply(context.Background(), ApplyInput{
		UserID:  uuid.New(),
		StoreID: f.store.ID,
		Preview: preview,
	})

	assert.ErrorIs(t, err, catalogsync.ErrStoreNotFound)
}
