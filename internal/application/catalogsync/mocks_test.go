package catalogsync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// ---------------------------------------------------------------------------
// Store repository
// ---------------------------------------------------------------------------

// MockStoreRepository is a mock implementation of catalogsync.StoreRepository
type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalogsync.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogsync.Store), args.Error(1)
}

func (m *MockStoreRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]catalogsync.Store, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]catalogsync.Store), args.Error(1)
}

func (m *MockStoreRepository) Save(ctx context.Context, store *catalogsync.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

// ---------------------------------------------------------------------------
// Gateway
// ---------------------------------------------------------------------------

// MockCatalogGateway is a mock implementation of catalogsync.CatalogGateway
type MockCatalogGateway struct {
	mock.Mock
	platform catalogsync.PlatformCode
}

func (m *MockCatalogGateway) Platform() catalogsync.PlatformCode {
	return m.platform
}

func (m *MockCatalogGateway) FetchBySKU(ctx context.Context, skus []string) ([]catalogsync.RemoteCatalogItem, error) {
	args := m.Called(ctx, skus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogsync.RemoteCatalogItem), args.Error(1)
}

func (m *MockCatalogGateway) BatchUpdate(ctx context.Context, commands []catalogsync.RemoteUpdateCommand) (*catalogsync.BatchUpdateResult, error) {
	args := m.Called(ctx, commands)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogsync.BatchUpdateResult), args.Error(1)
}

// staticRegistry always returns the same gateway
type staticRegistry struct {
	gateway catalogsync.CatalogGateway
	err     error
}

func (r *staticRegistry) GatewayFor(store *catalogsync.Store) (catalogsync.CatalogGateway, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.gateway, nil
}

// ---------------------------------------------------------------------------
// Idempotency and archive
// ---------------------------------------------------------------------------

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// memoryIdempotency is a map-backed shared.IdempotencyStore
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]struct{})}
}

func (m *memoryIdempotency) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memoryIdempotency) Close() error { return nil }

// MockReportArchive is a mock implementation of ReportArchive
type MockReportArchive struct {
	mock.Mock
}

func (m *MockReportArchive) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	args := m.Called(ctx, storageKey, data, contentType)
	return args.Error(0)
}

// MockReportLinker is a mock implementation of ReportLinker
type MockReportLinker struct {
	mock.Mock
}

func (m *MockReportLinker) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockReportLinker) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// fakeAccountRepository keeps accounts in memory and enforces the version check
type fakeAccountRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]catalogsync.SyncAccount
	findErr  error
	saveErrs []error
}

func newFakeAccountRepository(accounts ...*catalogsync.SyncAccount) *fakeAccountRepository {
	r := &fakeAccountRepository{accounts: make(map[uuid.UUID]catalogsync.SyncAccount)}
	for _, a := range accounts {
		r.accounts[a.UserID] = *a
	}
	return r
}

func (r *fakeAccountRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*catalogsync.SyncAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.accounts[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r *fakeAccountRepository) Create(_ context.Context, account *catalogsync.SyncAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.UserID]; ok {
		return shared.ErrAlreadyExists
	}
	r.accounts[account.UserID] = *account
	return nil
}

func (r *fakeAccountRepository) Save(_ context.Context, account *catalogsync.SyncAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	current, ok := r.accounts[account.UserID]
	if !ok || current.Version != account.Version {
		return shared.ErrConcurrencyConflict
	}
	account.Version++
	r.accounts[account.UserID] = *account
	return nil
}

func (r *fakeAccountRepository) remaining(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[userID].SyncsRemaining
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// fakeHistoryRepository records summaries and chunks in memory
type fakeHistoryRepository struct {
	mu           sync.Mutex
	summaries    []catalogsync.SyncHistorySummary
	chunks       []catalogsync.AuditChunk
	summaryErr   error
	failSequence map[int]error
}

func newFakeHistoryRepository() *fakeHistoryRepository {
	return &fakeHistoryRepository{failSequence: make(map[int]error)}
}

func (r *fakeHistoryRepository) CreateSummary(_ context.Context, summary *catalogsync.SyncHistorySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summaryErr != nil {
		return r.summaryErr
	}
	r.summaries = append(r.summaries, *summary)
	return nil
}

func (r *fakeHistoryRepository) AppendChunk(_ context.Context, chunk *catalogsync.AuditChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failSequence[chunk.Sequence]; ok {
		return err
	}
	r.chunks = append(r.chunks, *chunk)
	return nil
}

func (r *fakeHistoryRepository) FindSummary(_ context.Context, userID, summaryID uuid.UUID) (*catalogsync.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.summaries {
		if s.ID == summaryID && s.UserID == userID {
			return &catalogsync.HistoryEntry{Summary: s, PersistedChunks: r.countChunks(s.ID)}, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeHistoryRepository) ListSummaries(_ context.Context, filter catalogsync.HistoryFilter) ([]catalogsync.HistoryEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalogsync.HistoryEntry
	for _, s := range r.summaries {
		if s.UserID != filter.UserID {
			continue
		}
		if filter.StoreID != nil && s.StoreID != *filter.StoreID {
			continue
		}
		out = append(out, catalogsync.HistoryEntry{Summary: s, PersistedChunks: r.countChunks(s.ID)})
	}
	return out, int64(len(out)), nil
}

func (r *fakeHistoryRepository) ListDetails(_ context.Context, summaryID uuid.UUID, filter catalogsync.DetailFilter) ([]catalogsync.SyncDetailRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalogsync.SyncDetailRecord
	for _, d := range r.details(summaryID) {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (r *fakeHistoryRepository) SumChunkTotals(_ context.Context, summaryID uuid.UUID) (catalogsync.SyncTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total catalogsync.SyncTotals
	for _, c := range r.chunks {
		if c.SummaryID == summaryID {
			total = total.Add(c.Totals)
		}
	}
	return total, nil
}

func (r *fakeHistoryRepository) countChunks(summaryID uuid.UUID) int {
	n := 0
	for _, c := range r.chunks {
		if c.SummaryID == summaryID {
			n++
		}
	}
	return n
}

func (r *fakeHistoryRepository) details(summaryID uuid.UUID) []catalogsync.SyncDetailRecord {
	var out []catalogsync.SyncDetailRecord
	for _, c := range r.chunks {
		if c.SummaryID == summaryID {
			out = append(out, c.Details...)
		}
	}
	return out
}

func (r *fakeHistoryRepository) summaryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries)
}

var (
	_ catalogsync.StoreRepository       = (*MockStoreRepository)(nil)
	_ catalogsync.CatalogGateway        = (*MockCatalogGateway)(nil)
	_ catalogsync.GatewayRegistry       = (*staticRegistry)(nil)
	_ shared.IdempotencyStore           = (*MockIdempotencyStore)(nil)
	_ shared.IdempotencyStore           = (*memoryIdempotency)(nil)
	_ ReportArchive                     = (*MockReportArchive)(nil)
	_ catalogsync.SyncAccountRepository = (*fakeAccountRepository)(nil)
	_ catalogsync.SyncHistoryRepository = (*fakeHistoryRepository)(nil)
)
