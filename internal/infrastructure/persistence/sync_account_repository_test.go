package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormSyncAccountRepository_CreateAndFind(t *testing.T) {
	repo := NewGormSyncAccountRepository(setupTestDB(t))
	ctx := context.Background()

	account, err := catalogsync.NewSyncAccount(uuid.New(), 3)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, account))

	found, err := repo.FindByUserID(ctx, account.UserID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.SyncsRemaining)
	assert.Equal(t, 1, found.Version)

	_, err = repo.FindByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSyncAccountRepository_CreateDuplicate(t *testing.T) {
	repo := NewGormSyncAccountRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	first, _ := catalogsync.NewSyncAccount(userID, 1)
	require.NoError(t, repo.Create(ctx, first))

	second, _ := catalogsync.NewSyncAccount(userID, 5)
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormSyncAccountRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps version", func(t *testing.T) {
		repo := NewGormSyncAccountRepository(setupTestDB(t))
		account, _ := catalogsync.NewSyncAccount(uuid.New(), 2)
		require.NoError(t, repo.Create(ctx, account))

		require.NoError(t, account.ConsumeSync())
		require.NoError(t, repo.Save(ctx, account))
		assert.Equal(t, 2, account.Version)

		found, err := repo.FindByUserID(ctx, account.UserID)
		require.NoError(t, err)
		assert.Equal(t, 1, found.SyncsRemaining)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		repo := NewGormSyncAccountRepository(setupTestDB(t))
		account, _ := catalogsync.NewSyncAccount(uuid.New(), 1)
		require.NoError(t, repo.Create(ctx, account))

		a, err := repo.FindByUserID(ctx, account.UserID)
		require.NoError(t, err)
		b, err := repo.FindByUserID(ctx, account.UserID)
		require.NoError(t, err)

		require.NoError(t, a.ConsumeSync())
		require.NoError(t, repo.Save(ctx, a))

		require.NoError(t, b.ConsumeSync())
		err = repo.Save(ctx, b)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		found, _ := repo.FindByUserID(ctx, account.UserID)
		assert.Equal(t, 0, found.SyncsRemaining)
	})

	t.Run("negative counter is refused", func(t *testing.T) {
		repo := NewGormSyncAccountRepository(setupTestDB(t))
		account, _ := catalogsync.NewSyncAccount(uuid.New(), 0)
		require.NoError(t, repo.Create(ctx, account))

		account.SyncsRemaining = -1
		assert.ErrorIs(t, repo.Save(ctx, account), catalogsync.ErrQuotaExhausted)
	})
}

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), gormConfig(gormlogger.Default.LogMode(gormlogger.Silent)))
	require.NoError(t, err)
	return db, mock
}

func TestGormSyncAccountRepository_Save_Postgres(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewGormSyncAccountRepository(db)
	account := &catalogsync.SyncAccount{UserID: uuid.New(), SyncsRemaining: 4, Version: 7}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sync_accounts" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), account.UserID, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), account)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 7, account.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSyncAccountRepository_Find_DatabaseError(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewGormSyncAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sync_accounts"`)).
		WillReturnError(assert.AnError)

	_, err := repo.FindByUserID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}
