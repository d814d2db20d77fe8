package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with the catalog sync tables
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig(gormlogger.Default.LogMode(gormlogger.Silent)))
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.StoreModel{},
		&models.SyncAccountModel{},
		&models.SyncHistorySummaryModel{},
		&models.SyncHistoryChunkModel{},
		&models.SyncHistoryDetailModel{},
	)
	require.NoError(t, err)

	return db
}

func newWooStore(t *testing.T, userID uuid.UUID, name string) *catalogsync.Store {
	t.Helper()
	store, err := catalogsync.NewStore(userID, name, catalogsync.PlatformWooCommerce, "https://shop.example.com/",
		catalogsync.StoreCredentials{ConsumerKey: "ck_test", ConsumerSecret: "cs_test"})
	require.NoError(t, err)
	return store
}
