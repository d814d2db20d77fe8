package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStoreRepository_SaveAndFind(t *testing.T) {
	repo := NewGormStoreRepository(setupTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	store := newWooStore(t, userID, "Main shop")
	require.NoError(t, repo.Save(ctx, store))

	found, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, store.ID, found.ID)
	assert.Equal(t, userID, found.UserID)
	assert.Equal(t, catalogsync.PlatformWooCommerce, found.Platform)
	assert.Equal(t, "https://shop.example.com", found.BaseURL)
	assert.Equal(t, "ck_test", found.Credentials.ConsumerKey)
	assert.Equal(t, "cs_test", found.Credentials.ConsumerSecret)
}

func TestGormStoreRepository_SaveUpdatesExisting(t *testing.T) {
	repo := NewGormStoreRepository(setupTestDB(t))
	ctx := context.Background()

	store := newWooStore(t, uuid.New(), "Before")
	require.NoError(t, repo.Save(ctx, store))

	store.Name = "After"
	store.Credentials.ConsumerSecret = "cs_rotated"
	store.Touch()
	require.NoError(t, repo.Save(ctx, store))

	found, err := repo.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", found.Name)
	assert.Equal(t, "cs_rotated", found.Credentials.ConsumerSecret)
}

func TestGormStoreRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormStoreRepository(setupTestDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStoreRepository_FindByUser(t *testing.T) {
	repo := NewGormStoreRepository(setupTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	first := newWooStore(t, owner, "First")
	second := newWooStore(t, owner, "Second")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, newWooStore(t, uuid.New(), "Someone else")))

	stores, err := repo.FindByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "First", stores[0].Name)
	assert.Equal(t, "Second", stores[1].Name)

	none, err := repo.FindByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
