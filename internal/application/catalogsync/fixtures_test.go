package catalogsync

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, userID uuid.UUID) *catalogsync.Store {
	t.Helper()
	store, err := catalogsync.NewStore(userID, "Test shop", catalogsync.PlatformWooCommerce,
		"https://shop.example.com", catalogsync.StoreCredentials{ConsumerKey: "ck", ConsumerSecret: "cs"})
	require.NoError(t, err)
	return store
}

func newTestAccount(t *testing.T, userID uuid.UUID, syncs int) *catalogsync.SyncAccount {
	t.Helper()
	account, err := catalogsync.NewSyncAccount(userID, syncs)
	require.NoError(t, err)
	return account
}

func int64p(n int64) *int64 { return &n }

// staleDataset returns n local records whose remote counterparts have stale stock.
func staleDataset(n int) ([]catalogsync.LocalStockRecord, []catalogsync.RemoteCatalogItem) {
	local := make([]catalogsync.LocalStockRecord, n)
	remote := make([]catalogsync.RemoteCatalogItem, n)
	for i := 0; i < n; i++ {
		sku := fmt.Sprintf("SKU-%03d", i)
		local[i] = catalogsync.LocalStockRecord{
			SKU:          sku,
			Stock:        5,
			RegularPrice: decimal.NewFromInt(100),
			SalePrice:    decimal.NewFromInt(90),
		}
		remote[i] = catalogsync.RemoteCatalogItem{
			SKU:            sku,
			RemoteID:       fmt.Sprintf("%d", 1000+i),
			DisplayName:    "Product " + sku,
			CurrentPrice:   decimal.NewFromInt(90),
			CompareAtPrice: decimal.NewNullDecimal(decimal.NewFromInt(100)),
			CurrentStock:   int64p(3),
			Handle:         catalogsync.PlatformHandle{Ref: fmt.Sprintf("%d", 1000+i)},
		}
	}
	return local, remote
}

// stalePreview builds a preview with n items to update for store.
func stalePreview(t *testing.T, store *catalogsync.Store, n int) *catalogsync.SyncPreview {
	t.Helper()
	local, remote := staleDataset(n)
	p, err := catalogsync.NewSyncPreview(store.ID, store.Platform,
		catalogsync.Classify(local, catalogsync.IndexBySKU(remote)))
	require.NoError(t, err)
	return p
}
