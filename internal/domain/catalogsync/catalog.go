package catalogsync

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LocalStockRecord is one row of the prepared dataset. SKU is the natural key.
type LocalStockRecord struct {
	SKU          string
	Stock        int64
	RegularPrice decimal.Decimal
	SalePrice    decimal.Decimal
}

// Validate checks the record invariants (non-blank SKU, non-negative values)
func (r LocalStockRecord) Validate() error {
	if strings.TrimSpace(r.SKU) == "" {
		return invalidRecord("sku is required")
	}
	if r.Stock < 0 {
		return invalidRecord(fmt.Sprintf("sku %s: stock cannot be negative", r.SKU))
	}
	if r.RegularPrice.IsNegative() {
		return invalidRecord(fmt.Sprintf("sku %s: regular price cannot be negative", r.SKU))
	}
	if r.SalePrice.IsNegative() {
		return invalidRecord(fmt.Sprintf("sku %s: sale price cannot be negative", r.SKU))
	}
	return nil
}

// PlatformHandle carries whatever an adapter needs to build an update call
// for one remote item. The diff never looks inside it.
type PlatformHandle struct {
	// Ref is the primary remote reference (product id, variant GID)
	Ref string `json:"ref"`
	// ParentRef is the owning product, for platforms that update per product
	ParentRef string `json:"parent_ref,omitempty"`
	// InventoryRef is the inventory item used for stock updates
	InventoryRef string `json:"inventory_ref,omitempty"`
}

// RemoteCatalogItem is a platform-neutral projection of one remote product or variant
type RemoteCatalogItem struct {
	SKU         string
	RemoteID    string
	DisplayName string
	// CurrentPrice is the price the storefront currently charges
	CurrentPrice decimal.Decimal
	// CompareAtPrice is the compare-at (Shopify) or regular (WooCommerce) price; null if unset
	CompareAtPrice decimal.NullDecimal
	// CurrentStock is nil when the platform does not track stock for the item
	CurrentStock *int64
	Handle       PlatformHandle
}

// IndexBySKU indexes remote items by SKU. On collision the last item wins.
func IndexBySKU(items []RemoteCatalogItem) map[string]RemoteCatalogItem {
	idx := make(map[string]RemoteCatalogItem, len(items))
	for _, item := range items {
		idx[item.SKU] = item
	}
	return idx
}

// SKUs returns the SKU of every record in input order
func SKUs(records []LocalStockRecord) []string {
	skus := make([]string, len(records))
	for i, r := range records {
		skus[i] = r.SKU
	}
	return skus
}
