package dto

import (
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/catalogsync"
)

// StockRecordRequest is one row of the prepared stock dataset
type StockRecordRequest struct {
	SKU          string          `json:"sku" binding:"required,sku,max=255"`
	Stock        int64           `json:"stock" binding:"gte=0"`
	RegularPrice decimal.Decimal `json:"regular_price" binding:"gte=0"`
	SalePrice    decimal.Decimal `json:"sale_price" binding:"gte=0"`
}

// PreviewRequest asks for a diff of records against a store's catalog
type PreviewRequest struct {
	StoreID string               `json:"store_id" binding:"required,uuid"`
	Records []StockRecordRequest `json:"records" binding:"required,dive"`
}

// ToLocalRecords converts the request rows to domain records
func (r PreviewRequest) ToLocalRecords() []catalogsync.LocalStockRecord {
	out := make([]catalogsync.LocalStockRecord, 0, len(r.Records))
	for _, rec := range r.Records {
		out = append(out, catalogsync.LocalStockRecord{
			SKU:          rec.SKU,
			Stock:        rec.Stock,
			RegularPrice: rec.RegularPrice,
			SalePrice:    rec.SalePrice,
		})
	}
	return out
}

// ApplyRequest submits a confirmed preview
type ApplyRequest struct {
	StoreID string                   `json:"store_id" binding:"required,uuid"`
	Preview *catalogsync.SyncPreview `json:"preview" binding:"required"`
}

// HistoryListRequest filters the sync history listing
type HistoryListRequest struct {
	ListRequest
	StoreID  string `form:"store_id" binding:"omitempty,uuid"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=synced_at total_processed total_updated total_errors"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// HistoryDetailRequest filters the details of one sync report
type HistoryDetailRequest struct {
	ListRequest
	Status string `form:"status" binding:"omitempty,oneof=updated not_found up_to_date error"`
}

// StoreCredentialsRequest carries platform credentials. They are never echoed back.
type StoreCredentialsRequest struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	AccessToken    string `json:"access_token"`
	LocationID     string `json:"location_id"`
}

// RegisterStoreRequest registers a store for the caller
type RegisterStoreRequest struct {
	Name        string                  `json:"name" binding:"required,max=100"`
	Platform    string                  `json:"platform" binding:"required,platform"`
	BaseURL     string                  `json:"base_url" binding:"required,url"`
	Credentials StoreCredentialsRequest `json:"credentials"`
}

// GrantSyncsRequest adds syncs to an account
type GrantSyncsRequest struct {
	Syncs int `json:"syncs" binding:"required,min=1,max=100000"`
}

// AccountURIRequest addresses a sync account by user id
type AccountURIRequest struct {
	UserID string `uri:"user_id" binding:"required,uuid"`
}
