package catalogsync

import (
	"context"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Remote Catalog Gateway port
// ---------------------------------------------------------------------------

// CatalogGateway is implemented once per platform. Adapters may paginate or
// chunk internally; callers never see that.
type CatalogGateway interface {
	// Platform returns the platform this gateway talks to
	Platform() PlatformCode

	// FetchBySKU returns the remote items matching skus. SKUs without a match are omitted.
	FetchBySKU(ctx context.Context, skus []string) ([]RemoteCatalogItem, error)

	// BatchUpdate applies commands. Every submitted remote id appears in exactly
	// one of SucceededIDs or Failures. An error means no per-item outcome exists.
	BatchUpdate(ctx context.Context, commands []RemoteUpdateCommand) (*BatchUpdateResult, error)
}

// GatewayRegistry resolves the gateway for a store by its platform field
type GatewayRegistry interface {
	GatewayFor(store *Store) (CatalogGateway, error)
}

// RemoteUpdateCommand carries the desired state of one remote item
type RemoteUpdateCommand struct {
	SKU      string          `json:"sku"`
	RemoteID string          `json:"remote_id"`
	Handle   PlatformHandle  `json:"handle"`
	NewPrice decimal.Decimal `json:"new_price"`
	// NewRegularPrice is null when the compare-at price must be cleared
	NewRegularPrice decimal.NullDecimal `json:"new_regular_price"`
	NewStock        int64               `json:"new_stock"`
	// Fields lists the fields that actually differ
	Fields []ChangeField `json:"fields"`
}

// Changes returns true if field differs for this command
func (c RemoteUpdateCommand) Changes(field ChangeField) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// NewUpdateCommand flattens a ToUpdate item into a command for its remote item
func NewUpdateCommand(item ToUpdateItem) RemoteUpdateCommand {
	fields := make([]ChangeField, len(item.Changes))
	for i, c := range item.Changes {
		fields[i] = c.Field
	}
	return RemoteUpdateCommand{
		SKU:             item.SKU,
		RemoteID:        item.remote.RemoteID,
		Handle:          item.remote.Handle,
		NewPrice:        item.record.SalePrice,
		NewRegularPrice: regularPriceValue(item.record.RegularPrice),
		NewStock:        item.record.Stock,
		Fields:          fields,
	}
}

// BatchUpdateResult is the per-item outcome of BatchUpdate
type BatchUpdateResult struct {
	SucceededIDs []string
	Failures     []BatchFailure
}

// BatchFailure is one remote item the platform refused to update
type BatchFailure struct {
	RemoteID string
	Message  string
}

// Succeed records a successful remote id
func (r *BatchUpdateResult) Succeed(id string) {
	r.SucceededIDs = append(r.SucceededIDs, id)
}

// Fail records a failed remote id
func (r *BatchUpdateResult) Fail(id, message string) {
	r.Failures = append(r.Failures, BatchFailure{RemoteID: id, Message: message})
}
