package catalogsync

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ChangeField is the closed set of fields the diff compares
type ChangeField string

const (
	FieldPrice        ChangeField = "price"
	FieldRegularPrice ChangeField = "regularPrice"
	FieldStock        ChangeField = "stock"
)

// IsValid returns true if the field is one of the diffable fields
func (f ChangeField) IsValid() bool {
	switch f {
	case FieldPrice, FieldRegularPrice, FieldStock:
		return true
	default:
		return false
	}
}

// ChangeEntry records one differing field. A null value means "absent"
// (no remote stock, or a compare-at price being cleared).
type ChangeEntry struct {
	Field    ChangeField         `json:"field"`
	OldValue decimal.NullDecimal `json:"old_value"`
	NewValue decimal.NullDecimal `json:"new_value"`
}

type changeValues struct {
	Old decimal.NullDecimal `json:"old"`
	New decimal.NullDecimal `json:"new"`
}

// MarshalChanges serializes entries as an object keyed by field name.
// An empty slice yields {}.
func MarshalChanges(changes []ChangeEntry) (json.RawMessage, error) {
	payload := make(map[ChangeField]changeValues, len(changes))
	for _, c := range changes {
		payload[c.Field] = changeValues{Old: c.OldValue, New: c.NewValue}
	}
	return json.Marshal(payload)
}

// ---------------------------------------------------------------------------
// Classified items
// ---------------------------------------------------------------------------

// DetailStatus is the per-SKU outcome recorded in the audit trail
type DetailStatus string

const (
	DetailStatusUpdated  DetailStatus = "updated"
	DetailStatusNotFound DetailStatus = "not_found"
	DetailStatusUpToDate DetailStatus = "up_to_date"
	DetailStatusError    DetailStatus = "error"
)

// IsValid returns true if the status is known
func (s DetailStatus) IsValid() bool {
	switch s {
	case DetailStatusUpdated, DetailStatusNotFound, DetailStatusUpToDate, DetailStatusError:
		return true
	default:
		return false
	}
}

// ClassifiedItem is one of ToUpdateItem, UpToDateItem or NotFoundItem
type ClassifiedItem interface {
	ItemSKU() string
	ItemName() string
	Status() DetailStatus
	ChangeList() []ChangeEntry
}

// ToUpdateItem is a matched remote item with at least one differing field
type ToUpdateItem struct {
	SKU         string        `json:"sku"`
	DisplayName string        `json:"display_name"`
	Changes     []ChangeEntry `json:"changes"`

	record LocalStockRecord
	remote RemoteCatalogItem
}

func (i ToUpdateItem) ItemSKU() string           { return i.SKU }
func (i ToUpdateItem) ItemName() string          { return i.DisplayName }
func (i ToUpdateItem) Status() DetailStatus      { return DetailStatusUpdated }
func (i ToUpdateItem) ChangeList() []ChangeEntry { return i.Changes }

// UpToDateItem is a matched remote item with no differing field
type UpToDateItem struct {
	SKU         string `json:"sku"`
	DisplayName string `json:"display_name"`
}

func (i UpToDateItem) ItemSKU() string           { return i.SKU }
func (i UpToDateItem) ItemName() string          { return i.DisplayName }
func (i UpToDateItem) Status() DetailStatus      { return DetailStatusUpToDate }
func (i UpToDateItem) ChangeList() []ChangeEntry { return nil }

// NotFoundItem is a local SKU with no remote match
type NotFoundItem struct {
	SKU string `json:"sku"`
}

func (i NotFoundItem) ItemSKU() string           { return i.SKU }
func (i NotFoundItem) ItemName() string          { return "" }
func (i NotFoundItem) Status() DetailStatus      { return DetailStatusNotFound }
func (i NotFoundItem) ChangeList() []ChangeEntry { return nil }

// Classification is the diff result. Items holds every classified item in
// input order; the three typed lists partition it.
type Classification struct {
	Items    []ClassifiedItem
	ToUpdate []ToUpdateItem
	UpToDate []UpToDateItem
	NotFound []NotFoundItem
}
