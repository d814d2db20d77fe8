package catalogsync

import "github.com/shopspring/decimal"

// Classify compares each local record with the remote item sharing its SKU.
// It is pure: no I/O, no reordering and no de-duplication.
func Classify(local []LocalStockRecord, remoteBySKU map[string]RemoteCatalogItem) Classification {
	out := Classification{
		Items:    make([]ClassifiedItem, 0, len(local)),
		ToUpdate: make([]ToUpdateItem, 0),
		UpToDate: make([]UpToDateItem, 0),
		NotFound: make([]NotFoundItem, 0),
	}

	for _, rec := range local {
		remote, ok := remoteBySKU[rec.SKU]
		if !ok {
			item := NotFoundItem{SKU: rec.SKU}
			out.NotFound = append(out.NotFound, item)
			out.Items = append(out.Items, item)
			continue
		}

		changes := diffFields(rec, remote)
		if len(changes) == 0 {
			item := UpToDateItem{SKU: rec.SKU, DisplayName: remote.DisplayName}
			out.UpToDate = append(out.UpToDate, item)
			out.Items = append(out.Items, item)
			continue
		}

		item := ToUpdateItem{
			SKU:         rec.SKU,
			DisplayName: remote.DisplayName,
			Changes:     changes,
			record:      rec,
			remote:      remote,
		}
		out.ToUpdate = append(out.ToUpdate, item)
		out.Items = append(out.Items, item)
	}

	return out
}

// diffFields returns only the fields that differ, in price, regularPrice, stock order
func diffFields(rec LocalStockRecord, remote RemoteCatalogItem) []ChangeEntry {
	var changes []ChangeEntry

	if !remote.CurrentPrice.Equal(rec.SalePrice) {
		changes = append(changes, ChangeEntry{
			Field:    FieldPrice,
			OldValue: decimal.NewNullDecimal(remote.CurrentPrice),
			NewValue: decimal.NewNullDecimal(rec.SalePrice),
		})
	}

	remoteRegular := decimal.Zero
	if remote.CompareAtPrice.Valid {
		remoteRegular = remote.CompareAtPrice.Decimal
	}
	if !remoteRegular.Equal(rec.RegularPrice) {
		changes = append(changes, ChangeEntry{
			Field:    FieldRegularPrice,
			OldValue: remote.CompareAtPrice,
			NewValue: regularPriceValue(rec.RegularPrice),
		})
	}

	if remote.CurrentStock == nil || *remote.CurrentStock != rec.Stock {
		old := decimal.NullDecimal{}
		if remote.CurrentStock != nil {
			old = decimal.NewNullDecimal(decimal.NewFromInt(*remote.CurrentStock))
		}
		changes = append(changes, ChangeEntry{
			Field:    FieldStock,
			OldValue: old,
			NewValue: decimal.NewNullDecimal(decimal.NewFromInt(rec.Stock)),
		})
	}

	return changes
}

// regularPriceValue maps a zero regular price to null, which clears the
// compare-at price on the remote side.
func regularPriceValue(price decimal.Decimal) decimal.NullDecimal {
	if price.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(price)
}
