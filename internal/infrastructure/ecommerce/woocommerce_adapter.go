package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/storesync/backend/internal/domain/catalogsync"
	"go.uber.org/zap"
)

// wooPageSize is the per_page value used when searching by SKU
const wooPageSize = 100

// WooCommerceAdapter implements catalogsync.CatalogGateway for one WooCommerce store
type WooCommerceAdapter struct {
	config     *WooCommerceConfig
	httpClient *http.Client
	guard      *guard
	logger     *zap.Logger
}

// NewWooCommerceAdapter creates a new WooCommerce adapter with the given configuration.
// A nil transport uses http.DefaultTransport.
func NewWooCommerceAdapter(config *WooCommerceConfig, transport http.RoundTripper, g GuardConfig, recorder RemoteCallRecorder, logger *zap.Logger) (*WooCommerceAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("platform", string(catalogsync.PlatformWooCommerce)))

	return &WooCommerceAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		guard:  newGuard("woocommerce:"+config.BaseURL, catalogsync.PlatformWooCommerce, g, recorder, logger),
		logger: logger,
	}, nil
}

// Platform returns the platform code this adapter handles
func (a *WooCommerceAdapter) Platform() catalogsync.PlatformCode {
	return catalogsync.PlatformWooCommerce
}

// ---------------------------------------------------------------------------
// Fetch
// ---------------------------------------------------------------------------

// FetchBySKU searches products by SKU in chunks of BatchSize, following pagination
func (a *WooCommerceAdapter) FetchBySKU(ctx context.Context, skus []string) ([]catalogsync.RemoteCatalogItem, error) {
	wanted := make(map[string]struct{}, len(skus))
	for _, s := range skus {
		wanted[s] = struct{}{}
	}

	items := make([]catalogsync.RemoteCatalogItem, 0, len(skus))
	for _, chunk := range chunkStrings(skus, a.config.BatchSize) {
		for page := 1; ; page++ {
			products, err := a.searchPage(ctx, chunk, page)
			if err != nil {
				return nil, err
			}
			for _, p := range products {
				// the sku filter is a search, not an exact match
				if _, ok := wanted[p.SKU]; !ok {
					continue
				}
				item, err := a.toRemoteItem(p)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			if len(products) < wooPageSize {
				break
			}
		}
	}

	a.logger.Debug("Fetched WooCommerce products",
		zap.Int("requested", len(skus)),
		zap.Int("matched", len(items)),
	)
	return items, nil
}

func (a *WooCommerceAdapter) searchPage(ctx context.Context, skus []string, page int) ([]wooProduct, error) {
	params := url.Values{}
	params.Set("sku", strings.Join(skus, ","))
	params.Set("per_page", strconv.Itoa(wooPageSize))
	params.Set("page", strconv.Itoa(page))

	var products []wooProduct
	err := a.guard.call(ctx, "fetch", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.endpoint("/products")+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		body, err := a.do(req)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &products); err != nil {
			return invalidResponse(catalogsync.PlatformWooCommerce, "decode products: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (a *WooCommerceAdapter) toRemoteItem(p wooProduct) (catalogsync.RemoteCatalogItem, error) {
	price, err := parseMoney(p.Price)
	if err != nil {
		return catalogsync.RemoteCatalogItem{}, invalidResponse(catalogsync.PlatformWooCommerce, "product %d price %q", p.ID, p.Price)
	}
	regular, err := parseMoney(p.RegularPrice)
	if err != nil {
		return catalogsync.RemoteCatalogItem{}, invalidResponse(catalogsync.PlatformWooCommerce, "product %d regular_price %q", p.ID, p.RegularPrice)
	}

	id := itoa(p.ID)
	return catalogsync.RemoteCatalogItem{
		SKU:            p.SKU,
		RemoteID:       id,
		DisplayName:    p.Name,
		CurrentPrice:   price.Decimal,
		CompareAtPrice: regular,
		CurrentStock:   p.StockQuantity,
		Handle:         catalogsync.PlatformHandle{Ref: id},
	}, nil
}

// ---------------------------------------------------------------------------
// Batch update
// ---------------------------------------------------------------------------

// BatchUpdate sends commands to /products/batch in chunks of BatchSize.
// A chunk that fails after an earlier chunk went through is reported as
// per-item failures; a failure before any chunk went through is returned.
func (a *WooCommerceAdapter) BatchUpdate(ctx context.Context, commands []catalogsync.RemoteUpdateCommand) (*catalogsync.BatchUpdateResult, error) {
	result := &catalogsync.BatchUpdateResult{}

	var valid []catalogsync.RemoteUpdateCommand
	for _, cmd := range commands {
		if _, err := strconv.ParseInt(cmd.RemoteID, 10, 64); err != nil {
			result.Fail(cmd.RemoteID, "invalid woocommerce product id")
			continue
		}
		valid = append(valid, cmd)
	}

	delivered := false
	for start := 0; start < len(valid); start += a.config.BatchSize {
		chunk := valid[start:min(start+a.config.BatchSize, len(valid))]

		resp, err := a.sendBatch(ctx, chunk)
		if err != nil {
			if !delivered {
				return nil, err
			}
			a.logger.Warn("WooCommerce batch chunk failed",
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			for _, cmd := range chunk {
				result.Fail(cmd.RemoteID, err.Error())
			}
			continue
		}
		delivered = true
		collectBatchOutcome(chunk, resp, result)
	}
	return result, nil
}

func (a *WooCommerceAdapter) sendBatch(ctx context.Context, chunk []catalogsync.RemoteUpdateCommand) (*wooBatchResponse, error) {
	payload := wooBatchRequest{Update: make([]wooProductUpdate, 0, len(chunk))}
	for _, cmd := range chunk {
		payload.Update = append(payload.Update, buildWooUpdate(cmd))
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	var resp wooBatchResponse
	err = a.guard.call(ctx, "batch_update", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.endpoint("/products/batch"), bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		body, err := a.do(req)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return invalidResponse(catalogsync.PlatformWooCommerce, "decode batch response: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// buildWooUpdate maps a command onto WooCommerce price fields. The new price
// is charged as the sale price when a distinct regular price exists, otherwise
// it becomes the regular price and any sale price is cleared.
func buildWooUpdate(cmd catalogsync.RemoteUpdateCommand) wooProductUpdate {
	id, _ := strconv.ParseInt(cmd.RemoteID, 10, 64)
	u := wooProductUpdate{ID: id}

	if cmd.Changes(catalogsync.FieldPrice) || cmd.Changes(catalogsync.FieldRegularPrice) {
		price := formatMoney(cmd.NewPrice)
		if cmd.NewRegularPrice.Valid {
			regular := formatMoney(cmd.NewRegularPrice.Decimal)
			u.RegularPrice = &regular
			u.SalePrice = &price
		} else {
			empty := ""
			u.RegularPrice = &price
			u.SalePrice = &empty
		}
	}
	if cmd.Changes(catalogsync.FieldStock) {
		manage := true
		stock := cmd.NewStock
		u.ManageStock = &manage
		u.StockQuantity = &stock
	}
	return u
}

// collectBatchOutcome sorts every id of chunk into exactly one bucket of result
func collectBatchOutcome(chunk []catalogsync.RemoteUpdateCommand, resp *wooBatchResponse, result *catalogsync.BatchUpdateResult) {
	outcome := make(map[string]*wooError, len(resp.Update))
	for _, item := range resp.Update {
		id := itoa(item.ID)
		if _, seen := outcome[id]; seen && item.Error == nil {
			continue
		}
		outcome[id] = item.Error
	}

	for _, cmd := range chunk {
		werr, ok := outcome[cmd.RemoteID]
		switch {
		case !ok:
			result.Fail(cmd.RemoteID, "missing from batch response")
		case werr != nil:
			msg := werr.Message
			if msg == "" {
				msg = werr.Code
			}
			result.Fail(cmd.RemoteID, msg)
		default:
			result.Succeed(cmd.RemoteID)
		}
	}
}

func (a *WooCommerceAdapter) do(req *http.Request) ([]byte, error) {
	req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)
	req.Header.Set("Accept", "application/json")
	return send(a.httpClient, catalogsync.PlatformWooCommerce, req)
}
