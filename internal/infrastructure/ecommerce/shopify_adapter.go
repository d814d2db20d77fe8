package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/storesync/backend/internal/domain/catalogsync"
	"go.uber.org/zap"
)

// ShopifyAdapter implements catalogsync.CatalogGateway for one Shopify store
// through the Admin GraphQL API.
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
	guard      *guard
	logger     *zap.Logger
}

// NewShopifyAdapter creates a new Shopify adapter with the given configuration.
// A nil transport uses http.DefaultTransport.
func NewShopifyAdapter(config *ShopifyConfig, transport http.RoundTripper, g GuardConfig, recorder RemoteCallRecorder, logger *zap.Logger) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("platform", string(catalogsync.PlatformShopify)))

	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		guard:  newGuard("shopify:"+config.ShopURL, catalogsync.PlatformShopify, g, recorder, logger),
		logger: logger,
	}, nil
}

// Platform returns the platform code this adapter handles
func (a *ShopifyAdapter) Platform() catalogsync.PlatformCode {
	return catalogsync.PlatformShopify
}

// ---------------------------------------------------------------------------
// Fetch
// ---------------------------------------------------------------------------

// FetchBySKU queries variants by SKU in chunks of SKUChunkSize, following cursors
func (a *ShopifyAdapter) FetchBySKU(ctx context.Context, skus []string) ([]catalogsync.RemoteCatalogItem, error) {
	wanted := make(map[string]struct{}, len(skus))
	for _, s := range skus {
		wanted[s] = struct{}{}
	}

	items := make([]catalogsync.RemoteCatalogItem, 0, len(skus))
	for _, chunk := range chunkStrings(skus, a.config.SKUChunkSize) {
		vars := map[string]any{
			"first": ShopifyMaxPageSize,
			"query": skuSearchQuery(chunk),
		}
		for {
			var data shopifyVariantsData
			if err := a.execute(ctx, "fetch", variantsBySKUQuery, vars, &data); err != nil {
				return nil, err
			}
			for _, v := range data.ProductVariants.Nodes {
				// sku search is tokenized, so matches must be confirmed
				if _, ok := wanted[v.SKU]; !ok {
					continue
				}
				item, err := toShopifyRemoteItem(v)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			page := data.ProductVariants.PageInfo
			if !page.HasNextPage || page.EndCursor == "" {
				break
			}
			vars["after"] = page.EndCursor
		}
	}

	a.logger.Debug("Fetched Shopify variants",
		zap.Int("requested", len(skus)),
		zap.Int("matched", len(items)),
	)
	return items, nil
}

// skuSearchQuery builds "sku:'a' OR sku:'b'" with quotes escaped
func skuSearchQuery(skus []string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	parts := make([]string, len(skus))
	for i, s := range skus {
		parts[i] = "sku:'" + escaper.Replace(s) + "'"
	}
	return strings.Join(parts, " OR ")
}

func toShopifyRemoteItem(v shopifyVariant) (catalogsync.RemoteCatalogItem, error) {
	price, err := parseMoney(v.Price)
	if err != nil {
		return catalogsync.RemoteCatalogItem{}, invalidResponse(catalogsync.PlatformShopify, "variant %s price %q", v.ID, v.Price)
	}
	item := catalogsync.RemoteCatalogItem{
		SKU:          v.SKU,
		RemoteID:     v.ID,
		DisplayName:  v.DisplayName,
		CurrentPrice: price.Decimal,
		Handle: catalogsync.PlatformHandle{
			Ref:          v.ID,
			ParentRef:    v.Product.ID,
			InventoryRef: v.InventoryItem.ID,
		},
	}
	if v.CompareAtPrice != nil {
		compareAt, err := parseMoney(*v.CompareAtPrice)
		if err != nil {
			return catalogsync.RemoteCatalogItem{}, invalidResponse(catalogsync.PlatformShopify, "variant %s compareAtPrice %q", v.ID, *v.CompareAtPrice)
		}
		item.CompareAtPrice = compareAt
	}
	if v.InventoryItem.Tracked && v.InventoryQuantity != nil {
		stock := *v.InventoryQuantity
		item.CurrentStock = &stock
	}
	return item, nil
}

// ---------------------------------------------------------------------------
// Batch update
// ---------------------------------------------------------------------------

// variantOutcome accumulates the result of every mutation touching one variant.
// Commands sharing a remote id each get their own entry in the result.
type variantOutcome struct {
	failures map[string]string
	order    []string
}

func newVariantOutcome() *variantOutcome {
	return &variantOutcome{failures: make(map[string]string)}
}

func (o *variantOutcome) track(id string) {
	o.order = append(o.order, id)
}

// fail keeps the first failure of a variant
func (o *variantOutcome) fail(id, msg string) {
	if _, ok := o.failures[id]; !ok {
		o.failures[id] = msg
	}
}

func (o *variantOutcome) result() *catalogsync.BatchUpdateResult {
	result := &catalogsync.BatchUpdateResult{}
	for _, id := range o.order {
		if msg, failed := o.failures[id]; failed {
			result.Fail(id, msg)
		} else {
			result.Succeed(id)
		}
	}
	return result
}

// BatchUpdate runs one productVariantsBulkUpdate per product for price changes
// and inventorySetQuantities for stock changes. A variant succeeds only if
// every mutation touching it succeeded. If no mutation could be delivered at
// all the first transport error is returned.
func (a *ShopifyAdapter) BatchUpdate(ctx context.Context, commands []catalogsync.RemoteUpdateCommand) (*catalogsync.BatchUpdateResult, error) {
	outcome := newVariantOutcome()

	var productOrder []string
	byProduct := make(map[string][]catalogsync.RemoteUpdateCommand)
	var stockCmds []catalogsync.RemoteUpdateCommand

	for _, cmd := range commands {
		outcome.track(cmd.RemoteID)
		if cmd.Changes(catalogsync.FieldPrice) || cmd.Changes(catalogsync.FieldRegularPrice) {
			parent := cmd.Handle.ParentRef
			if parent == "" {
				outcome.fail(cmd.RemoteID, "missing product reference")
			} else {
				if _, ok := byProduct[parent]; !ok {
					productOrder = append(productOrder, parent)
				}
				byProduct[parent] = append(byProduct[parent], cmd)
			}
		}
		if cmd.Changes(catalogsync.FieldStock) {
			switch {
			case a.config.LocationID == "":
				outcome.fail(cmd.RemoteID, "no inventory location configured for store")
			case cmd.Handle.InventoryRef == "":
				outcome.fail(cmd.RemoteID, "missing inventory item reference")
			default:
				stockCmds = append(stockCmds, cmd)
			}
		}
	}

	var (
		attempted int
		delivered int
		firstErr  error
	)
	deliver := func(err error, chunk []catalogsync.RemoteUpdateCommand) {
		attempted++
		if err == nil {
			delivered++
			return
		}
		if firstErr == nil {
			firstErr = err
		}
		for _, cmd := range chunk {
			outcome.fail(cmd.RemoteID, err.Error())
		}
	}

	for _, productID := range productOrder {
		group := byProduct[productID]
		deliver(a.updateVariantPrices(ctx, productID, group, outcome), group)
	}
	for start := 0; start < len(stockCmds); start += ShopifyMaxPageSize {
		chunk := stockCmds[start:min(start+ShopifyMaxPageSize, len(stockCmds))]
		deliver(a.setQuantities(ctx, chunk, outcome), chunk)
	}

	if attempted > 0 && delivered == 0 {
		return nil, firstErr
	}
	if firstErr != nil {
		a.logger.Warn("Shopify mutation failed",
			zap.Int("attempted", attempted),
			zap.Int("delivered", delivered),
			zap.Error(firstErr),
		)
	}
	return outcome.result(), nil
}

func (a *ShopifyAdapter) updateVariantPrices(ctx context.Context, productID string, group []catalogsync.RemoteUpdateCommand, outcome *variantOutcome) error {
	variants := make([]shopifyVariantInput, len(group))
	for i, cmd := range group {
		in := shopifyVariantInput{ID: cmd.RemoteID, Price: formatMoney(cmd.NewPrice)}
		if cmd.NewRegularPrice.Valid {
			compareAt := formatMoney(cmd.NewRegularPrice.Decimal)
			in.CompareAtPrice = &compareAt
		}
		variants[i] = in
	}

	var data shopifyBulkUpdateData
	vars := map[string]any{"productId": productID, "variants": variants}
	if err := a.execute(ctx, "update_prices", variantsBulkUpdateMutation, vars, &data); err != nil {
		return err
	}
	applyUserErrors(data.ProductVariantsBulkUpdate.UserErrors, "variants", group, outcome)
	return nil
}

func (a *ShopifyAdapter) setQuantities(ctx context.Context, chunk []catalogsync.RemoteUpdateCommand, outcome *variantOutcome) error {
	input := shopifySetQuantitiesInput{
		Name:                  "available",
		Reason:                "correction",
		IgnoreCompareQuantity: true,
		Quantities:            make([]shopifyQuantityInput, len(chunk)),
	}
	for i, cmd := range chunk {
		input.Quantities[i] = shopifyQuantityInput{
			InventoryItemID: cmd.Handle.InventoryRef,
			LocationID:      a.config.LocationID,
			Quantity:        cmd.NewStock,
		}
	}

	var data shopifySetQuantitiesData
	if err := a.execute(ctx, "set_quantities", setQuantitiesMutation, map[string]any{"input": input}, &data); err != nil {
		return err
	}
	applyUserErrors(data.InventorySetQuantities.UserErrors, "quantities", chunk, outcome)
	return nil
}

// applyUserErrors maps each user error to the input element its field path
// points at. An error that cannot be attributed fails the whole group.
func applyUserErrors(errs []userError, list string, group []catalogsync.RemoteUpdateCommand, outcome *variantOutcome) {
	for _, ue := range errs {
		idx, ok := userErrorIndex(ue.Field, list)
		if ok && idx < len(group) {
			outcome.fail(group[idx].RemoteID, ue.Message)
			continue
		}
		for _, cmd := range group {
			outcome.fail(cmd.RemoteID, ue.Message)
		}
	}
}

func userErrorIndex(field []string, list string) (int, bool) {
	for i := 0; i+1 < len(field); i++ {
		if field[i] != list {
			continue
		}
		idx, err := strconv.Atoi(field[i+1])
		if err != nil || idx < 0 {
			return 0, false
		}
		return idx, true
	}
	return 0, false
}

// execute posts one GraphQL operation under the guard and decodes its data into out
func (a *ShopifyAdapter) execute(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	return a.guard.call(ctx, operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.graphqlEndpoint(), bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)

		body, err := send(a.httpClient, catalogsync.PlatformShopify, req)
		if err != nil {
			return err
		}

		var resp graphQLResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return invalidResponse(catalogsync.PlatformShopify, "decode graphql response: %v", err)
		}
		if len(resp.Errors) > 0 {
			return graphQLErrors(resp.Errors)
		}
		if len(resp.Data) == 0 || string(resp.Data) == "null" {
			return invalidResponse(catalogsync.PlatformShopify, "empty data")
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return invalidResponse(catalogsync.PlatformShopify, "decode %s data: %v", operation, err)
		}
		return nil
	})
}

// graphQLErrors maps top-level GraphQL errors to platform sentinels. Shopify
// reports throttling as a 200 response with a THROTTLED error.
func graphQLErrors(errs []graphQLError) error {
	msgs := make([]string, len(errs))
	sentinel := catalogsync.ErrPlatformRequestFailed
	for i, e := range errs {
		msgs[i] = e.Message
		switch e.Extensions.Code {
		case "THROTTLED":
			sentinel = catalogsync.ErrPlatformRateLimited
		case "ACCESS_DENIED", "UNAUTHORIZED":
			if !errors.Is(sentinel, catalogsync.ErrPlatformRateLimited) {
				sentinel = catalogsync.ErrPlatformAuthFailed
			}
		case "INTERNAL_SERVER_ERROR":
			if errors.Is(sentinel, catalogsync.ErrPlatformRequestFailed) {
				sentinel = catalogsync.ErrPlatformUnavailable
			}
		}
	}
	return fmt.Errorf("%w: shopify: %s", sentinel, strings.Join(msgs, "; "))
}
