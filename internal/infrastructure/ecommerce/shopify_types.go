package ecommerce

import "encoding/json"

// GraphQL request/response envelope of the Admin API

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// userError is a mutation-level validation error. Field is the input path,
// e.g. ["variants", "2", "price"].
type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

const variantsBySKUQuery = `query variantsBySKU($first: Int!, $after: String, $query: String!) {
  productVariants(first: $first, after: $after, query: $query) {
    nodes {
      id
      sku
      displayName
      price
      compareAtPrice
      inventoryQuantity
      product { id }
      inventoryItem { id tracked }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

type shopifyVariantsData struct {
	ProductVariants struct {
		Nodes    []shopifyVariant `json:"nodes"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
	} `json:"productVariants"`
}

type shopifyVariant struct {
	ID                string  `json:"id"`
	SKU               string  `json:"sku"`
	DisplayName       string  `json:"displayName"`
	Price             string  `json:"price"`
	CompareAtPrice    *string `json:"compareAtPrice"`
	InventoryQuantity *int64  `json:"inventoryQuantity"`
	Product           struct {
		ID string `json:"id"`
	} `json:"product"`
	InventoryItem struct {
		ID      string `json:"id"`
		Tracked bool   `json:"tracked"`
	} `json:"inventoryItem"`
}

const variantsBulkUpdateMutation = `mutation bulkUpdateVariants($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    productVariants { id }
    userErrors { field message }
  }
}`

// shopifyVariantInput keeps compareAtPrice without omitempty: null clears it
type shopifyVariantInput struct {
	ID             string  `json:"id"`
	Price          string  `json:"price"`
	CompareAtPrice *string `json:"compareAtPrice"`
}

type shopifyBulkUpdateData struct {
	ProductVariantsBulkUpdate struct {
		UserErrors []userError `json:"userErrors"`
	} `json:"productVariantsBulkUpdate"`
}

const setQuantitiesMutation = `mutation setQuantities($input: InventorySetQuantitiesInput!) {
  inventorySetQuantities(input: $input) {
    userErrors { field message }
  }
}`

type shopifySetQuantitiesInput struct {
	Name                  string                 `json:"name"`
	Reason                string                 `json:"reason"`
	IgnoreCompareQuantity bool                   `json:"ignoreCompareQuantity"`
	Quantities            []shopifyQuantityInput `json:"quantities"`
}

type shopifyQuantityInput struct {
	InventoryItemID string `json:"inventoryItemId"`
	LocationID      string `json:"locationId"`
	Quantity        int64  `json:"quantity"`
}

type shopifySetQuantitiesData struct {
	InventorySetQuantities struct {
		UserErrors []userError `json:"userErrors"`
	} `json:"inventorySetQuantities"`
}
