package ecommerce

// wooProduct is the subset of a WC REST v3 product the gateway reads
type wooProduct struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	Price         string `json:"price"`
	RegularPrice  string `json:"regular_price"`
	SalePrice     string `json:"sale_price"`
	StockQuantity *int64 `json:"stock_quantity"`
}

// wooBatchRequest is the body of POST /products/batch
type wooBatchRequest struct {
	Update []wooProductUpdate `json:"update"`
}

// wooProductUpdate only carries the fields being changed
type wooProductUpdate struct {
	ID            int64   `json:"id"`
	RegularPrice  *string `json:"regular_price,omitempty"`
	SalePrice     *string `json:"sale_price,omitempty"`
	ManageStock   *bool   `json:"manage_stock,omitempty"`
	StockQuantity *int64  `json:"stock_quantity,omitempty"`
}

// wooBatchResponse is the response of POST /products/batch. Refused items
// carry an error object instead of the product.
type wooBatchResponse struct {
	Update []wooBatchItem `json:"update"`
}

type wooBatchItem struct {
	ID    int64     `json:"id"`
	Error *wooError `json:"error,omitempty"`
}

type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
