package catalogsync

// PlatformCode identifies the e-commerce platform a store runs on
type PlatformCode string

const (
	// PlatformWooCommerce is a WooCommerce store reached through the WC REST API v3
	PlatformWooCommerce PlatformCode = "woocommerce"
	// PlatformShopify is a Shopify store reached through the Admin GraphQL API
	PlatformShopify PlatformCode = "shopify"
)

// IsValid returns true if the platform code is supported
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformWooCommerce, PlatformShopify:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformWooCommerce:
		return "WooCommerce"
	case PlatformShopify:
		return "Shopify"
	default:
		return string(c)
	}
}
