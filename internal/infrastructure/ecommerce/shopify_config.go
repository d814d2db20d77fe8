package ecommerce

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Shopify API limits
const (
	// ShopifyMaxPageSize is the largest "first" argument a connection accepts
	ShopifyMaxPageSize = 250
	// ShopifyDefaultSKUChunkSize keeps the search query string well below its length limit
	ShopifyDefaultSKUChunkSize = 50
	// ShopifyDefaultAPIVersion is the Admin API version used when none is configured
	ShopifyDefaultAPIVersion = "2024-10"
)

// ShopifyConfig holds the connection settings of one Shopify store
type ShopifyConfig struct {
	// ShopURL is the shop root, e.g. https://example.myshopify.com
	ShopURL     string
	AccessToken string
	// LocationID is the inventory location stock is set at (numeric id or GID)
	LocationID   string
	APIVersion   string
	SKUChunkSize int
	Timeout      time.Duration
}

// Errors for Shopify configuration
var (
	ErrShopifyMissingShopURL     = errors.New("shopify: shop url is required")
	ErrShopifyMissingAccessToken = errors.New("shopify: access token is required")
)

// Validate validates the configuration and fills defaults
func (c *ShopifyConfig) Validate() error {
	c.ShopURL = strings.TrimRight(strings.TrimSpace(c.ShopURL), "/")
	if c.ShopURL == "" {
		return ErrShopifyMissingShopURL
	}
	if u, err := url.Parse(c.ShopURL); err != nil || u.Host == "" {
		return ErrShopifyMissingShopURL
	}
	if c.AccessToken == "" {
		return ErrShopifyMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = ShopifyDefaultAPIVersion
	}
	if c.SKUChunkSize <= 0 || c.SKUChunkSize > ShopifyMaxPageSize {
		c.SKUChunkSize = ShopifyDefaultSKUChunkSize
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	c.LocationID = locationGID(strings.TrimSpace(c.LocationID))
	return nil
}

func (c *ShopifyConfig) graphqlEndpoint() string {
	return c.ShopURL + "/admin/api/" + c.APIVersion + "/graphql.json"
}

// locationGID accepts a bare numeric location id as well as a full GID
func locationGID(id string) string {
	if id == "" || strings.HasPrefix(id, "gid://") {
		return id
	}
	return "gid://shopify/Location/" + id
}
