package ecommerce

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// WooCommerceMaxBatchSize is the largest update list /products/batch accepts
const WooCommerceMaxBatchSize = 100

// WooCommerceConfig holds the connection settings of one WooCommerce store
type WooCommerceConfig struct {
	// BaseURL is the site root, e.g. https://shop.example.com
	BaseURL string
	// ConsumerKey and ConsumerSecret are the REST API credentials (HTTP Basic auth)
	ConsumerKey    string
	ConsumerSecret string
	// BatchSize is the number of SKUs per search and updates per batch call
	BatchSize int
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// Errors for WooCommerce configuration
var (
	ErrWooCommerceMissingBaseURL = errors.New("woocommerce: base url is required")
	ErrWooCommerceMissingKey     = errors.New("woocommerce: consumer key is required")
	ErrWooCommerceMissingSecret  = errors.New("woocommerce: consumer secret is required")
)

// Validate validates the configuration and fills defaults
func (c *WooCommerceConfig) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return ErrWooCommerceMissingBaseURL
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Host == "" {
		return ErrWooCommerceMissingBaseURL
	}
	if c.ConsumerKey == "" {
		return ErrWooCommerceMissingKey
	}
	if c.ConsumerSecret == "" {
		return ErrWooCommerceMissingSecret
	}
	if c.BatchSize <= 0 || c.BatchSize > WooCommerceMaxBatchSize {
		c.BatchSize = WooCommerceMaxBatchSize
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

func (c *WooCommerceConfig) endpoint(path string) string {
	return c.BaseURL + "/wp-json/wc/v3" + path
}
