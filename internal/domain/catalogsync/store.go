package catalogsync

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/shared"
)

// StoreCredentials holds the platform credentials of a store.
// Only the fields of the store's platform are used.
type StoreCredentials struct {
	// WooCommerce REST API consumer key/secret
	ConsumerKey    string `json:"consumer_key,omitempty"`
	ConsumerSecret string `json:"consumer_secret,omitempty"`
	// Shopify Admin API access token and the location stock is set at
	AccessToken string `json:"access_token,omitempty"`
	LocationID  string `json:"location_id,omitempty"`
}

// Store is a remote storefront owned by one user. Platform selects the gateway.
type Store struct {
	shared.BaseEntity
	UserID      uuid.UUID
	Name        string
	Platform    PlatformCode
	BaseURL     string
	Credentials StoreCredentials
}

// NewStore creates a validated store
func NewStore(userID uuid.UUID, name string, platform PlatformCode, baseURL string, creds StoreCredentials) (*Store, error) {
	s := &Store{
		BaseEntity:  shared.NewBaseEntity(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Platform:    platform,
		BaseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Credentials: creds,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the store is usable for its platform
func (s *Store) Validate() error {
	if s.UserID == uuid.Nil {
		return invalidStore("user id is required")
	}
	if s.Name == "" {
		return invalidStore("name is required")
	}
	if !s.Platform.IsValid() {
		return invalidStore("unsupported platform " + s.Platform.String())
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalidStore("base url must be an absolute URL")
	}

	switch s.Platform {
	case PlatformWooCommerce:
		if s.Credentials.ConsumerKey == "" || s.Credentials.ConsumerSecret == "" {
			return invalidStore("woocommerce stores need a consumer key and secret")
		}
	case PlatformShopify:
		if s.Credentials.AccessToken == "" {
			return invalidStore("shopify stores need an access token")
		}
	}
	return nil
}

// OwnedBy returns true if the store belongs to userID
func (s *Store) OwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}

func invalidStore(msg string) error {
	return shared.NewDomainError(ErrInvalidStore.Code, ErrInvalidStore.Message+": "+msg)
}

// StoreReader defines read operations for stores
type StoreReader interface {
	// FindByID returns shared.ErrNotFound if the store does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Store, error)
}

// StoreWriter defines write operations for stores
type StoreWriter interface {
	Save(ctx context.Context, store *Store) error
}

// StoreRepository combines store read and write operations
type StoreRepository interface {
	StoreReader
	StoreWriter
}
