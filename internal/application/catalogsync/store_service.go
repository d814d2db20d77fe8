package catalogsync

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"go.uber.org/zap"
)

// StoreService registers and lists the stores a user can sync against
type StoreService struct {
	storeRepo catalogsync.StoreRepository
	logger    *zap.Logger
}

// NewStoreService creates a new StoreService
func NewStoreService(storeRepo catalogsync.StoreRepository, logger *zap.Logger) *StoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreService{
		storeRepo: storeRepo,
		logger:    logger,
	}
}

// Register validates and saves a new store for the user
func (s *StoreService) Register(ctx context.Context, in RegisterStoreInput) (*StoreResponse, error) {
	platform := catalogsync.PlatformCode(strings.ToLower(strings.TrimSpace(in.Platform)))
	store, err := catalogsync.NewStore(in.UserID, in.Name, platform, in.BaseURL, catalogsync.StoreCredentials{
		ConsumerKey:    strings.TrimSpace(in.ConsumerKey),
		ConsumerSecret: strings.TrimSpace(in.ConsumerSecret),
		AccessToken:    strings.TrimSpace(in.AccessToken),
		LocationID:     strings.TrimSpace(in.LocationID),
	})
	if err != nil {
		return nil, err
	}

	if err := s.storeRepo.Save(ctx, store); err != nil {
		return nil, err
	}

	s.logger.Info("Store registered",
		zap.String("store_id", store.ID.String()),
		zap.String("user_id", in.UserID.String()),
		zap.String("platform", store.Platform.String()),
	)
	resp := ToStoreResponse(store)
	return &resp, nil
}

// List returns the user's stores
func (s *StoreService) List(ctx context.Context, userID uuid.UUID) ([]StoreResponse, error) {
	stores, err := s.storeRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]StoreResponse, len(stores))
	for i := range stores {
		out[i] = ToStoreResponse(&stores[i])
	}
	return out, nil
}
