package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PreviewService builds reviewable sync previews: it fetches the remote
// snapshot through the store's gateway and classifies the local dataset against it.
type PreviewService struct {
	storeRepo   catalogsync.StoreReader
	accountRepo catalogsync.SyncAccountReader
	gateways    catalogsync.GatewayRegistry
	opts        Options
	logger      *zap.Logger
	metrics     *telemetry.SyncMetrics
}

// NewPreviewService creates a new PreviewService
func NewPreviewService(
	storeRepo catalogsync.StoreReader,
	accountRepo catalogsync.SyncAccountReader,
	gateways catalogsync.GatewayRegistry,
	opts Options,
	logger *zap.Logger,
) *PreviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewService{
		storeRepo:   storeRepo,
		accountRepo: accountRepo,
		gateways:    gateways,
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

// SetSyncMetrics sets the sync metrics collector
func (s *PreviewService) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// BuildPreview classifies in.Records against the store's live catalog.
// It fails with ErrQuotaExhausted before any remote call when the user has no
// syncs left, and with ErrRemoteFetchFailed when the remote fetch fails.
func (s *PreviewService) BuildPreview(ctx context.Context, in PreviewInput) (*catalogsync.SyncPreview, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog_sync", "preview")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrUserID, in.UserID.String(),
		telemetry.SpanAttrStoreID, in.StoreID.String(),
		telemetry.SpanAttrRecordCount, len(in.Records),
	)

	records, err := normalizeRecords(in.Records, s.opts.MaxRecords)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	store, err := loadOwnedStore(ctx, s.storeRepo, in.UserID, in.StoreID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrPlatform, store.Platform.String())

	if err := checkQuota(ctx, s.accountRepo, in.UserID); err != nil {
		s.recordPreview(ctx, store, telemetry.SyncResultRejected)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(records) == 0 {
		s.recordPreview(ctx, store, telemetry.SyncResultNoop)
		return catalogsync.EmptyPreview(store.ID, store.Platform), nil
	}

	gateway, err := s.gateways.GatewayFor(store)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.WrapDomainError(catalogsync.ErrInvalidStore, err)
	}

	preview, err := buildPreview(ctx, store, records, gateway)
	if err != nil {
		s.recordPreview(ctx, store, telemetry.SyncResultFailed)
		telemetry.RecordError(span, err)
		s.logger.Warn("Failed to build sync preview",
			zap.String("store_id", store.ID.String()),
			zap.String("platform", store.Platform.String()),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPreviewID, preview.PreviewID.String(),
		telemetry.SpanAttrToUpdateCount, len(preview.ToUpdate),
		telemetry.SpanAttrUpToDateCount, len(preview.UpToDate),
		telemetry.SpanAttrNotFoundCount, len(preview.NotFound),
	)
	s.recordPreview(ctx, store, telemetry.SyncResultSuccess)

	s.logger.Info("Sync preview built",
		zap.String("preview_id", preview.PreviewID.String()),
		zap.String("store_id", store.ID.String()),
		zap.Int("to_update", len(preview.ToUpdate)),
		zap.Int("up_to_date", len(preview.UpToDate)),
		zap.Int("not_found", len(preview.NotFound)),
	)
	return preview, nil
}

func (s *PreviewService) recordPreview(ctx context.Context, store *catalogsync.Store, result telemetry.SyncResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordPreview(ctx, store.Platform.String(), result)
}

// buildPreview fetches the remote items for records and classifies them.
// Any fetch error aborts the whole preview.
func buildPreview(
	ctx context.Context,
	store *catalogsync.Store,
	records []catalogsync.LocalStockRecord,
	gateway catalogsync.CatalogGateway,
) (*catalogsync.SyncPreview, error) {
	remote, err := gateway.FetchBySKU(ctx, uniqueSKUs(records))
	if err != nil {
		return nil, shared.WrapDomainError(catalogsync.ErrRemoteFetchFailed, err)
	}

	classification := catalogsync.Classify(records, catalogsync.IndexBySKU(remote))
	return catalogsync.NewSyncPreview(store.ID, store.Platform, classification)
}

// normalizeRecords trims SKUs and validates every record
func normalizeRecords(records []catalogsync.LocalStockRecord, maxRecords int) ([]catalogsync.LocalStockRecord, error) {
	if maxRecords > 0 && len(records) > maxRecords {
		return nil, shared.NewDomainError(catalogsync.ErrTooManyRecords.Code,
			fmt.Sprintf("%s: %d records exceeds the limit of %d", catalogsync.ErrTooManyRecords.Message, len(records), maxRecords))
	}

	out := make([]catalogsync.LocalStockRecord, len(records))
	for i, r := range records {
		r.SKU = strings.TrimSpace(r.SKU)
		if err := r.Validate(); err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// uniqueSKUs returns each SKU once, in first-seen order
func uniqueSKUs(records []catalogsync.LocalStockRecord) []string {
	seen := make(map[string]struct{}, len(records))
	skus := make([]string, 0, len(records))
	for _, sku := range catalogsync.SKUs(records) {
		if _, ok := seen[sku]; ok {
			continue
		}
		seen[sku] = struct{}{}
		skus = append(skus, sku)
	}
	return skus
}

// loadOwnedStore returns the store if it exists and belongs to userID.
// Another user's store is reported as not found.
func loadOwnedStore(ctx context.Context, repo catalogsync.StoreReader, userID, storeID uuid.UUID) (*catalogsync.Store, error) {
	store, err := repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, catalogsync.ErrStoreNotFound
		}
		return nil, err
	}
	if !store.OwnedBy(userID) {
		return nil, catalogsync.ErrStoreNotFound
	}
	return store, nil
}

// checkQuota fails with ErrQuotaExhausted if the user cannot sync. A user
// without an account has no syncs.
func checkQuota(ctx context.Context, repo catalogsync.SyncAccountReader, userID uuid.UUID) error {
	account, err := repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return catalogsync.ErrQuotaExhausted
		}
		return err
	}
	if !account.CanSync() {
		return catalogsync.ErrQuotaExhausted
	}
	return nil
}
