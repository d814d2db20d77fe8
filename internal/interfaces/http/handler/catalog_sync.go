package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	syncapp "github.com/storesync/backend/internal/application/catalogsync"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/interfaces/http/dto"
)

// PreviewBuilder builds a sync preview for a dataset
type PreviewBuilder interface {
	BuildPreview(ctx context.Context, in syncapp.PreviewInput) (*catalogsync.SyncPreview, error)
}

// PreviewApplier applies a confirmed preview
type PreviewApplier interface {
	Apply(ctx context.Context, in syncapp.ApplyInput) (*syncapp.ApplyResult, error)
}

// HistoryReader reads the sync audit trail
type HistoryReader interface {
	ListHistory(ctx context.Context, userID uuid.UUID, q syncapp.HistoryListQuery) (*shared.Paginated[syncapp.HistorySummaryResponse], error)
	GetReport(ctx context.Context, userID, summaryID uuid.UUID, q syncapp.HistoryDetailQuery) (*syncapp.HistoryReportResponse, error)
	GetReportDownload(ctx context.Context, userID, summaryID uuid.UUID) (*syncapp.ReportDownloadResponse, error)
}

// QuotaManager reads and grants sync quota
type QuotaManager interface {
	GetQuota(ctx context.Context, userID uuid.UUID) (*syncapp.QuotaResponse, error)
	Grant(ctx context.Context, userID uuid.UUID, syncs int) (*syncapp.QuotaResponse, error)
}

// StoreManager registers and lists stores
type StoreManager interface {
	Register(ctx context.Context, in syncapp.RegisterStoreInput) (*syncapp.StoreResponse, error)
	List(ctx context.Context, userID uuid.UUID) ([]syncapp.StoreResponse, error)
}

// CatalogSyncHandler handles catalog synchronization endpoints
type CatalogSyncHandler struct {
	BaseHandler
	previews PreviewBuilder
	applier  PreviewApplier
	history  HistoryReader
	quota    QuotaManager
	stores   StoreManager
}

// NewCatalogSyncHandler creates a new CatalogSyncHandler
func NewCatalogSyncHandler(
	previews PreviewBuilder,
	applier PreviewApplier,
	history HistoryReader,
	quota QuotaManager,
	stores StoreManager,
) *CatalogSyncHandler {
	return &CatalogSyncHandler{
		previews: previews,
		applier:  applier,
		history:  history,
		quota:    quota,
		stores:   stores,
	}
}

// Preview godoc
// @Summary      Preview a stock sync
// @Description  Compares the submitted records with the store catalog without changing anything
// @Tags         catalog-sync
// @Accept       json
// @Produce      json
// @Param        request body dto.PreviewRequest true "Stock dataset"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /catalog-sync/preview [post]
func (h *CatalogSyncHandler) Preview(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req dto.PreviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	preview, err := h.previews.BuildPreview(c.Request.Context(), syncapp.PreviewInput{
		UserID:  userID,
		StoreID: uuid.MustParse(req.StoreID),
		Records: req.ToLocalRecords(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, preview)
}

// Apply godoc
// @Summary      Apply a confirmed preview
// @Description  Pushes the preview's update payload to the store and records the audit trail.
// @Description  An incomplete audit trail is reported as a warning on a successful response.
// @Tags         catalog-sync
// @Accept       json
// @Produce      json
// @Param        request body dto.ApplyRequest true "Confirmed preview"
// @Success      200 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /catalog-sync/apply [post]
func (h *CatalogSyncHandler) Apply(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req dto.ApplyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.applier.Apply(c.Request.Context(), syncapp.ApplyInput{
		UserID:  userID,
		StoreID: uuid.MustParse(req.StoreID),
		Preview: req.Preview,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}

	h.Success(c, result)
}

// ListHistory godoc
// @Summary      List sync history
// @Tags         catalog-sync
// @Produce      json
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        store_id  query string false "Store filter"
// @Param        order_by  query string false "synced_at, total_processed, total_updated or total_errors"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} dto.Response
// @Router       /catalog-sync/history [get]
func (h *CatalogSyncHandler) ListHistory(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	req := dto.HistoryListRequest{ListRequest: dto.DefaultListRequest()}
	if !h.bindQuery(c, &req) {
		return
	}

	q := syncapp.HistoryListQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
	if req.StoreID != "" {
		storeID := uuid.MustParse(req.StoreID)
		q.StoreID = &storeID
	}

	page, err := h.history.ListHistory(c.Request.Context(), userID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetReport godoc
// @Summary      Get a sync report
// @Description  Returns one audit summary with a page of its per-SKU details
// @Tags         catalog-sync
// @Produce      json
// @Param        id        path  string true  "Summary ID"
// @Param        status    query string false "Detail status filter"
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /catalog-sync/history/{id} [get]
func (h *CatalogSyncHandler) GetReport(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if !h.bindURI(c, &uri) {
		return
	}
	req := dto.HistoryDetailRequest{ListRequest: dto.DefaultListRequest()}
	if !h.bindQuery(c, &req) {
		return
	}

	report, err := h.history.GetReport(c.Request.Context(), userID, uuid.MustParse(uri.ID), syncapp.HistoryDetailQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// DownloadReport godoc
// @Summary      Get a download link for an archived sync report
// @Tags         catalog-sync
// @Produce      json
// @Param        id path string true "Summary ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /catalog-sync/history/{id}/report [get]
func (h *CatalogSyncHandler) DownloadReport(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if !h.bindURI(c, &uri) {
		return
	}

	link, err := h.history.GetReportDownload(c.Request.Context(), userID, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}

// GetQuota godoc
// @Summary      Get remaining syncs
// @Tags         catalog-sync
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /catalog-sync/quota [get]
func (h *CatalogSyncHandler) GetQuota(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	quota, err := h.quota.GetQuota(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quota)
}

// GrantSyncs godoc
// @Summary      Grant syncs to an account
// @Tags         catalog-sync
// @Accept       json
// @Produce      json
// @Param        user_id path string                true "Account user ID"
// @Param        request body dto.GrantSyncsRequest true "Syncs to add"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Router       /catalog-sync/accounts/{user_id}/grant [post]
func (h *CatalogSyncHandler) GrantSyncs(c *gin.Context) {
	var uri dto.AccountURIRequest
	if !h.bindURI(c, &uri) {
		return
	}
	var req dto.GrantSyncsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quota, err := h.quota.Grant(c.Request.Context(), uuid.MustParse(uri.UserID), req.Syncs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quota)
}

// RegisterStore godoc
// @Summary      Register a store
// @Tags         catalog-sync
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterStoreRequest true "Store"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /catalog-sync/stores [post]
func (h *CatalogSyncHandler) RegisterStore(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req dto.RegisterStoreRequest
	if !h.bindJSON(c, &req) {
		return
	}

	store, err := h.stores.Register(c.Request.Context(), syncapp.RegisterStoreInput{
		UserID:         userID,
		Name:           req.Name,
		Platform:       req.Platform,
		BaseURL:        req.BaseURL,
		ConsumerKey:    req.Credentials.ConsumerKey,
		ConsumerSecret: req.Credentials.ConsumerSecret,
		AccessToken:    req.Credentials.AccessToken,
		LocationID:     req.Credentials.LocationID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, store)
}

// ListStores godoc
// @Summary      List the caller's stores
// @Tags         catalog-sync
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /catalog-sync/stores [get]
func (h *CatalogSyncHandler) ListStores(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	stores, err := h.stores.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if stores == nil {
		stores = []syncapp.StoreResponse{}
	}

	h.Success(c, stores)
}
