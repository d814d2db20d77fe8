package catalogsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
	"github.com/storesync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// HistoryService answers read queries on the audit trail
type HistoryService struct {
	historyRepo catalogsync.SyncHistoryReader
	linker      ReportLinker
	linkTTL     time.Duration
	logger      *zap.Logger
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(historyRepo catalogsync.SyncHistoryReader, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// SetReportLinker enables download links for archived reports
func (s *HistoryService) SetReportLinker(linker ReportLinker, ttl time.Duration) {
	s.linker = linker
	s.linkTTL = ttl
}

// ListHistory returns the user's sync summaries, newest first
func (s *HistoryService) ListHistory(ctx context.Context, userID uuid.UUID, q HistoryListQuery) (*shared.Paginated[HistorySummaryResponse], error) {
	filter := catalogsync.HistoryFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			OrderBy:  q.OrderBy,
			OrderDir: q.OrderDir,
		}.Normalize(),
		UserID:  userID,
		StoreID: q.StoreID,
	}

	entries, total, err := s.historyRepo.ListSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]HistorySummaryResponse, len(entries))
	for i, e := range entries {
		items[i] = ToHistorySummaryResponse(e)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetReport returns one summary owned by the user with a page of its details
func (s *HistoryService) GetReport(ctx context.Context, userID, summaryID uuid.UUID, q HistoryDetailQuery) (*HistoryReportResponse, error) {
	status := catalogsync.DetailStatus(q.Status)
	if status != "" && !status.IsValid() {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "unknown detail status "+q.Status)
	}

	entry, err := s.historyRepo.FindSummary(ctx, userID, summaryID)
	if err != nil {
		return nil, err
	}

	filter := catalogsync.DetailFilter{
		Filter: shared.Filter{Page: q.Page, PageSize: q.PageSize}.Normalize(),
		Status: status,
	}
	details, total, err := s.historyRepo.ListDetails(ctx, summaryID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryDetailResponse, len(details))
	for i, d := range details {
		items[i] = ToHistoryDetailResponse(d)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)

	return &HistoryReportResponse{
		Summary:    ToHistorySummaryResponse(*entry),
		Details:    page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// GetReportDownload returns a presigned link to the archived full report of a
// summary owned by the user. It is ErrNotFound when archiving is disabled or
// the report was never uploaded.
func (s *HistoryService) GetReportDownload(ctx context.Context, userID, summaryID uuid.UUID) (*ReportDownloadResponse, error) {
	if _, err := s.historyRepo.FindSummary(ctx, userID, summaryID); err != nil {
		return nil, err
	}
	if s.linker == nil {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "report archive is not enabled")
	}

	key := ReportKey(userID, summaryID)
	exists, err := s.linker.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "archived report not found")
	}

	url, expiresAt, err := s.linker.GenerateDownloadURL(ctx, key, s.linkTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Issued report download link",
		zap.String("summary_id", summaryID.String()),
		zap.Time("expires_at", expiresAt),
	)
	return &ReportDownloadResponse{SummaryID: summaryID, URL: url, ExpiresAt: expiresAt}, nil
}
