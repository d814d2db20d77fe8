package catalogsync

import (
	"errors"

	"github.com/storesync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Sync errors
// ---------------------------------------------------------------------------

var (
	// ErrQuotaExhausted is returned before any remote I/O when the caller has no syncs left
	ErrQuotaExhausted = shared.NewDomainError("QUOTA_EXHAUSTED", "No syncs remaining for this account")
	// ErrRemoteFetchFailed aborts a preview; re-running the preview is the recovery path
	ErrRemoteFetchFailed = shared.NewDomainError("REMOTE_FETCH_FAILED", "Failed to fetch the remote catalog")
	// ErrRemoteBatchFailed means the gateway returned no per-item outcome at all
	ErrRemoteBatchFailed = shared.NewDomainError("REMOTE_BATCH_FAILED", "Remote batch update failed")
	// ErrAuditPersistenceFailed is a warning: the remote mutation already happened
	ErrAuditPersistenceFailed = shared.NewDomainError("AUDIT_PERSISTENCE_FAILED", "Sync applied, but report may be incomplete")

	ErrStoreNotFound         = shared.NewDomainError("STORE_NOT_FOUND", "Store not found")
	ErrPreviewAlreadyApplied = shared.NewDomainError("PREVIEW_ALREADY_APPLIED", "This preview has already been applied")
	ErrInvalidPreview        = shared.NewDomainError("INVALID_PREVIEW", "Preview is inconsistent and cannot be applied")
	ErrInvalidRecord         = shared.NewDomainError("INVALID_RECORD", "Invalid stock record")
	ErrTooManyRecords        = shared.NewDomainError("TOO_MANY_RECORDS", "Too many records in one sync")
	ErrInvalidStore          = shared.NewDomainError("INVALID_STORE", "Invalid store configuration")
)

// ---------------------------------------------------------------------------
// Platform errors
// ---------------------------------------------------------------------------

var (
	ErrUnsupportedPlatform     = errors.New("catalogsync: unsupported platform")
	ErrPlatformNotConfigured   = errors.New("catalogsync: platform not configured")
	ErrPlatformUnavailable     = errors.New("catalogsync: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("catalogsync: platform request failed")
	ErrPlatformInvalidResponse = errors.New("catalogsync: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("catalogsync: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("catalogsync: platform rate limited")
)

// invalidRecord builds an ErrInvalidRecord carrying a specific message
func invalidRecord(msg string) error {
	return shared.NewDomainError(ErrInvalidRecord.Code, msg)
}
