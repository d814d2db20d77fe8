package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTokenRevoked is used when the auth token was revoked
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Catalog sync error codes
const (
	// ErrCodeQuotaExhausted is used when the account has no syncs left
	ErrCodeQuotaExhausted = "ERR_QUOTA_EXHAUSTED"
	// ErrCodeStoreNotFound is used when the store is missing or owned by someone else
	ErrCodeStoreNotFound = "ERR_STORE_NOT_FOUND"
	// ErrCodePreviewAlreadyApplied is used when a preview is applied twice
	ErrCodePreviewAlreadyApplied = "ERR_PREVIEW_ALREADY_APPLIED"
	// ErrCodeInvalidPreview is used when a submitted preview is inconsistent
	ErrCodeInvalidPreview = "ERR_INVALID_PREVIEW"
	// ErrCodeInvalidRecord is used when a stock record is malformed
	ErrCodeInvalidRecord = "ERR_INVALID_RECORD"
	// ErrCodeTooManyRecords is used when a sync exceeds the record limit
	ErrCodeTooManyRecords = "ERR_TOO_MANY_RECORDS"
	// ErrCodeInvalidStore is used when a store configuration is unusable
	ErrCodeInvalidStore = "ERR_INVALID_STORE"
	// ErrCodeUnsupportedPlatform is used for an unknown platform code
	ErrCodeUnsupportedPlatform = "ERR_UNSUPPORTED_PLATFORM"
	// ErrCodeAuditIncomplete marks an applied sync whose report was not fully written
	ErrCodeAuditIncomplete = "ERR_AUDIT_PERSISTENCE_FAILED"
)

// Upstream error codes
const (
	// ErrCodeRemoteFetchFailed is used when the remote catalog could not be read
	ErrCodeRemoteFetchFailed = "ERR_REMOTE_FETCH_FAILED"
	// ErrCodeRemoteBatchFailed is used when the remote batch update failed entirely
	ErrCodeRemoteBatchFailed = "ERR_REMOTE_BATCH_FAILED"
	// ErrCodePlatformUnavailable is used when the platform cannot be reached
	ErrCodePlatformUnavailable = "ERR_PLATFORM_UNAVAILABLE"
	// ErrCodePlatformAuthFailed is used when the platform rejects the store credentials
	ErrCodePlatformAuthFailed = "ERR_PLATFORM_AUTH_FAILED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Catalog sync errors
	ErrCodeQuotaExhausted:        http.StatusUnprocessableEntity,
	ErrCodeStoreNotFound:         http.StatusNotFound,
	ErrCodePreviewAlreadyApplied: http.StatusConflict,
	ErrCodeInvalidPreview:        http.StatusBadRequest,
	ErrCodeInvalidRecord:         http.StatusBadRequest,
	ErrCodeTooManyRecords:        http.StatusBadRequest,
	ErrCodeInvalidStore:          http.StatusBadRequest,
	ErrCodeUnsupportedPlatform:   http.StatusBadRequest,
	ErrCodeAuditIncomplete:       http.StatusOK,

	// Upstream errors -> 502 Bad Gateway
	ErrCodeRemoteFetchFailed:   http.StatusBadGateway,
	ErrCodeRemoteBatchFailed:   http.StatusBadGateway,
	ErrCodePlatformUnavailable: http.StatusBadGateway,
	ErrCodePlatformAuthFailed:  http.StatusBadGateway,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_STATE":            ErrCodeInvalidState,
	"UNAUTHORIZED":             ErrCodeUnauthorized,
	"FORBIDDEN":                ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
	"QUOTA_EXHAUSTED":          ErrCodeQuotaExhausted,
	"REMOTE_FETCH_FAILED":      ErrCodeRemoteFetchFailed,
	"REMOTE_BATCH_FAILED":      ErrCodeRemoteBatchFailed,
	"AUDIT_PERSISTENCE_FAILED": ErrCodeAuditIncomplete,
	"STORE_NOT_FOUND":          ErrCodeStoreNotFound,
	"PREVIEW_ALREADY_APPLIED":  ErrCodePreviewAlreadyApplied,
	"INVALID_PREVIEW":          ErrCodeInvalidPreview,
	"INVALID_RECORD":           ErrCodeInvalidRecord,
	"TOO_MANY_RECORDS":         ErrCodeTooManyRecords,
	"INVALID_STORE":            ErrCodeInvalidStore,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
