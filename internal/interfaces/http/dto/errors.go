package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used for request validation failures
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Marketplace error codes, aligned with the sync error taxonomy
const (
	// ErrCodeMarketplaceConfig is used when marketplace credentials or policies are misconfigured
	ErrCodeMarketplaceConfig = "ERR_MARKETPLACE_CONFIG"
	// ErrCodeMarketplaceTransient is used when the remote marketplace is temporarily unavailable
	ErrCodeMarketplaceTransient = "ERR_MARKETPLACE_TRANSIENT"
	// ErrCodeMarketplaceRejected is used when the remote marketplace permanently rejected a request
	ErrCodeMarketplaceRejected = "ERR_MARKETPLACE_REJECTED"
)

// Scheduler error codes
const (
	// ErrCodeSchedulerStopped is used when a job is submitted to a stopped scheduler
	ErrCodeSchedulerStopped = "ERR_SCHEDULER_STOPPED"
	// ErrCodeSchedulerBusy is used when the job queue is full
	ErrCodeSchedulerBusy = "ERR_SCHEDULER_BUSY"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,
	ErrCodeConflict:   http.StatusConflict,

	ErrCodeMarketplaceConfig:    http.StatusBadGateway,
	ErrCodeMarketplaceTransient: http.StatusServiceUnavailable,
	ErrCodeMarketplaceRejected:  http.StatusBadGateway,

	ErrCodeSchedulerStopped: http.StatusServiceUnavailable,
	ErrCodeSchedulerBusy:    http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
