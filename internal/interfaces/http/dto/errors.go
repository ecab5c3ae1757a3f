package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "INVALID_TOKEN"
	ErrCodeTokenRevoked = "TOKEN_REVOKED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps application error codes to HTTP status codes.
// Codes emitted by the application services appear here by name; anything
// unknown is treated as an internal error.
var ErrorCodeHTTPStatus = map[string]int{
	// Malformed or invalid input -> 400
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,
	"INVALID_ROLE":    http.StatusBadRequest,
	"WEAK_PASSWORD":   http.StatusBadRequest,
	"INVALID_EMAIL":   http.StatusBadRequest,

	// Failed or missing authentication -> 401
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	ErrCodeTokenRevoked:     http.StatusUnauthorized,
	"INVALID_CREDENTIALS":   http.StatusUnauthorized,
	"INVALID_REFRESH_TOKEN": http.StatusUnauthorized,

	// Authenticated but not allowed -> 403
	ErrCodeForbidden:        http.StatusForbidden,
	"TENANT_MISMATCH":       http.StatusForbidden,
	"NOT_INVITED":           http.StatusForbidden,
	"ACCOUNT_LOCKED":        http.StatusForbidden,
	"ACCOUNT_NOT_ACTIVATED": http.StatusForbidden,
	"ROLE_NOT_ALLOWED":      http.StatusForbidden,

	// Missing resources -> 404
	"NOT_FOUND":        http.StatusNotFound,
	"TENANT_NOT_FOUND": http.StatusNotFound,
	"BRANCH_NOT_FOUND": http.StatusNotFound,
	"USER_NOT_FOUND":   http.StatusNotFound,

	// Conflicts -> 409
	"ALREADY_EXISTS":       http.StatusConflict,
	"EMAIL_EXISTS":         http.StatusConflict,
	"BRANCH_CODE_EXISTS":   http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Rate limiting -> 429
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Upstream identity provider failures -> 503
	"PROVIDER_UNAVAILABLE": http.StatusServiceUnavailable,

	ErrCodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
