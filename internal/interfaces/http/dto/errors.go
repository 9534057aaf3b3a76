package dto

import (
	"net/http"

	"github.com/servicebooks/backend/internal/domain/shared"
)

// Transport-level error codes for failures that never reach the domain.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks a required role
	ErrCodeForbidden = "FORBIDDEN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
//
// Recoverable business-rule violations (overpayment, insufficient credit,
// bad transitions, lock contention, stale versions) map to 409 so callers
// can distinguish "retry or fix your request" from plain bad input.
// UNBALANCED_ENTRY means a posting code path produced a bad journal entry
// and is deliberately a 500.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeForbidden:  http.StatusForbidden,

	shared.ErrCodeValidation:        http.StatusBadRequest,
	shared.ErrCodeExceedsCreditable: http.StatusBadRequest,

	shared.ErrCodeNotFound: http.StatusNotFound,

	shared.ErrCodeAlreadyExists:       http.StatusConflict,
	shared.ErrCodeInvalidTransition:   http.StatusConflict,
	shared.ErrCodeInvalidApproval:     http.StatusConflict,
	shared.ErrCodeOverpayment:         http.StatusConflict,
	shared.ErrCodeInsufficientCredit:  http.StatusConflict,
	shared.ErrCodeContention:          http.StatusConflict,
	shared.ErrCodeConcurrencyConflict: http.StatusConflict,

	shared.ErrCodeUnauthorized: http.StatusForbidden,

	shared.ErrCodeUnbalancedEntry: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
