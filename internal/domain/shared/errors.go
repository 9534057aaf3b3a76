package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across the engine. Business-rule violations
// (overpayment, insufficient credit, exceeding the creditable ceiling)
// are recoverable by the caller; UNBALANCED_ENTRY indicates a defect in
// a posting code path and is surfaced as a hard failure.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeInvalidApproval     = "INVALID_APPROVAL_TRANSITION"
	ErrCodeOverpayment         = "OVERPAYMENT"
	ErrCodeInsufficientCredit  = "INSUFFICIENT_CREDIT"
	ErrCodeExceedsCreditable   = "EXCEEDS_CREDITABLE_AMOUNT"
	ErrCodeUnbalancedEntry     = "UNBALANCED_ENTRY"
	ErrCodeContention          = "CONTENTION"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(ErrCodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(ErrCodeAlreadyExists, "Resource already exists")
	ErrConcurrencyConflict = NewDomainError(ErrCodeConcurrencyConflict, "Resource was modified by another process")
	ErrContention          = NewDomainError(ErrCodeContention, "Document is locked by another operation, retry later")
	ErrUnauthorized        = NewDomainError(ErrCodeUnauthorized, "Not authorized to perform this action")
)
