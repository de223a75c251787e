package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for callers that only care about the category.
type ErrorKind string

const (
	KindValidation       ErrorKind = "VALIDATION"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindPermissionDenied ErrorKind = "PERMISSION_DENIED"
	KindBusinessRule     ErrorKind = "BUSINESS_RULE"
	KindConsistency      ErrorKind = "CONSISTENCY"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches by code, or by kind when the target carries no code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

func newError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// Kind sentinels, usable with errors.Is to match any error of the category.
var (
	ErrValidation       = &DomainError{Kind: KindValidation, Message: "validation error"}
	ErrNotFound         = &DomainError{Kind: KindNotFound, Message: "resource not found"}
	ErrPermissionDenied = &DomainError{Kind: KindPermissionDenied, Message: "permission denied"}
	ErrBusinessRule     = &DomainError{Kind: KindBusinessRule, Message: "business rule violation"}
	ErrConsistency      = &DomainError{Kind: KindConsistency, Message: "data consistency fault"}
)

// Loan and line item rules
var (
	ErrClientRestricted    = newError(KindBusinessRule, "CLIENT_RESTRICTED", "client restricted")
	ErrQuotaExceeded       = newError(KindBusinessRule, "QUOTA_EXCEEDED", "quota exceeded")
	ErrInvalidDateRange    = newError(KindValidation, "INVALID_DATE_RANGE", "invalid date range: return date must be at least one day after the start date")
	ErrToolNotAvailable    = newError(KindBusinessRule, "TOOL_NOT_AVAILABLE", "tool not available")
	ErrDuplicateActiveLoan = newError(KindBusinessRule, "DUPLICATE_ACTIVE_LOAN", "duplicate active loan: client already holds this tool")
	ErrInvalidDamage       = newError(KindBusinessRule, "INVALID_DAMAGE", "invalid damage type")
	ErrItemHasActivity     = newError(KindBusinessRule, "ITEM_HAS_ACTIVITY", "cannot delete an item with activity")
	ErrLoanClosed          = newError(KindBusinessRule, "LOAN_CLOSED", "loan already closed")
	ErrPriorActivity       = newError(KindBusinessRule, "PRIOR_ACTIVITY", "has prior activity, cannot deliver")
	ErrActivityMissing     = newError(KindBusinessRule, "ACTIVITY_ERROR", "activity error: item was never delivered")
	ErrAlreadyReturned     = newError(KindBusinessRule, "ALREADY_RETURNED", "item was already returned")
	ErrEmptyToolList       = newError(KindValidation, "EMPTY_TOOL_LIST", "at least one tool is required")
)

// Inventory rules
var (
	ErrInsufficientStock = newError(KindBusinessRule, "INSUFFICIENT_STOCK", "insufficient stock")
	ErrInvalidQuantity   = newError(KindValidation, "INVALID_QUANTITY", "quantity must be greater than zero")
	ErrInvalidPriceRange = newError(KindValidation, "INVALID_PRICE_RANGE", "minimum price cannot be greater than maximum price")
	ErrMissingRecord     = newError(KindConsistency, "MISSING_INVENTORY_RECORD", "inventory record missing for tool and state")
)

// Tool and state management rules
var (
	ErrToolInUse          = newError(KindBusinessRule, "TOOL_IN_USE", "tool has line items that were not returned")
	ErrCanonicalState     = newError(KindBusinessRule, "CANONICAL_STATE", "canonical states cannot be removed")
	ErrStateHoldsStock    = newError(KindBusinessRule, "STATE_HOLDS_STOCK", "state still holds stock")
	ErrInvalidCredentials = newError(KindPermissionDenied, "INVALID_CREDENTIALS", "invalid username or password")
	ErrDuplicate          = newError(KindBusinessRule, "DUPLICATE", "resource already exists")
)

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) *DomainError {
	return newError(KindValidation, "INVALID_INPUT", fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error with a formatted message.
func NotFoundf(format string, args ...any) *DomainError {
	return newError(KindNotFound, "NOT_FOUND", fmt.Sprintf(format, args...))
}

// PermissionDeniedf builds a permission error with a formatted message.
func PermissionDeniedf(format string, args ...any) *DomainError {
	return newError(KindPermissionDenied, "PERMISSION_DENIED", fmt.Sprintf(format, args...))
}

// KindOf returns the kind of err if it wraps a DomainError.
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// ExpectedFailure reports whether the error stems from caller input or a
// business rule rather than a fault in the system.
func (e *DomainError) ExpectedFailure() bool {
	return e.Kind != KindConsistency
}
