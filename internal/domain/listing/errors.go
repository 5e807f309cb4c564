package listing

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// Mapping errors
	ErrMappingAlreadyExists  = errors.New("listing: mapping already exists")
	ErrMappingNotFound       = errors.New("listing: mapping not found")
	ErrMappingInvalidSource  = errors.New("listing: invalid source listing ID")
	ErrMappingInvalidSku     = errors.New("listing: invalid destination SKU")
	ErrMappingInvalidStatus  = errors.New("listing: invalid mapping status")
	ErrMappingTerminalStatus = errors.New("listing: mapping already in a terminal status")

	// Pipeline errors
	ErrLocationUnavailable = errors.New("listing: no usable fulfillment location")
	ErrOfferNotFound       = errors.New("listing: offer not found")
	ErrSkuCollision        = errors.New("listing: destination SKU already belongs to a different source identity")
)

// ---------------------------------------------------------------------------
// Marketplace error taxonomy
// ---------------------------------------------------------------------------

// ErrorKind classifies a marketplace failure by the corrective action it
// implies.
type ErrorKind string

const (
	// ErrorKindTransient covers timeouts and 5xx responses; safe to retry
	// by resubmitting the batch.
	ErrorKindTransient ErrorKind = "TRANSIENT_NETWORK"
	// ErrorKindConflict means the resource already exists; callers must
	// take the recovery-read path, never hard-fail.
	ErrorKindConflict ErrorKind = "CONFLICT"
	// ErrorKindValidation means mandatory attributes are missing; blocks
	// publish only, never draft creation.
	ErrorKindValidation ErrorKind = "VALIDATION"
	// ErrorKindConfiguration means account-level policy or credentials
	// are missing; every item would fail identically, so the whole batch
	// fails fast.
	ErrorKindConfiguration ErrorKind = "CONFIGURATION"
	// ErrorKindPermanent is a marketplace business-rule rejection;
	// surfaced verbatim, not retried.
	ErrorKindPermanent ErrorKind = "PERMANENT_REJECTION"
)

// MarketplaceError is a classified failure from a marketplace call.
type MarketplaceError struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Err    error
}

// Error implements the error interface
func (e *MarketplaceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Detail, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Detail, e.Kind)
}

// Unwrap returns the underlying cause
func (e *MarketplaceError) Unwrap() error {
	return e.Err
}

// NewMarketplaceError creates a classified marketplace error
func NewMarketplaceError(kind ErrorKind, op, detail string) *MarketplaceError {
	return &MarketplaceError{Kind: kind, Op: op, Detail: detail}
}

// WrapMarketplaceError classifies an underlying error from op
func WrapMarketplaceError(kind ErrorKind, op string, err error) *MarketplaceError {
	return &MarketplaceError{Kind: kind, Op: op, Detail: err.Error(), Err: err}
}

// KindOf returns the classification of err, or ErrorKindPermanent when
// the error carries no classification.
func KindOf(err error) ErrorKind {
	var me *MarketplaceError
	if errors.As(err, &me) {
		return me.Kind
	}
	return ErrorKindPermanent
}

// IsConflict reports whether err is an already-exists conflict.
func IsConflict(err error) bool {
	return KindOf(err) == ErrorKindConflict
}

// IsTransient reports whether err is safe to retry by resubmission.
func IsTransient(err error) bool {
	return KindOf(err) == ErrorKindTransient
}

// IsConfiguration reports whether err is an account-level configuration
// problem.
func IsConfiguration(err error) bool {
	return KindOf(err) == ErrorKindConfiguration
}
