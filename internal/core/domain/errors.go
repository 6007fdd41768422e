// Package domain defines the core domain models for kvsum.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form KS-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "KS-ALG-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Checksum Errors
// ============================================================================

var (
	// ErrUnsupportedAlgorithm indicates the request asks for a checksum
	// algorithm that is not implemented. Raised before any row is scanned.
	ErrUnsupportedAlgorithm = NewDomainError("KS-ALG-4000", "unsupported checksum algorithm")

	// ErrScanFailure indicates the row source failed while scanning.
	// The row source error is kept as the cause.
	ErrScanFailure = NewDomainError("KS-SCAN-5000", "scan failed")

	// ErrEncodingFailure indicates the final result could not be serialized.
	ErrEncodingFailure = NewDomainError("KS-ENC-5001", "encode checksum response failed")

	// ErrContextConsumed indicates a checksum context was handled twice.
	ErrContextConsumed = NewDomainError("KS-REQ-4090", "checksum context already consumed")
)

// ============================================================================
// Argument Errors
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("KS-ARG-1001", "invalid argument")

	// ErrInvalidRange indicates a key range whose start sorts after its end.
	ErrInvalidRange = NewDomainError("KS-ARG-1002", "invalid key range")
)
