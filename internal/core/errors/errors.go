// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Lookup errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrChannelNotFound indicates a channel could not be resolved by a source.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrNotAChannel indicates the resolved entity is not a channel type.
	ErrNotAChannel = errors.New("entity is not a channel")
)

// Client and connection errors.
var (
	// ErrClientDisabled indicates a client or feature is disabled.
	ErrClientDisabled = errors.New("client disabled")

	// ErrSourceClosed indicates a message source has been exhausted or closed.
	ErrSourceClosed = errors.New("source closed")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMessage indicates a message record is missing required fields.
	ErrInvalidMessage = errors.New("invalid message record")
)

// Image text extraction errors.
var (
	// ErrOCRUnavailable indicates no text recognition capability is configured.
	ErrOCRUnavailable = errors.New("ocr unavailable")

	// ErrImageDecode indicates an image buffer could not be decoded.
	ErrImageDecode = errors.New("image decode failed")
)

// Rate limiting errors.
var (
	// ErrRateLimited indicates the upstream asked us to back off.
	ErrRateLimited = errors.New("rate limited")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
