package history

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidSample marks a non-finite value or an out-of-range date.
	ErrInvalidSample = errors.New("invalid sample")
	// ErrMalformedDocument marks a snapshot document that violates the schema.
	ErrMalformedDocument = errors.New("malformed document")
)
