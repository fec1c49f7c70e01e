// Package utils provides strict parsing helpers for form and API values.
// Parsers return ErrNotNumber or ErrOutOfRange so callers can build
// field-level validation messages.
package utils
