// Package common defines shared constants and sentinel errors used across
// client layers of gophchat. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors.
	ErrEmptyCredential  = errors.New("empty credential")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
