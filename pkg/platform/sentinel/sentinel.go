// Package sentinel holds the infrastructure errors stores return, wrapped or
// bare. Services match them with errors.Is and map them to domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound reports a missing row or key.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState reports a write the current record does not allow,
	// such as a duplicate email.
	ErrInvalidState = errors.New("invalid state")
)
