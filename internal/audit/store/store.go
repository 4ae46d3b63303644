// Package store persists audit events.
package store

import (
	"context"

	"bellgas/internal/audit"
	id "bellgas/pkg/domain"
)

// Store is the append-only audit sink.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}
