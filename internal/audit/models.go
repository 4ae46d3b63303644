// Package audit records append-only authentication events.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "bellgas/pkg/domain"
)

// Action names an audited authentication event.
type Action string

const (
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginFailed    Action = "login_failed"
	ActionLogout         Action = "logout"
	ActionAccessDenied   Action = "access_denied"
	ActionPromoted       Action = "identity_promoted"
)

func (a Action) String() string {
	return string(a)
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores can fan out.
type Event struct {
	ID         uuid.UUID
	OccurredAt time.Time
	Action     Action
	UserID     id.UserID
	Email      string
	Source     string
	Reason     string
	Device     string
	ClientIP   string
	RequestID  string
}
