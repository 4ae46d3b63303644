package domain

import (
	"github.com/google/uuid"

	dErrors "bellgas/pkg/domain-errors"
)

// Typed identifiers keep user and session ids from being mixed up at call
// sites. Both wrap a UUID and are parsed only at trust boundaries.
type (
	UserID    uuid.UUID
	SessionID uuid.UUID
)

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewSessionID returns a random session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session")
	return SessionID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}
