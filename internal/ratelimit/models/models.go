// Package models holds login lockout state shared by the lockout service and
// its stores.
package models

import (
	"strings"
	"time"
)

// AuthLockout tracks failed logins for one email and client IP pair.
type AuthLockout struct {
	Identifier    string     `json:"identifier"`
	FailureCount  int        `json:"failure_count"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LastFailureAt time.Time  `json:"last_failure_at"`
}

func (l *AuthLockout) IsLockedAt(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// WindowLapsed reports whether the last failure is older than window, in
// which case the failure count no longer applies.
func (l *AuthLockout) WindowLapsed(now time.Time, window time.Duration) bool {
	return now.Sub(l.LastFailureAt) > window
}

func (l *AuthLockout) RemainingAttempts(limit int) int {
	return max(limit-l.FailureCount, 0)
}

// AuthLockoutKey scopes failures to an email on a client IP so one noisy
// address cannot lock the account everywhere.
type AuthLockoutKey struct {
	email string
	ip    string
}

func NewAuthLockoutKey(email, ip string) AuthLockoutKey {
	return AuthLockoutKey{email: strings.ToLower(strings.TrimSpace(email)), ip: ip}
}

func (k AuthLockoutKey) String() string {
	return "auth:" + k.email + ":" + k.ip
}

// Result is the outcome of a pre-login check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}
