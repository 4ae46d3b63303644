package revocation

import (
	"fmt"
	"time"

	"bellgas/pkg/platform/sentinel"
)

// Clock returns the current time; injected for tests.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
