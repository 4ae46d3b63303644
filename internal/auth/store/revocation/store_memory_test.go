package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bellgas/pkg/platform/sentinel"
)

func TestInMemoryTRL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	trl := NewInMemoryTRL(WithClock(func() time.Time { return now }))

	t.Run("unknown jti is not revoked", func(t *testing.T) {
		revoked, err := trl.IsRevoked(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked jti is reported until ttl lapses", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Minute))

		revoked, err := trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		now = now.Add(time.Minute)
		revoked, err = trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("non-positive ttl is rejected", func(t *testing.T) {
		err := trl.RevokeToken(ctx, "jti-2", 0)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("empty jti is ignored", func(t *testing.T) {
		assert.NoError(t, trl.RevokeToken(ctx, "", time.Minute))
	})
}
