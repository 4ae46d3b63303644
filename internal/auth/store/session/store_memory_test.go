package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bellgas/pkg/platform/sentinel"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestInMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(time.Hour)

	require.NoError(t, store.Put(ctx, "sid", map[string]string{"auth.user_id": "u-1", "authenticated": "true"}))

	value, err := store.Get(ctx, "sid", "auth.user_id")
	require.NoError(t, err)
	assert.Equal(t, "u-1", value)

	_, err = store.Get(ctx, "sid", "jwt_token")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.Get(ctx, "other", "auth.user_id")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_PutMergesValues(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(time.Hour)

	require.NoError(t, store.Put(ctx, "sid", map[string]string{"jwt_token": "tok"}))
	require.NoError(t, store.Put(ctx, "sid", map[string]string{"auth.user_id": "u-1"}))

	token, err := store.Get(ctx, "sid", "jwt_token")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestInMemoryStore_RejectsEmptySessionID(t *testing.T) {
	err := NewInMemory(time.Hour).Put(context.Background(), "", map[string]string{"k": "v"})
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}

func TestInMemoryStore_Forget(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(time.Hour)
	require.NoError(t, store.Put(ctx, "sid", map[string]string{"a": "1", "b": "2"}))

	require.NoError(t, store.Forget(ctx, "sid", "a"))
	require.NoError(t, store.Forget(ctx, "missing", "a"))

	_, err := store.Get(ctx, "sid", "a")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	b, err := store.Get(ctx, "sid", "b")
	require.NoError(t, err)
	assert.Equal(t, "2", b)
}

func TestInMemoryStore_Destroy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(time.Hour)
	require.NoError(t, store.Put(ctx, "sid", map[string]string{"a": "1"}))

	require.NoError(t, store.Destroy(ctx, "sid"))

	_, err := store.Get(ctx, "sid", "a")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_SlidingExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewInMemory(30*time.Minute, WithClock(clock.Now))

	require.NoError(t, store.Put(ctx, "sid", map[string]string{"a": "1"}))
	clock.Advance(20 * time.Minute)
	require.NoError(t, store.Put(ctx, "sid", map[string]string{"b": "2"}))
	clock.Advance(20 * time.Minute)

	_, err := store.Get(ctx, "sid", "a")
	require.NoError(t, err, "write at minute 20 extends expiry to minute 50")

	clock.Advance(10 * time.Minute)
	_, err = store.Get(ctx, "sid", "a")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestInMemoryStore_ExpiredSessionStartsFresh(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewInMemory(time.Minute, WithClock(clock.Now))

	require.NoError(t, store.Put(ctx, "sid", map[string]string{"a": "1"}))
	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Put(ctx, "sid", map[string]string{"b": "2"}))

	_, err := store.Get(ctx, "sid", "a")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_UpdateOnlyTouchesLiveSessions(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewInMemory(time.Minute, WithClock(clock.Now))

	err := store.Update(ctx, "never-issued", map[string]string{"auth.user_id": "u-1"})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = store.Get(ctx, "never-issued", "auth.user_id")
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "update must not create the session")

	require.NoError(t, store.Put(ctx, "sid", map[string]string{"a": "1"}))
	clock.Advance(50 * time.Second)
	require.NoError(t, store.Update(ctx, "sid", map[string]string{"b": "2"}))
	clock.Advance(50 * time.Second)
	b, err := store.Get(ctx, "sid", "b")
	require.NoError(t, err, "update slides the expiry")
	assert.Equal(t, "2", b)

	clock.Advance(2 * time.Minute)
	assert.ErrorIs(t, store.Update(ctx, "sid", map[string]string{"c": "3"}), sentinel.ErrNotFound)
}
