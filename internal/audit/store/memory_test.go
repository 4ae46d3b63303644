package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bellgas/internal/audit"
	id "bellgas/pkg/domain"
)

func TestInMemoryStore_ListRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	for _, a := range []audit.Action{audit.ActionLoginFailed, audit.ActionLoginSucceeded, audit.ActionLogout} {
		require.NoError(t, s.Append(ctx, audit.Event{Action: a}))
	}

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, audit.ActionLogout, recent[0].Action)
	assert.Equal(t, audit.ActionLoginSucceeded, recent[1].Action)

	all, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestInMemoryStore_ListByUser(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	alice := id.UserID(uuid.New())
	bob := id.UserID(uuid.New())
	require.NoError(t, s.Append(ctx, audit.Event{UserID: alice, Action: audit.ActionLoginSucceeded}))
	require.NoError(t, s.Append(ctx, audit.Event{UserID: bob, Action: audit.ActionLoginSucceeded}))
	require.NoError(t, s.Append(ctx, audit.Event{UserID: alice, Action: audit.ActionLogout}))

	events, err := s.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionLogout, events[1].Action)
}
