package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makeChannel/internal/domain"
)

func newStore(t *testing.T) *AuditStore {
	t.Helper()
	store, err := NewAuditStore(filepath.Join(t.TempDir(), "nested", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewAuditStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewAuditStore("")
	require.Error(t, err)
}

func TestRecordAndRecent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := &domain.AuditEntry{
		Kind:      domain.AuditAccessGranted,
		GuildID:   "g1",
		ChannelID: "c1",
		UserID:    "u1",
		Detail:    "join",
		CreatedAt: base,
	}
	second := &domain.AuditEntry{
		Kind:      domain.AuditChannelCreated,
		GuildID:   "g1",
		ChannelID: "c2",
		UserID:    "u2",
		Detail:    "general",
		Metadata:  map[string]string{"granted": "u2,u3"},
		CreatedAt: base.Add(time.Minute),
	}
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, domain.AuditChannelCreated, recent[0].Kind)
	assert.Equal(t, "c2", recent[0].ChannelID)
	assert.Equal(t, map[string]string{"granted": "u2,u3"}, recent[0].Metadata)
	assert.True(t, recent[0].CreatedAt.Equal(second.CreatedAt))

	assert.Equal(t, domain.AuditAccessGranted, recent[1].Kind)
	assert.Nil(t, recent[1].Metadata)
}

func TestRecentLimit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, &domain.AuditEntry{Kind: domain.AuditAccessRevoked}))
	}

	recent, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRecordNil(t *testing.T) {
	store := newStore(t)
	require.Error(t, store.Record(context.Background(), nil))
}
