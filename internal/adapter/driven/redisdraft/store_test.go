package redisdraft

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := New("redis://"+mr.Addr(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func strPtr(s string) *string {
	return &s
}

func TestStore_StashAndConsume(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	err := store.Stash(ctx, model.PendingSubmission{
		PostID:    "p1",
		Content:   "Nice post",
		CreatedAt: time.Now().UnixMilli(),
	})
	require.NoError(t, err)

	got, err := store.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Nice post", got.Content)

	// Consumed exactly once.
	got, err = store.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_StashOverwrites(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Stash(ctx, model.PendingSubmission{
		PostID: "p1", Content: "first", CreatedAt: time.Now().UnixMilli(),
	}))
	require.NoError(t, store.Stash(ctx, model.PendingSubmission{
		PostID: "p1", Content: "second", CreatedAt: time.Now().UnixMilli(),
	}))

	got, err := store.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Content)
}

func TestStore_ConsumeExpired(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Stash(ctx, model.PendingSubmission{
		PostID: "p1", Content: "stale", CreatedAt: time.Now().UnixMilli(),
	}))

	mr.FastForward(model.DraftTTL + time.Second)

	got, err := store.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got, "expired draft must not resume")
}

func TestStore_ConsumeMismatchClears(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Stash(ctx, model.PendingSubmission{
		PostID: "p1", ParentID: strPtr("c1"), Content: "reply", CreatedAt: time.Now().UnixMilli(),
	}))

	got, err := store.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Mismatch cleared the slot.
	got, err = store.Consume(ctx, "p1", strPtr("c1"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ConsumeCorruptEntryFailsOpen(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("threadkit:pending_draft", "{not json"))

	got, err := store.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got, "corrupt stash reads as nothing pending")
}

func TestStore_ConsumeUnreachableFailsOpen(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Stash(ctx, model.PendingSubmission{
		PostID: "p1", Content: "stranded", CreatedAt: time.Now().UnixMilli(),
	}))

	mr.Close()

	got, err := store.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got, "unreachable stash reads as nothing pending")
}

func TestStore_Clear(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Stash(ctx, model.PendingSubmission{
		PostID: "p1", Content: "x", CreatedAt: time.Now().UnixMilli(),
	}))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
