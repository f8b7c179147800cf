package sqlite

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
)

func newTestDraftRepo(t *testing.T) *DraftRepo {
	t.Helper()
	return NewDraftRepo(setupTestDB(t), slog.Default())
}

func strPtr(s string) *string {
	return &s
}

func draftAt(postID string, parentID *string, at time.Time) model.PendingSubmission {
	return model.PendingSubmission{
		PostID:    postID,
		ParentID:  parentID,
		Content:   "draft body",
		CreatedAt: at.UnixMilli(),
	}
}

func TestDraftRepo_StashAndConsume(t *testing.T) {
	repo := newTestDraftRepo(t)
	ctx := context.Background()

	err := repo.Stash(ctx, draftAt("p1", nil, time.Now()))
	require.NoError(t, err)

	got, err := repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p1", got.PostID)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, "draft body", got.Content)
}

func TestDraftRepo_ConsumeClearsSlot(t *testing.T) {
	repo := newTestDraftRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Stash(ctx, draftAt("p1", nil, time.Now())))

	first, err := repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, second, "a draft is consumed exactly once")
}

func TestDraftRepo_StashOverwrites(t *testing.T) {
	repo := newTestDraftRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Stash(ctx, model.PendingSubmission{
		PostID: "p1", Content: "first", CreatedAt: time.Now().UnixMilli(),
	}))
	require.NoError(t, repo.Stash(ctx, model.PendingSubmission{
		PostID: "p1", Content: "second", CreatedAt: time.Now().UnixMilli(),
	}))

	got, err := repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Content, "second stash replaces the first")
}

func TestDraftRepo_ConsumeMismatchedPostClears(t *testing.T) {
	repo := newTestDraftRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Stash(ctx, draftAt("p1", nil, time.Now())))

	got, err := repo.Consume(ctx, "p2", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Mismatch clears the slot: the original location cannot recover it either.
	got, err = repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDraftRepo_ConsumeMismatchedParent(t *testing.T) {
	repo := newTestDraftRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Stash(ctx, draftAt("p1", strPtr("c1"), time.Now())))

	got, err := repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got, "reply draft must not resume into the root composer")
}

func TestDraftRepo_ConsumeMatchingParent(t *testing.T) {
	repo := newTestDraftRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Stash(ctx, draftAt("p1", strPtr("c1"), time.Now())))

	got, err := repo.Consume(ctx, "p1", strPtr("c1"))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "c1", *got.ParentID)
}

func TestDraftRepo_ConsumeExpired(t *testing.T) {
	repo := newTestDraftRepo(t)
	ctx := context.Background()

	stashedAt := time.Now()
	require.NoError(t, repo.Stash(ctx, draftAt("p1", nil, stashedAt)))

	repo.now = func() time.Time { return stashedAt.Add(model.DraftTTL + time.Second) }

	got, err := repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got, "expired draft is discarded")

	// Slot was cleared, not left behind.
	repo.now = time.Now
	got, err = repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDraftRepo_ConsumeEmpty(t *testing.T) {
	repo := newTestDraftRepo(t)

	got, err := repo.Consume(context.Background(), "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDraftRepo_Clear(t *testing.T) {
	repo := newTestDraftRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Stash(ctx, draftAt("p1", nil, time.Now())))
	require.NoError(t, repo.Clear(ctx))

	got, err := repo.Consume(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDraftRepo_ClearEmpty(t *testing.T) {
	repo := newTestDraftRepo(t)
	assert.NoError(t, repo.Clear(context.Background()), "clearing an empty slot is not an error")
}
