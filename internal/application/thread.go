// Package application orchestrates the comment thread lifecycle: the submit,
// edit, and delete state machines over the in-memory forest, the comments API,
// and the pending draft stash.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
	"github.com/ericfisherdev/threadkit/internal/domain/port/driven"
	"github.com/ericfisherdev/threadkit/internal/domain/tree"
)

// Errors surfaced by the controller itself rather than the API.
var (
	// ErrOperationInFlight rejects a second submit/edit/delete against a
	// target that is already Submitting. Operations on different targets may
	// run concurrently.
	ErrOperationInFlight = errors.New("an operation for this target is already in flight")

	// ErrConfirmationRequired rejects a delete that was not explicitly
	// confirmed. No request is ever issued for an unconfirmed delete.
	ErrConfirmationRequired = errors.New("delete requires explicit confirmation")
)

// AuthState reports whether the user currently holds a valid session. The
// authentication flow itself is an external collaborator; only its answer and
// its completion signal matter here.
type AuthState interface {
	Authenticated(ctx context.Context) bool
}

// AuthStateFunc adapts a plain function to the AuthState interface.
type AuthStateFunc func(ctx context.Context) bool

func (f AuthStateFunc) Authenticated(ctx context.Context) bool { return f(ctx) }

// Redirect tells the presentation layer to navigate to the authentication
// entry point, carrying the location to return to afterwards.
type Redirect struct {
	LoginURL string
	ReturnTo string
}

// SubmitResult is the outcome of a submit attempt: exactly one of Comment
// (canonical node inserted into the forest) or Redirect (draft stashed,
// navigation required) is set.
type SubmitResult struct {
	Comment  *model.Comment
	Redirect *Redirect
}

// ThreadController drives one post's discussion thread. All forest reads and
// writes go through its mutex; the mutex is never held across an API call, so
// in-flight operations on different nodes resolve independently, each applying
// its id-scoped patch to whatever forest exists at resolution time.
type ThreadController struct {
	api    driven.CommentAPI
	drafts driven.DraftStore
	auth   AuthState
	log    *slog.Logger

	postID   string
	loginURL string
	returnTo string

	mu       sync.Mutex
	forest   tree.Forest
	sortKey  model.SortKey
	inflight map[string]struct{}
	states   map[string]model.SubmissionState

	// now is swappable for tests.
	now func() time.Time
}

// NewThreadController creates a controller for the given post. loginURL is the
// authentication entry point the presentation layer navigates to; returnTo is
// the location carried along for the post-login redirect back.
func NewThreadController(
	api driven.CommentAPI,
	drafts driven.DraftStore,
	auth AuthState,
	postID string,
	loginURL string,
	returnTo string,
	log *slog.Logger,
) *ThreadController {
	return &ThreadController{
		api:      api,
		drafts:   drafts,
		auth:     auth,
		log:      log,
		postID:   postID,
		loginURL: loginURL,
		returnTo: returnTo,
		sortKey:  model.SortNewest,
		inflight: make(map[string]struct{}),
		states:   make(map[string]model.SubmissionState),
		now:      time.Now,
	}
}

// composeKey identifies a compose box: the root composer or one reply
// composer per parent node.
func composeKey(parentID *string) string {
	if parentID == nil {
		return "compose:root"
	}
	return "compose:" + *parentID
}

// begin marks the target as Submitting, rejecting a second operation on the
// same target while one is in flight.
func (tc *ThreadController) begin(key string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if _, busy := tc.inflight[key]; busy {
		return ErrOperationInFlight
	}
	tc.inflight[key] = struct{}{}
	tc.states[key] = model.StateSubmitting
	return nil
}

// settle releases the target's in-flight slot and records its terminal state.
func (tc *ThreadController) settle(key string, state model.SubmissionState) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	delete(tc.inflight, key)
	tc.states[key] = state
}

// BeginCompose marks a compose box as open. Purely informational for the
// presentation layer; no request is issued.
func (tc *ThreadController) BeginCompose(parentID *string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.states[composeKey(parentID)] = model.StateComposing
}

// ComposerState returns the lifecycle state of a compose box.
func (tc *ThreadController) ComposerState(parentID *string) model.SubmissionState {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if s, ok := tc.states[composeKey(parentID)]; ok {
		return s
	}
	return model.StateIdle
}

// StateOf returns the lifecycle state of the node with the given id
// (edit/delete target).
func (tc *ThreadController) StateOf(id string) model.SubmissionState {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if s, ok := tc.states[id]; ok {
		return s
	}
	return model.StateIdle
}

// Submit attempts to post content on the thread, as a reply when parentID is
// set. Unauthenticated callers never reach the API: the draft is stashed and
// a Redirect outcome is returned for the presentation layer to navigate.
// On success the canonical comment is inserted into the forest and the draft
// slot is cleared. On failure the forest is unchanged and the typed error is
// surfaced; retry is the caller's decision, never automatic.
func (tc *ThreadController) Submit(ctx context.Context, content string, parentID *string) (SubmitResult, error) {
	if err := model.ValidateContent(content); err != nil {
		return SubmitResult{}, err
	}

	key := composeKey(parentID)
	if err := tc.begin(key); err != nil {
		return SubmitResult{}, err
	}

	if !tc.auth.Authenticated(ctx) {
		draft := model.PendingSubmission{
			PostID:    tc.postID,
			ParentID:  parentID,
			Content:   content,
			CreatedAt: tc.now().UnixMilli(),
		}
		if err := tc.drafts.Stash(ctx, draft); err != nil {
			tc.settle(key, model.StateSettled)
			return SubmitResult{}, fmt.Errorf("stashing draft: %w", err)
		}

		tc.settle(key, model.StateRedirectedForAuth)
		tc.log.Info("submission deferred for authentication", "post_id", tc.postID)
		return SubmitResult{Redirect: &Redirect{LoginURL: tc.loginURL, ReturnTo: tc.returnTo}}, nil
	}

	comment, err := tc.api.Create(ctx, tc.postID, content, parentID)
	if err != nil {
		tc.settle(key, model.StateSettled)
		return SubmitResult{}, err
	}

	tc.mu.Lock()
	tc.forest = tree.Insert(tc.forest, comment)
	tc.mu.Unlock()

	// The draft slot, if any, is spent: the submission it guarded succeeded.
	if err := tc.drafts.Clear(ctx); err != nil {
		tc.log.Warn("clearing draft slot after submit", "error", err)
	}

	// A settled reply composer closes; the root composer just empties.
	tc.settle(key, model.StateSettled)
	tc.log.Info("comment created", "comment_id", comment.ID, "post_id", tc.postID)
	return SubmitResult{Comment: &comment}, nil
}

// ResumeAfterAuth runs on return from the authentication flow. A stashed
// draft matching this thread and compose location is resubmitted through the
// authenticated path; anything else (no draft, mismatch, expired) resolves to
// a quiet no-op.
func (tc *ThreadController) ResumeAfterAuth(ctx context.Context, parentID *string) (*model.Comment, error) {
	draft, err := tc.drafts.Consume(ctx, tc.postID, parentID)
	if err != nil {
		return nil, fmt.Errorf("consuming draft: %w", err)
	}
	if draft == nil {
		return nil, nil
	}

	key := composeKey(parentID)
	tc.mu.Lock()
	tc.states[key] = model.StateAutoResubmitting
	tc.mu.Unlock()
	tc.log.Info("resuming stashed submission", "post_id", tc.postID)

	result, err := tc.Submit(ctx, draft.Content, draft.ParentID)
	if err != nil {
		return nil, err
	}
	if result.Redirect != nil {
		// Still unauthenticated after the flow; the draft was re-stashed.
		return nil, model.ErrAuthRequired
	}
	return result.Comment, nil
}

// CancelPending discards the stashed draft on explicit user cancellation.
func (tc *ThreadController) CancelPending(ctx context.Context) error {
	return tc.drafts.Clear(ctx)
}

// Edit replaces a comment's content. On success the canonical node patches
// the forest in place (content replaced, edited flag set); on failure the
// node is untouched and the typed error is surfaced so the edit box stays
// open with the original content.
func (tc *ThreadController) Edit(ctx context.Context, id, content string) (model.Comment, error) {
	if err := model.ValidateContent(content); err != nil {
		return model.Comment{}, err
	}

	if err := tc.begin(id); err != nil {
		return model.Comment{}, err
	}

	updated, err := tc.api.Update(ctx, id, content)
	if err != nil {
		tc.settle(id, model.StateSettled)
		return model.Comment{}, err
	}

	tc.mu.Lock()
	edited := true
	tc.forest = tree.Update(tc.forest, id, tree.Patch{
		Content: &updated.Content,
		Edited:  &edited,
	})
	tc.mu.Unlock()

	tc.settle(id, model.StateSettled)
	tc.log.Info("comment edited", "comment_id", id)
	return updated, nil
}

// Delete removes a comment and its entire reply subtree. The confirmed flag
// is the explicit confirmation step: without it no request is issued. A
// NotFound answer means the target was already deleted remotely, so the local
// removal is applied anyway.
func (tc *ThreadController) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	if err := tc.begin(id); err != nil {
		return err
	}

	err := tc.api.Delete(ctx, id)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		tc.settle(id, model.StateSettled)
		return err
	}

	tc.mu.Lock()
	tc.forest = tree.Remove(tc.forest, id)
	tc.mu.Unlock()

	tc.settle(id, model.StateSettled)
	tc.log.Info("comment deleted", "comment_id", id, "already_gone", errors.Is(err, model.ErrNotFound))
	return nil
}

// Refresh reloads the thread from the API and rebuilds the forest.
func (tc *ThreadController) Refresh(ctx context.Context) error {
	flat, err := tc.api.ListByPost(ctx, tc.postID)
	if err != nil {
		return err
	}

	forest := tree.Build(flat)

	tc.mu.Lock()
	tc.forest = forest
	tc.mu.Unlock()

	tc.log.Debug("thread refreshed", "post_id", tc.postID, "comments", len(flat))
	return nil
}

// Roots returns the root-level comments ordered by the active sort key.
// Replies under each root keep arrival order.
func (tc *ThreadController) Roots() []model.Comment {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tree.SortRoots(tree.Roots(tc.forest), tc.sortKey)
}

// RepliesOf returns the direct replies of the given comment, in arrival order.
func (tc *ThreadController) RepliesOf(id string) []model.Comment {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	node, ok := tree.Find(tc.forest, id)
	if !ok {
		return nil
	}
	replies := make([]model.Comment, len(node.Children))
	copy(replies, node.Children)
	return replies
}

// Forest returns the current forest snapshot for rendering.
func (tc *ThreadController) Forest() tree.Forest {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.forest
}

// Len returns the total number of comments in the thread.
func (tc *ThreadController) Len() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tree.Count(tc.forest)
}

// SetSortKey changes the root ordering applied by Roots.
func (tc *ThreadController) SetSortKey(key model.SortKey) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.sortKey = key
}

// SortKey returns the active root ordering.
func (tc *ThreadController) SortKey() model.SortKey {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.sortKey
}
