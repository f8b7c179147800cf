package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
	"github.com/ericfisherdev/threadkit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DraftStore = (*DraftRepo)(nil)

// DraftRepo is the SQLite implementation of the DraftStore port. The table
// holds at most one row (fixed primary key), so a stash always overwrites.
// Reads are fail-open: anything unreadable is logged, cleared, and reported
// as "nothing pending".
type DraftRepo struct {
	db  *DB
	log *slog.Logger

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewDraftRepo creates a DraftRepo on the given database.
func NewDraftRepo(db *DB, log *slog.Logger) *DraftRepo {
	return &DraftRepo{db: db, log: log, now: time.Now}
}

// Stash persists the draft, overwriting any prior entry.
func (r *DraftRepo) Stash(ctx context.Context, draft model.PendingSubmission) error {
	const query = `INSERT OR REPLACE INTO pending_draft (id, post_id, parent_comment_id, content, created_at_millis)
		VALUES (1, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query, draft.PostID, draft.ParentID, draft.Content, draft.CreatedAt)
	if err != nil {
		return fmt.Errorf("stash draft: %w", err)
	}
	return nil
}

// Consume reads the stashed draft and clears the slot. The draft is returned
// only when it matches the compose location and is younger than the TTL;
// mismatched, expired, or unreadable entries are dropped silently.
func (r *DraftRepo) Consume(ctx context.Context, postID string, parentID *string) (*model.PendingSubmission, error) {
	const query = `SELECT post_id, parent_comment_id, content, created_at_millis FROM pending_draft WHERE id = 1`

	var draft model.PendingSubmission
	err := r.db.Reader.QueryRowContext(ctx, query).
		Scan(&draft.PostID, &draft.ParentID, &draft.Content, &draft.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		// Fail open: a broken stash must never block the user.
		r.log.Warn("unreadable pending draft, discarding", "error", err)
		_ = r.Clear(ctx)
		return nil, nil
	}

	if err := r.Clear(ctx); err != nil {
		return nil, err
	}

	if draft.Expired(r.now()) {
		r.log.Info("pending draft expired, discarding", "post_id", draft.PostID)
		return nil, nil
	}
	if !draft.Matches(postID, parentID) {
		r.log.Info("pending draft targets another compose location, discarding",
			"draft_post_id", draft.PostID,
			"post_id", postID,
		)
		return nil, nil
	}

	return &draft, nil
}

// Clear drops any stashed draft.
func (r *DraftRepo) Clear(ctx context.Context) error {
	const query = `DELETE FROM pending_draft WHERE id = 1`

	if _, err := r.db.Writer.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
