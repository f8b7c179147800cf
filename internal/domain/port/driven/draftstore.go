package driven

import (
	"context"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
)

// DraftStore defines the driven port for the single-slot pending submission
// stash that survives the redirect to the authentication flow and back.
//
// The store is fail-open: a read or decode problem is treated as "nothing
// pending" rather than surfaced to the user, so a corrupt stash can never
// block a submission.
type DraftStore interface {
	// Stash persists the draft, overwriting any prior entry. One draft is
	// outstanding system-wide, not one per thread.
	Stash(ctx context.Context, draft model.PendingSubmission) error

	// Consume reads the stashed draft and clears the slot. It returns the
	// draft only when it matches the given compose location and is younger
	// than model.DraftTTL; on mismatch, expiry, or decode failure the slot is
	// cleared and (nil, nil) is returned.
	Consume(ctx context.Context, postID string, parentID *string) (*model.PendingSubmission, error)

	// Clear drops any stashed draft. Called after a successful submit or an
	// explicit user cancellation.
	Clear(ctx context.Context) error
}
