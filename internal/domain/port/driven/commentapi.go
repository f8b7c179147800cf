package driven

import (
	"context"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
)

// CommentAPI defines the driven port for the platform's comments endpoints.
// It is the sole source of comment identity: the client never assigns a
// permanent ID to a node before the API acknowledges it.
//
// Failure mapping: implementations return model.ErrAuthRequired (401),
// model.ErrForbidden (403), model.ErrNotFound (404), *model.ValidationError
// (422), or *model.ServerError (5xx and transport failures).
type CommentAPI interface {
	// Create submits a new comment on the given post. parentID is nil for a
	// root-level comment. Returns the canonical comment as stored server-side.
	Create(ctx context.Context, postID, content string, parentID *string) (model.Comment, error)

	// Update replaces the content of an existing comment owned by the caller.
	// Returns the canonical comment with its edited flag set.
	Update(ctx context.Context, commentID, content string) (model.Comment, error)

	// Delete removes a comment owned by the caller; the server cascades the
	// removal to the comment's entire reply subtree.
	Delete(ctx context.Context, commentID string) error

	// ListByPost returns every comment on the post as flat rows in the
	// server's display order. Callers assemble the forest with tree.Build.
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
}
