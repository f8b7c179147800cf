package model

import "time"

// Author holds the display identity attached to a comment. The platform API
// resolves it server-side; the client never fabricates author fields.
type Author struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

// Comment is one discussion unit in a post's comment forest. IDs are assigned
// by the platform API and are unique across the whole forest; the client never
// mints a permanent ID locally.
type Comment struct {
	ID        string
	PostID    string
	Content   string
	Author    Author
	ParentID  *string // nil for root-level comments.
	Depth     int     // 0 for roots; always parent depth + 1 for replies.
	Edited    bool
	CreatedAt time.Time
	Children  []Comment // Ordered; appended on insert, never implicitly reordered.
}

// IsRoot reports whether the comment sits at the top level of the forest.
func (c Comment) IsRoot() bool {
	return c.ParentID == nil
}
