package model

import "time"

// DraftTTL is the validity window for a stashed pending submission. A draft
// older than this at read time is discarded rather than resubmitted.
const DraftTTL = 5 * time.Minute

// PendingSubmission is a drafted comment stashed because the user was
// unauthenticated at submit time. Exactly one may be outstanding; a new stash
// overwrites any prior entry.
type PendingSubmission struct {
	PostID    string
	ParentID  *string // nil when the draft targets the top level of the thread.
	Content   string
	CreatedAt int64 // Epoch millis at stash time; TTL is enforced at read time.
}

// Matches reports whether the draft targets the given compose location.
// Both post ID and parent ID must line up for a resume to consume it.
func (p PendingSubmission) Matches(postID string, parentID *string) bool {
	if p.PostID != postID {
		return false
	}
	if (p.ParentID == nil) != (parentID == nil) {
		return false
	}
	return p.ParentID == nil || *p.ParentID == *parentID
}

// Expired reports whether the draft's age exceeds DraftTTL at the given time.
func (p PendingSubmission) Expired(now time.Time) bool {
	created := time.UnixMilli(p.CreatedAt)
	return now.Sub(created) >= DraftTTL
}
