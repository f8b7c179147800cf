package model

// SortKey selects the ordering of root-level comments. Replies always keep
// arrival order regardless of the active sort key.
type SortKey string

const (
	SortNewest SortKey = "newest"
	SortOldest SortKey = "oldest"
)

// SubmissionState tracks where a compose/edit/delete target sits in the
// submission lifecycle.
type SubmissionState string

const (
	StateIdle              SubmissionState = "idle"
	StateComposing         SubmissionState = "composing"
	StateSubmitting        SubmissionState = "submitting"
	StateSettled           SubmissionState = "settled"
	StateRedirectedForAuth SubmissionState = "redirected_for_auth"
	StateAutoResubmitting  SubmissionState = "auto_resubmitting"
)
