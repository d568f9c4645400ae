package domain

const (
	EventNameAttemptSubmitted = "attempt.submitted"
	EventNameTimeExpired      = "attempt.time_expired"
	EventNameCommentPosted    = "comment.posted"
)

// EventAttemptSubmitted fires once per attempt, after the backend has
// acknowledged the submission.
type EventAttemptSubmitted struct {
	Attempt   Attempt
	AttemptID string
}

func (EventAttemptSubmitted) Name() string { return EventNameAttemptSubmitted }

// EventTimeExpired fires when the countdown reaches zero, just before the
// automatic submission starts.
type EventTimeExpired struct {
	QuizID string
}

func (EventTimeExpired) Name() string { return EventNameTimeExpired }

type EventCommentPosted struct {
	Comment Comment
}

func (EventCommentPosted) Name() string { return EventNameCommentPosted }
