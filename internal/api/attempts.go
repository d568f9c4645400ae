package api

import (
	"context"
	"net/http"
	"time"

	"quizdesk/internal/domain"
)

// AttemptResult is the backend's acknowledgment of a submitted attempt.
type AttemptResult struct {
	AttemptID string `json:"attemptId"`
	Score     int    `json:"score"`
	Total     int    `json:"total"`
}

// SubmitAttempt delivers one attempt. The caller is responsible for sending
// it at most once.
func (c *Client) SubmitAttempt(ctx context.Context, attempt domain.Attempt) (*AttemptResult, error) {
	var result AttemptResult
	if err := c.do(ctx, http.MethodPost, "/attempts", attempt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type AttemptRecord struct {
	ID          string    `json:"_id"`
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (c *Client) ListAttempts(ctx context.Context) ([]AttemptRecord, error) {
	var attempts []AttemptRecord
	if err := c.do(ctx, http.MethodGet, "/attempts", nil, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}
