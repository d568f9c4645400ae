package api

import (
	"context"
	"net/http"

	"quizdesk/internal/domain"
)

type CommentInput struct {
	QuizID    string `json:"quizId"`
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	Text      string `json:"text"`
}

// CreateComment posts a comment. It starts unapproved and is invisible to
// the public until an admin approves it.
func (c *Client) CreateComment(ctx context.Context, in CommentInput) (*domain.Comment, error) {
	var comment domain.Comment
	if err := c.do(ctx, http.MethodPost, "/comments", in, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) ApprovedComments(ctx context.Context, quizID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.do(ctx, http.MethodGet, "/comments/"+quizID+"/approved", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) PendingComments(ctx context.Context) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.do(ctx, http.MethodGet, "/comments/admin/pending", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) ApproveComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodPut, "/comments/"+commentID+"/approve", nil, nil)
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+commentID, nil, nil)
}
