package api

import (
	"context"
	"net/http"

	"quizdesk/internal/domain"
)

// QuestionInput is the create/update payload for a single question.
type QuestionInput struct {
	Text     string          `json:"text"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Options  []domain.Option `json:"options"`
	Points   int             `json:"points"`
}

func (c *Client) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	var questions []domain.Question
	if err := c.do(ctx, http.MethodGet, "/questions", nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Client) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	var q domain.Question
	if err := c.do(ctx, http.MethodGet, "/questions/"+id, nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) CreateQuestion(ctx context.Context, in QuestionInput) (*domain.Question, error) {
	var q domain.Question
	if err := c.do(ctx, http.MethodPost, "/questions", in, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) UpdateQuestion(ctx context.Context, id string, in QuestionInput) (*domain.Question, error) {
	var q domain.Question
	if err := c.do(ctx, http.MethodPut, "/questions/"+id, in, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/questions/"+id, nil, nil)
}
