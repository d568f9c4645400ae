package api

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"quizdesk/internal/domain"
)

type QuizWithQuestions struct {
	Quiz      domain.Quiz       `json:"quiz"`
	Questions []domain.Question `json:"questions"`
}

// QuizInput is the create/update payload for a quiz.
type QuizInput struct {
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Faculty         string          `json:"faculty"`
	UniversityName  string          `json:"universityName"`
	DurationMinutes decimal.Decimal `json:"durationMinutes"`
	QuestionIDs     []string        `json:"questions,omitempty"`
}

func (c *Client) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	if err := c.do(ctx, http.MethodGet, "/quizzes", nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (c *Client) GetQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+id, nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetQuizWithQuestions fetches a quiz and its full question set, including
// correct-answer flags, in one call. This is what an attempt loads from.
func (c *Client) GetQuizWithQuestions(ctx context.Context, id string) (*QuizWithQuestions, error) {
	var qq QuizWithQuestions
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+id+"/questions", nil, &qq); err != nil {
		return nil, err
	}
	return &qq, nil
}

func (c *Client) CreateQuiz(ctx context.Context, in QuizInput) (*domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.do(ctx, http.MethodPost, "/quizzes", in, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *Client) UpdateQuiz(ctx context.Context, id string, in QuizInput) (*domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.do(ctx, http.MethodPut, "/quizzes/"+id, in, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/quizzes/"+id, nil, nil)
}

type quizQuestionRef struct {
	QuizID     string `json:"quizId"`
	QuestionID string `json:"questionId"`
}

// AddQuestionToQuiz links an existing question to a quiz.
func (c *Client) AddQuestionToQuiz(ctx context.Context, quizID, questionID string) error {
	return c.do(ctx, http.MethodPost, "/quizzes/add-question", quizQuestionRef{quizID, questionID}, nil)
}

func (c *Client) RemoveQuestionFromQuiz(ctx context.Context, quizID, questionID string) error {
	return c.do(ctx, http.MethodPost, "/quizzes/remove-question", quizQuestionRef{quizID, questionID}, nil)
}
