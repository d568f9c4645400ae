package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quiz is a quiz as stored by the backend. DurationMinutes may be
// fractional (e.g. 1.5 means 90 seconds).
type Quiz struct {
	ID              string          `json:"_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Faculty         string          `json:"faculty,omitempty"`
	UniversityName  string          `json:"universityName,omitempty"`
	DurationMinutes decimal.Decimal `json:"durationMinutes"`
	QuestionIDs     []string        `json:"questions,omitempty"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt,omitempty"`
}

// DurationSeconds is the countdown length for one attempt: the quiz
// duration rounded to whole seconds.
func (q Quiz) DurationSeconds() int {
	return int(q.DurationMinutes.Mul(decimal.NewFromInt(60)).Round(0).IntPart())
}

type Question struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Options   []Option  `json:"options"`
	Points    int       `json:"points"`
	UploadID  string    `json:"uploadId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Option is one answer choice. The backend id is stable across attempts;
// display order is not.
type Option struct {
	ID        string `json:"_id,omitempty"`
	Label     string `json:"label"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Answer records one user's selection for one question. Indexes are in the
// attempt's shuffled presentation order; IDs are the stable backend ids the
// indexes resolve to.
type Answer struct {
	QuestionID            string   `json:"questionId"`
	SelectedOptionIndexes []int    `json:"selectedOptionIndexes"`
	SelectedOptionIDs     []string `json:"selectedOptionIds"`
}

// Attempt is the submission payload for one run through a quiz. It is
// built in memory, sent once, and never mutated after acknowledgment.
type Attempt struct {
	QuizID  string   `json:"quizId"`
	UserID  string   `json:"userId"`
	Answers []Answer `json:"answers"`
}

type Comment struct {
	ID        string    `json:"_id"`
	QuizID    string    `json:"quizId"`
	UserName  string    `json:"userName,omitempty"`
	UserEmail string    `json:"userEmail,omitempty"`
	Text      string    `json:"text"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// User is the authenticated admin identity returned by /admin/me.
type User struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	IsPaid bool   `json:"isPaid"`
}

func (u User) IsAdmin() bool { return u.Role == "admin" }
