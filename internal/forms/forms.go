// Package forms holds the client-side form types and their validation.
// Violations never reach the backend; they surface as CodeValidation with
// an inline, user-facing message.
package forms

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"quizdesk/internal/api"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// check runs struct validation and converts the first violation into a
// CodeValidation error with a readable message.
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	violations, ok := err.(validator.ValidationErrors)
	if !ok || len(violations) == 0 {
		return errors.New(errors.CodeValidation, errors.WithCause(err))
	}

	v := violations[0]
	return errors.New(errors.CodeValidation,
		errors.WithMessagef("%s", message(v)))
}

func message(v validator.FieldError) string {
	field := strings.ToLower(v.Field())

	switch v.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, v.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, v.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// QuizForm is the create/edit form for a quiz. Duration is entered as
// minutes plus seconds and combined into fractional minutes for the backend.
type QuizForm struct {
	Title           string `validate:"required"`
	Description     string
	Faculty         string `validate:"required"`
	UniversityName  string `validate:"required"`
	DurationMinutes int    `validate:"min=0"`
	DurationSeconds int    `validate:"min=0,max=59"`
}

func (f QuizForm) Validate() error {
	if err := check(f); err != nil {
		return err
	}

	if f.DurationMinutes*60+f.DurationSeconds < 1 {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("duration must be at least 1 second"))
	}

	return nil
}

// Input converts the form into the backend payload. Seconds become the
// fractional part of durationMinutes.
func (f QuizForm) Input() api.QuizInput {
	minutes := decimal.NewFromInt(int64(f.DurationMinutes)).
		Add(decimal.NewFromInt(int64(f.DurationSeconds)).Div(decimal.NewFromInt(60)))

	return api.QuizInput{
		Title:           f.Title,
		Description:     f.Description,
		Faculty:         f.Faculty,
		UniversityName:  f.UniversityName,
		DurationMinutes: minutes,
	}
}

type OptionForm struct {
	Label     string
	Text      string
	IsCorrect bool
}

// QuestionForm is the create/edit form for a question. Options with empty
// text are dropped before validation, matching how the form treats blank
// rows.
type QuestionForm struct {
	Text     string `validate:"required"`
	ImageURL string
	Options  []OptionForm
	Points   int
}

func (f QuestionForm) filled() []OptionForm {
	var filled []OptionForm
	for _, opt := range f.Options {
		if strings.TrimSpace(opt.Text) != "" {
			filled = append(filled, opt)
		}
	}
	return filled
}

func (f QuestionForm) Validate() error {
	if err := check(f); err != nil {
		return err
	}

	if len(f.filled()) < 2 {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("at least 2 options are required"))
	}

	return nil
}

func (f QuestionForm) Input() api.QuestionInput {
	points := f.Points
	if points < 1 {
		points = 1
	}

	filled := f.filled()
	options := make([]domain.Option, 0, len(filled))
	for i, opt := range filled {
		label := opt.Label
		if label == "" {
			label = string(rune('A' + i))
		}
		options = append(options, domain.Option{
			Label:     label,
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
		})
	}

	return api.QuestionInput{
		Text:     f.Text,
		ImageURL: f.ImageURL,
		Options:  options,
		Points:   points,
	}
}

type CommentForm struct {
	QuizID    string `validate:"required"`
	UserName  string
	UserEmail string `validate:"omitempty,email"`
	Text      string `validate:"required"`
}

func (f CommentForm) Validate() error { return check(f) }

func (f CommentForm) Input() api.CommentInput {
	return api.CommentInput{
		QuizID:    f.QuizID,
		UserName:  f.UserName,
		UserEmail: f.UserEmail,
		Text:      f.Text,
	}
}

type RegisterForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func (f RegisterForm) Validate() error { return check(f) }

type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (f LoginForm) Validate() error { return check(f) }

type ResetPasswordForm struct {
	Email    string `validate:"required,email"`
	Token    string `validate:"required"`
	Password string `validate:"required,min=6"`
}

func (f ResetPasswordForm) Validate() error { return check(f) }
