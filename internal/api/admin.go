package api

import (
	"context"
	"net/http"
	"time"

	"quizdesk/internal/domain"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult carries the API key handed out on login, registration or email
// verification. The key is opaque; it is attached as the x-api-key header.
type AuthResult struct {
	APIKey string `json:"apiKey"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/admin/register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/admin/login", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type emailCode struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailOnly struct {
	Email string `json:"email"`
}

func (c *Client) VerifyEmailCode(ctx context.Context, email, code string) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/admin/verify-email-code", emailCode{email, code}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ResendVerificationCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/admin/resend-verification-code", emailOnly{email}, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/admin/forgot-password", emailOnly{email}, nil)
}

func (c *Client) VerifyResetCode(ctx context.Context, email, code string) error {
	return c.do(ctx, http.MethodPost, "/admin/verify-reset-code", emailCode{email, code}, nil)
}

func (c *Client) ResendResetCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/admin/resend-reset-code", emailOnly{email}, nil)
}

type resetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (c *Client) ResetPassword(ctx context.Context, email, token, password string) error {
	return c.do(ctx, http.MethodPost, "/admin/reset-password", resetPasswordRequest{email, token, password}, nil)
}

// Me validates the current API key and returns the identity behind it.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/admin/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Pay(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/pay", nil, nil)
}

// QuizRef and UserRef are the populated references embedded in grade rows.
type (
	QuizRef struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
	}

	UserRef struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
)

type GradeAttempt struct {
	ID          string    `json:"_id"`
	Quiz        QuizRef   `json:"quizId"`
	User        *UserRef  `json:"userId"`
	TempUserID  string    `json:"tempUserId,omitempty"`
	Score       int       `json:"score"`
	RawScore    int       `json:"rawScore"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Participant resolves the display identity of a grade row: the registered
// user if present, otherwise the anonymous pseudo-identifier.
func (g GradeAttempt) Participant() string {
	if g.User != nil {
		if g.User.Name != "" {
			return g.User.Name
		}
		if g.User.Email != "" {
			return g.User.Email
		}
	}
	if g.TempUserID != "" {
		return g.TempUserID
	}
	return "Guest"
}

type Grades struct {
	Attempts    []GradeAttempt             `json:"attempts"`
	StatsByQuiz map[string]QuizAttemptStat `json:"statsByQuiz"`
}

type QuizAttemptStat struct {
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
}

// Grades returns attempts on the admin's own quizzes.
func (c *Client) Grades(ctx context.Context) (*Grades, error) {
	var grades Grades
	if err := c.do(ctx, http.MethodGet, "/admin/grades", nil, &grades); err != nil {
		return nil, err
	}
	return &grades, nil
}
