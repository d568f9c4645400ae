// Package cbttest is an in-memory stand-in for the CBT backend, good enough
// for exercising the client against a real HTTP surface. Tests seed it,
// point an api.Client at URL(), and flip failure knobs to drive the error
// paths.
package cbttest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quizdesk/internal/domain"
)

const headerAPIKey = "x-api-key"

type account struct {
	user     domain.User
	password string
	apiKey   string

	verifyCode string
	resetCode  string
	verified   bool
}

type StoredAttempt struct {
	ID          string          `json:"_id"`
	QuizID      string          `json:"quizId"`
	UserID      string          `json:"userId"`
	Answers     []domain.Answer `json:"answers"`
	Score       int             `json:"score"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// Server holds all backend state behind a mutex; handlers may be hit
// concurrently by errgroup fan-outs.
type Server struct {
	mu sync.Mutex

	quizzes   map[string]*domain.Quiz
	questions map[string]*domain.Question
	comments  map[string]*domain.Comment
	attempts  []StoredAttempt
	accounts  map[string]*account // by email
	nextID    int

	// Parsed is what /uploads/preview returns for any file.
	Parsed []domain.Question

	// RequireVerification withholds the API key on register until the
	// email code is verified.
	RequireVerification bool

	// failLinkCalls marks which add-question calls (1-based) fail.
	failLinkCalls map[int]bool
	linkCalls     int

	httpSrv *httptest.Server
}

// Run starts a fake backend and shuts it down with the test.
func Run(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		quizzes:       make(map[string]*domain.Quiz),
		questions:     make(map[string]*domain.Question),
		comments:      make(map[string]*domain.Comment),
		accounts:      make(map[string]*account),
		failLinkCalls: make(map[int]bool),
	}

	e := gin.New()
	s.routes(e)

	s.httpSrv = httptest.NewServer(e)
	t.Cleanup(s.httpSrv.Close)

	return s
}

func (s *Server) URL() string { return s.httpSrv.URL }

func (s *Server) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

// SeedQuiz registers a quiz and its questions, assigning ids where missing.
func (s *Server) SeedQuiz(quiz domain.Quiz, questions ...domain.Question) domain.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quiz.ID == "" {
		quiz.ID = s.id("quiz")
	}

	for _, q := range questions {
		if q.ID == "" {
			q.ID = s.id("question")
		}
		for i := range q.Options {
			if q.Options[i].ID == "" {
				q.Options[i].ID = s.id("option")
			}
		}
		quiz.QuestionIDs = append(quiz.QuestionIDs, q.ID)
		stored := q
		s.questions[q.ID] = &stored
	}

	s.quizzes[quiz.ID] = &quiz
	return quiz
}

// SeedAdmin registers a verified admin account and returns its API key.
func (s *Server) SeedAdmin(email, password string, paid bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.id("key")
	s.accounts[email] = &account{
		user: domain.User{
			ID:     s.id("user"),
			Name:   strings.SplitN(email, "@", 2)[0],
			Email:  email,
			Role:   "admin",
			IsPaid: paid,
		},
		password: password,
		apiKey:   key,
		verified: true,
	}
	return key
}

// SeedComment stores a comment directly, bypassing moderation.
func (s *Server) SeedComment(c domain.Comment) domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.id("comment")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	stored := c
	s.comments[c.ID] = &stored
	return c
}

// FailLinkCall makes the nth (1-based) add-question call fail.
func (s *Server) FailLinkCall(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLinkCalls[n] = true
}

// VerifyCode returns the pending email verification code for an account.
func (s *Server) VerifyCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.accounts[email]; a != nil {
		return a.verifyCode
	}
	return ""
}

// ResetCode returns the pending password reset code for an account.
func (s *Server) ResetCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.accounts[email]; a != nil {
		return a.resetCode
	}
	return ""
}

// Attempts returns everything submitted so far.
func (s *Server) Attempts() []StoredAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredAttempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}

func (s *Server) routes(e *gin.Engine) {
	e.GET("/quizzes", s.listQuizzes)
	e.POST("/quizzes", s.requireAdmin, s.createQuiz)
	e.GET("/quizzes/:id", s.getQuiz)
	e.GET("/quizzes/:id/questions", s.getQuizWithQuestions)
	e.PUT("/quizzes/:id", s.requireAdmin, s.updateQuiz)
	e.DELETE("/quizzes/:id", s.requireAdmin, s.deleteQuiz)
	e.POST("/quizzes/add-question", s.requireAdmin, s.addQuestion)
	e.POST("/quizzes/remove-question", s.requireAdmin, s.removeQuestion)

	e.GET("/questions", s.listQuestions)
	e.GET("/questions/:id", s.getQuestion)
	e.POST("/questions", s.requireAdmin, s.createQuestion)
	e.PUT("/questions/:id", s.requireAdmin, s.updateQuestion)
	e.DELETE("/questions/:id", s.requireAdmin, s.deleteQuestion)

	e.POST("/uploads/preview", s.requireAdmin, s.previewUpload)
	e.POST("/uploads/save-questions", s.requireAdmin, s.saveQuestions)

	e.POST("/attempts", s.submitAttempt)
	e.GET("/attempts", s.listAttempts)

	e.POST("/comments", s.createComment)
	// One route for both /comments/:quizId/approved and
	// /comments/admin/pending; gin cannot mix a literal with a param here.
	e.GET("/comments/:quizId/:action", s.getComments)
	e.PUT("/comments/:id/approve", s.requireAdmin, s.approveComment)
	e.DELETE("/comments/:id", s.requireAdmin, s.deleteComment)

	e.POST("/admin/register", s.register)
	e.POST("/admin/login", s.login)
	e.POST("/admin/verify-email-code", s.verifyEmailCode)
	e.POST("/admin/resend-verification-code", s.resendVerificationCode)
	e.POST("/admin/forgot-password", s.forgotPassword)
	e.POST("/admin/verify-reset-code", s.verifyResetCode)
	e.POST("/admin/resend-reset-code", s.resendResetCode)
	e.POST("/admin/reset-password", s.resetPassword)
	e.GET("/admin/me", s.requireAdmin, s.me)
	e.POST("/admin/pay", s.requireAdmin, s.pay)
	e.GET("/admin/grades", s.requireAdmin, s.grades)
}

func (s *Server) byKey(key string) *account {
	for _, a := range s.accounts {
		if a.apiKey == key && a.apiKey != "" {
			return a
		}
	}
	return nil
}

func (s *Server) requireAdmin(c *gin.Context) {
	s.mu.Lock()
	a := s.byKey(c.GetHeader(headerAPIKey))
	s.mu.Unlock()

	if a == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	c.Set("account", a)
	c.Next()
}

func (s *Server) account(c *gin.Context) *account {
	v, _ := c.Get("account")
	a, _ := v.(*account)
	return a
}
