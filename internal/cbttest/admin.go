package cbttest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quizdesk/internal/domain"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	Token string `json:"token"`
}

// verificationCode is what every pending account gets; real mail delivery
// is out of scope for a fake.
const verificationCode = "123456"

func (s *Server) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Email]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	a := &account{
		user: domain.User{
			ID:    s.id("user"),
			Name:  req.Name,
			Email: req.Email,
			Role:  "admin",
		},
		password: req.Password,
	}
	s.accounts[req.Email] = a

	if s.RequireVerification {
		a.verifyCode = verificationCode
		c.JSON(http.StatusCreated, gin.H{"message": "Verification code sent"})
		return
	}

	a.verified = true
	a.apiKey = s.id("key")
	c.JSON(http.StatusCreated, gin.H{"apiKey": a.apiKey})
}

func (s *Server) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[req.Email]
	if a == nil || a.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !a.verified {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email not verified"})
		return
	}
	if a.apiKey == "" {
		a.apiKey = s.id("key")
	}

	c.JSON(http.StatusOK, gin.H{"apiKey": a.apiKey})
}

func (s *Server) verifyEmailCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[req.Email]
	if a == nil || a.verifyCode == "" || a.verifyCode != req.Code {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification code"})
		return
	}

	a.verified = true
	a.verifyCode = ""
	if a.apiKey == "" {
		a.apiKey = s.id("key")
	}

	c.JSON(http.StatusOK, gin.H{"apiKey": a.apiKey})
}

func (s *Server) resendVerificationCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[req.Email]
	if a == nil || a.verified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to verify"})
		return
	}
	a.verifyCode = verificationCode

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[req.Email]
	if a == nil {
		// Do not leak which emails exist.
		c.JSON(http.StatusOK, gin.H{"message": "Reset code sent"})
		return
	}
	a.resetCode = verificationCode

	c.JSON(http.StatusOK, gin.H{"message": "Reset code sent"})
}

func (s *Server) verifyResetCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[req.Email]
	if a == nil || a.resetCode == "" || a.resetCode != req.Code {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Code verified"})
}

func (s *Server) resendResetCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[req.Email]
	if a == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Reset code sent"})
		return
	}
	a.resetCode = verificationCode

	c.JSON(http.StatusOK, gin.H{"message": "Reset code sent"})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[req.Email]
	if a == nil || a.resetCode == "" || a.resetCode != req.Token {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset code"})
		return
	}

	a.password = req.Password
	a.resetCode = ""

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, s.account(c).user)
}

func (s *Server) pay(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.account(c).user.IsPaid = true
	c.JSON(http.StatusOK, gin.H{"message": "Payment recorded"})
}

type gradeRow struct {
	ID          string    `json:"_id"`
	Quiz        gin.H     `json:"quizId"`
	User        gin.H     `json:"userId,omitempty"`
	TempUserID  string    `json:"tempUserId,omitempty"`
	Score       int       `json:"score"`
	RawScore    int       `json:"rawScore"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (s *Server) grades(c *gin.Context) {
	owner := s.account(c).user.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]gradeRow, 0)
	type agg struct {
		count int
		sum   int
	}
	stats := make(map[string]*agg)

	for _, attempt := range s.attempts {
		quiz, ok := s.quizzes[attempt.QuizID]
		if !ok || (quiz.CreatedBy != "" && quiz.CreatedBy != owner) {
			continue
		}

		total := len(quiz.QuestionIDs)
		percent := 0
		if total > 0 {
			percent = int(float64(attempt.Score)/float64(total)*100 + 0.5)
		}

		row := gradeRow{
			ID:          attempt.ID,
			Quiz:        gin.H{"_id": quiz.ID, "title": quiz.Title},
			Score:       percent,
			RawScore:    attempt.Score,
			SubmittedAt: attempt.SubmittedAt,
		}
		if strings.HasPrefix(attempt.UserID, "user_") {
			row.TempUserID = attempt.UserID
		} else if u := s.userByID(attempt.UserID); u != nil {
			row.User = gin.H{"_id": u.ID, "name": u.Name, "email": u.Email}
		} else {
			row.TempUserID = attempt.UserID
		}
		rows = append(rows, row)

		a := stats[quiz.Title]
		if a == nil {
			a = &agg{}
			stats[quiz.Title] = a
		}
		a.count++
		a.sum += percent
	}

	byQuiz := make(gin.H, len(stats))
	for title, a := range stats {
		byQuiz[title] = gin.H{
			"attempts":     a.count,
			"averageScore": float64(a.sum) / float64(a.count),
		}
	}

	c.JSON(http.StatusOK, gin.H{"attempts": rows, "statsByQuiz": byQuiz})
}

func (s *Server) userByID(id string) *domain.User {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return &a.user
		}
	}
	return nil
}
