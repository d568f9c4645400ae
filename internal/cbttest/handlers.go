package cbttest

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"quizdesk/internal/domain"
)

// --- quizzes ---

func (s *Server) listQuizzes(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	c.JSON(http.StatusOK, out)
}

func (s *Server) getQuiz(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (s *Server) getQuizWithQuestions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}

	questions := make([]domain.Question, 0, len(quiz.QuestionIDs))
	for _, id := range quiz.QuestionIDs {
		if q, ok := s.questions[id]; ok {
			questions = append(questions, *q)
		}
	}

	c.JSON(http.StatusOK, gin.H{"quiz": quiz, "questions": questions})
}

func (s *Server) createQuiz(c *gin.Context) {
	var quiz domain.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quiz.ID = s.id("quiz")
	quiz.CreatedBy = s.account(c).user.ID
	quiz.CreatedAt = time.Now()
	s.quizzes[quiz.ID] = &quiz

	c.JSON(http.StatusCreated, quiz)
}

func (s *Server) updateQuiz(c *gin.Context) {
	var in domain.Quiz
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}

	quiz.Title = in.Title
	quiz.Description = in.Description
	quiz.Faculty = in.Faculty
	quiz.UniversityName = in.UniversityName
	quiz.DurationMinutes = in.DurationMinutes
	if in.QuestionIDs != nil {
		quiz.QuestionIDs = in.QuestionIDs
	}
	quiz.UpdatedAt = time.Now()

	c.JSON(http.StatusOK, quiz)
}

func (s *Server) deleteQuiz(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizzes[c.Param("id")]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}
	delete(s.quizzes, c.Param("id"))

	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted"})
}

type linkRequest struct {
	QuizID     string `json:"quizId"`
	QuestionID string `json:"questionId"`
}

func (s *Server) addQuestion(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.linkCalls++
	if s.failLinkCalls[s.linkCalls] {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "link failed"})
		return
	}

	quiz, ok := s.quizzes[req.QuizID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}
	if _, ok := s.questions[req.QuestionID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	for _, id := range quiz.QuestionIDs {
		if id == req.QuestionID {
			c.JSON(http.StatusOK, quiz)
			return
		}
	}
	quiz.QuestionIDs = append(quiz.QuestionIDs, req.QuestionID)

	c.JSON(http.StatusOK, quiz)
}

func (s *Server) removeQuestion(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[req.QuizID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}

	kept := quiz.QuestionIDs[:0]
	for _, id := range quiz.QuestionIDs {
		if id != req.QuestionID {
			kept = append(kept, id)
		}
	}
	quiz.QuestionIDs = kept

	c.JSON(http.StatusOK, quiz)
}

// --- questions ---

func (s *Server) listQuestions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	c.JSON(http.StatusOK, out)
}

func (s *Server) getQuestion(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) createQuestion(c *gin.Context) {
	var q domain.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.storeQuestion(&q)
	c.JSON(http.StatusCreated, q)
}

// storeQuestion assigns ids; callers hold the lock.
func (s *Server) storeQuestion(q *domain.Question) {
	q.ID = s.id("question")
	for i := range q.Options {
		q.Options[i].ID = s.id("option")
	}
	if q.Points < 1 {
		q.Points = 1
	}
	q.CreatedAt = time.Now()
	stored := *q
	s.questions[q.ID] = &stored
}

func (s *Server) updateQuestion(c *gin.Context) {
	var in domain.Question
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	q.Text = in.Text
	q.ImageURL = in.ImageURL
	q.Options = in.Options
	for i := range q.Options {
		if q.Options[i].ID == "" {
			q.Options[i].ID = s.id("option")
		}
	}
	if in.Points >= 1 {
		q.Points = in.Points
	}
	q.UpdatedAt = time.Now()

	c.JSON(http.StatusOK, q)
}

func (s *Server) deleteQuestion(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[c.Param("id")]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	delete(s.questions, c.Param("id"))

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// --- uploads ---

func (s *Server) previewUpload(c *gin.Context) {
	a := s.account(c)
	if !a.user.IsPaid {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment required to upload questions"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	s.mu.Lock()
	parsed := make([]domain.Question, len(s.Parsed))
	copy(parsed, s.Parsed)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"questions":      parsed,
		"questionsCount": len(parsed),
		"fileName":       file.Filename,
		"fileSize":       file.Size,
	})
}

func (s *Server) saveQuestions(c *gin.Context) {
	var req struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		s.storeQuestion(&q)
		saved = append(saved, q)
	}

	c.JSON(http.StatusCreated, gin.H{"questions": saved})
}

// --- attempts ---

func (s *Server) submitAttempt(c *gin.Context) {
	var attempt domain.Attempt
	if err := c.ShouldBindJSON(&attempt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Server-side grading goes by stable option ids against the stored,
	// unshuffled questions.
	correct := 0
	for _, answer := range attempt.Answers {
		q, ok := s.questions[answer.QuestionID]
		if !ok || len(answer.SelectedOptionIDs) == 0 {
			continue
		}
		for _, opt := range q.Options {
			if opt.IsCorrect {
				if opt.ID == answer.SelectedOptionIDs[0] {
					correct++
				}
				break
			}
		}
	}

	total := len(attempt.Answers)
	if quiz, ok := s.quizzes[attempt.QuizID]; ok {
		total = len(quiz.QuestionIDs)
	}

	stored := StoredAttempt{
		ID:          s.id("attempt"),
		QuizID:      attempt.QuizID,
		UserID:      attempt.UserID,
		Answers:     attempt.Answers,
		Score:       correct,
		SubmittedAt: time.Now(),
	}
	s.attempts = append(s.attempts, stored)

	c.JSON(http.StatusCreated, gin.H{
		"attemptId": stored.ID,
		"score":     correct,
		"total":     total,
	})
}

func (s *Server) listAttempts(c *gin.Context) {
	c.JSON(http.StatusOK, s.Attempts())
}

// --- comments ---

func (s *Server) createComment(c *gin.Context) {
	var comment domain.Comment
	if err := c.ShouldBindJSON(&comment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment.ID = s.id("comment")
	comment.Approved = false
	comment.CreatedAt = time.Now()
	s.comments[comment.ID] = &comment

	c.JSON(http.StatusCreated, comment)
}

func (s *Server) getComments(c *gin.Context) {
	quizID, action := c.Param("quizId"), c.Param("action")

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Comment
	switch {
	case quizID == "admin" && action == "pending":
		if s.byKey(c.GetHeader(headerAPIKey)) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}
		for _, cm := range s.comments {
			if !cm.Approved {
				out = append(out, *cm)
			}
		}
	case action == "approved":
		for _, cm := range s.comments {
			if cm.Approved && cm.QuizID == quizID {
				out = append(out, *cm)
			}
		}
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if out == nil {
		out = []domain.Comment{}
	}

	c.JSON(http.StatusOK, out)
}

func (s *Server) approveComment(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	comment.Approved = true

	c.JSON(http.StatusOK, comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[c.Param("id")]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	delete(s.comments, c.Param("id"))

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
