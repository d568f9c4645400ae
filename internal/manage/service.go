// Package manage is the admin side of the client: quiz and question
// authoring plus comment moderation. Every operation is gated on an admin
// session.
package manage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"quizdesk/internal/api"
	"quizdesk/internal/auth"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
	"quizdesk/internal/forms"
)

type Config struct {
	API  *api.Client
	Auth *auth.Session
}

type Service struct {
	api  *api.Client
	auth *auth.Session
}

func NewService(c Config) *Service {
	return &Service{
		api:  c.API,
		auth: c.Auth,
	}
}

func (s *Service) CreateQuiz(ctx context.Context, form forms.QuizForm) (*domain.Quiz, error) {
	if err := s.auth.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	quiz, err := s.api.CreateQuiz(ctx, form.Input())
	if err != nil {
		return nil, errors.New(errors.CodeSubmission,
			errors.WithMessagef("create quiz"),
			errors.WithCause(err))
	}
	return quiz, nil
}

func (s *Service) UpdateQuiz(ctx context.Context, quizID string, form forms.QuizForm) (*domain.Quiz, error) {
	if err := s.auth.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	quiz, err := s.api.UpdateQuiz(ctx, quizID, form.Input())
	if err != nil {
		return nil, errors.New(errors.CodeSubmission,
			errors.WithMessagef("update quiz %s", quizID),
			errors.WithCause(err))
	}
	return quiz, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := s.auth.RequireAdmin(); err != nil {
		return err
	}

	if err := s.api.DeleteQuiz(ctx, quizID); err != nil {
		return errors.New(errors.CodeSubmission,
			errors.WithMessagef("delete quiz %s", quizID),
			errors.WithCause(err))
	}
	return nil
}

// QuestionManagerView is the question-manager screen state: the quiz with
// its linked questions, plus the rest of the question bank available to
// attach.
type QuestionManagerView struct {
	Quiz      domain.Quiz
	Linked    []domain.Question
	Available []domain.Question
}

// LoadQuestionManager fetches the quiz's questions and the whole question
// bank in parallel and splits the bank into linked and available.
func (s *Service) LoadQuestionManager(ctx context.Context, quizID string) (*QuestionManagerView, error) {
	if err := s.auth.RequireAdmin(); err != nil {
		return nil, err
	}

	var (
		qq   *api.QuizWithQuestions
		bank []domain.Question
	)

	var eg errgroup.Group
	eg.Go(func() (err error) {
		qq, err = s.api.GetQuizWithQuestions(ctx, quizID)
		return err
	})
	eg.Go(func() (err error) {
		bank, err = s.api.ListQuestions(ctx)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, errors.New(errors.CodeLoad,
			errors.WithMessagef("load question manager for quiz %s", quizID),
			errors.WithCause(err))
	}

	linked := make(map[string]bool, len(qq.Questions))
	for _, q := range qq.Questions {
		linked[q.ID] = true
	}

	view := &QuestionManagerView{
		Quiz:   qq.Quiz,
		Linked: qq.Questions,
	}
	for _, q := range bank {
		if !linked[q.ID] {
			view.Available = append(view.Available, q)
		}
	}

	return view, nil
}

// CreateQuestion creates a question and links it to the quiz.
func (s *Service) CreateQuestion(ctx context.Context, quizID string, form forms.QuestionForm) (*domain.Question, error) {
	if err := s.auth.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	question, err := s.api.CreateQuestion(ctx, form.Input())
	if err != nil {
		return nil, errors.New(errors.CodeSubmission,
			errors.WithMessagef("create question"),
			errors.WithCause(err))
	}

	if err := s.api.AddQuestionToQuiz(ctx, quizID, question.ID); err != nil {
		// The question exists but is unlinked; report rather than roll back.
		return question, errors.New(errors.CodeSubmission,
			errors.WithMessagef("question created but not added to quiz %s", quizID),
			errors.WithCause(err))
	}

	return question, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, questionID string, form forms.QuestionForm) (*domain.Question, error) {
	if err := s.auth.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	question, err := s.api.UpdateQuestion(ctx, questionID, form.Input())
	if err != nil {
		return nil, errors.New(errors.CodeSubmission,
			errors.WithMessagef("update question %s", questionID),
			errors.WithCause(err))
	}
	return question, nil
}

// AttachQuestion links an existing bank question to a quiz.
func (s *Service) AttachQuestion(ctx context.Context, quizID, questionID string) error {
	if err := s.auth.RequireAdmin(); err != nil {
		return err
	}

	if err := s.api.AddQuestionToQuiz(ctx, quizID, questionID); err != nil {
		return errors.New(errors.CodeSubmission,
			errors.WithMessagef("add question %s to quiz %s", questionID, quizID),
			errors.WithCause(err))
	}
	return nil
}

// DetachQuestion unlinks a question from a quiz without deleting it.
func (s *Service) DetachQuestion(ctx context.Context, quizID, questionID string) error {
	if err := s.auth.RequireAdmin(); err != nil {
		return err
	}

	if err := s.api.RemoveQuestionFromQuiz(ctx, quizID, questionID); err != nil {
		return errors.New(errors.CodeSubmission,
			errors.WithMessagef("remove question %s from quiz %s", questionID, quizID),
			errors.WithCause(err))
	}
	return nil
}

func (s *Service) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := s.auth.RequireAdmin(); err != nil {
		return err
	}

	if err := s.api.DeleteQuestion(ctx, questionID); err != nil {
		return errors.New(errors.CodeSubmission,
			errors.WithMessagef("delete question %s", questionID),
			errors.WithCause(err))
	}
	return nil
}

func (s *Service) PendingComments(ctx context.Context) ([]domain.Comment, error) {
	if err := s.auth.RequireAdmin(); err != nil {
		return nil, err
	}

	comments, err := s.api.PendingComments(ctx)
	if err != nil {
		return nil, errors.New(errors.CodeLoad,
			errors.WithMessagef("load pending comments"),
			errors.WithCause(err))
	}
	return comments, nil
}

func (s *Service) ApproveComment(ctx context.Context, commentID string) error {
	if err := s.auth.RequireAdmin(); err != nil {
		return err
	}

	if err := s.api.ApproveComment(ctx, commentID); err != nil {
		return errors.New(errors.CodeSubmission,
			errors.WithMessagef("approve comment %s", commentID),
			errors.WithCause(err))
	}
	return nil
}

// RejectComment deletes a pending comment.
func (s *Service) RejectComment(ctx context.Context, commentID string) error {
	if err := s.auth.RequireAdmin(); err != nil {
		return err
	}

	if err := s.api.DeleteComment(ctx, commentID); err != nil {
		return errors.New(errors.CodeSubmission,
			errors.WithMessagef("delete comment %s", commentID),
			errors.WithCause(err))
	}
	return nil
}
