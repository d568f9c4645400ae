// Package browse is the public, unauthenticated side of the client: the
// quiz catalog with its approved comments, and comment posting.
package browse

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"quizdesk/internal/api"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
	"quizdesk/internal/event"
	"quizdesk/internal/forms"
)

const maxConcurrentFetches = 8

type Config struct {
	API      *api.Client
	EventBus *event.Bus
}

type Service struct {
	api *api.Client
	eb  *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		api: c.API,
		eb:  c.EventBus,
	}
}

func (s *Service) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.api.ListQuizzes(ctx)
	if err != nil {
		return nil, errors.New(errors.CodeLoad,
			errors.WithMessagef("load quizzes"),
			errors.WithCause(err))
	}
	return quizzes, nil
}

// QuizSummary is a catalog entry: the quiz plus its approved comments.
type QuizSummary struct {
	Quiz     domain.Quiz
	Comments []domain.Comment
}

// ListQuizzesWithComments builds the catalog, fetching each quiz's approved
// comments with bounded concurrency. A failed comment fetch leaves that
// quiz's comments empty rather than failing the whole catalog.
func (s *Service) ListQuizzesWithComments(ctx context.Context) ([]QuizSummary, error) {
	quizzes, err := s.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]QuizSummary, len(quizzes))

	var eg errgroup.Group
	eg.SetLimit(maxConcurrentFetches)

	for i, quiz := range quizzes {
		i, quiz := i, quiz
		summaries[i].Quiz = quiz

		eg.Go(func() error {
			comments, err := s.api.ApprovedComments(ctx, quiz.ID)
			if err != nil {
				slog.WarnContext(ctx, "browse: load comments failed", "quiz", quiz.ID, "error", err)
				return nil
			}

			summaries[i].Comments = comments
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (s *Service) ApprovedComments(ctx context.Context, quizID string) ([]domain.Comment, error) {
	comments, err := s.api.ApprovedComments(ctx, quizID)
	if err != nil {
		return nil, errors.New(errors.CodeLoad,
			errors.WithMessagef("load comments for quiz %s", quizID),
			errors.WithCause(err))
	}
	return comments, nil
}

// PostComment submits a quiz-taker's comment. It starts unapproved and only
// shows publicly after admin review.
func (s *Service) PostComment(ctx context.Context, form forms.CommentForm) (*domain.Comment, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	comment, err := s.api.CreateComment(ctx, form.Input())
	if err != nil {
		return nil, errors.New(errors.CodeSubmission,
			errors.WithMessagef("submit comment"),
			errors.WithCause(err))
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventCommentPosted{Comment: *comment})
	}

	return comment, nil
}
