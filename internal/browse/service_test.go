package browse_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"quizdesk/internal/api"
	"quizdesk/internal/browse"
	"quizdesk/internal/cbttest"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
	"quizdesk/internal/event"
	"quizdesk/internal/forms"
)

func makeService(t *testing.T, srv *cbttest.Server, eb *event.Bus) *browse.Service {
	t.Helper()
	return browse.NewService(browse.Config{
		API:      api.NewClient(api.Config{BaseURL: srv.URL()}),
		EventBus: eb,
	})
}

func TestService_ListQuizzes(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	s := makeService(t, srv, nil)

	quizzes, err := s.ListQuizzes(context.Background())
	require.NoError(t, err)
	require.Empty(t, quizzes)

	srv.SeedQuiz(domain.Quiz{Title: "One", DurationMinutes: decimal.NewFromInt(5)})
	srv.SeedQuiz(domain.Quiz{Title: "Two", DurationMinutes: decimal.NewFromInt(10)})

	quizzes, err = s.ListQuizzes(context.Background())
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
}

func TestService_ListQuizzesWithComments(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	s := makeService(t, srv, nil)

	q1 := srv.SeedQuiz(domain.Quiz{Title: "One", DurationMinutes: decimal.NewFromInt(5)})
	q2 := srv.SeedQuiz(domain.Quiz{Title: "Two", DurationMinutes: decimal.NewFromInt(5)})

	srv.SeedComment(domain.Comment{QuizID: q1.ID, Text: "great", Approved: true})
	srv.SeedComment(domain.Comment{QuizID: q1.ID, Text: "pending", Approved: false})
	srv.SeedComment(domain.Comment{QuizID: q2.ID, Text: "other quiz", Approved: true})

	summaries, err := s.ListQuizzesWithComments(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := make(map[string]browse.QuizSummary)
	for _, sum := range summaries {
		byID[sum.Quiz.ID] = sum
	}

	require.Len(t, byID[q1.ID].Comments, 1, "only approved comments are shown")
	require.Equal(t, "great", byID[q1.ID].Comments[0].Text)
	require.Len(t, byID[q2.ID].Comments, 1)
}

func TestService_PostComment(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)

	eb := event.NewBus()
	t.Cleanup(eb.Stop)

	s := makeService(t, srv, eb)
	quiz := srv.SeedQuiz(domain.Quiz{Title: "One", DurationMinutes: decimal.NewFromInt(5)})

	_, err := s.PostComment(context.Background(), forms.CommentForm{QuizID: quiz.ID})
	require.True(t, errors.Is(err, errors.CodeValidation), "empty text is rejected locally")

	comment, err := s.PostComment(context.Background(), forms.CommentForm{
		QuizID:   quiz.ID,
		UserName: "student",
		Text:     "well made",
	})
	require.NoError(t, err)
	require.False(t, comment.Approved)

	// Not visible until moderated.
	approved, err := s.ApprovedComments(context.Background(), quiz.ID)
	require.NoError(t, err)
	require.Empty(t, approved)
}
