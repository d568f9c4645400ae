package manage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"quizdesk/internal/api"
	"quizdesk/internal/auth"
	"quizdesk/internal/cbttest"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
	"quizdesk/internal/forms"
	"quizdesk/internal/identity"
	"quizdesk/internal/manage"
	"quizdesk/internal/store"
)

func makeService(t *testing.T, signIn bool) (*manage.Service, *cbttest.Server) {
	t.Helper()

	srv := cbttest.Run(t)

	st, err := store.Open(context.Background(), store.Config{
		Path: filepath.Join(t.TempDir(), "state.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	client := api.NewClient(api.Config{BaseURL: srv.URL()})
	session := auth.NewSession(auth.Config{
		API:       client,
		Store:     st,
		Anonymous: identity.NewProvider(identity.Config{Store: st}),
	})

	if signIn {
		srv.SeedAdmin("admin@example.com", "secret1", false)
		require.NoError(t, session.Login(context.Background(), forms.LoginForm{
			Email:    "admin@example.com",
			Password: "secret1",
		}))
	}

	return manage.NewService(manage.Config{API: client, Auth: session}), srv
}

func validQuizForm() forms.QuizForm {
	return forms.QuizForm{
		Title:           "Algebra",
		Faculty:         "Mathematics",
		UniversityName:  "Example University",
		DurationMinutes: 10,
	}
}

func validQuestionForm() forms.QuestionForm {
	return forms.QuestionForm{
		Text: "What is 2+2?",
		Options: []forms.OptionForm{
			{Text: "3"},
			{Text: "4", IsCorrect: true},
		},
	}
}

func TestService_RequiresSignIn(t *testing.T) {
	t.Parallel()
	s, _ := makeService(t, false)
	ctx := context.Background()

	_, err := s.CreateQuiz(ctx, validQuizForm())
	require.True(t, errors.Is(err, errors.CodeAuth))

	_, err = s.PendingComments(ctx)
	require.True(t, errors.Is(err, errors.CodeAuth))

	err = s.DeleteQuiz(ctx, "quiz-1")
	require.True(t, errors.Is(err, errors.CodeAuth))
}

func TestService_QuizCRUD(t *testing.T) {
	t.Parallel()
	s, _ := makeService(t, true)
	ctx := context.Background()

	_, err := s.CreateQuiz(ctx, forms.QuizForm{})
	require.True(t, errors.Is(err, errors.CodeValidation))

	quiz, err := s.CreateQuiz(ctx, validQuizForm())
	require.NoError(t, err)
	require.NotEmpty(t, quiz.ID)
	require.Equal(t, "Algebra", quiz.Title)

	form := validQuizForm()
	form.Title = "Algebra II"
	updated, err := s.UpdateQuiz(ctx, quiz.ID, form)
	require.NoError(t, err)
	require.Equal(t, "Algebra II", updated.Title)

	require.NoError(t, s.DeleteQuiz(ctx, quiz.ID))

	_, err = s.UpdateQuiz(ctx, quiz.ID, form)
	require.Error(t, err)
}

func TestService_QuestionManager(t *testing.T) {
	t.Parallel()
	s, srv := makeService(t, true)
	ctx := context.Background()

	quiz, err := s.CreateQuiz(ctx, validQuizForm())
	require.NoError(t, err)

	// An unlinked question shows up as available.
	loose := srv.SeedQuiz(domain.Quiz{Title: "Other"}, domain.Question{
		Text:    "loose",
		Options: []domain.Option{{Text: "a", IsCorrect: true}, {Text: "b"}},
	})

	question, err := s.CreateQuestion(ctx, quiz.ID, validQuestionForm())
	require.NoError(t, err)

	view, err := s.LoadQuestionManager(ctx, quiz.ID)
	require.NoError(t, err)
	require.Equal(t, quiz.ID, view.Quiz.ID)
	require.Len(t, view.Linked, 1)
	require.Equal(t, question.ID, view.Linked[0].ID)
	require.Len(t, view.Available, 1, "the other quiz's question is attachable")
	require.Equal(t, loose.QuestionIDs[0], view.Available[0].ID)

	require.NoError(t, s.AttachQuestion(ctx, quiz.ID, view.Available[0].ID))

	view, err = s.LoadQuestionManager(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, view.Linked, 2)
	require.Empty(t, view.Available)

	require.NoError(t, s.DetachQuestion(ctx, quiz.ID, question.ID))

	view, err = s.LoadQuestionManager(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, view.Linked, 1)
	require.Len(t, view.Available, 1)
}

func TestService_CreateQuestionLinkFailure(t *testing.T) {
	t.Parallel()
	s, srv := makeService(t, true)
	ctx := context.Background()

	quiz, err := s.CreateQuiz(ctx, validQuizForm())
	require.NoError(t, err)

	srv.FailLinkCall(1)

	question, err := s.CreateQuestion(ctx, quiz.ID, validQuestionForm())
	require.True(t, errors.Is(err, errors.CodeSubmission))
	require.NotNil(t, question, "the created question is returned so the user can re-attach it")

	// The question exists, it is just not linked.
	view, err := s.LoadQuestionManager(ctx, quiz.ID)
	require.NoError(t, err)
	require.Empty(t, view.Linked)
	require.Len(t, view.Available, 1)

	require.NoError(t, s.AttachQuestion(ctx, quiz.ID, question.ID))
}

func TestService_UpdateAndDeleteQuestion(t *testing.T) {
	t.Parallel()
	s, _ := makeService(t, true)
	ctx := context.Background()

	quiz, err := s.CreateQuiz(ctx, validQuizForm())
	require.NoError(t, err)

	question, err := s.CreateQuestion(ctx, quiz.ID, validQuestionForm())
	require.NoError(t, err)

	form := validQuestionForm()
	form.Text = "What is two plus two?"
	updated, err := s.UpdateQuestion(ctx, question.ID, form)
	require.NoError(t, err)
	require.Equal(t, "What is two plus two?", updated.Text)

	require.NoError(t, s.DeleteQuestion(ctx, question.ID))

	_, err = s.UpdateQuestion(ctx, question.ID, form)
	require.Error(t, err)
}

func TestService_CommentModeration(t *testing.T) {
	t.Parallel()
	s, srv := makeService(t, true)
	ctx := context.Background()

	quiz := srv.SeedQuiz(domain.Quiz{Title: "Quiz"})
	first := srv.SeedComment(domain.Comment{QuizID: quiz.ID, Text: "approve me"})
	second := srv.SeedComment(domain.Comment{QuizID: quiz.ID, Text: "reject me"})

	pending, err := s.PendingComments(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, s.ApproveComment(ctx, first.ID))
	require.NoError(t, s.RejectComment(ctx, second.ID))

	pending, err = s.PendingComments(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}
