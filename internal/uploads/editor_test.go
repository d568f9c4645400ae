package uploads_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"quizdesk/internal/api"
	"quizdesk/internal/cbttest"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
	"quizdesk/internal/uploads"
)

func makeEditor(t *testing.T, srv *cbttest.Server, paid bool) (*uploads.Editor, *api.Client) {
	t.Helper()

	key := srv.SeedAdmin("teacher@example.com", "secret1", paid)
	client := api.NewClient(api.Config{BaseURL: srv.URL()})
	client.SetAPIKey(key)

	return uploads.NewEditor(uploads.Config{API: client}), client
}

func parsedQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:   "What is 2+2?",
			Points: 1,
			Options: []domain.Option{
				{Label: "A", Text: "3"},
				{Label: "B", Text: "4", IsCorrect: true},
			},
		},
		{
			Text:   "Pick the even number",
			Points: 1,
			Options: []domain.Option{
				{Label: "A", Text: "2", IsCorrect: true},
				{Label: "B", Text: "4", IsCorrect: true},
				{Label: "C", Text: "5"},
			},
		},
		{
			Text:   "No answer flagged yet",
			Points: 1,
			Options: []domain.Option{
				{Label: "A", Text: "yes"},
				{Label: "B", Text: "no"},
			},
		},
	}
}

func preview(t *testing.T, e *uploads.Editor) {
	t.Helper()
	err := e.Preview(context.Background(), "batch.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
}

func TestEditor_RejectsUnknownExtensions(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	e, _ := makeEditor(t, srv, true)

	err := e.PreviewFile(context.Background(), "questions.txt")
	require.True(t, errors.Is(err, errors.CodeValidation))
}

func TestEditor_PaymentRequired(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	e, _ := makeEditor(t, srv, false)

	err := e.Preview(context.Background(), "batch.pdf", strings.NewReader("%PDF-1.4"))
	require.True(t, errors.Is(err, errors.CodePaymentRequired))
	require.Empty(t, e.Staged())
}

func TestEditor_EmptyParseIsALoadError(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	e, _ := makeEditor(t, srv, true)

	err := e.Preview(context.Background(), "batch.pdf", strings.NewReader("%PDF-1.4"))
	require.True(t, errors.Is(err, errors.CodeLoad))
}

func TestEditor_PreviewStagesEverythingSelected(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	e, _ := makeEditor(t, srv, true)

	preview(t, e)

	staged := e.Staged()
	require.Len(t, staged, 3)
	require.Equal(t, 3, e.SelectedCount())
	for _, s := range staged {
		require.True(t, s.Selected)
	}

	info := e.PreviewInfo()
	require.Equal(t, 3, info.QuestionsCount)
	require.Equal(t, "batch.pdf", info.FileName)
}

func TestEditor_NormalizeKeepsFirstCorrectOnly(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	e, _ := makeEditor(t, srv, true)

	preview(t, e)

	// The second parsed question had two options flagged correct.
	opts := e.Staged()[1].Question.Options
	require.True(t, opts[0].IsCorrect)
	require.False(t, opts[1].IsCorrect)
	require.False(t, opts[2].IsCorrect)

	// The third had none; normalization leaves it alone.
	opts = e.Staged()[2].Question.Options
	require.False(t, opts[0].IsCorrect)
	require.False(t, opts[1].IsCorrect)
}

func TestEditor_Editing(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	e, _ := makeEditor(t, srv, true)
	preview(t, e)

	id := e.Staged()[0].ID

	require.NoError(t, e.Toggle(id))
	require.Equal(t, 2, e.SelectedCount())
	require.NoError(t, e.Toggle(id))
	require.Equal(t, 3, e.SelectedCount())

	require.NoError(t, e.SetText(id, "What is two plus two?"))
	require.NoError(t, e.SetPoints(id, 5))
	require.NoError(t, e.SetOptionText(id, 0, "three"))

	q := e.Staged()[0].Question
	require.Equal(t, "What is two plus two?", q.Text)
	require.Equal(t, 5, q.Points)
	require.Equal(t, "three", q.Options[0].Text)

	require.Error(t, e.Toggle("no-such-id"))
}

func TestEditor_SetCorrectIsExclusive(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	e, _ := makeEditor(t, srv, true)
	preview(t, e)

	id := e.Staged()[0].ID
	require.NoError(t, e.SetCorrect(id, 0))

	opts := e.Staged()[0].Question.Options
	require.True(t, opts[0].IsCorrect)
	require.False(t, opts[1].IsCorrect)
}

func TestEditor_OptionBounds(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	e, _ := makeEditor(t, srv, true)
	preview(t, e)

	id := e.Staged()[0].ID // starts with 2 options

	// Cannot go below the floor.
	err := e.RemoveOption(id, 0)
	require.True(t, errors.Is(err, errors.CodeValidation))

	// Grow to the cap, labels continuing where the batch left off.
	for i := 2; i < uploads.MaxOptions; i++ {
		require.NoError(t, e.AddOption(id))
	}
	opts := e.Staged()[0].Question.Options
	require.Len(t, opts, uploads.MaxOptions)
	require.Equal(t, "H", opts[uploads.MaxOptions-1].Label)

	err = e.AddOption(id)
	require.True(t, errors.Is(err, errors.CodeValidation))

	require.NoError(t, e.RemoveOption(id, uploads.MaxOptions-1))
	require.Len(t, e.Staged()[0].Question.Options, uploads.MaxOptions-1)
}

func TestEditor_Incomplete(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	e, _ := makeEditor(t, srv, true)
	preview(t, e)

	ids := e.Incomplete()
	require.Equal(t, []string{e.Staged()[2].ID}, ids)

	// Deselected questions do not count as incomplete.
	require.NoError(t, e.Toggle(e.Staged()[2].ID))
	require.Empty(t, e.Incomplete())
}

func TestEditor_Save(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	quiz := srv.SeedQuiz(domain.Quiz{Title: "Target", DurationMinutes: decimal.NewFromInt(5)})

	e, client := makeEditor(t, srv, true)
	preview(t, e)

	// Save 2 of 3.
	require.NoError(t, e.Remove(e.Staged()[2].ID))

	result, err := e.Save(context.Background(), quiz.ID)
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	require.Equal(t, 2, result.Linked)
	require.Zero(t, result.FailedLinks)

	// A clean save resets the batch.
	require.Empty(t, e.Staged())
	require.Nil(t, e.PreviewInfo())

	qq, err := client.GetQuizWithQuestions(context.Background(), quiz.ID)
	require.NoError(t, err)
	require.Len(t, qq.Questions, 2)
}

func TestEditor_SaveNothingSelected(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	e, _ := makeEditor(t, srv, true)
	preview(t, e)

	for _, s := range e.Staged() {
		require.NoError(t, e.Toggle(s.ID))
	}

	_, err := e.Save(context.Background(), "quiz-1")
	require.True(t, errors.Is(err, errors.CodeValidation))
}

func TestEditor_SavePartialLinkFailure(t *testing.T) {
	t.Parallel()
	srv := cbttest.Run(t)
	srv.Parsed = parsedQuestions()
	quiz := srv.SeedQuiz(domain.Quiz{Title: "Target", DurationMinutes: decimal.NewFromInt(5)})
	srv.FailLinkCall(2)

	e, _ := makeEditor(t, srv, true)
	preview(t, e)

	result, err := e.Save(context.Background(), quiz.ID)
	require.True(t, errors.Is(err, errors.CodeSubmission))
	require.NotNil(t, result, "created questions are reported even when linking fails")
	require.Equal(t, 3, result.Created)
	require.Equal(t, 2, result.Linked)
	require.Equal(t, 1, result.FailedLinks)

	// A partial save keeps the batch so the user can see what happened.
	require.NotEmpty(t, e.Staged())
}
