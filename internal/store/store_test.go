package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizdesk/internal/domain"
	"quizdesk/internal/event"
	"quizdesk/internal/store"
)

func makeStore(t *testing.T, eb *event.Bus) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), store.Config{
		Path:     filepath.Join(t.TempDir(), "state.db"),
		EventBus: eb,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_APIKey(t *testing.T) {
	t.Parallel()
	s := makeStore(t, nil)
	ctx := context.Background()

	key, err := s.APIKey(ctx)
	require.NoError(t, err)
	require.Empty(t, key)

	require.NoError(t, s.SetAPIKey(ctx, "key-1"))

	key, err = s.APIKey(ctx)
	require.NoError(t, err)
	require.Equal(t, "key-1", key)

	// Overwrite, then clear.
	require.NoError(t, s.SetAPIKey(ctx, "key-2"))
	key, err = s.APIKey(ctx)
	require.NoError(t, err)
	require.Equal(t, "key-2", key)

	require.NoError(t, s.ClearAPIKey(ctx))
	key, err = s.APIKey(ctx)
	require.NoError(t, err)
	require.Empty(t, key)
}

func TestStore_User(t *testing.T) {
	t.Parallel()
	s := makeStore(t, nil)
	ctx := context.Background()

	user, err := s.User(ctx)
	require.NoError(t, err)
	require.Nil(t, user)

	want := domain.User{
		ID:    "u1",
		Name:  "Admin",
		Email: "admin@example.com",
		Role:  "admin",
	}
	require.NoError(t, s.SetUser(ctx, want))

	user, err = s.User(ctx)
	require.NoError(t, err)
	require.Equal(t, &want, user)

	require.NoError(t, s.ClearUser(ctx))
	user, err = s.User(ctx)
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestStore_AnonymousID(t *testing.T) {
	t.Parallel()
	s := makeStore(t, nil)
	ctx := context.Background()

	id, err := s.AnonymousID(ctx)
	require.NoError(t, err)
	require.Empty(t, id)

	require.NoError(t, s.SetAnonymousID(ctx, "user_1_abc"))

	id, err = s.AnonymousID(ctx)
	require.NoError(t, err)
	require.Equal(t, "user_1_abc", id)
}

func TestStore_AttemptHistory(t *testing.T) {
	t.Parallel()
	s := makeStore(t, nil)
	ctx := context.Background()

	refs, err := s.AttemptHistory(ctx, "quiz-1")
	require.NoError(t, err)
	require.Empty(t, refs)

	base := time.Now().Truncate(time.Second)
	require.NoError(t, s.RecordAttempt(ctx, "quiz-1", "a1", base))
	require.NoError(t, s.RecordAttempt(ctx, "quiz-1", "a2", base.Add(time.Minute)))
	require.NoError(t, s.RecordAttempt(ctx, "quiz-2", "b1", base))

	refs, err = s.AttemptHistory(ctx, "quiz-1")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, "a1", refs[0].AttemptID)
	require.Equal(t, "a2", refs[1].AttemptID)
	require.True(t, refs[0].CreatedAt.Equal(base))
}

func TestStore_RecordsAttemptsFromTheBus(t *testing.T) {
	t.Parallel()

	eb := event.NewBus()
	t.Cleanup(eb.Stop)

	s := makeStore(t, eb)

	eb.Publish(context.Background(), domain.EventAttemptSubmitted{
		Attempt:   domain.Attempt{QuizID: "quiz-1", UserID: "u1"},
		AttemptID: "a1",
	})

	require.Eventually(t, func() bool {
		refs, err := s.AttemptHistory(context.Background(), "quiz-1")
		return err == nil && len(refs) == 1 && refs[0].AttemptID == "a1"
	}, 3*time.Second, 10*time.Millisecond)
}
