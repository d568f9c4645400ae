package auth_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"quizdesk/internal/api"
	"quizdesk/internal/auth"
	"quizdesk/internal/cbttest"
	"quizdesk/internal/errors"
	"quizdesk/internal/forms"
	"quizdesk/internal/identity"
	"quizdesk/internal/store"
)

type harness struct {
	srv     *cbttest.Server
	client  *api.Client
	store   *store.Store
	session *auth.Session
}

func makeHarness(t *testing.T) *harness {
	t.Helper()

	srv := cbttest.Run(t)

	st, err := store.Open(context.Background(), store.Config{
		Path: filepath.Join(t.TempDir(), "state.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	client := api.NewClient(api.Config{BaseURL: srv.URL()})

	return &harness{
		srv:    srv,
		client: client,
		store:  st,
		session: auth.NewSession(auth.Config{
			API:       client,
			Store:     st,
			Anonymous: identity.NewProvider(identity.Config{Store: st}),
		}),
	}
}

func TestSession_InitWithoutPersistedKey(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)

	require.NoError(t, h.session.Init(context.Background()))
	require.Nil(t, h.session.User())
	require.False(t, h.session.IsAdmin())
}

func TestSession_InitRestoresPersistedKey(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)

	key := h.srv.SeedAdmin("admin@example.com", "secret1", false)
	require.NoError(t, h.store.SetAPIKey(context.Background(), key))

	require.NoError(t, h.session.Init(context.Background()))
	require.True(t, h.session.IsAdmin())
	require.Equal(t, "admin@example.com", h.session.User().Email)
}

func TestSession_InitRejectedKeyRevertsToAnonymous(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)

	require.NoError(t, h.store.SetAPIKey(context.Background(), "stale-key"))

	// A rejected key is not an error; the session just starts anonymous.
	require.NoError(t, h.session.Init(context.Background()))
	require.Nil(t, h.session.User())

	persisted, err := h.store.APIKey(context.Background())
	require.NoError(t, err)
	require.Empty(t, persisted, "the stale key is cleared from the store")
}

func TestSession_Login(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)
	h.srv.SeedAdmin("admin@example.com", "secret1", false)

	err := h.session.Login(context.Background(), forms.LoginForm{
		Email:    "admin@example.com",
		Password: "wrong-password",
	})
	require.True(t, errors.Is(err, errors.CodeAuth))
	require.Contains(t, err.Error(), "Invalid email or password")

	require.NoError(t, h.session.Login(context.Background(), forms.LoginForm{
		Email:    "admin@example.com",
		Password: "secret1",
	}))
	require.True(t, h.session.IsAdmin())

	// The key is persisted for the next run.
	key, err := h.store.APIKey(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, key)
}

func TestSession_LoginValidation(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)

	err := h.session.Login(context.Background(), forms.LoginForm{Email: "not-an-email", Password: "x"})
	require.True(t, errors.Is(err, errors.CodeValidation))
}

func TestSession_RegisterImmediateKey(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)

	require.NoError(t, h.session.Register(context.Background(), forms.RegisterForm{
		Name:     "New Admin",
		Email:    "new@example.com",
		Password: "secret1",
	}))
	require.True(t, h.session.IsAdmin())
	require.Equal(t, "New Admin", h.session.User().Name)
}

func TestSession_RegisterWithEmailVerification(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)
	h.srv.RequireVerification = true

	require.NoError(t, h.session.Register(context.Background(), forms.RegisterForm{
		Name:     "New Admin",
		Email:    "new@example.com",
		Password: "secret1",
	}))
	require.Nil(t, h.session.User(), "no session until the code is verified")

	err := h.session.VerifyEmail(context.Background(), "new@example.com", "000000")
	require.True(t, errors.Is(err, errors.CodeAuth))

	code := h.srv.VerifyCode("new@example.com")
	require.NotEmpty(t, code)
	require.NoError(t, h.session.VerifyEmail(context.Background(), "new@example.com", code))
	require.True(t, h.session.IsAdmin())
}

func TestSession_PasswordReset(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)
	h.srv.SeedAdmin("admin@example.com", "old-secret", false)

	require.NoError(t, h.session.ForgotPassword(context.Background(), "admin@example.com"))

	code := h.srv.ResetCode("admin@example.com")
	require.NotEmpty(t, code)
	require.NoError(t, h.session.VerifyResetCode(context.Background(), "admin@example.com", code))

	require.NoError(t, h.session.ResetPassword(context.Background(), forms.ResetPasswordForm{
		Email:    "admin@example.com",
		Token:    code,
		Password: "new-secret",
	}))

	require.NoError(t, h.session.Login(context.Background(), forms.LoginForm{
		Email:    "admin@example.com",
		Password: "new-secret",
	}))
	require.True(t, h.session.IsAdmin())
}

func TestSession_Logout(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)
	h.srv.SeedAdmin("admin@example.com", "secret1", false)

	require.NoError(t, h.session.Login(context.Background(), forms.LoginForm{
		Email:    "admin@example.com",
		Password: "secret1",
	}))

	require.NoError(t, h.session.Logout(context.Background()))
	require.Nil(t, h.session.User())

	key, err := h.store.APIKey(context.Background())
	require.NoError(t, err)
	require.Empty(t, key)

	// The cleared key no longer reaches the backend.
	_, err = h.client.Me(context.Background())
	require.True(t, errors.Is(err, errors.CodeAuth))
}

func TestSession_RequireAdmin(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)

	err := h.session.RequireAdmin()
	require.True(t, errors.Is(err, errors.CodeAuth))

	h.srv.SeedAdmin("admin@example.com", "secret1", false)
	require.NoError(t, h.session.Login(context.Background(), forms.LoginForm{
		Email:    "admin@example.com",
		Password: "secret1",
	}))
	require.NoError(t, h.session.RequireAdmin())
}

func TestSession_UserID(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)

	// Anonymous: generated once, stable across calls.
	first, err := h.session.UserID(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := h.session.UserID(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Authenticated: the real account id takes over.
	h.srv.SeedAdmin("admin@example.com", "secret1", false)
	require.NoError(t, h.session.Login(context.Background(), forms.LoginForm{
		Email:    "admin@example.com",
		Password: "secret1",
	}))

	id, err := h.session.UserID(context.Background())
	require.NoError(t, err)
	require.Equal(t, h.session.User().ID, id)
	require.NotEqual(t, first, id)
}

func TestSession_Pay(t *testing.T) {
	t.Parallel()
	h := makeHarness(t)
	h.srv.SeedAdmin("admin@example.com", "secret1", false)

	require.NoError(t, h.session.Login(context.Background(), forms.LoginForm{
		Email:    "admin@example.com",
		Password: "secret1",
	}))
	require.False(t, h.session.User().IsPaid)

	require.NoError(t, h.session.Pay(context.Background()))
	require.True(t, h.session.User().IsPaid, "identity is refreshed after payment")
}
