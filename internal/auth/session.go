// Package auth holds the explicitly-scoped admin session: the persisted API
// key, the identity behind it, and the account flows around both. Views get
// a *Session injected; nothing here is ambient global state.
package auth

import (
	"context"
	"log/slog"

	"quizdesk/internal/api"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
	"quizdesk/internal/forms"
	"quizdesk/internal/identity"
	"quizdesk/internal/store"
)

type Config struct {
	API       *api.Client
	Store     *store.Store
	Anonymous *identity.Provider
}

type Session struct {
	api       *api.Client
	store     *store.Store
	anonymous *identity.Provider

	user *domain.User
}

func NewSession(c Config) *Session {
	return &Session{
		api:       c.API,
		store:     c.Store,
		anonymous: c.Anonymous,
	}
}

// Init restores a previous session: it reads the persisted API key and
// validates it once against /admin/me. A key the backend no longer accepts
// is cleared and the session reverts to anonymous; that is not an error.
func (s *Session) Init(ctx context.Context) error {
	key, err := s.store.APIKey(ctx)
	if err != nil {
		return err
	}
	if key == "" {
		return nil
	}

	s.api.SetAPIKey(key)

	user, err := s.api.Me(ctx)
	if err != nil {
		slog.WarnContext(ctx, "auth: persisted key rejected, reverting to anonymous", "error", err)
		return s.teardown(ctx)
	}

	s.user = user
	return s.store.SetUser(ctx, *user)
}

// teardown clears the persisted session state and reverts to anonymous.
func (s *Session) teardown(ctx context.Context) error {
	s.user = nil
	s.api.ClearAPIKey()

	if err := s.store.ClearAPIKey(ctx); err != nil {
		return err
	}
	return s.store.ClearUser(ctx)
}

func (s *Session) User() *domain.User { return s.user }

func (s *Session) IsAdmin() bool { return s.user != nil && s.user.IsAdmin() }

// RequireAdmin gates admin-only views.
func (s *Session) RequireAdmin() error {
	if !s.IsAdmin() {
		return errors.New(errors.CodeAuth,
			errors.WithMessagef("admin sign-in required"))
	}
	return nil
}

// UserID resolves the identity attempts are attributed to: the
// authenticated user when present, otherwise the persisted pseudo-identity.
func (s *Session) UserID(ctx context.Context) (string, error) {
	if s.user != nil {
		return s.user.ID, nil
	}
	return s.anonymous.UserID(ctx)
}

// adopt takes ownership of a fresh API key: attach, persist, and fetch the
// identity behind it.
func (s *Session) adopt(ctx context.Context, key string) error {
	s.api.SetAPIKey(key)

	if err := s.store.SetAPIKey(ctx, key); err != nil {
		return err
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		return authError("fetch identity", err)
	}

	s.user = user
	return s.store.SetUser(ctx, *user)
}

// Register creates an admin account. Depending on backend policy the key
// arrives immediately or only after email verification; both are handled.
func (s *Session) Register(ctx context.Context, form forms.RegisterForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	result, err := s.api.Register(ctx, api.RegisterRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		return authError("register", err)
	}

	if result.APIKey == "" {
		// Verification pending; VerifyEmail completes the session.
		return nil
	}

	return s.adopt(ctx, result.APIKey)
}

// VerifyEmail exchanges an emailed verification code for the API key.
func (s *Session) VerifyEmail(ctx context.Context, email, code string) error {
	result, err := s.api.VerifyEmailCode(ctx, email, code)
	if err != nil {
		return authError("verify email code", err)
	}

	return s.adopt(ctx, result.APIKey)
}

func (s *Session) ResendVerification(ctx context.Context, email string) error {
	if err := s.api.ResendVerificationCode(ctx, email); err != nil {
		return authError("resend verification code", err)
	}
	return nil
}

func (s *Session) Login(ctx context.Context, form forms.LoginForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	result, err := s.api.Login(ctx, api.LoginRequest{
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		return authError("login", err)
	}

	return s.adopt(ctx, result.APIKey)
}

func (s *Session) ForgotPassword(ctx context.Context, email string) error {
	if err := s.api.ForgotPassword(ctx, email); err != nil {
		return authError("request reset code", err)
	}
	return nil
}

func (s *Session) VerifyResetCode(ctx context.Context, email, code string) error {
	if err := s.api.VerifyResetCode(ctx, email, code); err != nil {
		return authError("verify reset code", err)
	}
	return nil
}

func (s *Session) ResendResetCode(ctx context.Context, email string) error {
	if err := s.api.ResendResetCode(ctx, email); err != nil {
		return authError("resend reset code", err)
	}
	return nil
}

func (s *Session) ResetPassword(ctx context.Context, form forms.ResetPasswordForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	if err := s.api.ResetPassword(ctx, form.Email, form.Token, form.Password); err != nil {
		return authError("reset password", err)
	}
	return nil
}

// Logout clears the session and reverts to anonymous.
func (s *Session) Logout(ctx context.Context) error {
	return s.teardown(ctx)
}

// Pay records the upload entitlement payment and refreshes the identity.
func (s *Session) Pay(ctx context.Context) error {
	if err := s.api.Pay(ctx); err != nil {
		return err
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		return err
	}

	s.user = user
	return s.store.SetUser(ctx, *user)
}

func (s *Session) Grades(ctx context.Context) (*api.Grades, error) {
	return s.api.Grades(ctx)
}

// authError folds backend rejections into the auth taxonomy, keeping the
// backend's message so the view can show it next to a resend affordance.
// Transport failures stay as-is.
func authError(op string, err error) error {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal && e.Unwrap() != nil {
		return errors.New(errors.CodeAuth,
			errors.WithMessagef("%s", op),
			errors.WithCause(err))
	}

	return errors.New(errors.CodeAuth,
		errors.WithMessagef("%s: %s", op, e.Message),
		errors.WithCause(err))
}
