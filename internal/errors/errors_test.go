package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"quizdesk/internal/errors"
)

func TestFromStatus(t *testing.T) {
	t.Parallel()

	tests := map[int]errors.Code{
		http.StatusPaymentRequired:     errors.CodePaymentRequired,
		http.StatusUnauthorized:        errors.CodeAuth,
		http.StatusForbidden:           errors.CodeAuth,
		http.StatusNotFound:            errors.CodeNotFound,
		http.StatusBadRequest:          errors.CodeValidation,
		http.StatusConflict:            errors.CodeValidation,
		http.StatusInternalServerError: errors.CodeInternal,
		http.StatusBadGateway:          errors.CodeInternal,
	}

	for status, want := range tests {
		require.Equal(t, want, errors.FromStatus(status), "status %d", status)
	}
}

func TestIs(t *testing.T) {
	t.Parallel()

	err := errors.New(errors.CodeLoad, errors.WithMessagef("load quiz q1"))
	require.True(t, errors.Is(err, errors.CodeLoad))
	require.False(t, errors.Is(err, errors.CodeAuth))

	// Codes survive fmt wrapping.
	wrapped := fmt.Errorf("outer: %w", err)
	require.True(t, errors.Is(wrapped, errors.CodeLoad))

	require.False(t, errors.Is(stderrors.New("plain"), errors.CodeLoad))
	require.False(t, errors.Is(nil, errors.CodeLoad))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	known := errors.New(errors.CodeValidation, errors.WithMessagef("title is required"))
	require.Equal(t, known, errors.Convert(known))
	require.Equal(t, known, errors.Convert(fmt.Errorf("wrap: %w", known)))

	plain := stderrors.New("connection refused")
	converted := errors.Convert(plain)
	require.Equal(t, errors.CodeInternal, converted.Code)
	require.ErrorIs(t, converted, plain)
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := errors.New(errors.CodeSubmission)
	require.Equal(t, "submission failed", err.Error())

	err = errors.New(errors.CodeSubmission, errors.WithMessagef("submit attempt"))
	require.Equal(t, "submission failed: submit attempt", err.Error())

	cause := stderrors.New("boom")
	err = errors.New(errors.CodeSubmission, errors.WithMessagef("submit attempt"), errors.WithCause(cause))
	require.Equal(t, "submission failed: submit attempt: boom", err.Error())
	require.ErrorIs(t, err, cause)
}
