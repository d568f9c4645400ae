package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies how a failure should be recovered at the view boundary.
type Code int

const (
	// CodeLoad means a resource fetch failed; the view shows a retry affordance.
	CodeLoad Code = iota + 1
	// CodeValidation means a client-side form constraint was violated.
	CodeValidation
	// CodeSubmission means the backend rejected or the network failed while
	// delivering an attempt or a save; the view returns to a retryable state.
	CodeSubmission
	// CodePaymentRequired is the backend's 402 on upload-preview; it
	// short-circuits into a message plus redirect, never a retry.
	CodePaymentRequired
	// CodeAuth covers invalid credentials and expired or invalid
	// verification codes; surfaced with a resend affordance.
	CodeAuth
	CodeNotFound
	CodeInternal
)

var codeNames = map[Code]string{
	CodeLoad:            "load failed",
	CodeValidation:      "validation failed",
	CodeSubmission:      "submission failed",
	CodePaymentRequired: "payment required",
	CodeAuth:            "authentication failed",
	CodeNotFound:        "not found",
	CodeInternal:        "internal error",
}

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	err     error
}

func New(code Code, opts ...Option) *Error {
	e := &Error{
		Code:    code,
		Message: codeNames[code],
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", codeNames[e.Code], e.Message)
	if e.Message == codeNames[e.Code] {
		s = e.Message
	}
	if e.err != nil {
		s += fmt.Sprintf(": %s", e.err)
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

// FromStatus maps a backend HTTP status to a Code. 402 is special-cased by
// the upload flow; everything else falls into the retryable buckets.
func FromStatus(status int) Code {
	switch {
	case status == http.StatusPaymentRequired:
		return CodePaymentRequired
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeAuth
	case status == http.StatusNotFound:
		return CodeNotFound
	case status >= 400 && status < 500:
		return CodeValidation
	default:
		return CodeInternal
	}
}

// Convert returns err as an *Error, wrapping unknown errors as CodeInternal.
func Convert(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return Internal(err)
	}

	return e
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func Internal(err error) *Error {
	return New(CodeInternal, WithCause(err))
}

type Option interface {
	apply(*Error)
}

type optionFunc func(*Error)

func (f optionFunc) apply(e *Error) {
	f(e)
}

func WithCause(err error) Option {
	return optionFunc(func(e *Error) {
		e.err = err
	})
}

func WithMessagef(format string, args ...any) Option {
	return optionFunc(func(e *Error) {
		e.Message = fmt.Sprintf(format, args...)
	})
}
