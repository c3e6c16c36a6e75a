package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrMissingCredentials = errors.New("auth: identifier and password are required")
	ErrWrongPortal        = errors.New("auth: unauthorized: wrong portal")
	ErrNoTokenIssued      = errors.New("auth: no token issued")
	ErrNoSession          = errors.New("auth: no session")
	ErrSessionExpired     = errors.New("auth: session expired")
	ErrUnknownRole        = errors.New("auth: unknown role")
	ErrInvalidProfile     = errors.New("auth: invalid user payload")
)

// CredentialKind tells which part of the credentials was rejected.
type CredentialKind int

const (
	KindPassword CredentialKind = iota + 1
	KindIdentifier
)

// User-facing messages for rejected credentials.
const (
	MessageIncorrectPassword   = "Incorrect password"
	MessageIncorrectIdentifier = "Incorrect username or email"
	MessageWrongPortal         = "Unauthorized: this account cannot sign in here"
)

// CredentialError is a login rejected because of the password or identifier.
// Message is safe to show to the user.
type CredentialError struct {
	Kind    CredentialKind
	Message string
}

func (e *CredentialError) Error() string { return e.Message }

func (e *CredentialError) Unwrap() error { return ErrInvalidCredentials }

// RoleMismatchError is a valid login for an account whose role is not allowed
// in this portal. Got is empty when the backend sent an unknown user type.
type RoleMismatchError struct {
	Want Role
	Got  Role
}

func (e *RoleMismatchError) Error() string {
	got := string(e.Got)
	if got == "" {
		got = "unknown"
	}
	return fmt.Sprintf("%s: requires %s, got %s", ErrWrongPortal, e.Want, got)
}

func (e *RoleMismatchError) Unwrap() error { return ErrWrongPortal }

// Message returns the user-facing text.
func (e *RoleMismatchError) Message() string { return MessageWrongPortal }

// UserMessage returns the text to show for a login failure: the specific
// message for the three known buckets and a generic one otherwise.
func UserMessage(err error) string {
	var ce *CredentialError
	if errors.As(err, &ce) {
		return ce.Message
	}
	if errors.Is(err, ErrWrongPortal) {
		return MessageWrongPortal
	}
	return "Something went wrong. Please try again."
}
