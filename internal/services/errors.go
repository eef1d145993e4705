package services

import (
	"errors"
	"fmt"

	"github.com/scpnet/scp-backend/internal/access"
	"github.com/scpnet/scp-backend/internal/i18n"
)

type ErrorKind string

const (
	KindUnauthenticated   ErrorKind = "UNAUTHENTICATED"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindConflict          ErrorKind = "CONFLICT"
	KindBadRequest        ErrorKind = "BAD_REQUEST"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
)

// Error is the failure every service operation reports. Key and Args
// render a localized message; Details carries structured context such as
// the current and requested state.
type Error struct {
	Kind    ErrorKind
	Key     string
	Args    []interface{}
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message(i18n.DefaultLang))
}

func (e *Error) Message(lang string) string {
	return i18n.T(lang, e.Key, e.Args...)
}

func newError(kind ErrorKind, key string, args ...interface{}) *Error {
	return &Error{Kind: kind, Key: key, Args: args}
}

func ErrUnauthenticated(key string, args ...interface{}) *Error {
	return newError(KindUnauthenticated, key, args...)
}

func ErrForbidden(key string, args ...interface{}) *Error {
	return newError(KindForbidden, key, args...)
}

func ErrNotFound(key string, args ...interface{}) *Error {
	return newError(KindNotFound, key, args...)
}

func ErrConflict(key string, args ...interface{}) *Error {
	return newError(KindConflict, key, args...)
}

func ErrBadRequest(key string, args ...interface{}) *Error {
	return newError(KindBadRequest, key, args...)
}

// ErrInvalidTransition names the source and the requested target state.
func ErrInvalidTransition(from, to string) *Error {
	e := newError(KindInvalidTransition, i18n.KeyInvalidTransition, from, to)
	e.Details = map[string]interface{}{"from": from, "to": to}
	return e
}

func (e *Error) with(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// KindOf returns the kind of a service error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// roleForbidden rejects a caller whose role may not perform the action.
func roleForbidden(p access.Principal) *Error {
	return ErrForbidden(i18n.KeyAuthRoleForbidden, p.Role()).with("role", p.Role())
}
