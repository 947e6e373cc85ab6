// Package errors defines the user-facing error type printed by the CLI.
//
// Packages below the CLI return plain wrapped errors; config, render and the
// commands attach a Code, a one-line summary and a hint at the boundary where
// the user can act on it.
package errors

import (
	"errors"
	"strings"
)

// Code groups user-facing errors by the subsystem that failed.
type Code string

const (
	ErrConfig Code = "CONFIG"
	ErrListen Code = "LISTEN"
	ErrAgent  Code = "AGENT"
	ErrRender Code = "RENDER"
)

// Error is printed as the summary, the underlying cause indented below it,
// then the hint:
//
//	✗ Can't listen on :7070
//
//	  listen tcp :7070: bind: address already in use
//
//	  Check that nothing else is using the port ...
type Error struct {
	Code       Code
	Message    string
	Suggestion string
	Cause      error
}

// New returns an Error with no cause.
func New(code Code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

// WrapWithCode attaches a summary and hint to err.
func WrapWithCode(err error, code Code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion, Cause: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("✗ ")
	b.WriteString(e.Message)
	b.WriteString("\n")
	for _, section := range []string{e.cause(), e.Suggestion} {
		if section == "" {
			continue
		}
		b.WriteString("\n  ")
		b.WriteString(section)
		b.WriteString("\n")
	}
	return b.String()
}

func (e *Error) cause() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err, or anything it wraps, is an *Error with code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
