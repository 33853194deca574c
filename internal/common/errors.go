// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Configuration errors.
	ErrConfigMissing = errors.New("no settings file found")

	// Lookup errors.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// Migration errors.
	ErrMigrationConflict = errors.New("migration target already exists with different content")
)

// ParseError reports malformed rule, view, or settings content with file and
// line context. Parse failures are fatal for the run.
type ParseError struct {
	File string
	Msg  string
	Line int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// NewParseError creates a ParseError for the given file location.
func NewParseError(file string, line int, format string, args ...any) error {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// UserError represents an error that should be shown to the user, with an
// actionable message in front of the underlying cause.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
