package engine

import (
	"errors"
	"fmt"
)

// Code identifies the kind of an engine error.
type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeInsufficientQuestions Code = "INSUFFICIENT_QUESTIONS"
	CodeIllegalState          Code = "ILLEGAL_STATE"
	CodeNoSuchQuestion        Code = "NO_SUCH_QUESTION"
	CodeReviewNotAllowed      Code = "REVIEW_NOT_ALLOWED"
	// CodeAtBoundary marks a navigation no-op, not a failure.
	CodeAtBoundary Code = "AT_BOUNDARY"
)

// Error is returned by every rejected engine operation. The session is left
// untouched when an Error is returned.
type Error struct {
	Code    Code
	Op      string
	Message string
	// Fields carries per-field validation messages for CodeValidation.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

// Is matches any *Error with the same code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrValidation            = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrInsufficientQuestions = &Error{Code: CodeInsufficientQuestions, Message: "not enough questions"}
	ErrIllegalState          = &Error{Code: CodeIllegalState, Message: "operation not allowed in current state"}
	ErrNoSuchQuestion        = &Error{Code: CodeNoSuchQuestion, Message: "question index out of range"}
	ErrReviewNotAllowed      = &Error{Code: CodeReviewNotAllowed, Message: "review is disabled for this question"}
	ErrAtBoundary            = &Error{Code: CodeAtBoundary, Message: "no question in that direction"}
)

// CodeOf extracts the engine code from err.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsBoundary reports whether err is the non-failing AtBoundary signal.
func IsBoundary(err error) bool {
	return errors.Is(err, ErrAtBoundary)
}

func newError(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}
