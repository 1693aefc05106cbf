package handler

import (
	"errors"
	"net/http"

	"github.com/stemsi/exstem-quiz/internal/engine"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
)

// failure is an error mapped onto the API error vocabulary.
type failure struct {
	status int
	code   response.ErrCode
	fields map[string]string
}

// classify maps service and engine errors to an HTTP status and error code.
// Anything unrecognized is an internal error.
func classify(err error) failure {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return failure{status: http.StatusNotFound, code: response.ErrSessionNotFound}
	case errors.Is(err, service.ErrResultNotFound):
		return failure{status: http.StatusNotFound, code: response.ErrResultNotFound}
	case errors.Is(err, service.ErrSessionAlreadyActive):
		return failure{status: http.StatusConflict, code: response.ErrSessionActive}
	case errors.Is(err, service.ErrInvalidAction):
		return failure{status: http.StatusBadRequest, code: response.ErrInvalidAction}
	}

	var ee *engine.Error
	if !errors.As(err, &ee) {
		return failure{status: http.StatusInternalServerError, code: response.ErrInternal}
	}
	switch ee.Code {
	case engine.CodeValidation:
		return failure{status: http.StatusBadRequest, code: response.ErrValidation, fields: ee.Fields}
	case engine.CodeInsufficientQuestions:
		return failure{status: http.StatusUnprocessableEntity, code: response.ErrInsufficientQuestions}
	case engine.CodeNoSuchQuestion:
		return failure{status: http.StatusBadRequest, code: response.ErrNoSuchQuestion}
	case engine.CodeReviewNotAllowed:
		return failure{status: http.StatusForbidden, code: response.ErrReviewNotAllowed}
	case engine.CodeIllegalState:
		return failure{status: http.StatusConflict, code: response.ErrIllegalState}
	}
	return failure{status: http.StatusInternalServerError, code: response.ErrInternal}
}
