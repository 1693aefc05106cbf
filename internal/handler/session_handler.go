package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

// SessionService is the part of service.ExamSessionService the handlers use.
type SessionService interface {
	StartSession(ctx context.Context, req model.StartSessionRequest) (*model.StartSessionResult, error)
	Apply(ctx context.Context, sessionID uuid.UUID, req model.ActionRequest) (*model.ActionOutcome, error)
	Snapshot(ctx context.Context, sessionID uuid.UUID) (*model.SessionView, error)
	Result(ctx context.Context, sessionID uuid.UUID) (*model.Result, error)
	Subscribe(sessionID uuid.UUID) (<-chan model.SessionView, func(), error)
}

// SessionHandler handles exam session endpoints.
type SessionHandler struct {
	sessions SessionService
	log      zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		log:      log.With().Str("component", "session_handler").Logger(),
	}
}

// StartSession godoc
// POST /api/v1/sessions
// Selects questions, starts the clock and returns the first question.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	started, err := h.sessions.StartSession(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, started)
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
// Returns the session state; used to resume after a page reload.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	view, err := h.sessions.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// ApplyAction godoc
// POST /api/v1/sessions/:session_id/actions
// Runs one action. A rejected action still returns the session state.
func (h *SessionHandler) ApplyAction(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req model.ActionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.sessions.Apply(c.Request.Context(), sessionID, req)
	if err != nil {
		f := classify(err)
		if f.status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Apply action failed")
		}
		response.FailWithData(c, f.status, f.code, f.fields, outcome)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// GetResult godoc
// GET /api/v1/sessions/:session_id/result
// Returns the graded result, from memory or from storage once evicted.
func (h *SessionHandler) GetResult(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	result, err := h.sessions.Result(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	f := classify(err)
	if f.status == http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	if f.fields != nil {
		response.FailWithFields(c, f.status, f.code, f.fields)
		return
	}
	response.Fail(c, f.status, f.code)
}

func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
