package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/validator"
	ws "github.com/stemsi/exstem-quiz/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a session over WebSocket: the client sends actions and
// receives their outcomes plus every state change (ticks, timeouts, other
// connections on the same session).
type WSHandler struct {
	sessions SessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
func (h *WSHandler) SessionStream(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	// Subscribe before upgrading so an unknown session gets a plain 404.
	updates, unsubscribe, err := h.sessions.Subscribe(sessionID)
	if err != nil {
		f := classify(err)
		response.Fail(c, f.status, f.code)
		return
	}
	defer unsubscribe()

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("session_id", sessionID.String()).
		Str("request_id", response.RequestID(c)).
		Logger()
	wsLog.Info().Msg("Client connected")

	done := make(chan struct{})
	defer close(done)
	go h.push(conn, updates, done, wsLog)

	for {
		var msg ws.RequestEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				conn.WriteError(string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if msg.Action == ws.ActionPing {
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			continue
		}
		h.handleAction(c, conn, wsLog, sessionID, msg)
	}
}

func (h *WSHandler) handleAction(c *gin.Context, conn *ws.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, msg ws.RequestEnvelope) {
	req := msg.ActionRequest()
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		conn.WriteTyped(ws.ErrorResponse{
			Event:  ws.EventError,
			Code:   string(response.ErrValidation),
			Error:  response.GetMessage(response.ErrValidation),
			Fields: validator.TranslateErrors(err),
		})
		return
	}

	outcome, err := h.sessions.Apply(c.Request.Context(), sessionID, req)
	if err != nil {
		f := classify(err)
		if f.status == http.StatusInternalServerError {
			wsLog.Error().Err(err).Str("action", string(req.Type)).Msg("Apply action failed")
		}
		conn.WriteTyped(ws.ErrorResponse{
			Event:  ws.EventError,
			Code:   string(f.code),
			Error:  response.GetMessage(f.code),
			Fields: f.fields,
			Data:   outcome,
		})
		return
	}

	conn.WriteTyped(ws.OutcomeResponse{Event: ws.EventOutcome, Data: outcome})
}

// push forwards session updates until the connection ends or the session is
// evicted.
func (h *WSHandler) push(conn *ws.Conn, updates <-chan model.SessionView, done <-chan struct{}, wsLog zerolog.Logger) {
	for {
		select {
		case <-done:
			return
		case view, ok := <-updates:
			if !ok {
				wsLog.Debug().Msg("Session evicted, closing stream")
				conn.Close()
				return
			}
			if err := conn.WriteTyped(ws.UpdateResponse{Event: ws.EventUpdate, Data: view}); err != nil {
				wsLog.Debug().Err(err).Msg("Push failed")
				return
			}
		}
	}
}
