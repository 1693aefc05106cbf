package websocket

import "github.com/stemsi/exstem-quiz/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

// ActionPing is answered with a pong and never reaches the session.
const ActionPing model.ActionType = "ping"

// RequestEnvelope carries one session action, or a ping.
type RequestEnvelope struct {
	Action model.ActionType `json:"action"`
	Index  *int             `json:"index,omitempty"`
	Option *int             `json:"option,omitempty"`
}

// ActionRequest converts the envelope into a session action.
func (r RequestEnvelope) ActionRequest() model.ActionRequest {
	return model.ActionRequest{Type: r.Action, Index: r.Index, Option: r.Option}
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	// EventOutcome answers an action sent on this connection.
	EventOutcome Event = "outcome"
	// EventUpdate pushes a state change, including ticks and other clients.
	EventUpdate Event = "update"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

type OutcomeResponse struct {
	Event Event                `json:"event"`
	Data  *model.ActionOutcome `json:"data"`
}

type UpdateResponse struct {
	Event Event             `json:"event"`
	Data  model.SessionView `json:"data"`
}

type ErrorResponse struct {
	Event  Event             `json:"event"`
	Code   string            `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	// Data is the session state when the action was rejected by the session.
	Data *model.ActionOutcome `json:"data,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
