package model

// ActionType is the closed set of operations a client can apply to a session.
type ActionType string

const (
	ActionNext            ActionType = "next"
	ActionPrevious        ActionType = "previous"
	ActionGoTo            ActionType = "goto"
	ActionFirstUnanswered ActionType = "first_unanswered"
	ActionFirstMarked     ActionType = "first_marked"
	ActionAnswer          ActionType = "answer"
	ActionClear           ActionType = "clear"
	ActionMark            ActionType = "mark"
	ActionUnmark          ActionType = "unmark"
	ActionPause           ActionType = "pause"
	ActionResume          ActionType = "resume"
	ActionSubmit          ActionType = "submit"
	ActionCancel          ActionType = "cancel"
	ActionUndo            ActionType = "undo"
	ActionRedo            ActionType = "redo"
	ActionState           ActionType = "state"
)

// ActionRequest is one client action. Index is required for goto, Option
// (display numbering) for answer.
type ActionRequest struct {
	Type   ActionType `json:"type" binding:"required,oneof=next previous goto first_unanswered first_marked answer clear mark unmark pause resume submit cancel undo redo state"`
	Index  *int       `json:"index,omitempty" binding:"omitempty,gte=0"`
	Option *int       `json:"option,omitempty" binding:"omitempty,gte=0,lte=3"`
}

// ActionOutcome is the session state after an action.
type ActionOutcome struct {
	Snapshot SessionSnapshot `json:"snapshot"`
	// AtBoundary is set when a navigation or history action had nowhere to go.
	AtBoundary bool    `json:"at_boundary,omitempty"`
	Result     *Result `json:"result,omitempty"`
}

// StartSessionResult describes a freshly started session.
type StartSessionResult struct {
	Snapshot  SessionSnapshot `json:"snapshot"`
	Requested int             `json:"requested_questions"`
	Actual    int             `json:"actual_questions"`
}

// SessionView is a session's current state plus its result once graded.
type SessionView struct {
	Snapshot SessionSnapshot `json:"snapshot"`
	Result   *Result         `json:"result,omitempty"`
}
