package websocket

import (
	"github.com/intervia/intervia-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStage  Action = "stage"
	ActionSubmit Action = "submit"
	ActionState  Action = "state"
	ActionPing   Action = "ping"
)

// RequestPayload is the superset message the stream loop reads; stage and
// submit share the same fields.
type RequestPayload struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
	Text   string `json:"text"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventState     Event = "state"
	EventAdvanced  Event = "advanced"
	EventCompleted Event = "completed"
	EventPong      Event = "pong"
)

// StateResponse mirrors the controller view after a tick or stage.
type StateResponse struct {
	Event            Event           `json:"event"`
	State            string          `json:"state"`
	Index            int             `json:"index"`
	Question         *model.Question `json:"question,omitempty"`
	RemainingSeconds int             `json:"remaining_seconds"`
}

// AdvancedResponse is sent after a submit or auto-submit moves the session
// to the next question.
type AdvancedResponse struct {
	Event            Event           `json:"event"`
	State            string          `json:"state"`
	Index            int             `json:"index"`
	Question         *model.Question `json:"question,omitempty"`
	RemainingSeconds int             `json:"remaining_seconds"`
	AutoSubmitted    bool            `json:"auto_submitted"`
}

// CompletedResponse carries the scored result once the session finishes.
type CompletedResponse struct {
	Event       Event    `json:"event"`
	Score       *float64 `json:"score,omitempty"`
	ScoreSource string   `json:"score_source,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
