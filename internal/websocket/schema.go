package websocket

import "github.com/crisphq/crisp-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionPing   Action = "ping"
)

// RequestPayload carries every inbound message; Action determines which
// fields are meaningful.
type RequestPayload struct {
	Action Action `json:"action"`
	Text   string `json:"text,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventQuestion      Event = "question"
	EventTick          Event = "tick"
	EventExpired       Event = "expired"
	EventAwaitingScore Event = "awaiting_score"
	EventCompleted     Event = "completed"
	EventReset         Event = "reset"
	EventAccepted      Event = "accepted"
	EventError         Event = "error"
	EventPong          Event = "pong"
)

// StreamResponse is the server-to-client frame for session stream events.
type StreamResponse struct {
	Event     Event           `json:"event"`
	Question  *model.Question `json:"question,omitempty"`
	Remaining int             `json:"remaining_seconds"`
	Answered  int             `json:"answered"`
	Score     *model.Score    `json:"score,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// ErrorResponse reports a failure on the socket without closing it.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// PongResponse answers a client keepalive ping.
type PongResponse struct {
	Event Event `json:"event"`
}
