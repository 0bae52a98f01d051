package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/crisphq/crisp-backend/internal/engine"
	"github.com/crisphq/crisp-backend/internal/service"
	ws "github.com/crisphq/crisp-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams live interview session events over WebSocket.
type WSHandler struct {
	interviewService *service.InterviewService
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(interviewService *service.InterviewService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		interviewService: interviewService,
		log:              log.With().Str("component", "ws_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// InterviewStream godoc
// WS /ws/v1/candidates/:candidate_id/interview/stream
// Pushes countdown ticks, question transitions and the final score as they
// happen; accepts answer submissions on the same socket.
func (h *WSHandler) InterviewStream(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("candidate_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel, err := h.interviewService.Subscribe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDecisionRequired) {
			ws.WriteError(conn, "resume decision required before streaming")
		} else {
			ws.WriteError(conn, "could not open session stream")
		}
		return
	}
	defer cancel()

	wsLog := h.log.With().Int("candidate_id", id).Logger()
	wsLog.Info().Msg("Candidate connected")

	// Writer goroutine: forwards session events until the subscription or
	// the socket dies. The read loop below owns the connection lifetime.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if err := ws.WriteTyped(conn, streamFrame(ev)); err != nil {
				wsLog.Debug().Err(err).Msg("Stream write failed")
				return
			}
		}
	}()

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAnswer:
			st, err := h.interviewService.Answer(c.Request.Context(), id, msg.Text)
			if err != nil {
				ws.WriteError(conn, err.Error())
				continue
			}
			ws.WriteTyped(conn, ws.StreamResponse{
				Event:    ws.EventAccepted,
				Answered: st.AnsweredCount(),
			})
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			ws.WriteError(conn, "unknown action")
		}
	}

	cancel()
	<-done
	wsLog.Info().Msg("Candidate disconnected")
}

// streamFrame converts an engine stream event into its wire representation.
func streamFrame(ev engine.StreamEvent) ws.StreamResponse {
	return ws.StreamResponse{
		Event:     ws.Event(ev.Type),
		Question:  ev.Question,
		Remaining: ev.Remaining,
		Answered:  ev.Answered,
		Score:     ev.Score,
		Message:   ev.Message,
	}
}
