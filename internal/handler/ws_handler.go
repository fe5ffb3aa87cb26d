package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/intervia/intervia-backend/internal/interview"
	"github.com/intervia/intervia-backend/internal/middleware"
	"github.com/rs/zerolog"

	ws "github.com/intervia/intervia-backend/internal/websocket"
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

// WSHandler handles the WebSocket interview stream: incremental transcript
// staging and submits, with state pushed back after each action.
type WSHandler struct {
	manager  *interview.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *interview.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// InterviewStream godoc
// WS /ws/v1/interview/stream?token=...
// Upgrades to WebSocket for transcript staging and answer submission.
func (h *WSHandler) InterviewStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctrl := h.manager.Get(claims.CandidateID)
	if ctrl == nil {
		ws.WriteError(conn, "no active interview session")
		return
	}

	wsLog := h.log.With().
		Str("candidate_id", claims.CandidateID.String()).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	// Initial state so the client can render the question and countdown.
	h.writeState(conn, ctrl, ws.EventState, false)

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
		case ws.ActionStage:
			h.handleStage(conn, ctrl, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(conn, ctrl, &msg)
		case ws.ActionState:
			// Resync query: the timer may have auto-advanced or completed the
			// session between client messages.
			h.writeState(conn, ctrl, ws.EventState, false)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			ws.WriteError(conn, "unknown action")
		}

		if ctrl.Snapshot().State.Terminal() {
			break
		}
	}
}

// handleStage buffers partial transcript or typed draft text. The index
// guards against partials for a question the timer has already closed.
func (h *WSHandler) handleStage(conn *websocket.Conn, ctrl *interview.Controller, msg *ws.RequestPayload) {
	view := ctrl.Snapshot()
	if view.Session == nil || msg.Index != view.Session.CurrentIndex {
		// The timer closed this question already. Push the current state
		// after the error so the client can move to the live question.
		ws.WriteError(conn, "stale question index")
		h.writeState(conn, ctrl, ws.EventState, false)
		return
	}

	if err := ctrl.StageText(msg.Text); err != nil {
		ws.WriteError(conn, "session is not accepting answers")
		return
	}

	h.writeState(conn, ctrl, ws.EventState, false)
}

// handleSubmit finalizes the current answer and pushes either the next
// question or the completed result.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, ctrl *interview.Controller, msg *ws.RequestPayload) {
	err := ctrl.Submit(context.Background(), msg.Index, msg.Text)
	if err != nil {
		if errors.Is(err, interview.ErrInvalidState) {
			ws.WriteError(conn, "submit rejected: stale index or session not accepting answers")
			return
		}
		ws.WriteError(conn, "submit failed")
		return
	}

	h.writeState(conn, ctrl, ws.EventAdvanced, false)
}

// writeState pushes the current controller view. Terminal sessions get the
// completed event with the score attached.
func (h *WSHandler) writeState(conn *websocket.Conn, ctrl *interview.Controller, event ws.Event, autoSubmitted bool) {
	view := ctrl.Snapshot()

	if view.State == interview.StateComplete && view.Session != nil {
		ws.WriteTyped(conn, ws.CompletedResponse{
			Event:       ws.EventCompleted,
			Score:       view.Session.FinalScore,
			ScoreSource: string(view.Session.ScoreSource),
			Summary:     view.Session.ScoringSummary,
		})
		return
	}

	index := 0
	if view.Session != nil {
		index = view.Session.CurrentIndex
	}

	if event == ws.EventAdvanced {
		ws.WriteTyped(conn, ws.AdvancedResponse{
			Event:            event,
			State:            string(view.State),
			Index:            index,
			Question:         view.CurrentQuestion,
			RemainingSeconds: view.RemainingSeconds,
			AutoSubmitted:    autoSubmitted,
		})
		return
	}

	ws.WriteTyped(conn, ws.StateResponse{
		Event:            event,
		State:            string(view.State),
		Index:            index,
		Question:         view.CurrentQuestion,
		RemainingSeconds: view.RemainingSeconds,
	})
}
