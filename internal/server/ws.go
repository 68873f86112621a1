package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/entl/botdeck/internal/executor"
	"github.com/entl/botdeck/internal/session"
)

// WebSocket upgrader with permissive settings for local development.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-host web UI only; no cross-origin deployment
	},
}

// webSocketHandler streams per-command outcomes to the web UI while a
// batch executes, instead of making the page poll for queue state.
type webSocketHandler struct {
	svc *session.Service
}

func newWebSocketHandler(svc *session.Service) *webSocketHandler {
	return &webSocketHandler{svc: svc}
}

// wsMessage represents a client message.
type wsMessage struct {
	Type    string          `json:"type"`    // "execute", "ping"
	Payload json.RawMessage `json:"payload"` // message-specific payload
}

// wsResponse represents a server message.
type wsResponse struct {
	Type    string `json:"type"` // "outcome", "done", "error", "pong"
	Payload any    `json:"payload"`
}

// wsDonePayload closes out one streamed batch.
type wsDonePayload struct {
	SessionID string `json:"session_id"`
	BatchID   string `json:"batch_id"`
	Count     int    `json:"count"`
}

// wsErrorPayload represents an error payload.
type wsErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles the websocket upgrade and connection.
func (h *webSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}
	h.handleConnection(conn, sessionID(r))
}

func (h *webSocketHandler) handleConnection(conn *websocket.Conn, sessID string) {
	defer conn.Close()

	log.Printf("websocket: connection established from %s", conn.RemoteAddr())

	conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket: read error: %v", err)
			} else {
				log.Printf("websocket: connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		switch msg.Type {
		case "ping":
			h.send(conn, wsResponse{Type: "pong"})

		case "execute":
			// Executed inline so outcome writes stay serialized on this
			// connection; a second execute is rejected by the session lock
			// anyway. A connection without a session id is bound to the
			// session its first batch creates.
			if id := h.executeBatch(conn, sessID); id != "" {
				sessID = id
			}

		default:
			h.sendError(conn, "unknown_type", "unknown message type: "+msg.Type)
		}
	}
}

// executeBatch runs the session's pending batch, pushing each outcome as
// it is recorded. It returns the id of the session the batch ran against
// so the connection can stick to it.
func (h *webSocketHandler) executeBatch(conn *websocket.Conn, sessID string) string {
	observer := func(o executor.Outcome) {
		h.send(conn, wsResponse{Type: "outcome", Payload: o})
	}

	// The batch is scoped to the connection, not to one HTTP request.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, batchID, outcomes, err := h.svc.ExecuteBatch(ctx, sessID, observer)
	if err != nil {
		h.sendError(conn, "execute_failed", err.Error())
		if sess != nil {
			return sess.ID
		}
		return ""
	}

	h.send(conn, wsResponse{Type: "done", Payload: wsDonePayload{
		SessionID: sess.ID,
		BatchID:   batchID,
		Count:     len(outcomes),
	}})
	return sess.ID
}

func (h *webSocketHandler) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("websocket: write error: %v", err)
	}
}

func (h *webSocketHandler) sendError(conn *websocket.Conn, code, message string) {
	h.send(conn, wsResponse{Type: "error", Payload: wsErrorPayload{Code: code, Message: message}})
}
