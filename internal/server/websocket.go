package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"demoapps/internal/game"
	"demoapps/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	PlayerID string `json:"playerId"`
}

type actionPayload struct {
	Action game.Action `json:"action"`
}

type statePayload struct {
	State        any                 `json:"state"`
	ValidActions []game.Action       `json:"validActions"`
	SessionInfo  session.Info        `json:"sessionInfo"`
	Results      []game.PlayerResult `json:"results,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	// The server's write timeout would otherwise cut long-lived sockets.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		s.log.Warn("websocket accept", zap.String("code", code), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil || join.PlayerID == "" {
		sendWSError(ctx, conn, "invalid join payload")
		return
	}

	playerID := join.PlayerID
	send := make(chan []byte, 64)

	// Try to reconnect existing player, or add new one
	if !sess.ConnectPlayer(playerID, send) {
		if err := s.manager.Join(ctx, sess, playerID); err != nil {
			sendWSError(ctx, conn, err.Error())
			return
		}
		sess.ConnectPlayer(playerID, send)
	}
	log := s.log.With(zap.String("code", code), zap.String("player", playerID))
	log.Debug("player connected")

	// Notify all players about the roster change
	s.broadcastState(sess)

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-send:
				if !ok {
					return
				}
				if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(ctx, sess, playerID, send, msg)
	}

	// Player disconnected; keep the seat for a reconnect.
	log.Debug("player disconnected")
}

func (s *Server) handleMessage(ctx context.Context, sess *session.Session, playerID string, send chan []byte, msg WSMessage) {
	switch msg.Type {
	case "action":
		var ap actionPayload
		if err := json.Unmarshal(msg.Payload, &ap); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: "invalid action payload"})
			return
		}
		if err := s.manager.Apply(ctx, sess, playerID, ap.Action); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: err.Error()})
			return
		}
		s.broadcastState(sess)

	case "start":
		if sess.Info().HostID != playerID {
			sendWSMsg(send, "error", errorPayload{Message: "only the host can start"})
			return
		}
		if err := s.manager.Start(ctx, sess); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: err.Error()})
			return
		}
		s.broadcastState(sess)

	default:
		sendWSMsg(send, "error", errorPayload{Message: "unknown message type: " + msg.Type})
	}
}

// broadcastState sends every player their own view of the match.
func (s *Server) broadcastState(sess *session.Session) {
	sess.RLock()
	defer sess.RUnlock()
	info := sess.InfoLocked()
	match := sess.Match

	for _, pid := range info.Players {
		p := sess.Players[pid]
		if p == nil {
			continue
		}
		sp := statePayload{SessionInfo: info}
		if match != nil && info.Status != session.StatusWaiting {
			sp.State = match.State(pid)
			sp.ValidActions = match.ValidActions(pid)
			if match.IsOver() {
				sp.Results = match.Results()
			}
		}
		if err := sendWSMsg(p.Send, "state", sp); err != nil {
			s.log.Error("encode state", zap.String("code", info.Code), zap.Error(err))
		}
	}
}

// sendWSMsg queues a message without blocking. A payload that cannot be
// encoded is not sent at all.
func sendWSMsg(send chan []byte, msgType string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(WSMessage{Type: msgType, Payload: p})
	if err != nil {
		return err
	}
	select {
	case send <- msg:
	default:
	}
	return nil
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	p, _ := json.Marshal(errorPayload{Message: message})
	msg, _ := json.Marshal(WSMessage{Type: "error", Payload: p})
	conn.Write(ctx, websocket.MessageText, msg)
}
