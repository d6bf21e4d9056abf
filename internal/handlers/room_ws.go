package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/domtes/chemmazz/internal/game"
	"github.com/domtes/chemmazz/internal/middleware"
)

// inboundMessage is the envelope for every client-to-server frame. The
// fields beyond Type are populated per message kind.
type inboundMessage struct {
	Type string `json:"type"`

	// resolve-prompt
	Action string `json:"action,omitempty"`
	Bet    *int   `json:"bet,omitempty"`

	// admin, webrtc
	Command   string    `json:"command,omitempty"`
	SessionID uuid.UUID `json:"sessionId,omitempty"`
	Amount    int       `json:"amount,omitempty"`

	// webrtc signaling, flattened form
	TargetID uuid.UUID       `json:"targetId,omitempty"`
	Signal   json.RawMessage `json:"signal,omitempty"`

	// webrtc signaling, enveloped form
	Payload *signalEnvelope `json:"payload,omitempty"`
}

// signalEnvelope is the nested payload of a "webrtc" frame.
type signalEnvelope struct {
	CallerID uuid.UUID       `json:"callerId"`
	TargetID uuid.UUID       `json:"targetId"`
	Signal   json.RawMessage `json:"signal"`
}

// RoomWSHandler upgrades the connection for a room at /room/ws/{room_id},
// authenticates the auth_token cookie, joins the player into the room and
// then pumps messages until the socket closes. On close the player enters
// the reconnection grace period rather than leaving immediately.
func RoomWSHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing room_id in path (/room/ws/{room_id})", http.StatusBadRequest)
			return
		}
		roomID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "invalid room_id format", http.StatusBadRequest)
			return
		}

		room, ok := s.Rooms.GetRoom(roomID)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		hub, ok := s.hubFor(roomID)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // tighten for production
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error for room %s: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "client must speak the game subprotocol")
			return
		}

		identity, err := authenticateRequest(r)
		if err != nil {
			s.Logger.Warnf("authentication failed for room %s: %v", roomID, err)
			c.Close(InvalidAuthTokenError, "authentication failed")
			return
		}

		sessionID, err := room.Join(r.Context(), identity)
		if err != nil {
			s.Logger.Warnf("join refused for %s in room %s: %v", identity, roomID, err)
			c.Close(websocket.StatusPolicyViolation, "join refused")
			return
		}
		middleware.LogWebSocketConnect(s.Logger, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		client := &roomClient{
			sessionID: sessionID,
			outChan:   make(chan []byte, 32),
			cancel:    cancel,
		}
		hub.add(client)

		// Tell the client its own session id before any state lands.
		welcome, _ := json.Marshal(game.OutboundMessage{
			Type:    "welcome",
			Payload: map[string]string{"sessionId": sessionID.String()},
		})
		client.outChan <- welcome

		go writePump(ctx, c, client, s.Logger)
		readErr := readPump(ctx, c, room, sessionID, s.Logger)

		hub.remove(client)
		room.HandleDisconnect(sessionID)
		middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, r.URL.Path, readErr)
	}
}

// readPump reads frames until the socket dies and routes them into the
// room. Routing never blocks on the game loop: prompt replies land in a
// buffered channel and everything else runs synchronously under the room
// lock, which the loop releases at every suspension point.
func readPump(ctx context.Context, c *websocket.Conn, room *game.Room, sessionID uuid.UUID, logger *logrus.Logger) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text frame from session %s", sessionID)
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid json from session %s: %v", sessionID, err)
			continue
		}
		dispatchInbound(room, sessionID, msg, data, logger)
	}
}

// dispatchInbound routes one decoded frame into the room.
func dispatchInbound(room *game.Room, sessionID uuid.UUID, msg inboundMessage, raw []byte, logger *logrus.Logger) {
	switch msg.Type {
	case "resolve-prompt":
		room.ResolvePrompt(sessionID, game.Action{Action: msg.Action, Bet: msg.Bet})
	case "resume-game":
		room.ResumeGame(sessionID)
	case "admin":
		room.DispatchAdmin(sessionID, game.AdminMessage{
			Command:   msg.Command,
			SessionID: msg.SessionID,
			Amount:    msg.Amount,
		})
	case "webrtc":
		// Signaling command and addressing arrive nested under payload.
		// The caller id is taken from the socket, never from the client.
		if msg.Payload == nil {
			logger.Warnf("webrtc frame without payload from session %s", sessionID)
			return
		}
		room.RelaySignal(sessionID, msg.Command, game.SignalPayload{
			CallerID: sessionID,
			TargetID: msg.Payload.TargetID,
			Signal:   msg.Payload.Signal,
		})
	case "call-player", "answer-call":
		// Flattened shorthand for the same relay.
		room.RelaySignal(sessionID, msg.Type, game.SignalPayload{
			CallerID: sessionID,
			TargetID: msg.TargetID,
			Signal:   msg.Signal,
		})
	case "ping":
		// Application-level keepalive; transport pings live in writePump.
	default:
		room.Emit(msg.Type, sessionID, raw)
	}
}

// writePump drains the client's outbound queue onto the socket and keeps
// the connection alive with periodic pings. Any write or ping failure
// ends the pump; the read side notices the closure and cleans up.
func writePump(ctx context.Context, c *websocket.Conn, client *roomClient, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-client.outChan:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("write failed for session %s: %v", client.sessionID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed for session %s, assuming disconnect: %v", client.sessionID, err)
				return
			}
		}
	}
}
