// Package handlers exposes the HTTP and WebSocket surface: login, room
// creation, and the per-room socket that carries game state and prompts.
package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/domtes/chemmazz/internal/game"
)

// Server owns the room registry, the user store, and one hub per room.
type Server struct {
	Logger *logrus.Logger
	Rooms  *game.RoomStore
	Users  UserStore

	mu   sync.Mutex
	hubs map[uuid.UUID]*roomHub
}

func NewServer(logger *logrus.Logger, users UserStore) *Server {
	return &Server{
		Logger: logger,
		Rooms:  game.NewRoomStore(),
		Users:  users,
		hubs:   make(map[uuid.UUID]*roomHub),
	}
}

// CreateRoom builds a room wired to a fresh hub and registers both.
func (s *Server) CreateRoom(name string, cfg game.Config) *game.Room {
	room := game.NewRoom(name, s.Logger, s.validateSession, cfg)
	hub := newRoomHub(s.Logger)
	room.SetTransport(hub.send, hub.broadcast)

	s.mu.Lock()
	s.hubs[room.ID] = hub
	s.mu.Unlock()
	s.Rooms.AddRoom(room)
	return room
}

// DeleteRoom tears down the room and its hub.
func (s *Server) DeleteRoom(id uuid.UUID) {
	s.Rooms.DeleteRoom(id)
	s.mu.Lock()
	delete(s.hubs, id)
	s.mu.Unlock()
}

func (s *Server) hubFor(roomID uuid.UUID) (*roomHub, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hubs[roomID]
	return h, ok
}

// validateSession is the game.SessionValidator: it resolves a login
// identity to the display name shown at the table.
func (s *Server) validateSession(ctx context.Context, identity uuid.UUID) (string, error) {
	u, err := s.Users.ByID(ctx, identity)
	if err != nil {
		return "", err
	}
	return u.DisplayName, nil
}

// roomHub fans room output out to the connected sockets. Sends are
// non-blocking: the room loop runs under its lock and must never stall on
// a slow client, so a full outbound queue drops the frame and the next
// state snapshot supersedes it.
type roomHub struct {
	logger  *logrus.Logger
	mu      sync.Mutex
	clients map[uuid.UUID]*roomClient
}

type roomClient struct {
	sessionID uuid.UUID
	outChan   chan []byte
	cancel    context.CancelFunc
}

func newRoomHub(logger *logrus.Logger) *roomHub {
	return &roomHub{
		logger:  logger,
		clients: make(map[uuid.UUID]*roomClient),
	}
}

// add registers a client for a session, displacing any previous socket
// for the same session (a reconnect racing the old connection's close).
func (h *roomHub) add(c *roomClient) {
	h.mu.Lock()
	old, ok := h.clients[c.sessionID]
	h.clients[c.sessionID] = c
	h.mu.Unlock()
	if ok {
		old.cancel()
	}
}

// remove unregisters a client unless a newer socket already took over.
func (h *roomHub) remove(c *roomClient) {
	h.mu.Lock()
	if h.clients[c.sessionID] == c {
		delete(h.clients, c.sessionID)
	}
	h.mu.Unlock()
}

func (h *roomHub) send(sessionID uuid.UUID, msg game.OutboundMessage) {
	h.mu.Lock()
	c, ok := h.clients[sessionID]
	h.mu.Unlock()
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Errorf("failed to marshal outbound %q message: %v", msg.Type, err)
		return
	}
	h.push(c, data, msg.Type)
}

func (h *roomHub) broadcast(msg game.OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Errorf("failed to marshal broadcast %q message: %v", msg.Type, err)
		return
	}
	h.mu.Lock()
	clients := make([]*roomClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.push(c, data, msg.Type)
	}
}

func (h *roomHub) push(c *roomClient, data []byte, msgType string) {
	select {
	case c.outChan <- data:
	default:
		h.logger.Warnf("outbound queue full for session %s, dropping %q message", c.sessionID, msgType)
	}
}
