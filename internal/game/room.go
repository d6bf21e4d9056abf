package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/domtes/chemmazz/internal/models"
	"github.com/domtes/chemmazz/internal/sevenhalf"
)

// SessionValidator resolves a login identity to a display name. Joins are
// refused when it errors; it is the room's only coupling to the login
// surface.
type SessionValidator func(ctx context.Context, identity uuid.UUID) (string, error)

// Config holds per-room tunables. The pause durations exist so tests can
// collapse the display delays.
type Config struct {
	MinimumBet     int
	ReconnectGrace time.Duration
	DiscardPause   time.Duration
	BustPause      time.Duration
	RoundPause     time.Duration
	DisplayPause   time.Duration
	BackgroundTick time.Duration
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		MinimumBet:     10,
		ReconnectGrace: 60 * time.Second,
		DiscardPause:   2 * time.Second,
		BustPause:      3 * time.Second,
		RoundPause:     3 * time.Second,
		DisplayPause:   5 * time.Second,
		BackgroundTick: 60 * time.Second,
	}
}

// Room is one game table: it owns the replicated RoomState, the deck, the
// prompt registry, and the game loop. All mutation happens under mu; the
// loop releases it at every suspension point (prompts, timed pauses, the
// admission gate) so commands and message routing interleave freely.
type Room struct {
	ID   uuid.UUID
	Name string

	cfg      Config
	logger   *logrus.Logger
	validate SessionValidator

	send      SendFunc
	broadcast BroadcastFunc

	mu          sync.Mutex
	state       *RoomState
	ruleset     sevenhalf.Ruleset
	deck        *sevenhalf.Deck
	shuffle     func(*sevenhalf.Deck) // test seam; defaults to (*Deck).Shuffle
	dealerIndex int
	pending     map[uuid.UUID]chan Action
	resumers    []chan struct{}
	listeners   map[string][]Listener
	grace       map[uuid.UUID]*time.Timer
	actionIndex int

	ctx    context.Context
	cancel context.CancelFunc
}

// Listener receives inbound messages whose tag has no built-in route.
type Listener func(sessionID uuid.UUID, payload json.RawMessage)

// NewRoom builds an idle room. Attach a transport with SetTransport before
// accepting joins.
func NewRoom(name string, logger *logrus.Logger, validate SessionValidator, cfg Config) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Room{
		ID:          uuid.New(),
		Name:        name,
		cfg:         cfg,
		logger:      logger,
		validate:    validate,
		send:        func(uuid.UUID, OutboundMessage) {},
		broadcast:   func(OutboundMessage) {},
		state:       newRoomState(cfg.MinimumBet),
		ruleset:     sevenhalf.DefaultRuleset(),
		shuffle:     (*sevenhalf.Deck).Shuffle,
		dealerIndex: -1,
		pending:     make(map[uuid.UUID]chan Action),
		listeners:   make(map[string][]Listener),
		grace:       make(map[uuid.UUID]*time.Timer),
		ctx:         ctx,
		cancel:      cancel,
	}
	r.reshuffleLocked()
	if cfg.BackgroundTick > 0 {
		go r.rotateBackground()
	}
	return r
}

// SetTransport wires the outbound side. Must be called before any join.
func (r *Room) SetTransport(send SendFunc, broadcast BroadcastFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send = send
	r.broadcast = broadcast
}

// Destroy cancels the room clock and every pending grace timer. The game
// loop, if suspended, wakes and exits.
func (r *Room) Destroy() {
	r.cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, t := range r.grace {
		t.Stop()
		delete(r.grace, sid)
	}
}

// Join authenticates an identity against the session validator and either
// reactivates the matching player record (reconnection) or creates a new
// one. The first player to join an empty room becomes its owner.
func (r *Room) Join(ctx context.Context, identity uuid.UUID) (uuid.UUID, error) {
	displayName, err := r.validate(ctx, identity)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session validation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.state.playerByIdentity(identity); p != nil {
		if t, ok := r.grace[p.SessionID]; ok {
			t.Stop()
			delete(r.grace, p.SessionID)
		}
		p.Connected = true
		r.logf("player %s (%s) reconnected", displayName, p.SessionID)
		r.syncStateLocked()
		return p.SessionID, nil
	}

	if len(r.state.Players) == 0 {
		r.state.RoomOwner = identity
	}
	p := &models.Player{
		ID:          identity,
		SessionID:   uuid.New(),
		DisplayName: displayName,
		IsOwner:     identity == r.state.RoomOwner,
		Connected:   true,
		Hand:        []models.HandCard{},
	}
	r.state.Players[p.SessionID] = p
	r.logf("player %s (%s) joined", displayName, p.SessionID)
	r.logAction(p.SessionID, "player_join", nil)
	r.syncStateLocked()
	return p.SessionID, nil
}

// HandleDisconnect marks the player disconnected and arms the grace timer.
// The record survives until the timer fires; a rejoin within the window
// disarms it.
func (r *Room) HandleDisconnect(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Players[sessionID]
	if !ok {
		return
	}
	p.Connected = false
	r.logf("player %s (%s) disconnected, grace %s", p.DisplayName, sessionID, r.cfg.ReconnectGrace)
	r.syncStateLocked()

	if t, ok := r.grace[sessionID]; ok {
		t.Stop()
	}
	r.grace[sessionID] = time.AfterFunc(r.cfg.ReconnectGrace, func() {
		r.expireGrace(sessionID)
	})
}

// expireGrace removes a player whose grace period lapsed without a rejoin
// and broadcasts the departure so peers can tear down side channels.
func (r *Room) expireGrace(sessionID uuid.UUID) {
	if r.ctx.Err() != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grace, sessionID)
	p, ok := r.state.Players[sessionID]
	if !ok || p.Connected {
		return
	}
	delete(r.state.Players, sessionID)
	r.logf("player %s (%s) removed after grace period", p.DisplayName, sessionID)
	r.logAction(sessionID, "player_left", nil)
	r.broadcast(OutboundMessage{Type: "player-left", Payload: PlayerLeft{SessionID: sessionID}})
	r.syncStateLocked()
}

// On registers a listener for an inbound tag with no built-in route.
func (r *Room) On(tag string, fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[tag] = append(r.listeners[tag], fn)
}

// Emit dispatches an unrecognized inbound message to its tag listeners.
func (r *Room) Emit(tag string, sessionID uuid.UUID, payload json.RawMessage) {
	r.mu.Lock()
	fns := append([]Listener(nil), r.listeners[tag]...)
	r.mu.Unlock()
	if len(fns) == 0 {
		r.logf("no listener for inbound tag %q from %s", tag, sessionID)
		return
	}
	for _, fn := range fns {
		fn(sessionID, payload)
	}
}

// RelaySignal forwards a peer-to-peer signaling blob to its target
// session, verbatim. Unknown commands are dropped.
func (r *Room) RelaySignal(sessionID uuid.UUID, command string, payload SignalPayload) {
	var outTag string
	switch command {
	case "call-player":
		outTag = "incoming-call"
	case "answer-call":
		outTag = "answer-call"
	default:
		r.logf("unknown webrtc command %q from %s", command, sessionID)
		return
	}
	r.mu.Lock()
	_, known := r.state.Players[payload.TargetID]
	r.mu.Unlock()
	if !known {
		r.logf("webrtc relay target %s not in room", payload.TargetID)
		return
	}
	r.send(payload.TargetID, OutboundMessage{Type: outTag, Payload: payload})
}

// rotateBackground cycles the table background for all clients on the
// room clock.
func (r *Room) rotateBackground() {
	ticker := time.NewTicker(r.cfg.BackgroundTick)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			r.state.BackgroundIndex = 1 + (r.state.BackgroundIndex+1)%5
			r.syncStateLocked()
			r.mu.Unlock()
		}
	}
}

// --- helpers below assume r.mu is held ---

// syncStateLocked pushes a freshly projected snapshot to every connected
// player. Replication is full-state per mutation step; the per-viewer
// filtering happens in ViewFor.
func (r *Room) syncStateLocked() {
	for sid, p := range r.state.Players {
		if !p.Connected {
			continue
		}
		r.send(sid, OutboundMessage{Type: "state", Payload: ViewFor(r.state, sid)})
	}
}

func (r *Room) notifyAllLocked(typ, text string) {
	r.broadcast(OutboundMessage{Type: "notification", Payload: Notification{Type: typ, Text: text}})
}

func (r *Room) notifyPlayerLocked(sessionID uuid.UUID, typ, text string) {
	r.send(sessionID, OutboundMessage{Type: "notification", Payload: Notification{Type: typ, Text: text}})
}

// seatedPlayersLocked returns players in the current hand, in seat order.
func (r *Room) seatedPlayersLocked() []*models.Player {
	var seated []*models.Player
	for _, p := range r.state.Players {
		if p.Playing {
			seated = append(seated, p)
		}
	}
	for i := 1; i < len(seated); i++ {
		for j := i; j > 0 && seated[j-1].Seat > seated[j].Seat; j-- {
			seated[j-1], seated[j] = seated[j], seated[j-1]
		}
	}
	return seated
}

// nextAvailableSeatLocked returns max(existing seats, 0) + 1.
func (r *Room) nextAvailableSeatLocked() int {
	max := 0
	for _, p := range r.seatedPlayersLocked() {
		if p.Seat > max {
			max = p.Seat
		}
	}
	return max + 1
}

// seatPlayerLocked admits a player at the next free seat.
func (r *Room) seatPlayerLocked(p *models.Player) {
	p.Seat = r.nextAvailableSeatLocked()
	p.Playing = true
	p.EnteringNextTurn = false
	r.logf("assigned seat %d to %s", p.Seat, p.DisplayName)
}

// advanceDealerLocked moves the dealer to the next seated player. The
// rotation index is kept modulo the current seated count so a departed
// dealer cannot corrupt the cycle.
func (r *Room) advanceDealerLocked() *models.Player {
	seated := r.seatedPlayersLocked()
	r.dealerIndex = (r.dealerIndex + 1) % len(seated)
	dealer := seated[r.dealerIndex]
	for _, p := range r.state.Players {
		p.IsDealer = p.SessionID == dealer.SessionID
	}
	r.state.Dealer = dealer.SessionID
	return dealer
}

// nextChallenger yields seated players cyclically starting from the dealer
// itself (prev starts at -1). It is recomputed on demand so seat-list
// mutations between turns cannot strand a stale iterator.
func nextChallenger(seated []*models.Player, dealer uuid.UUID, prev int) (*models.Player, int) {
	dealerIdx := 0
	for i, p := range seated {
		if p.SessionID == dealer {
			dealerIdx = i
			break
		}
	}
	next := prev + 1
	return seated[(dealerIdx+next)%len(seated)], next
}

func (r *Room) logf(format string, args ...interface{}) {
	r.logger.WithFields(logrus.Fields{"room": r.ID, "name": r.Name}).Infof(format, args...)
}

func (r *Room) errorf(format string, args ...interface{}) {
	r.logger.WithFields(logrus.Fields{"room": r.ID, "name": r.Name}).Errorf(format, args...)
}
