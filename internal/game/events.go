package game

import (
	"encoding/json"

	"github.com/google/uuid"
)

// OutboundMessage is the envelope for every server-to-client message.
type OutboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Notification levels understood by the client toast component.
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notification is a user-visible toast sent to one or all connections.
type Notification struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Action is a player's reply to a prompt (a "resolve-prompt" message).
// Bet is a pointer so the room can tell an absent bet from a zero one.
type Action struct {
	Action string `json:"action"`
	Bet    *int   `json:"bet,omitempty"`
}

// SignalPayload carries an opaque peer-to-peer signaling blob between two
// sessions. The room relays it verbatim; the media transport is not its
// concern.
type SignalPayload struct {
	CallerID uuid.UUID       `json:"callerId"`
	TargetID uuid.UUID       `json:"targetId"`
	Signal   json.RawMessage `json:"signal"`
}

// PlayerLeft announces the permanent removal of a player after the
// reconnection grace period expires.
type PlayerLeft struct {
	SessionID uuid.UUID `json:"sessionId"`
}

// SendFunc delivers a message to a single session's connection.
// Deliveries to unknown or closed sessions are silently dropped.
type SendFunc func(sessionID uuid.UUID, msg OutboundMessage)

// BroadcastFunc delivers a message to every connected session.
type BroadcastFunc func(msg OutboundMessage)
