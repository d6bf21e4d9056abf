package models

import "github.com/google/uuid"

// Player is a room participant. ID is the login identity (stable across
// reconnects); SessionID keys the player inside a single room.
type Player struct {
	ID               uuid.UUID  `json:"id"`
	SessionID        uuid.UUID  `json:"sessionId"`
	DisplayName      string     `json:"displayName"`
	IsOwner          bool       `json:"owner"`
	Stash            int        `json:"stash"`
	Bet              int        `json:"bet"`
	Connected        bool       `json:"connected"`
	Playing          bool       `json:"playing"`
	EnteringNextTurn bool       `json:"enteringNextTurn"`
	Seat             int        `json:"seat"`
	IsDealer         bool       `json:"dealer"`
	Hand             []HandCard `json:"hand"`
	Prompt           Prompt     `json:"prompt"`

	// Score is replicated only to the player's own connection.
	Score float64 `json:"score"`
}
