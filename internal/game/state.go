package game

import (
	"github.com/google/uuid"

	"github.com/domtes/chemmazz/internal/models"
)

// RoomState is the single authoritative aggregate for a room. It is owned
// by the Room and mutated only by the game loop and the command layer,
// always under the room lock.
type RoomState struct {
	Running         bool
	Paused          bool
	Pot             int
	MinimumBet      int
	CurrentBet      int
	RemainingCards  int
	BackgroundIndex int

	// RoomOwner is the identity (not session id) of the owning player.
	RoomOwner uuid.UUID

	// Dealer and Challenger are session ids; uuid.Nil when unset.
	Dealer     uuid.UUID
	Challenger uuid.UUID

	Players map[uuid.UUID]*models.Player
}

func newRoomState(minimumBet int) *RoomState {
	return &RoomState{
		MinimumBet:      minimumBet,
		BackgroundIndex: 1,
		Players:         make(map[uuid.UUID]*models.Player),
	}
}

// playerByIdentity finds a player by login identity, for reconnects.
func (s *RoomState) playerByIdentity(identity uuid.UUID) *models.Player {
	for _, p := range s.Players {
		if p.ID == identity {
			return p
		}
	}
	return nil
}
