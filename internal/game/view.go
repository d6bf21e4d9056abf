package game

import (
	"github.com/google/uuid"

	"github.com/domtes/chemmazz/internal/models"
)

// CardView is a HandCard as one particular viewer may see it. Face-down
// cards belonging to someone else arrive with Hidden set and no rank/suit.
type CardView struct {
	Owner  uuid.UUID `json:"owner"`
	Public bool      `json:"public"`
	Hidden bool      `json:"hidden"`
	Rank   int       `json:"rank"`
	Suit   int       `json:"suit"`
}

// PlayerView is a Player projected for one viewer.
type PlayerView struct {
	ID               uuid.UUID      `json:"id"`
	SessionID        uuid.UUID      `json:"sessionId"`
	DisplayName      string         `json:"displayName"`
	IsOwner          bool           `json:"owner"`
	Stash            int            `json:"stash"`
	Bet              int            `json:"bet"`
	Connected        bool           `json:"connected"`
	Playing          bool           `json:"playing"`
	EnteringNextTurn bool           `json:"enteringNextTurn"`
	Seat             int            `json:"seat"`
	IsDealer         bool           `json:"dealer"`
	Hand             []CardView     `json:"hand"`
	Prompt           *models.Prompt `json:"prompt,omitempty"`
	Score            float64        `json:"score"`
}

// RoomView is the full replicated room snapshot for one viewer.
type RoomView struct {
	Running         bool                  `json:"running"`
	Paused          bool                  `json:"paused"`
	Pot             int                   `json:"pot"`
	MinimumBet      int                   `json:"minimumBet"`
	CurrentBet      int                   `json:"currentBet"`
	RemainingCards  int                   `json:"remainingCards"`
	BackgroundIndex int                   `json:"bg"`
	RoomOwner       uuid.UUID             `json:"roomOwner"`
	Dealer          uuid.UUID             `json:"dealer"`
	Challenger      uuid.UUID             `json:"challenger"`
	Players         map[string]PlayerView `json:"players"`
}

// ViewFor projects the room state for a single viewer. The projection is
// computed fresh on every sync rather than annotating the data model:
// a card face is included only when public or owned by the viewer, the
// score and prompt only for the viewer's own player.
func ViewFor(s *RoomState, viewer uuid.UUID) RoomView {
	v := RoomView{
		Running:         s.Running,
		Paused:          s.Paused,
		Pot:             s.Pot,
		MinimumBet:      s.MinimumBet,
		CurrentBet:      s.CurrentBet,
		RemainingCards:  s.RemainingCards,
		BackgroundIndex: s.BackgroundIndex,
		RoomOwner:       s.RoomOwner,
		Dealer:          s.Dealer,
		Challenger:      s.Challenger,
		Players:         make(map[string]PlayerView, len(s.Players)),
	}
	for sid, p := range s.Players {
		pv := PlayerView{
			ID:               p.ID,
			SessionID:        p.SessionID,
			DisplayName:      p.DisplayName,
			IsOwner:          p.IsOwner,
			Stash:            p.Stash,
			Bet:              p.Bet,
			Connected:        p.Connected,
			Playing:          p.Playing,
			EnteringNextTurn: p.EnteringNextTurn,
			Seat:             p.Seat,
			IsDealer:         p.IsDealer,
			Hand:             make([]CardView, 0, len(p.Hand)),
		}
		for _, hc := range p.Hand {
			cv := CardView{Owner: hc.Owner, Public: hc.Public}
			if hc.Public || hc.Owner == viewer {
				cv.Rank = hc.Card.Rank
				cv.Suit = hc.Card.Suit
			} else {
				cv.Hidden = true
			}
			pv.Hand = append(pv.Hand, cv)
		}
		if sid == viewer {
			pv.Score = p.Score
			prompt := p.Prompt
			pv.Prompt = &prompt
		}
		v.Players[sid.String()] = pv
	}
	return v
}
