package models

import "github.com/google/uuid"

// Card is an immutable rank/suit pair. Ranks run 1..10, suits 0..3
// (bastoni, spade, coppe, denari).
type Card struct {
	Rank int `json:"rank"`
	Suit int `json:"suit"`
}

// HandCard is a card held by a player. It is visible to every client only
// once Public is set; until then only the owning session sees its face.
type HandCard struct {
	Card   Card      `json:"card"`
	Owner  uuid.UUID `json:"owner"`
	Public bool      `json:"public"`
}
