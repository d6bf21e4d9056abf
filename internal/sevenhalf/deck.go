// Package sevenhalf implements the card and scoring engine for sette e
// mezzo: building and shuffling the 40-card Neapolitan deck, dealing, and
// computing hand values. It is pure; rooms drive it.
package sevenhalf

import (
	"errors"
	"math/rand"

	"github.com/domtes/chemmazz/internal/models"
)

// ErrEmptyDeck is returned when a deal requests more cards than remain.
// The caller must treat it as fatal to the current hand: it means the
// shuffle accounting upstream is wrong, not that a retry will help.
var ErrEmptyDeck = errors.New("sevenhalf: not enough cards left in the deck")

// Ruleset is the deck/scoring configuration as plain data. Only the
// sette e mezzo ruleset ships, but the engine reads everything from here.
type Ruleset struct {
	Ranks    int     // ranks per suit, 1..Ranks
	Suits    int     // suit indices 0..Suits-1
	WildRank int     // rank of the wildcard (Jolly)
	WildSuit int     // suit of the wildcard
	Target   float64 // best non-busting hand value
}

// DefaultRuleset returns the standard configuration: 40 cards, wildcard
// at rank 7 of suit 3 (the seven of denari), target 7.5.
func DefaultRuleset() Ruleset {
	return Ruleset{Ranks: 10, Suits: 4, WildRank: 7, WildSuit: 3, Target: 7.5}
}

// IsWild reports whether c is the ruleset's wildcard.
func (rs Ruleset) IsWild(c models.Card) bool {
	return c.Rank == rs.WildRank && c.Suit == rs.WildSuit
}

// Deck is a mutable sequence of undealt cards, consumed from the top.
type Deck struct {
	cards []models.Card
}

// BuildDeck returns a deck holding every card of the ruleset in canonical
// order (suit-major, ascending ranks).
func BuildDeck(rs Ruleset) *Deck {
	cards := make([]models.Card, 0, rs.Ranks*rs.Suits)
	for suit := 0; suit < rs.Suits; suit++ {
		for rank := 1; rank <= rs.Ranks; rank++ {
			cards = append(cards, models.Card{Rank: rank, Suit: suit})
		}
	}
	return &Deck{cards: cards}
}

// NewDeck returns a deck holding exactly the given cards, top first.
func NewDeck(cards []models.Card) *Deck {
	return &Deck{cards: append([]models.Card(nil), cards...)}
}

// Shuffle applies a uniform random permutation using the process-wide
// source. Reseeding per call would correlate decks shuffled in the same
// tick, so none happens here.
func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns n cards from the top of the deck.
func (d *Deck) Deal(n int) ([]models.Card, error) {
	if n > len(d.cards) {
		return nil, ErrEmptyDeck
	}
	dealt := make([]models.Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt, nil
}

// Remaining reports how many cards have not been dealt.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
