package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domtes/chemmazz/internal/models"
)

func TestViewForHidesOtherPlayersFaceDownCards(t *testing.T) {
	s := newRoomState(10)
	alice := &models.Player{ID: uuid.New(), SessionID: uuid.New(), DisplayName: "alice", Connected: true}
	bob := &models.Player{ID: uuid.New(), SessionID: uuid.New(), DisplayName: "bob", Connected: true}
	s.Players[alice.SessionID] = alice
	s.Players[bob.SessionID] = bob

	alice.Hand = []models.HandCard{
		{Card: models.Card{Rank: 5, Suit: 2}, Owner: alice.SessionID, Public: false},
		{Card: models.Card{Rank: 9, Suit: 1}, Owner: alice.SessionID, Public: true},
	}

	// Alice sees both of her card faces.
	own := ViewFor(s, alice.SessionID)
	aliceHand := own.Players[alice.SessionID.String()].Hand
	require.Len(t, aliceHand, 2)
	assert.Equal(t, 5, aliceHand[0].Rank)
	assert.False(t, aliceHand[0].Hidden)

	// Bob sees the face-down card as hidden, the public one in full.
	theirs := ViewFor(s, bob.SessionID)
	bobSees := theirs.Players[alice.SessionID.String()].Hand
	require.Len(t, bobSees, 2)
	assert.True(t, bobSees[0].Hidden)
	assert.Zero(t, bobSees[0].Rank)
	assert.Zero(t, bobSees[0].Suit)
	assert.False(t, bobSees[1].Hidden)
	assert.Equal(t, 9, bobSees[1].Rank)
	assert.Equal(t, 1, bobSees[1].Suit)
}

func TestViewForScoreAndPromptAreOwnerOnly(t *testing.T) {
	s := newRoomState(10)
	alice := &models.Player{ID: uuid.New(), SessionID: uuid.New(), Connected: true}
	bob := &models.Player{ID: uuid.New(), SessionID: uuid.New(), Connected: true}
	s.Players[alice.SessionID] = alice
	s.Players[bob.SessionID] = bob

	alice.Score = 6.5
	alice.Prompt = models.Prompt{Visible: true, Buttons: []models.PromptButton{{Name: "stand"}}}

	own := ViewFor(s, alice.SessionID)
	require.NotNil(t, own.Players[alice.SessionID.String()].Prompt)
	assert.True(t, own.Players[alice.SessionID.String()].Prompt.Visible)
	assert.Equal(t, 6.5, own.Players[alice.SessionID.String()].Score)

	theirs := ViewFor(s, bob.SessionID)
	assert.Nil(t, theirs.Players[alice.SessionID.String()].Prompt)
	assert.Zero(t, theirs.Players[alice.SessionID.String()].Score)
}

func TestViewForCopiesSharedFields(t *testing.T) {
	s := newRoomState(10)
	p := &models.Player{ID: uuid.New(), SessionID: uuid.New(), Connected: true}
	s.Players[p.SessionID] = p
	s.Running = true
	s.Pot = 40
	s.CurrentBet = 15
	s.RemainingCards = 33
	s.BackgroundIndex = 3
	s.Dealer = p.SessionID

	v := ViewFor(s, p.SessionID)
	assert.True(t, v.Running)
	assert.Equal(t, 40, v.Pot)
	assert.Equal(t, 10, v.MinimumBet)
	assert.Equal(t, 15, v.CurrentBet)
	assert.Equal(t, 33, v.RemainingCards)
	assert.Equal(t, 3, v.BackgroundIndex)
	assert.Equal(t, p.SessionID, v.Dealer)
}
