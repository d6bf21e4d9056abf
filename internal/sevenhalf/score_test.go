package sevenhalf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domtes/chemmazz/internal/models"
)

func card(rank, suit int) models.Card {
	return models.Card{Rank: rank, Suit: suit}
}

func TestScoreFaceValueAndFigures(t *testing.T) {
	rs := DefaultRuleset()

	tests := []struct {
		name  string
		cards []models.Card
		want  float64
	}{
		{"single ace", []models.Card{card(1, 0)}, 1},
		{"single six", []models.Card{card(6, 1)}, 6},
		{"figure counts half", []models.Card{card(10, 2)}, 0.5},
		{"six plus figure", []models.Card{card(6, 0), card(8, 1)}, 6.5},
		{"three figures", []models.Card{card(7, 0), card(9, 1), card(10, 2)}, 1.5},
		{"perfect seven and a half", []models.Card{card(7, 1), card(6, 0), card(1, 2)}, 7.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(rs, tc.cards)
			assert.Equal(t, tc.want, res.Value)
			assert.False(t, res.HasWildcard)
		})
	}
}

func TestScoreWildcardCompletesToWholePoint(t *testing.T) {
	rs := DefaultRuleset()
	jolly := card(7, 3)

	// Alone the wildcard fills up to the target's whole part.
	res := Score(rs, []models.Card{jolly})
	assert.Equal(t, 7.0, res.Value)
	assert.True(t, res.HasWildcard)

	// {6, jolly}: 6 + floor(7.5-6) = 7.
	res = Score(rs, []models.Card{card(6, 0), jolly})
	assert.Equal(t, 7.0, res.Value)

	// {figure, jolly}: 0.5 + floor(7) = 7.5, the best possible.
	res = Score(rs, []models.Card{card(9, 0), jolly})
	assert.Equal(t, 7.5, res.Value)
	assert.False(t, res.Busted(rs))
}

func TestScoreOrderIndependentWithWildcard(t *testing.T) {
	rs := DefaultRuleset()
	a := Score(rs, []models.Card{card(7, 3), card(6, 0)})
	b := Score(rs, []models.Card{card(6, 0), card(7, 3)})
	assert.Equal(t, a.Value, b.Value)
}

func TestBusted(t *testing.T) {
	rs := DefaultRuleset()

	res := Score(rs, []models.Card{card(6, 0), card(5, 1)})
	assert.Equal(t, 11.0, res.Value)
	assert.True(t, res.Busted(rs))

	res = Score(rs, []models.Card{card(6, 0), card(1, 1), card(10, 2)})
	assert.Equal(t, 7.5, res.Value)
	assert.False(t, res.Busted(rs))
}
