package sevenhalf

import (
	"math"

	"github.com/domtes/chemmazz/internal/models"
)

// Result is the computed value of a hand.
type Result struct {
	Value       float64 `json:"value"`
	HasWildcard bool    `json:"hasWildcard"`
}

// Busted reports whether the hand value exceeds the ruleset target.
func (r Result) Busted(rs Ruleset) bool {
	return r.Value > rs.Target
}

// Score computes the value of a hand. Ranks 1..6 count face value, the
// figures (7..10) count half a point. The wildcard contributes nothing by
// itself and then completes the hand to the highest whole-point value not
// exceeding the target.
func Score(rs Ruleset, cards []models.Card) Result {
	var sum float64
	wild := false
	for _, c := range cards {
		if rs.IsWild(c) {
			wild = true
			continue
		}
		if c.Rank <= 6 {
			sum += float64(c.Rank)
		} else {
			sum += 0.5
		}
	}
	if wild {
		sum += math.Floor(rs.Target - sum)
	}
	return Result{Value: sum, HasWildcard: wild}
}
