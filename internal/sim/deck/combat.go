package deck

import (
	"polydros.ai/internal/sim/agent"
	"polydros.ai/internal/sim/catalogs"
)

// Score is the combat score of a deck. With G the total gem cost of the deck, the
// score is Σ(power − health) when G is zero and Σ(power/G − health/G) otherwise.
func Score(cards []*catalogs.CardDefinition) float64 {
	gems := 0
	for _, d := range cards {
		gems += d.TotalGems()
	}
	var score float64
	if gems == 0 {
		for _, d := range cards {
			score += float64(d.Power - d.Health)
		}
		return score
	}
	g := float64(gems)
	for _, d := range cards {
		score += float64(d.Power)/g - float64(d.Health)/g
	}
	return score
}

// Definitions returns the definitions of cards, in order.
func Definitions(cards []agent.OwnedCard) []*catalogs.CardDefinition {
	out := make([]*catalogs.CardDefinition, len(cards))
	for i, c := range cards {
		out[i] = c.Def
	}
	return out
}
