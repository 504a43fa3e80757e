// Package deck assembles display decks and scores combat decks.
package deck

import (
	"polydros.ai/internal/sim/agent"
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/rng"
	"polydros.ai/internal/sim/tuning"
)

type quota struct {
	rarity catalogs.Rarity
	n      int
}

func quotaOrder(q tuning.DeckQuotas) []quota {
	return []quota{
		{catalogs.Player, q.Player},
		{catalogs.Common, q.Common},
		{catalogs.Uncommon, q.Uncommon},
		{catalogs.AlternateArt, q.AlternateArt},
		{catalogs.Rare, q.Rare},
		{catalogs.Mythic, q.Mythic},
	}
}

// Build picks up to size cards from collection. Each rarity bucket is shuffled and
// contributes up to its quota; the remaining cards are shuffled and used to fill
// any shortfall. Buckets are processed in quota order so the stream consumption
// is fixed for a given collection.
func Build(collection []agent.OwnedCard, r rng.Stream, q tuning.DeckQuotas, size int) []agent.OwnedCard {
	if size <= 0 || len(collection) == 0 {
		return []agent.OwnedCard{}
	}
	buckets := map[catalogs.Rarity][]int{}
	for i, c := range collection {
		buckets[c.Def.Rarity] = append(buckets[c.Def.Rarity], i)
	}

	picked := make([]bool, len(collection))
	out := make([]agent.OwnedCard, 0, size)
	for _, qt := range quotaOrder(q) {
		idx := buckets[qt.rarity]
		r.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for n := 0; n < qt.n && n < len(idx) && len(out) < size; n++ {
			out = append(out, collection[idx[n]])
			picked[idx[n]] = true
		}
	}

	var rest []int
	for i := range collection {
		if !picked[i] {
			rest = append(rest, i)
		}
	}
	r.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	for _, i := range rest {
		if len(out) >= size {
			break
		}
		out = append(out, collection[i])
	}
	return out
}

// Feasibility relates combat stats to gem cost.
func Feasibility(d *catalogs.CardDefinition) float64 {
	return float64(d.Power+d.Health) / float64(max(1, d.TotalGems()))
}

// Entry is a deck card as exported.
type Entry struct {
	CardID          string          `json:"card_id"`
	InstanceID      string          `json:"card_instance_id,omitempty"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Color           string          `json:"color"`
	Rarity          catalogs.Rarity `json:"rarity"`
	Power           int             `json:"power"`
	Health          int             `json:"health"`
	GemColored      int             `json:"gem_colored"`
	GemColorless    int             `json:"gem_colorless"`
	Cost            int             `json:"cost"`
	Holo            bool            `json:"is_hologram"`
	Feasibility     float64         `json:"feasibility"`
	Underperforming bool            `json:"underperforming"`
}

// Describe exports cards and flags those whose feasibility is below half the deck mean.
func Describe(cards []agent.OwnedCard) []Entry {
	out := make([]Entry, 0, len(cards))
	var sum float64
	for _, c := range cards {
		d := c.Def
		f := Feasibility(d)
		sum += f
		out = append(out, Entry{
			CardID:       d.ID,
			InstanceID:   c.InstanceID,
			Name:         d.Name,
			Type:         d.Type,
			Color:        d.Color,
			Rarity:       d.Rarity,
			Power:        d.Power,
			Health:       d.Health,
			GemColored:   d.GemColored,
			GemColorless: d.GemColorless,
			Cost:         d.TotalGems(),
			Holo:         c.Holo,
			Feasibility:  f,
		})
	}
	if len(out) == 0 {
		return out
	}
	mean := sum / float64(len(out))
	for i := range out {
		out[i].Underperforming = out[i].Feasibility < mean/2
	}
	return out
}
