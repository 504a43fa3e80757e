// Package booster opens booster packs against a card catalog.
package booster

import (
	"polydros.ai/internal/sim/agent"
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/rng"
	"polydros.ai/internal/sim/tuning"
)

// Slot is one rarity bucket of the pack template.
type Slot struct {
	Rarity catalogs.Rarity
	Count  int
}

// Template returns the slot order of a pack: commons, uncommons, rares, players.
func Template(p tuning.Pack) []Slot {
	return []Slot{
		{catalogs.Common, p.Commons},
		{catalogs.Uncommon, p.Uncommons},
		{catalogs.Rare, p.Rares},
		{catalogs.Player, p.Players},
	}
}

// Open draws one pack. A slot whose rarity has no cards contributes nothing. After
// the slots are filled a single upgrade roll may replace one drawn Rare with a
// Mythic that gets its own hologram roll.
func Open(cat *catalogs.Catalog, p tuning.Pack, r rng.Stream) []agent.OwnedCard {
	var out []agent.OwnedCard
	for _, slot := range Template(p) {
		pool := cat.ByRarity(slot.Rarity)
		if len(pool) == 0 || slot.Count <= 0 {
			continue
		}
		for _, def := range WeightedChoices(pool, slot.Count, r) {
			out = append(out, agent.OwnedCard{Def: def, Holo: r.Float64() < p.HoloChance})
		}
	}

	if r.Float64() < p.UpgradeChance {
		mythics := cat.ByRarity(catalogs.Mythic)
		var rares []int
		for i, c := range out {
			if c.Def.Rarity == catalogs.Rare {
				rares = append(rares, i)
			}
		}
		if len(mythics) > 0 && len(rares) > 0 {
			i := rares[r.IntN(len(rares))]
			m := mythics[r.IntN(len(mythics))]
			out[i] = agent.OwnedCard{Def: m, Holo: r.Float64() < p.MythicHolo}
		}
	}
	return out
}

// WeightedChoices draws k definitions with replacement, weighted by PackWeight.
// A non-positive weight total falls back to a uniform draw.
func WeightedChoices(pool []*catalogs.CardDefinition, k int, r rng.Stream) []*catalogs.CardDefinition {
	if len(pool) == 0 || k <= 0 {
		return nil
	}
	cum := make([]float64, len(pool))
	total := 0.0
	for i, d := range pool {
		if d.PackWeight > 0 {
			total += d.PackWeight
		}
		cum[i] = total
	}
	out := make([]*catalogs.CardDefinition, 0, k)
	for n := 0; n < k; n++ {
		if total <= 0 {
			out = append(out, pool[r.IntN(len(pool))])
			continue
		}
		x := r.Float64() * total
		idx := len(pool) - 1
		for i, c := range cum {
			if x < c {
				idx = i
				break
			}
		}
		out = append(out, pool[idx])
	}
	return out
}
