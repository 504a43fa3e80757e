// Package pricing computes catalog prices for card definitions.
package pricing

import (
	"math"

	"polydros.ai/internal/sim/catalogs"
)

var rarityMultipliers = map[catalogs.Rarity]float64{
	catalogs.Common:       1.0,
	catalogs.Uncommon:     1.5,
	catalogs.Rare:         3.0,
	catalogs.Mythic:       8.0,
	catalogs.Player:       1.0,
	catalogs.AlternateArt: 6.0,
}

// RarityMultiplier returns the price multiplier of a rarity, 1 for unknown ones.
func RarityMultiplier(r catalogs.Rarity) float64 {
	if m, ok := rarityMultipliers[r]; ok {
		return m
	}
	return 1.0
}

// CardPrice is the catalog price of a definition:
//
//	base_price × rarity × max(0.5, 100/max(pack_weight,1)) × clamp(1+(q-50)/100, 0.5, 2) × 0.1
//
// Rarer (lower weight) cards carry a scarcity premium.
func CardPrice(d *catalogs.CardDefinition) float64 {
	if d == nil {
		return 0
	}
	scarcity := math.Max(0.5, 100.0/math.Max(d.PackWeight, 1.0))
	quality := 1.0 + (d.QualityScore-50.0)/100.0
	quality = math.Max(0.5, math.Min(2.0, quality))
	return d.BasePrice * RarityMultiplier(d.Rarity) * scarcity * quality * 0.1
}
