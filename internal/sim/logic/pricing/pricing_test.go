package pricing

import (
	"math"
	"testing"

	"polydros.ai/internal/sim/catalogs"
)

func TestCardPrice(t *testing.T) {
	cases := []struct {
		name string
		def  catalogs.CardDefinition
		want float64
	}{
		// 10 × 1 × 100 × 0.505 × 0.1
		{"common low quality", catalogs.CardDefinition{Rarity: catalogs.Common, BasePrice: 10, PackWeight: 1, QualityScore: 0.5}, 50.5},
		// quality floor 0.5
		{"negative quality", catalogs.CardDefinition{Rarity: catalogs.Common, BasePrice: 10, PackWeight: 1, QualityScore: -100}, 50},
		// 10 × 8 × 50 × 1 × 0.1
		{"mythic weight two", catalogs.CardDefinition{Rarity: catalogs.Mythic, BasePrice: 10, PackWeight: 2, QualityScore: 50}, 400},
		// scarcity floor: 100/400 -> 0.5; quality cap 2
		{"heavy weight", catalogs.CardDefinition{Rarity: catalogs.Uncommon, BasePrice: 4, PackWeight: 400, QualityScore: 500}, 4 * 1.5 * 0.5 * 2 * 0.1},
		{"zero base", catalogs.CardDefinition{Rarity: catalogs.Rare, BasePrice: 0, PackWeight: 1, QualityScore: 50}, 0},
	}
	for _, tc := range cases {
		got := CardPrice(&tc.def)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: price=%v want %v", tc.name, got, tc.want)
		}
	}
	if CardPrice(nil) != 0 {
		t.Fatalf("nil definition should price at zero")
	}
}

func TestRarityMultiplier_Ordering(t *testing.T) {
	if !(RarityMultiplier(catalogs.Mythic) > RarityMultiplier(catalogs.AlternateArt) &&
		RarityMultiplier(catalogs.AlternateArt) > RarityMultiplier(catalogs.Rare) &&
		RarityMultiplier(catalogs.Rare) > RarityMultiplier(catalogs.Uncommon) &&
		RarityMultiplier(catalogs.Uncommon) > RarityMultiplier(catalogs.Common)) {
		t.Fatalf("rarity multipliers out of order")
	}
	if RarityMultiplier("Unknown") != 1 {
		t.Fatalf("unknown rarity should default to 1")
	}
}
