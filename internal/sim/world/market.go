package world

import (
	"sort"

	"polydros.ai/internal/sim/logic/mathx"
)

// CardMarket is the shared per-card-id market state. Both values start at 1 and
// never drop below the world floor.
type CardMarket struct {
	Attractiveness float64 `json:"attractiveness"`
	Price          float64 `json:"price"`
}

var neutralMarket = CardMarket{Attractiveness: 1.0, Price: 1.0}

// CardMarket returns the market state of a card id. Reading never creates an entry.
func (w *World) CardMarket(cardID string) CardMarket {
	if m, ok := w.market[cardID]; ok {
		return m
	}
	return neutralMarket
}

// Boost raises attractiveness and price by pct.
func (w *World) Boost(cardID string, pct float64) {
	m := w.CardMarket(cardID)
	m.Attractiveness *= 1 + pct
	m.Price *= 1 + pct
	w.market[cardID] = m
}

// Penalize lowers attractiveness and price by pct, clamped at the floor.
func (w *World) Penalize(cardID string, pct float64) {
	m := w.CardMarket(cardID)
	m.Attractiveness = max(w.floor, m.Attractiveness*(1-pct))
	m.Price = max(w.floor, m.Price*(1-pct))
	w.market[cardID] = m
}

// MarketIDs returns the card ids with market state, sorted.
func (w *World) MarketIDs() []string {
	out := make([]string, 0, len(w.market))
	for id := range w.market {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Market returns a copy of the card market map.
func (w *World) Market() map[string]CardMarket {
	out := make(map[string]CardMarket, len(w.market))
	for id, m := range w.market {
		out[id] = m
	}
	return out
}

type MarketSnapshot struct {
	Tick                     int     `json:"tick"`
	TotalVolumeTraded        float64 `json:"total_volume_traded"`
	CardsTradedCount         int     `json:"cards_traded_count"`
	PriceIndex               float64 `json:"price_index"`
	Volatility               float64 `json:"volatility"`
	UniqueCardsInCirculation int     `json:"unique_cards_in_circulation"`
	TotalCardInstances       int     `json:"total_card_instances"`
}

// RecordTrade feeds the per-tick trade counters. Agents do not trade yet, so the
// engine never calls it and the counters stay at zero.
func (w *World) RecordTrade(cards int, volume float64) {
	w.cardsTradedThisTick += cards
	w.volumeTradedThisTick += volume
}

// CaptureMarketSnapshot aggregates every tracked instance of every agent, appends
// the snapshot and resets the trade counters.
func (w *World) CaptureMarketSnapshot() MarketSnapshot {
	var prices []float64
	unique := map[string]struct{}{}
	for _, a := range w.Agents() {
		for _, inst := range a.Instances() {
			unique[inst.CardID] = struct{}{}
			prices = append(prices, inst.CurrentPrice)
		}
	}
	mean, stddev := mathx.MeanStddev(prices)
	s := MarketSnapshot{
		Tick:                     w.Tick,
		TotalVolumeTraded:        w.volumeTradedThisTick,
		CardsTradedCount:         w.cardsTradedThisTick,
		PriceIndex:               mean,
		Volatility:               stddev,
		UniqueCardsInCirculation: len(unique),
		TotalCardInstances:       len(prices),
	}
	w.snapshots = append(w.snapshots, s)
	w.cardsTradedThisTick = 0
	w.volumeTradedThisTick = 0
	return s
}

func (w *World) Snapshots() []MarketSnapshot { return w.snapshots }
