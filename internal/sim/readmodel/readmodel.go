// Package readmodel holds the read projections over a completed run. Lookups return
// (value, ok); nothing here mutates the result.
package readmodel

import (
	"math"
	"sort"

	"polydros.ai/internal/sim/agent"
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/logic/mathx"
	"polydros.ai/internal/sim/traits"
	"polydros.ai/internal/sim/world"
)

type AgentSummary struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	Nick            string         `json:"nick"`
	Prism           float64        `json:"prism"`
	CollectionCount int            `json:"collection_count"`
	BoosterCount    int            `json:"booster_count"`
	PrimaryTrait    traits.Primary `json:"primary_trait"`
}

func ListAgents(res *engine.Result) []AgentSummary {
	out := make([]AgentSummary, 0, len(res.Agents))
	for _, a := range res.Agents {
		out = append(out, AgentSummary{
			ID:              a.ID,
			Name:            a.Name,
			Nick:            a.Nick,
			Prism:           a.Prism,
			CollectionCount: a.CollectionCount,
			BoosterCount:    a.BoosterCount,
			PrimaryTrait:    a.Traits.Primary,
		})
	}
	return out
}

func Agent(res *engine.Result, id int) (*engine.AgentExport, bool) {
	return res.Agent(id)
}

type AgentTraits struct {
	AgentID int           `json:"agent_id"`
	Name    string        `json:"name"`
	Traits  traits.Bundle `json:"traits"`
}

func Traits(res *engine.Result, id int) (AgentTraits, bool) {
	a, ok := res.Agent(id)
	if !ok {
		return AgentTraits{}, false
	}
	return AgentTraits{AgentID: a.ID, Name: a.Name, Traits: a.Traits}, true
}

// RarityBreakdown counts cards per rarity. Every rarity is present, zero or not.
type RarityBreakdown map[string]int

type CollectionView struct {
	AgentID         int                     `json:"agent_id"`
	Name            string                  `json:"name"`
	Count           int                     `json:"collection_count"`
	HoloCount       int                     `json:"holo_count"`
	TotalValue      float64                 `json:"total_value"`
	RarityBreakdown RarityBreakdown         `json:"rarity_breakdown"`
	Cards           []engine.CollectionCard `json:"cards"`
}

func Collection(res *engine.Result, id int) (CollectionView, bool) {
	a, ok := res.Agent(id)
	if !ok {
		return CollectionView{}, false
	}
	v := CollectionView{
		AgentID:         a.ID,
		Name:            a.Name,
		Count:           len(a.FullCollection),
		RarityBreakdown: emptyBreakdown(),
		Cards:           a.FullCollection,
	}
	for _, c := range a.FullCollection {
		v.RarityBreakdown[c.Rarity]++
		if c.Holo {
			v.HoloCount++
		}
		v.TotalValue += c.Price
	}
	v.TotalValue = mathx.Round2(v.TotalValue)
	return v, true
}

type CardsView struct {
	AgentID       int                          `json:"agent_id"`
	Name          string                       `json:"name"`
	Count         int                          `json:"count"`
	PortfolioCost float64                      `json:"portfolio_cost"`
	PortfolioNow  float64                      `json:"portfolio_value"`
	Conditions    map[agent.Condition]int      `json:"conditions"`
	Instances     []*agent.TrackedCardInstance `json:"card_instances"`
}

func Cards(res *engine.Result, id int) (CardsView, bool) {
	a, ok := res.Agent(id)
	if !ok {
		return CardsView{}, false
	}
	v := CardsView{
		AgentID:    a.ID,
		Name:       a.Name,
		Count:      len(a.CardInstances),
		Conditions: map[agent.Condition]int{},
		Instances:  a.CardInstances,
	}
	for _, inst := range a.CardInstances {
		v.PortfolioCost += inst.AcquiredPrice
		v.PortfolioNow += inst.CurrentPrice
		v.Conditions[inst.Condition]++
	}
	v.PortfolioCost = mathx.Round2(v.PortfolioCost)
	v.PortfolioNow = mathx.Round2(v.PortfolioNow)
	return v, true
}

type MarketSummary struct {
	Tick            int                   `json:"tick"`
	Latest          *world.MarketSnapshot `json:"latest,omitempty"`
	RarityBreakdown RarityBreakdown       `json:"rarity_breakdown"`
	TopMovers       []CardMove            `json:"top_movers"`
	Final           world.Summary         `json:"final"`
}

// CardMove is a card whose market price moved away from the neutral 1.0.
type CardMove struct {
	CardID         string  `json:"card_id"`
	Price          float64 `json:"price"`
	Attractiveness float64 `json:"attractiveness"`
}

// Market summarizes the final market state. TopMovers lists up to n cards ordered
// by distance of their price multiplier from 1, largest first.
func Market(res *engine.Result, n int) MarketSummary {
	s := MarketSummary{Tick: res.Final.Tick, RarityBreakdown: emptyBreakdown(), Final: res.Final, TopMovers: []CardMove{}}
	if k := len(res.MarketSnapshots); k > 0 {
		latest := res.MarketSnapshots[k-1]
		s.Latest = &latest
	}
	for _, a := range res.Agents {
		for _, inst := range a.CardInstances {
			s.RarityBreakdown[string(inst.Rarity)]++
		}
	}
	for id, m := range res.CardMarket {
		s.TopMovers = append(s.TopMovers, CardMove{CardID: id, Price: m.Price, Attractiveness: m.Attractiveness})
	}
	sort.Slice(s.TopMovers, func(i, j int) bool {
		di, dj := math.Abs(s.TopMovers[i].Price-1), math.Abs(s.TopMovers[j].Price-1)
		if di != dj {
			return di > dj
		}
		return s.TopMovers[i].CardID < s.TopMovers[j].CardID
	})
	if n >= 0 && len(s.TopMovers) > n {
		s.TopMovers = s.TopMovers[:n]
	}
	return s
}

func emptyBreakdown() RarityBreakdown {
	b := RarityBreakdown{}
	for _, r := range catalogs.Rarities {
		b[string(r)] = 0
	}
	return b
}
