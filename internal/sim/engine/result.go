package engine

import (
	"polydros.ai/internal/sim/agent"
	"polydros.ai/internal/sim/deck"
	"polydros.ai/internal/sim/logic/mathx"
	"polydros.ai/internal/sim/logic/pricing"
	"polydros.ai/internal/sim/rng"
	"polydros.ai/internal/sim/traits"
	"polydros.ai/internal/sim/world"
)

// ContractVersion is bumped whenever the Result JSON shape changes.
const ContractVersion = 1

// Result is the run contract consumed by every outer surface.
type Result struct {
	Version         int                         `json:"version"`
	Config          Config                      `json:"config"`
	CatalogDigest   string                      `json:"catalog_digest"`
	Timeseries      []TickSummary               `json:"timeseries"`
	Final           world.Summary               `json:"final"`
	Agents          []AgentExport               `json:"agents"`
	Events          []world.Event               `json:"events"`
	MarketSnapshots []world.MarketSnapshot      `json:"market_snapshots"`
	CardMarket      map[string]world.CardMarket `json:"card_market"`
}

// TickSummary is one timeseries entry. Tick 0 carries no market snapshot.
type TickSummary struct {
	world.Summary
	Events         []world.Event         `json:"events"`
	MarketSnapshot *world.MarketSnapshot `json:"market_snapshot,omitempty"`
	Digest         string                `json:"digest"`
}

type AgentExport struct {
	ID              int                          `json:"id"`
	Name            string                       `json:"name"`
	Nick            string                       `json:"nick"`
	Prism           float64                      `json:"prism"`
	RNGSeed         int64                        `json:"rng_seed"`
	CollectionCount int                          `json:"collection_count"`
	BoosterCount    int                          `json:"booster_count"`
	FullCollection  []CollectionCard             `json:"full_collection"`
	Deck            []deck.Entry                 `json:"deck"`
	Traits          traits.Bundle                `json:"traits"`
	CardInstances   []*agent.TrackedCardInstance `json:"card_instances"`
	AgentEvents     []world.Event                `json:"agent_events"`
}

// CollectionCard is one raw collection entry with its market view.
type CollectionCard struct {
	CardID         string  `json:"card_id"`
	InstanceID     string  `json:"card_instance_id"`
	Name           string  `json:"name"`
	Color          string  `json:"color"`
	Rarity         string  `json:"rarity"`
	Holo           bool    `json:"is_hologram"`
	Quality        float64 `json:"quality_score"`
	Price          float64 `json:"price"`
	Attractiveness float64 `json:"attractiveness"`
}

func (e *Engine) export(cfg Config, w *world.World, ts []TickSummary) *Result {
	res := &Result{
		Version:         ContractVersion,
		Config:          cfg,
		CatalogDigest:   e.cat.Digest,
		Timeseries:      ts,
		Final:           w.Summary(),
		Agents:          make([]AgentExport, 0, len(w.Agents())),
		Events:          append([]world.Event{}, w.Events()...),
		MarketSnapshots: append([]world.MarketSnapshot{}, w.Snapshots()...),
		CardMarket:      w.Market(),
	}
	for _, a := range w.Agents() {
		res.Agents = append(res.Agents, e.exportAgent(w, a))
	}
	return res
}

func (e *Engine) exportAgent(w *world.World, a *agent.Agent) AgentExport {
	coll := make([]CollectionCard, 0, len(a.Collection))
	for _, c := range a.Collection {
		m := w.CardMarket(c.Def.ID)
		coll = append(coll, CollectionCard{
			CardID:         c.Def.ID,
			InstanceID:     c.InstanceID,
			Name:           c.Def.Name,
			Color:          c.Def.Color,
			Rarity:         string(c.Def.Rarity),
			Holo:           c.Holo,
			Quality:        c.EffectiveQuality(),
			Price:          mathx.Round2(pricing.CardPrice(c.Def) * m.Price),
			Attractiveness: m.Attractiveness,
		})
	}
	built := deck.Build(a.Collection, rng.Derive(a.Seed, 0, rng.PurposeDeckBuild), e.tun.DeckQuotas, e.tun.DeckSize)
	return AgentExport{
		ID:              a.ID,
		Name:            a.Name,
		Nick:            a.Nick,
		Prism:           a.Balance().InexactFloat64(),
		RNGSeed:         a.Seed,
		CollectionCount: len(a.Collection),
		BoosterCount:    a.Boosters(),
		FullCollection:  coll,
		Deck:            deck.Describe(built),
		Traits:          a.Traits,
		CardInstances:   a.Instances(),
		AgentEvents:     w.EventsFor(a.ID),
	}
}

// Agent returns the export of agent id.
func (r *Result) Agent(id int) (*AgentExport, bool) {
	for i := range r.Agents {
		if r.Agents[i].ID == id {
			return &r.Agents[i], true
		}
	}
	return nil, false
}

// Digests returns the per-tick state digests, index i being tick i.
func (r *Result) Digests() []string {
	out := make([]string, len(r.Timeseries))
	for i, ts := range r.Timeseries {
		out[i] = ts.Digest
	}
	return out
}
