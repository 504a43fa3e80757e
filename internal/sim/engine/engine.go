// Package engine runs a complete simulation. Run is pure: it performs no I/O, keeps
// no package state and returns the same Result for the same inputs.
package engine

import (
	"github.com/shopspring/decimal"

	"polydros.ai/internal/sim/agent"
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/rng"
	"polydros.ai/internal/sim/traits"
	"polydros.ai/internal/sim/tuning"
	"polydros.ai/internal/sim/world"
)

type Config struct {
	Seed          int64 `json:"seed"`
	InitialAgents int   `json:"initial_agents"`
	Ticks         int   `json:"ticks"`
}

// DefaultConfig matches the defaults of the run endpoint.
func DefaultConfig() Config {
	return Config{Seed: 42, InitialAgents: 10, Ticks: 1}
}

type Engine struct {
	cat *catalogs.Catalog
	tun tuning.Tuning
}

func New(cat *catalogs.Catalog, tun tuning.Tuning) *Engine {
	return &Engine{cat: cat, tun: tun}
}

func (e *Engine) Catalog() *catalogs.Catalog { return e.cat }
func (e *Engine) Tuning() tuning.Tuning      { return e.tun }

// Run executes cfg to completion. Non-positive agent counts and negative tick
// counts yield trivial results rather than errors.
func (e *Engine) Run(cfg Config) *Result {
	return e.RunObserved(cfg, nil)
}

// TickObserver receives each timeseries entry as soon as its tick completes.
type TickObserver func(TickSummary)

// RunObserved is Run with a per-tick callback. The observer must not retain or
// modify the events slice it is handed.
func (e *Engine) RunObserved(cfg Config, observe TickObserver) *Result {
	w := e.newWorld(cfg)

	ts := make([]TickSummary, 0, max(cfg.Ticks, 0)+1)
	first := TickSummary{Summary: w.Summary(), Events: []world.Event{}, Digest: w.StateDigest()}
	ts = append(ts, first)
	if observe != nil {
		observe(first)
	}

	for t := 1; t <= cfg.Ticks; t++ {
		snap := e.step(w, t)
		entry := TickSummary{
			Summary:        w.Summary(),
			Events:         w.EventsAt(t),
			MarketSnapshot: &snap,
			Digest:         w.StateDigest(),
		}
		ts = append(ts, entry)
		if observe != nil {
			observe(entry)
		}
	}
	return e.export(cfg, w, ts)
}

func (e *Engine) newWorld(cfg Config) *world.World {
	w := world.New(cfg.Seed, e.tun.DistributorStock, e.tun.StatFloor)
	master := rng.Master(cfg.Seed)
	start := decimal.NewFromFloat(e.tun.StartingPrism)
	for id := 1; id <= cfg.InitialAgents; id++ {
		tr := traits.Generate(master)
		seed := rng.AgentSeed(master)
		w.AddAgent(agent.New(id, tr, seed, start))
	}
	return w
}

// step advances w to tick t. Each phase completes for every agent before the next
// phase starts.
func (e *Engine) step(w *world.World, t int) world.MarketSnapshot {
	w.Tick = t
	e.buyPhase(w, t)
	e.openPhase(w, t)
	e.playPhase(w, t)
	e.agingPhase(w, t)
	return e.marketPhase(w, t)
}
