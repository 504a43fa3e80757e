package engine_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/rng"
	"polydros.ai/internal/sim/simtest"
	"polydros.ai/internal/sim/world"
)

func TestRun_Deterministic(t *testing.T) {
	h := simtest.NewHarness(t)
	a := h.RunJSON(7, 5, 25)
	b := h.RunJSON(7, 5, 25)
	if !bytes.Equal(a, b) {
		t.Fatalf("identical configs produced different JSON")
	}
	if bytes.Equal(a, h.RunJSON(8, 5, 25)) {
		t.Fatalf("different seeds produced identical JSON")
	}
}

func TestRun_ZeroTicks(t *testing.T) {
	h := simtest.NewHarness(t)
	res := h.Run(42, 3, 0)
	if len(res.Timeseries) != 1 || res.Timeseries[0].Tick != 0 {
		t.Fatalf("timeseries=%+v", res.Timeseries)
	}
	if res.Timeseries[0].MarketSnapshot != nil {
		t.Fatalf("tick 0 must not carry a market snapshot")
	}
	if len(res.Agents) != 3 {
		t.Fatalf("agents=%d", len(res.Agents))
	}
	for _, a := range res.Agents {
		if a.Prism != 200 || a.CollectionCount != 0 || a.BoosterCount != 0 {
			t.Fatalf("agent %d not at starting state: %+v", a.ID, a)
		}
	}
	if len(res.Events) != 0 || len(res.MarketSnapshots) != 0 {
		t.Fatalf("zero-tick run produced events or snapshots")
	}
}

func TestRun_AffordabilityClamp(t *testing.T) {
	h := simtest.NewHarness(t)
	res := h.Run(42, 1, 1)
	a := res.Agents[0]
	if a.Prism != 140.00 {
		t.Fatalf("prism=%v want 140.00", a.Prism)
	}
	// Five boosters bought, five opened, each with the full slot template.
	perPack := h.Tun.Pack.Commons + h.Tun.Pack.Uncommons + h.Tun.Pack.Rares + h.Tun.Pack.Players
	if a.BoosterCount != 0 || a.CollectionCount != 5*perPack {
		t.Fatalf("boosters=%d cards=%d", a.BoosterCount, a.CollectionCount)
	}
	if len(a.CardInstances) != a.CollectionCount {
		t.Fatalf("instances=%d cards=%d", len(a.CardInstances), a.CollectionCount)
	}
	if res.Final.DistributorBoosters != h.Tun.DistributorStock-5 {
		t.Fatalf("distributor=%d", res.Final.DistributorBoosters)
	}
	ev := res.Events[0]
	if ev.Kind != world.EventBoosterPurchase || ev.Description != "Agent-1 bought 5 boosters for 60.00 Prism" || ev.Triggered != nil {
		t.Fatalf("purchase event=%+v", ev)
	}
}

func TestRun_AgentNumbering(t *testing.T) {
	h := simtest.NewHarness(t)
	res := h.Run(3, 7, 0)
	for i, a := range res.Agents {
		if a.ID != i+1 {
			t.Fatalf("agent %d has id %d", i, a.ID)
		}
		if want := "Agent-" + strconv.Itoa(i+1); a.Name != want {
			t.Fatalf("name=%q want %q", a.Name, want)
		}
	}
}

func TestRun_DegenerateConfigs(t *testing.T) {
	h := simtest.NewHarness(t)
	for _, cfg := range []engine.Config{
		{Seed: 1, InitialAgents: 0, Ticks: 3},
		{Seed: 1, InitialAgents: -4, Ticks: 2},
		{Seed: 1, InitialAgents: 2, Ticks: -1},
	} {
		res := h.Eng.Run(cfg)
		if res == nil || len(res.Timeseries) == 0 {
			t.Fatalf("%+v: empty result", cfg)
		}
		if cfg.InitialAgents <= 0 && len(res.Agents) != 0 {
			t.Fatalf("%+v: agents=%d", cfg, len(res.Agents))
		}
		if cfg.Ticks < 0 && len(res.Timeseries) != 1 {
			t.Fatalf("%+v: timeseries=%d", cfg, len(res.Timeseries))
		}
	}
}

func TestRun_PriceHistoryGrowth(t *testing.T) {
	h := simtest.NewHarness(t)
	res := h.Run(11, 3, 12)
	final := res.Final.Tick
	n := 0
	for _, a := range res.Agents {
		for _, inst := range a.CardInstances {
			n++
			if got, want := len(inst.PriceHistory), final-inst.AcquiredTick+1; got != want {
				t.Fatalf("instance %s acquired at %d: history=%d want %d", inst.InstanceID, inst.AcquiredTick, got, want)
			}
			for i, p := range inst.PriceHistory {
				if p.Tick != inst.AcquiredTick+i {
					t.Fatalf("history out of order: %+v", inst.PriceHistory)
				}
			}
		}
	}
	if n == 0 {
		t.Fatalf("no instances created")
	}
}

func TestRun_TieSymmetry(t *testing.T) {
	h := simtest.NewHarnessWith(t, simtest.SmallCatalog(t), simtest.NewHarness(t).Tun)
	res := h.Run(5, 3, 15)
	ties := 0
	for _, e := range res.Events {
		switch e.Kind {
		case world.EventCombat:
			t.Fatalf("decisive combat between equal decks: %+v", e)
		case world.EventCombatTie:
			ties++
			if len(e.AgentIDs) != 2 || e.Triggered != nil || !strings.Contains(e.Description, " vs ") {
				t.Fatalf("tie event=%+v", e)
			}
		}
	}
	if ties == 0 {
		t.Fatalf("expected at least one tie")
	}
	if len(res.CardMarket) != 0 {
		t.Fatalf("ties changed the card market: %v", res.CardMarket)
	}
}

func TestRun_CombatEvents(t *testing.T) {
	h := simtest.NewHarness(t)
	res := h.Run(21, 4, 10)
	combats := 0
	for _, e := range res.Events {
		if e.Kind != world.EventCombat {
			continue
		}
		combats++
		if len(e.AgentIDs) != 2 || e.AgentIDs[0] != e.AgentID || e.AgentIDs[0] == e.AgentIDs[1] {
			t.Fatalf("combat agents=%v", e.AgentIDs)
		}
		if e.Triggered == nil || !strings.Contains(e.Description, " vs ") {
			t.Fatalf("combat event=%+v", e)
		}
	}
	if combats == 0 {
		t.Fatalf("expected combats in a 4-agent 10-tick run")
	}
	if len(res.CardMarket) == 0 {
		t.Fatalf("decisive combats should move the card market")
	}
	wins, losses := 0, 0
	for _, a := range res.Agents {
		for _, inst := range a.CardInstances {
			wins += inst.Wins
			losses += inst.Losses
			if inst.Quality >= h.Tun.InitialQuality && inst.Wins+inst.Losses > 0 {
				t.Fatalf("instance fought without wear: %+v", inst)
			}
		}
	}
	if wins == 0 || losses == 0 {
		t.Fatalf("wins=%d losses=%d", wins, losses)
	}
}

func TestRun_CollectorGate(t *testing.T) {
	h := simtest.NewHarness(t)
	const ticks = 40
	res := h.Run(42, 1, ticks)
	a := res.Agents[0]
	bought := map[int]string{}
	for _, e := range a.AgentEvents {
		if e.Kind == world.EventBoosterPurchase {
			bought[e.Tick] = e.Description
		}
	}

	balance := h.Tun.StartingPrism
	gated := 0
	for tick := 1; tick <= ticks; tick++ {
		before := res.Timeseries[tick-1].TotalCards
		allowed := true
		if before >= h.Tun.CollectorThreshold {
			gated++
			allowed = rng.Derive(a.RNGSeed, tick, rng.PurposeBuy).Float64() < a.Traits.Collector
		}
		qty := min(h.Tun.BuyWish, int(balance/h.Tun.BoosterPrice))
		desc, ok := bought[tick]
		if want := allowed && qty > 0; ok != want {
			t.Fatalf("tick %d: purchase=%v want %v", tick, ok, want)
		}
		if ok {
			balance -= float64(qty) * h.Tun.BoosterPrice
			if before >= h.Tun.CollectorThreshold && !strings.Contains(desc, "collector roll") {
				t.Fatalf("gated purchase without roll text: %q", desc)
			}
		}
	}
	if gated == 0 {
		t.Fatalf("collection never reached the threshold")
	}
	if a.Prism != balance {
		t.Fatalf("prism=%v want %v", a.Prism, balance)
	}
	again := h.Run(42, 1, ticks)
	if len(again.Agents[0].AgentEvents) != len(a.AgentEvents) {
		t.Fatalf("gate outcome not reproducible")
	}
}

func TestRun_TimeseriesShape(t *testing.T) {
	h := simtest.NewHarness(t)
	var observed []engine.TickSummary
	res := h.Eng.RunObserved(engine.Config{Seed: 9, InitialAgents: 2, Ticks: 6}, func(ts engine.TickSummary) {
		observed = append(observed, ts)
	})
	if len(res.Timeseries) != 7 || len(observed) != 7 || len(res.MarketSnapshots) != 6 {
		t.Fatalf("timeseries=%d observed=%d snapshots=%d", len(res.Timeseries), len(observed), len(res.MarketSnapshots))
	}
	seen := map[string]bool{}
	for i, ts := range res.Timeseries {
		if ts.Tick != i || observed[i].Digest != ts.Digest {
			t.Fatalf("entry %d: tick=%d digest mismatch", i, ts.Tick)
		}
		if i > 0 && (ts.MarketSnapshot == nil || ts.MarketSnapshot.Tick != i) {
			t.Fatalf("entry %d snapshot=%+v", i, ts.MarketSnapshot)
		}
		if seen[ts.Digest] {
			t.Fatalf("digest repeated at tick %d", i)
		}
		seen[ts.Digest] = true
	}
	again := h.Eng.Run(engine.Config{Seed: 9, InitialAgents: 2, Ticks: 6})
	for i, d := range again.Digests() {
		if d != res.Timeseries[i].Digest {
			t.Fatalf("digest differs at tick %d", i)
		}
	}
}

func TestRun_PackAging(t *testing.T) {
	base := simtest.NewHarness(t)
	tun := base.Tun
	tun.PackAgeIntervalTicks = 2
	tun.OpenPerTick = 1
	h := simtest.NewHarnessWith(t, base.Cat, tun)
	res := h.Run(4, 2, 6)
	aged := 0
	for _, e := range res.Events {
		if e.Kind != world.EventPackAge {
			continue
		}
		aged++
		if e.Tick%2 != 0 {
			t.Fatalf("pack_age at odd tick %d", e.Tick)
		}
	}
	if aged == 0 {
		t.Fatalf("no pack_age events with boosters held")
	}
}

func TestRun_SoloPlay(t *testing.T) {
	h := simtest.NewHarness(t)
	res := h.Run(42, 1, 6)

	plays := 0
	for _, e := range res.Events {
		switch e.Kind {
		case world.EventPlay:
			plays++
		case world.EventCombat, world.EventCombatTie:
			t.Fatalf("lone agent fought: %+v", e)
		}
	}
	if plays == 0 {
		t.Fatalf("expected at least one solo play event")
	}
	if len(res.CardMarket) != 0 {
		t.Fatalf("solo play touched card market: %v", res.CardMarket)
	}

	a := res.Agents[0]
	byID := map[string]float64{}
	for _, inst := range a.CardInstances {
		byID[inst.InstanceID] = inst.Quality
	}
	if len(a.FullCollection) < h.Tun.DeckSize {
		t.Fatalf("collection=%d smaller than deck", len(a.FullCollection))
	}
	for i, c := range a.FullCollection[:h.Tun.DeckSize] {
		q, ok := byID[c.InstanceID]
		if !ok {
			t.Fatalf("card %d has no tracked instance", i)
		}
		if q >= h.Tun.InitialQuality {
			t.Fatalf("card %d quality=%v not degraded", i, q)
		}
	}
}
