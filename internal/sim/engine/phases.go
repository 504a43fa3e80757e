package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"polydros.ai/internal/sim/agent"
	"polydros.ai/internal/sim/booster"
	"polydros.ai/internal/sim/deck"
	"polydros.ai/internal/sim/logic/mathx"
	"polydros.ai/internal/sim/logic/pricing"
	"polydros.ai/internal/sim/rng"
	"polydros.ai/internal/sim/world"
)

func (e *Engine) buyPhase(w *world.World, t int) {
	price := decimal.NewFromFloat(e.tun.BoosterPrice)
	for _, a := range w.Agents() {
		gated := len(a.Collection) >= e.tun.CollectorThreshold
		var roll float64
		if gated {
			roll = rng.Derive(a.Seed, t, rng.PurposeBuy).Float64()
			if roll >= a.Traits.Collector {
				continue
			}
		}

		qty := min(e.tun.BuyWish, w.DistributorBoosters)
		if affordable := a.Balance().Div(price).Floor().IntPart(); int64(qty) > affordable {
			qty = int(affordable)
		}
		if qty <= 0 {
			continue
		}
		cost := price.Mul(decimal.NewFromInt(int64(qty)))
		if err := a.Debit(cost); err != nil {
			continue
		}
		a.AddBoosters(qty)
		w.DistributorBoosters -= qty

		desc := fmt.Sprintf("%s bought %d %s for %s Prism", a.Name, qty, plural(qty, "booster"), cost.StringFixed(2))
		ev := world.Event{Tick: t, AgentID: a.ID, Kind: world.EventBoosterPurchase, AgentIDs: []int{a.ID}}
		if gated {
			desc += fmt.Sprintf(" (collector roll %.0f%% < trait %.0f%%)", roll*100, a.Traits.Collector*100)
			ev.Triggered = world.Outcome(true)
		}
		ev.Description = desc
		w.AddEvent(ev)
	}
}

func (e *Engine) openPhase(w *world.World, t int) {
	for _, a := range w.Agents() {
		n := min(e.tun.OpenPerTick, a.Boosters())
		if n <= 0 {
			continue
		}
		r := rng.Derive(a.Seed, t, rng.PurposeOpen)
		for i := 0; i < n; i++ {
			for _, c := range booster.Open(e.cat, e.tun.Pack, r) {
				c.InstanceID = w.MintInstanceID()
				acq := mathx.Round2(pricing.CardPrice(c.Def) * w.CardMarket(c.Def.ID).Price)
				a.AddCards(c)
				a.AddTrackedInstance(agent.NewTrackedInstance(c, c.InstanceID, a.ID, t, acq, e.tun.InitialQuality, e.tun.InitialDesirability))
			}
			a.RemoveBoosters(1)
		}
	}
}

func (e *Engine) playPhase(w *world.World, t int) {
	var eligible []*agent.Agent
	for _, a := range w.Agents() {
		if len(a.Collection) >= e.tun.DeckSize {
			eligible = append(eligible, a)
		}
	}
	for _, a := range eligible {
		if rng.Derive(a.Seed, t, rng.PurposePlay).Float64() >= e.tun.PlayChance {
			continue
		}
		others := make([]*agent.Agent, 0, len(eligible)-1)
		for _, o := range eligible {
			if o.ID != a.ID {
				others = append(others, o)
			}
		}
		if len(others) == 0 {
			e.degrade(a)
			w.AddEvent(world.Event{
				Tick:        t,
				AgentID:     a.ID,
				Kind:        world.EventPlay,
				Description: fmt.Sprintf("%s played a solo game (no opponent available)", a.Name),
				AgentIDs:    []int{a.ID},
			})
			continue
		}
		opp := others[rng.Derive(a.Seed, t, rng.PurposeOpponent).IntN(len(others))]
		e.combat(w, t, a, opp)
	}
}

func (e *Engine) combat(w *world.World, t int, a, b *agent.Agent) {
	da := a.Collection[:e.tun.DeckSize]
	db := b.Collection[:e.tun.DeckSize]
	sa := deck.Score(deck.Definitions(da))
	sb := deck.Score(deck.Definitions(db))

	ev := world.Event{Tick: t, AgentID: a.ID, AgentIDs: []int{a.ID, b.ID}}
	switch {
	case sa == sb:
		ev.Kind = world.EventCombatTie
		ev.Description = fmt.Sprintf("%s vs %s: tie (%.2f to %.2f)", a.Name, b.Name, sa, sb)
	default:
		winner, loser := a, b
		wd, ld := da, db
		ws, ls := sa, sb
		if sb > sa {
			winner, loser = b, a
			wd, ld = db, da
			ws, ls = sb, sa
		}
		for _, c := range wd {
			w.Boost(c.Def.ID, e.tun.CombatStatDelta)
			if inst, ok := winner.Instance(c.InstanceID); ok {
				inst.RecordWin()
			}
		}
		for _, c := range ld {
			w.Penalize(c.Def.ID, e.tun.CombatStatDelta)
			if inst, ok := loser.Instance(c.InstanceID); ok {
				inst.RecordLoss()
			}
		}
		ev.Kind = world.EventCombat
		ev.Triggered = world.Outcome(winner == a)
		ev.Description = fmt.Sprintf("%s vs %s: %s wins (%.2f to %.2f)", a.Name, b.Name, winner.Name, ws, ls)
	}
	e.degrade(a)
	e.degrade(b)
	w.AddEvent(ev)
}

// degrade wears every card of the agent's combat deck, on the owned copy and on
// its tracked instance.
func (e *Engine) degrade(a *agent.Agent) {
	n := min(e.tun.DeckSize, len(a.Collection))
	for i := 0; i < n; i++ {
		c := &a.Collection[i]
		c.Degrade(e.tun.PlayDegradation)
		if inst, ok := a.Instance(c.InstanceID); ok {
			inst.Degrade(e.tun.PlayDegradation)
		}
	}
}

func (e *Engine) agingPhase(w *world.World, t int) {
	iv := e.tun.PackAgeIntervalTicks
	if t <= 0 || iv <= 0 || t%iv != 0 {
		return
	}
	for _, a := range w.Agents() {
		if a.Boosters() == 0 {
			continue
		}
		w.AddEvent(world.Event{
			Tick:        t,
			AgentID:     a.ID,
			Kind:        world.EventPackAge,
			Description: fmt.Sprintf("%s holds %d unopened %s at tick %d", a.Name, a.Boosters(), plural(a.Boosters(), "booster"), t),
			AgentIDs:    []int{a.ID},
		})
	}
}

func (e *Engine) marketPhase(w *world.World, t int) world.MarketSnapshot {
	for _, a := range w.Agents() {
		for _, inst := range a.Instances() {
			inst.Reprice(e.instancePrice(w, inst))
			inst.RecordPricePoint(t)
		}
	}
	return w.CaptureMarketSnapshot()
}

// instancePrice is the catalog price scaled by the card's market price and by the
// copy's wear: a fresh copy (quality 10) trades at full price, a ruined one at half.
func (e *Engine) instancePrice(w *world.World, inst *agent.TrackedCardInstance) float64 {
	def, ok := e.cat.Lookup(inst.CardID)
	if !ok {
		return inst.CurrentPrice
	}
	wear := 0.5 + 0.5*mathx.Clamp(inst.Quality/e.tun.InitialQuality, 0, 1)
	return mathx.Round2(pricing.CardPrice(def) * w.CardMarket(inst.CardID).Price * wear)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
