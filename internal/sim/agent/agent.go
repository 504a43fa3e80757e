// Package agent holds the simulation participant and its mutators. Mutators do no
// validation beyond keeping counts and balances non-negative; callers check
// affordability and stock first.
package agent

import (
	"errors"

	"github.com/shopspring/decimal"

	"polydros.ai/internal/sim/logic/ids"
	"polydros.ai/internal/sim/traits"
)

var ErrInsufficientFunds = errors.New("insufficient prism")

type Agent struct {
	ID     int
	Name   string
	Nick   string
	Traits traits.Bundle
	Seed   int64

	// Collection is the raw insertion-ordered list of owned copies.
	Collection []OwnedCard

	balance   decimal.Decimal
	boosters  int
	instances map[string]*TrackedCardInstance
	order     []string
}

func New(id int, tr traits.Bundle, seed int64, startingPrism decimal.Decimal) *Agent {
	return &Agent{
		ID:        id,
		Name:      ids.AgentName(id),
		Nick:      ids.AgentNick(id),
		Traits:    tr,
		Seed:      seed,
		balance:   startingPrism.Round(2),
		instances: map[string]*TrackedCardInstance{},
	}
}

func (a *Agent) Balance() decimal.Decimal { return a.balance }

// CanAfford reports whether amount can be debited without going negative.
func (a *Agent) CanAfford(amount decimal.Decimal) bool {
	return a.balance.GreaterThanOrEqual(amount)
}

// Debit subtracts amount rounded to two places. The balance is left untouched
// when the agent cannot afford it.
func (a *Agent) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.New("negative debit")
	}
	if !a.CanAfford(amount) {
		return ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(amount).Round(2)
	return nil
}

func (a *Agent) Boosters() int { return a.boosters }

func (a *Agent) AddBoosters(n int) {
	if n > 0 {
		a.boosters += n
	}
}

// RemoveBoosters removes up to n boosters and returns how many were removed.
func (a *Agent) RemoveBoosters(n int) int {
	if n <= 0 {
		return 0
	}
	if n > a.boosters {
		n = a.boosters
	}
	a.boosters -= n
	return n
}

func (a *Agent) AddCards(cards ...OwnedCard) {
	a.Collection = append(a.Collection, cards...)
}

// AddTrackedInstance records inst under its id. Re-adding an id replaces the
// instance in place without changing its position.
func (a *Agent) AddTrackedInstance(inst *TrackedCardInstance) {
	if inst == nil {
		return
	}
	if _, ok := a.instances[inst.InstanceID]; !ok {
		a.order = append(a.order, inst.InstanceID)
	}
	a.instances[inst.InstanceID] = inst
}

func (a *Agent) Instance(id string) (*TrackedCardInstance, bool) {
	inst, ok := a.instances[id]
	return inst, ok
}

// Instances returns the tracked instances in insertion order.
func (a *Agent) Instances() []*TrackedCardInstance {
	out := make([]*TrackedCardInstance, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.instances[id])
	}
	return out
}

func (a *Agent) InstanceCount() int { return len(a.order) }
