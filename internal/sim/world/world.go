package world

import (
	"sort"

	"github.com/shopspring/decimal"

	"polydros.ai/internal/sim/agent"
	"polydros.ai/internal/sim/logic/ids"
)

// World is the state of one run. It is owned by a single engine call and is not
// safe for concurrent use.
type World struct {
	Tick int
	Seed int64

	// DistributorBoosters is the remaining shared booster supply.
	DistributorBoosters int

	agents map[int]*agent.Agent
	order  []int

	events   []Event
	tickFrom map[int]int

	market    map[string]CardMarket
	floor     float64
	snapshots []MarketSnapshot

	cardsTradedThisTick  int
	volumeTradedThisTick float64

	minted uint64
}

// New creates an empty world. floor is the lower bound of every card market value.
func New(seed int64, distributorBoosters int, floor float64) *World {
	return &World{
		Seed:                seed,
		DistributorBoosters: distributorBoosters,
		agents:              map[int]*agent.Agent{},
		tickFrom:            map[int]int{},
		market:              map[string]CardMarket{},
		floor:               floor,
	}
}

func (w *World) AddAgent(a *agent.Agent) {
	if _, ok := w.agents[a.ID]; !ok {
		w.order = append(w.order, a.ID)
		sort.Ints(w.order)
	}
	w.agents[a.ID] = a
}

func (w *World) Agent(id int) (*agent.Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// Agents returns the agents in ascending id order.
func (w *World) Agents() []*agent.Agent {
	out := make([]*agent.Agent, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.agents[id])
	}
	return out
}

// MintInstanceID returns the next card instance id of the run.
func (w *World) MintInstanceID() string {
	w.minted++
	return ids.InstanceID(w.Seed, w.minted)
}

func (w *World) Minted() uint64 { return w.minted }

// TotalPrism sums every agent balance.
func (w *World) TotalPrism() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range w.agents {
		sum = sum.Add(a.Balance())
	}
	return sum
}

type Summary struct {
	Tick                  int `json:"tick"`
	AgentCount            int `json:"agent_count"`
	TotalCards            int `json:"total_cards"`
	DistributorBoosters   int `json:"distributor_boosters"`
	TotalUnopenedBoosters int `json:"total_unopened_boosters"`
}

func (w *World) Summary() Summary {
	s := Summary{
		Tick:                w.Tick,
		AgentCount:          len(w.agents),
		DistributorBoosters: w.DistributorBoosters,
	}
	for _, a := range w.agents {
		s.TotalCards += len(a.Collection)
		s.TotalUnopenedBoosters += a.Boosters()
	}
	return s
}
