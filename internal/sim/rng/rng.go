// Package rng derives every random stream of a run from the run seed.
//
// The master stream is consumed only while agents are created. Everything that
// happens during ticks draws from a purpose stream keyed by (agent seed, tick,
// purpose), so adding draws to one phase never shifts the draws of another. A new
// randomized decision must claim a new Purpose value; values are never reused.
package rng

import (
	"math/rand/v2"

	"polydros.ai/internal/sim/logic/mathx"
)

type Purpose int64

const (
	PurposeOpen      Purpose = 1000
	PurposeBuy       Purpose = 2000
	PurposePlay      Purpose = 3000
	PurposeOpponent  Purpose = 4000
	PurposeDeckBuild Purpose = 5000
)

// Purposes lists every reserved purpose.
var Purposes = []Purpose{PurposeOpen, PurposeBuy, PurposePlay, PurposeOpponent, PurposeDeckBuild}

func (p Purpose) String() string {
	switch p {
	case PurposeOpen:
		return "open"
	case PurposeBuy:
		return "buy"
	case PurposePlay:
		return "play"
	case PurposeOpponent:
		return "opponent"
	case PurposeDeckBuild:
		return "deck_build"
	}
	return "unknown"
}

// Stream is the subset of *rand.Rand the simulation consumes.
type Stream interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Master returns the run's master stream.
func Master(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(u, mathx.Mix64(u)))
}

// AgentSeed draws a private agent seed in [0, 2^31) from the master stream.
func AgentSeed(master *rand.Rand) int64 {
	return master.Int64N(1 << 31)
}

// Derive returns the stream for one agent, tick and purpose.
func Derive(agentSeed int64, tick int, p Purpose) *rand.Rand {
	h := mathx.Hash3(agentSeed, int64(tick), int64(p))
	return rand.New(rand.NewPCG(h, mathx.Mix64(h^uint64(p))))
}
