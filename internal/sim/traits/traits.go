// Package traits generates the fixed behavioural profile of an agent.
package traits

import (
	"math/rand/v2"

	"polydros.ai/internal/sim/logic/mathx"
)

type Primary string

const (
	Collector  Primary = "collector"
	Competitor Primary = "competitor"
	Gambler    Primary = "gambler"
	Scavenger  Primary = "scavenger"
)

var Primaries = []Primary{Collector, Competitor, Gambler, Scavenger}

type RiskAversion string

const (
	RiskLow    RiskAversion = "low"
	RiskMedium RiskAversion = "medium"
	RiskHigh   RiskAversion = "high"
)

var RiskLevels = []RiskAversion{RiskLow, RiskMedium, RiskHigh}

type TimeHorizon string

const (
	HorizonShort  TimeHorizon = "short"
	HorizonMedium TimeHorizon = "medium"
	HorizonLong   TimeHorizon = "long"
)

var Horizons = []TimeHorizon{HorizonShort, HorizonMedium, HorizonLong}

// Collector scores are restricted to this range and rounded to two places; it is
// the per-tick probability of buying once the collection threshold is reached.
const (
	CollectorMin = 0.10
	CollectorMax = 0.50
)

// Bundle is immutable after Generate.
type Bundle struct {
	Primary      Primary      `json:"primary_trait"`
	RiskAversion RiskAversion `json:"risk_aversion"`
	TimeHorizon  TimeHorizon  `json:"time_horizon"`
	Collector    float64      `json:"collector_trait"`
	Competitor   float64      `json:"competitor_trait"`
	Gambler      float64      `json:"gambler_trait"`
	Scavenger    float64      `json:"scavenger_trait"`
}

// Generate draws a bundle from the master stream. The draw order is part of the
// run's reproducibility contract: primary, risk, horizon, then the four scores.
func Generate(r *rand.Rand) Bundle {
	var b Bundle
	b.Primary = Primaries[r.IntN(len(Primaries))]
	b.RiskAversion = RiskLevels[r.IntN(len(RiskLevels))]
	b.TimeHorizon = Horizons[r.IntN(len(Horizons))]
	b.Collector = mathx.Round2(CollectorMin + r.Float64()*(CollectorMax-CollectorMin))
	b.Competitor = r.Float64()
	b.Gambler = r.Float64()
	b.Scavenger = r.Float64()
	return b
}

// Scores returns the four trait scores keyed by trait name.
func (b Bundle) Scores() map[Primary]float64 {
	return map[Primary]float64{
		Collector:  b.Collector,
		Competitor: b.Competitor,
		Gambler:    b.Gambler,
		Scavenger:  b.Scavenger,
	}
}
