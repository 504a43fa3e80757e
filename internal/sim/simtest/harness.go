// Package simtest provides helpers for tests that drive whole runs.
package simtest

import (
	"encoding/json"
	"path/filepath"
	"runtime"
	"testing"

	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/tuning"
)

// Harness runs simulations against a fixed catalog and tuning.
type Harness struct {
	T   *testing.T
	Cat *catalogs.Catalog
	Tun tuning.Tuning
	Eng *engine.Engine
}

// ConfigDir is the repository configs/ directory.
func ConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "configs")
}

// NewHarness loads configs/cards.json and configs/tuning.yaml.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	cat, err := catalogs.Load(filepath.Join(ConfigDir(), "cards.json"))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	tun, err := tuning.Load(filepath.Join(ConfigDir(), "tuning.yaml"))
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	return NewHarnessWith(t, cat, tun)
}

func NewHarnessWith(t *testing.T, cat *catalogs.Catalog, tun tuning.Tuning) *Harness {
	t.Helper()
	return &Harness{T: t, Cat: cat, Tun: tun, Eng: engine.New(cat, tun)}
}

func (h *Harness) Run(seed int64, agents, ticks int) *engine.Result {
	h.T.Helper()
	return h.Eng.Run(engine.Config{Seed: seed, InitialAgents: agents, Ticks: ticks})
}

// RunJSON runs cfg and returns the serialized result.
func (h *Harness) RunJSON(seed int64, agents, ticks int) []byte {
	h.T.Helper()
	b, err := json.Marshal(h.Run(seed, agents, ticks))
	if err != nil {
		h.T.Fatalf("marshal result: %v", err)
	}
	return b
}

// SmallCatalog has one card of each rarity. Every card scores the same in combat
// so decks built from it always tie.
func SmallCatalog(t *testing.T) *catalogs.Catalog {
	t.Helper()
	var defs []catalogs.CardDefinition
	for i, r := range catalogs.Rarities {
		defs = append(defs, catalogs.CardDefinition{
			ID:                string(r[0]) + "00" + string(rune('1'+i)),
			Name:              string(r) + " Card",
			Color:             "Grey",
			Type:              "Unit",
			Rarity:            r,
			Power:             2,
			Health:            2,
			GemColored:        1,
			PerPackAppearance: 1,
			PackWeight:        1,
			QualityScore:      2,
			BasePrice:         catalogs.DefaultBasePrice,
		})
	}
	c, err := catalogs.New(defs)
	if err != nil {
		t.Fatalf("small catalog: %v", err)
	}
	return c
}
