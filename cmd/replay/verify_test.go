package main

import (
	"errors"
	"testing"

	persistlog "polydros.ai/internal/persistence/log"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/simtest"
)

func TestVerify_MatchesRecordedRun(t *testing.T) {
	h := simtest.NewHarness(t)
	cfg := engine.Config{Seed: 11, InitialAgents: 4, Ticks: 6}
	res := h.Eng.Run(cfg)

	entries := make([]persistlog.TickLogEntry, 0, len(res.Timeseries))
	for _, ts := range res.Timeseries {
		entries = append(entries, persistlog.TickLogEntry{Tick: ts.Tick, Digest: ts.Digest})
	}
	logSrc, err := tickLogSource(entries)
	if err != nil {
		t.Fatalf("tickLogSource: %v", err)
	}

	checked, err := verify(h.Eng, cfg, []source{{name: "run export", digests: res.Digests()}, logSrc})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if checked != 7 {
		t.Fatalf("checked=%d want 7", checked)
	}
}

func TestVerify_ReportsFirstMismatch(t *testing.T) {
	h := simtest.NewHarness(t)
	cfg := engine.Config{Seed: 11, InitialAgents: 4, Ticks: 6}
	digests := h.Eng.Run(cfg).Digests()
	digests[3] = "bad"
	digests[5] = "worse"

	_, err := verify(h.Eng, cfg, []source{{name: "run export", digests: digests}})
	var m *mismatchError
	if !errors.As(err, &m) {
		t.Fatalf("expected mismatchError, got %v", err)
	}
	if m.Tick != 3 || m.Want != "bad" {
		t.Fatalf("unexpected mismatch: %+v", m)
	}
}

func TestVerify_LengthMismatch(t *testing.T) {
	h := simtest.NewHarness(t)
	cfg := engine.Config{Seed: 1, InitialAgents: 2, Ticks: 3}
	digests := h.Eng.Run(cfg).Digests()
	if _, err := verify(h.Eng, cfg, []source{{name: "tick log", digests: digests[:2]}}); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestTickLogSource_RejectsGaps(t *testing.T) {
	if _, err := tickLogSource(nil); err == nil {
		t.Fatalf("expected error for empty log")
	}
	_, err := tickLogSource([]persistlog.TickLogEntry{{Tick: 0}, {Tick: 2}})
	if err == nil {
		t.Fatalf("expected gap error")
	}
}
