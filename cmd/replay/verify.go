package main

import (
	"fmt"

	persistlog "polydros.ai/internal/persistence/log"
	"polydros.ai/internal/sim/engine"
)

// source is a recorded digest sequence, index i being tick i.
type source struct {
	name    string
	digests []string
}

type mismatchError struct {
	Source    string
	Tick      int
	Got, Want string
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("digest mismatch at tick %d (%s): got=%s want=%s", e.Tick, e.Source, e.Got, e.Want)
}

// tickLogSource converts tick log entries, which must start at tick 0 and be
// contiguous, into a digest sequence.
func tickLogSource(entries []persistlog.TickLogEntry) (source, error) {
	if len(entries) == 0 {
		return source{}, fmt.Errorf("empty tick log")
	}
	s := source{name: "tick log", digests: make([]string, 0, len(entries))}
	for i, e := range entries {
		if e.Tick != i {
			return source{}, fmt.Errorf("tick log gap: entry %d has tick %d", i, e.Tick)
		}
		s.digests = append(s.digests, e.Digest)
	}
	return s, nil
}

// verify re-simulates cfg from tick 0 and compares every tick digest against
// each source. It returns the number of ticks checked.
func verify(eng *engine.Engine, cfg engine.Config, sources []source) (int, error) {
	got := eng.Run(cfg).Digests()
	for _, src := range sources {
		if len(src.digests) != len(got) {
			return 0, fmt.Errorf("%s records %d ticks, re-simulation produced %d", src.name, len(src.digests), len(got))
		}
		for t := range got {
			if got[t] != src.digests[t] {
				return 0, &mismatchError{Source: src.name, Tick: t, Got: got[t], Want: src.digests[t]}
			}
		}
	}
	return len(got), nil
}
