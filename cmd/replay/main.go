package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	persistlog "polydros.ai/internal/persistence/log"
	"polydros.ai/internal/persistence/runfile"
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/tuning"
)

func main() {
	var (
		runPath     = flag.String("run", "", "path to run export (run-*.json.zst)")
		tickLogPath = flag.String("ticks", "", "path to tick log (ticks-*.jsonl.zst)")
		catalogPath = flag.String("catalog", "./configs/cards.json", "path to cards.json")
		tuningPath  = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		seed        = flag.Int64("seed", 0, "run seed (required with -ticks alone)")
		agents      = flag.Int("agents", 0, "initial agents (required with -ticks alone)")
	)
	flag.Parse()

	if *runPath == "" && *tickLogPath == "" {
		fmt.Fprintln(os.Stderr, "missing -run or -ticks")
		os.Exit(2)
	}

	cat, err := catalogs.Load(*catalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalog:", err)
		os.Exit(1)
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	eng := engine.New(cat, tune)

	var cfg engine.Config
	var sources []source
	if *runPath != "" {
		hdr, res, err := runfile.Read(*runPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read run export:", err)
			os.Exit(1)
		}
		fmt.Printf("run export v%d seed=%d agents=%d ticks=%d\n", hdr.Version, hdr.Seed, hdr.Agents, hdr.Ticks)
		if hdr.CatalogDigest != cat.Digest {
			fmt.Fprintf(os.Stderr, "warning: catalog digest differs (export=%s loaded=%s)\n", hdr.CatalogDigest, cat.Digest)
		}
		cfg = res.Config
		sources = append(sources, source{name: "run export", digests: res.Digests()})
	} else {
		cfg = engine.Config{Seed: *seed, InitialAgents: *agents}
	}

	if *tickLogPath != "" {
		entries, err := persistlog.ReadTickLog(*tickLogPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read tick log:", err)
			os.Exit(1)
		}
		src, err := tickLogSource(entries)
		if err != nil {
			fmt.Fprintln(os.Stderr, "tick log:", err)
			os.Exit(1)
		}
		if *runPath == "" {
			cfg.Ticks = len(src.digests) - 1
		}
		sources = append(sources, src)
	}

	checked, err := verify(eng, cfg, sources)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		var m *mismatchError
		if errors.As(err, &m) {
			os.Exit(3)
		}
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks against %d source(s)\n", checked, len(sources))
}
