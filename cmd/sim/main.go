package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"polydros.ai/internal/config"
	persistlog "polydros.ai/internal/persistence/log"
	"polydros.ai/internal/persistence/runfile"
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/readmodel"
	"polydros.ai/internal/sim/tuning"
)

func main() {
	logger := log.New(os.Stderr, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	env, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	def := engine.DefaultConfig()

	var (
		seed        = flag.Int64("seed", def.Seed, "run seed")
		agents      = flag.Int("agents", def.InitialAgents, "initial agent count")
		ticks       = flag.Int("ticks", def.Ticks, "ticks to simulate")
		catalogPath = flag.String("catalog", env.CatalogPath, "path to cards.json")
		tuningPath  = flag.String("tuning", env.TuningPath, "path to tuning.yaml")
		dataDir     = flag.String("data", env.DataDir, "output directory for -export and -ticklog")
		export      = flag.Bool("export", false, "write the compressed run export under <data>/runs")
		tickLog     = flag.Bool("ticklog", false, "write the compressed tick log under <data>/ticks")
		asJSON      = flag.Bool("json", false, "print the full result as JSON instead of the summary")
	)
	flag.Parse()

	cat, err := catalogs.Load(*catalogPath)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	cfg := engine.Config{Seed: *seed, InitialAgents: *agents, Ticks: *ticks}
	res, err := run(engine.New(cat, tune), cfg, *dataDir, *export, *tickLog, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			logger.Fatalf("encode: %v", err)
		}
		return
	}
	printSummary(os.Stdout, res)
}

// run executes cfg and writes the requested artifacts. The tick log is written
// while the run progresses; the export once it is complete.
func run(eng *engine.Engine, cfg engine.Config, dataDir string, export, tickLog bool, logger *log.Logger) (*engine.Result, error) {
	var tl *persistlog.TickLogger
	var logErr error
	var observe engine.TickObserver
	if tickLog {
		tl = persistlog.NewTickLogger(persistlog.TickLogPath(dataDir, cfg.Seed))
		observe = func(ts engine.TickSummary) {
			if logErr == nil {
				logErr = tl.WriteTick(ts)
			}
		}
	}

	res := eng.RunObserved(cfg, observe)

	if tl != nil {
		if err := tl.Close(); err != nil && logErr == nil {
			logErr = err
		}
		if logErr != nil {
			return nil, fmt.Errorf("tick log: %w", logErr)
		}
		logger.Printf("tick log written: %s", persistlog.TickLogPath(dataDir, cfg.Seed))
	}
	if export {
		path := runfile.Path(dataDir, cfg.Seed)
		if err := runfile.Write(path, res); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		logger.Printf("run export written: %s", path)
	}
	return res, nil
}

func printSummary(out io.Writer, res *engine.Result) {
	f := res.Final
	fmt.Fprintf(out, "seed=%d agents=%d ticks=%d catalog=%s\n", res.Config.Seed, f.AgentCount, f.Tick, short(res.CatalogDigest))
	fmt.Fprintf(out, "cards=%d unopened=%d distributor=%d events=%d\n", f.TotalCards, f.TotalUnopenedBoosters, f.DistributorBoosters, len(res.Events))
	if n := len(res.Timeseries); n > 0 {
		fmt.Fprintf(out, "final digest=%s\n", res.Timeseries[n-1].Digest)
	}
	if m := readmodel.Market(res, 0); m.Latest != nil {
		fmt.Fprintf(out, "price index=%.2f volatility=%.2f unique=%d instances=%d\n",
			m.Latest.PriceIndex, m.Latest.Volatility, m.Latest.UniqueCardsInCirculation, m.Latest.TotalCardInstances)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nAGENT\tPRIMARY\tPRISM\tCARDS\tBOOSTERS")
	for _, a := range readmodel.ListAgents(res) {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%d\n", a.Name, a.PrimaryTrait, a.Prism, a.CollectionCount, a.BoosterCount)
	}
	_ = tw.Flush()
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
