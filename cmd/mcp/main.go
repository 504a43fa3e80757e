package main

import (
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"polydros.ai/internal/config"
	"polydros.ai/internal/persistence/indexdb"
	"polydros.ai/internal/session"
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/tuning"
	"polydros.ai/internal/transport/api"
	"polydros.ai/internal/transport/mcp"
)

func main() {
	// stdout carries the MCP protocol.
	logger := log.New(os.Stderr, "[mcp] ", log.LstdFlags|log.Lmicroseconds)

	env, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	var (
		catalogPath = flag.String("catalog", env.CatalogPath, "path to cards.json")
		tuningPath  = flag.String("tuning", env.TuningPath, "path to tuning.yaml")
		maxTicks    = flag.Int("max_ticks", env.MaxTicks, "largest tick count run_simulation accepts (0 = unbounded)")
		maxAgents   = flag.Int("max_agents", env.MaxAgents, "largest agent count run_simulation accepts (0 = unbounded)")
		keepRuns    = flag.Int("keep_runs", env.KeepRuns, "completed runs kept in memory")
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
	idx, err := indexdb.OpenSQLite(indexdb.MemoryPath)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	store := session.NewStore(*keepRuns)
	runner := api.NewServer(engine.New(cat, tune), store, idx, api.Limits{MaxTicks: *maxTicks, MaxAgents: *maxAgents}, logger)
	s := mcp.NewServer(mcp.NewTools(runner, store, idx), "1.0.0")

	logger.Printf("serving MCP on stdio (catalog cards=%d)", cat.Len())
	if err := server.ServeStdio(s); err != nil {
		logger.Fatalf("serve: %v", err)
	}
}
