package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polydros.ai/internal/config"
	"polydros.ai/internal/session"
	"polydros.ai/internal/sim/catalogs"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/tuning"
	"polydros.ai/internal/transport/api"
	"polydros.ai/internal/transport/ws"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	env, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	var (
		addr        = flag.String("addr", env.Addr, "http listen address")
		catalogPath = flag.String("catalog", env.CatalogPath, "path to cards.json")
		tuningPath  = flag.String("tuning", env.TuningPath, "path to tuning.yaml")
		indexPath   = flag.String("index_db", env.IndexPath, "card index sqlite path (:memory: for in-process)")
		disableDB   = flag.Bool("disable_db", false, "disable the card index (card search answers 503)")
		maxTicks    = flag.Int("max_ticks", env.MaxTicks, "largest tick count a run request may ask for (0 = unbounded)")
		maxAgents   = flag.Int("max_agents", env.MaxAgents, "largest agent count a run request may ask for (0 = unbounded)")
		keepRuns    = flag.Int("keep_runs", env.KeepRuns, "completed runs kept in memory")
		mcpPath     = flag.String("mcp_path", "/mcp", "embedded MCP endpoint path (empty to disable)")
		enablePprof = flag.Bool("pprof", false, "serve /debug/pprof")
	)
	flag.Parse()

	cat, err := catalogs.Load(*catalogPath)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}
	logger.Printf("catalog cards=%d digest=%s", cat.Len(), cat.Digest[:12])

	idx, err := openRuntimeIndex(env.IndexBackend, *indexPath, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
	}

	store := session.NewStore(*keepRuns)
	apiSrv := api.NewServer(engine.New(cat, tune), store, idx, api.Limits{MaxTicks: *maxTicks, MaxAgents: *maxAgents}, logger)

	mux := http.NewServeMux()
	apiSrv.Register(mux)
	mux.HandleFunc("GET /v1/ws", ws.NewServer(store, logger).Handler())
	mountEmbeddedMCP(mux, *mcpPath, apiSrv, store, idx, logger)
	if *enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
