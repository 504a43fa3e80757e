// Package api serves the run and read-projection endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"polydros.ai/internal/persistence/indexdb"
	"polydros.ai/internal/protocol"
	"polydros.ai/internal/session"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/logic/ids"
	"polydros.ai/internal/sim/readmodel"
)

// Limits bounds run requests. Zero disables a bound.
type Limits struct {
	MaxTicks  int
	MaxAgents int
}

type Server struct {
	eng    *engine.Engine
	store  *session.Store
	idx    *indexdb.SQLiteIndex
	limits Limits
	log    *log.Logger

	runsTotal atomic.Uint64
}

// NewServer wires the HTTP surface. idx may be nil, in which case card search
// answers 503.
func NewServer(eng *engine.Engine, store *session.Store, idx *indexdb.SQLiteIndex, limits Limits, logger *log.Logger) *Server {
	return &Server{eng: eng, store: store, idx: idx, limits: limits, log: logger}
}

// Index returns the card index, nil when disabled.
func (s *Server) Index() *indexdb.SQLiteIndex { return s.idx }

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleRunByID)

	mux.HandleFunc("GET /agents", s.handleAgents)
	mux.HandleFunc("GET /agents/{id}", s.handleAgent)
	mux.HandleFunc("GET /agents/{id}/traits", s.handleTraits)
	mux.HandleFunc("GET /agents/{id}/collection", s.handleCollection)
	mux.HandleFunc("GET /agents/{id}/cards", s.handleCards)

	mux.HandleFunc("GET /cards", s.handleSearch)
	mux.HandleFunc("GET /market", s.handleMarket)
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type RunResponse struct {
	RunID  string         `json:"run_id"`
	Result *engine.Result `json:"result"`
}

func (s *Server) handleRun(rw http.ResponseWriter, r *http.Request) {
	cfg := engine.DefaultConfig()
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, fmt.Sprintf("bad run config: %v", err))
		return
	}
	runID, res, err := s.Run(r.Context(), cfg)
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrLimit, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, RunResponse{RunID: runID, Result: res})
}

func (s *Server) checkLimits(cfg engine.Config) error {
	if s.limits.MaxTicks > 0 && cfg.Ticks > s.limits.MaxTicks {
		return fmt.Errorf("ticks %d exceeds max_ticks %d", cfg.Ticks, s.limits.MaxTicks)
	}
	if s.limits.MaxAgents > 0 && cfg.InitialAgents > s.limits.MaxAgents {
		return fmt.Errorf("initial_agents %d exceeds max_agents %d", cfg.InitialAgents, s.limits.MaxAgents)
	}
	return nil
}

// Run checks cfg against the limits, executes it, indexes it and stores the
// session. Index failures are logged and do not fail the run.
func (s *Server) Run(ctx context.Context, cfg engine.Config) (string, *engine.Result, error) {
	if err := s.checkLimits(cfg); err != nil {
		return "", nil, err
	}
	runID := session.NewID()
	start := time.Now()

	var observe engine.TickObserver
	if s.idx != nil {
		observe = func(ts engine.TickSummary) { s.idx.WriteTick(runID, ts) }
	}
	res := s.eng.RunObserved(cfg, observe)
	if s.idx != nil {
		if err := s.idx.IndexRun(ctx, runID, res); err != nil {
			s.log.Printf("index run %s: %v", runID, err)
		}
	}
	s.store.Add(runID, res)
	s.runsTotal.Add(1)
	s.log.Printf("run %s seed=%d agents=%d ticks=%d took=%s", runID, cfg.Seed, cfg.InitialAgents, cfg.Ticks, time.Since(start).Round(time.Millisecond))
	return runID, res, nil
}

func (s *Server) handleRuns(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, s.store.List())
}

func (s *Server) handleRunByID(rw http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(rw, http.StatusNotFound, protocol.ErrRunNotFound, "run not found")
		return
	}
	writeJSON(rw, http.StatusOK, RunResponse{RunID: sess.ID, Result: sess.Result})
}

// session resolves the ?run= query parameter, defaulting to the latest run.
func (s *Server) session(rw http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.store.Get(strings.TrimSpace(r.URL.Query().Get("run")))
	if !ok {
		writeError(rw, http.StatusNotFound, protocol.ErrRunNotFound, "no simulation run found")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleAgents(rw http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(rw, r)
	if !ok {
		return
	}
	writeJSON(rw, http.StatusOK, readmodel.ListAgents(sess.Result))
}

// agentLookup resolves the run and the {id} path value, then applies view.
func agentLookup[T any](s *Server, rw http.ResponseWriter, r *http.Request, view func(*engine.Result, int) (T, bool)) {
	sess, ok := s.session(rw, r)
	if !ok {
		return
	}
	id, ok := ids.ParseAgentID(r.PathValue("id"))
	if !ok {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "bad agent id")
		return
	}
	v, ok := view(sess.Result, id)
	if !ok {
		writeError(rw, http.StatusNotFound, protocol.ErrAgentNotFound, "agent not found")
		return
	}
	writeJSON(rw, http.StatusOK, v)
}

func (s *Server) handleAgent(rw http.ResponseWriter, r *http.Request) {
	agentLookup(s, rw, r, readmodel.Agent)
}

func (s *Server) handleTraits(rw http.ResponseWriter, r *http.Request) {
	agentLookup(s, rw, r, readmodel.Traits)
}

func (s *Server) handleCollection(rw http.ResponseWriter, r *http.Request) {
	agentLookup(s, rw, r, readmodel.Collection)
}

func (s *Server) handleCards(rw http.ResponseWriter, r *http.Request) {
	agentLookup(s, rw, r, readmodel.Cards)
}

func (s *Server) handleSearch(rw http.ResponseWriter, r *http.Request) {
	if s.idx == nil {
		writeError(rw, http.StatusServiceUnavailable, protocol.ErrUnavailable, "card index disabled")
		return
	}
	sess, ok := s.session(rw, r)
	if !ok {
		return
	}
	q, err := parseCardQuery(r)
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}
	rows, err := s.idx.SearchCards(r.Context(), sess.ID, q)
	if err != nil {
		s.log.Printf("search cards: %v", err)
		writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, "search failed")
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"run_id": sess.ID, "count": len(rows), "cards": rows})
}

func parseCardQuery(r *http.Request) (indexdb.CardQuery, error) {
	v := r.URL.Query()
	q := indexdb.CardQuery{
		Name:      strings.TrimSpace(v.Get("name")),
		Rarity:    strings.TrimSpace(v.Get("rarity")),
		Condition: strings.TrimSpace(v.Get("condition")),
	}
	if o := v.Get("owner"); o != "" {
		id, ok := ids.ParseAgentID(o)
		if !ok {
			return q, fmt.Errorf("bad owner %q", o)
		}
		q.OwnerID = id
	}
	var err error
	if q.MinPrice, err = floatParam(v.Get("min_price")); err != nil {
		return q, fmt.Errorf("min_price: %w", err)
	}
	if q.MaxPrice, err = floatParam(v.Get("max_price")); err != nil {
		return q, fmt.Errorf("max_price: %w", err)
	}
	if q.Limit, err = intParam(v.Get("limit")); err != nil {
		return q, fmt.Errorf("limit: %w", err)
	}
	if q.Offset, err = intParam(v.Get("offset")); err != nil {
		return q, fmt.Errorf("offset: %w", err)
	}
	return q, nil
}

func (s *Server) handleMarket(rw http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(rw, r)
	if !ok {
		return
	}
	top, err := intParam(r.URL.Query().Get("top"))
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "top: "+err.Error())
		return
	}
	if top == 0 {
		top = 10
	}
	writeJSON(rw, http.StatusOK, readmodel.Market(sess.Result, top))
}

func (s *Server) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(rw, "# HELP polydros_runs_total Simulation runs completed by this process.\n")
	fmt.Fprintf(rw, "# TYPE polydros_runs_total counter\n")
	fmt.Fprintf(rw, "polydros_runs_total %d\n", s.runsTotal.Load())

	fmt.Fprintf(rw, "# HELP polydros_sessions Completed runs held in memory.\n")
	fmt.Fprintf(rw, "# TYPE polydros_sessions gauge\n")
	fmt.Fprintf(rw, "polydros_sessions %d\n", s.store.Len())

	if s.idx != nil {
		st := s.idx.Stats()
		fmt.Fprintf(rw, "# HELP polydros_index_drop_tick_total Tick rows dropped by a full index queue.\n")
		fmt.Fprintf(rw, "# TYPE polydros_index_drop_tick_total counter\n")
		fmt.Fprintf(rw, "polydros_index_drop_tick_total %d\n", st.DropTickTotal)
		fmt.Fprintf(rw, "# HELP polydros_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE polydros_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "polydros_index_queue_depth %d\n", st.QueueDepth)
	}
}

func floatParam(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must be >= 0")
	}
	return n, nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

// ErrorResponse is the body of every non-2xx JSON answer. Code is one of the
// protocol error codes.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeError(rw http.ResponseWriter, status int, code, msg string) {
	writeJSON(rw, status, ErrorResponse{Code: code, Error: msg})
}
