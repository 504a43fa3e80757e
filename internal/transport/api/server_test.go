package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"polydros.ai/internal/persistence/indexdb"
	"polydros.ai/internal/protocol"
	"polydros.ai/internal/session"
	"polydros.ai/internal/sim/readmodel"
	"polydros.ai/internal/sim/simtest"
)

func newTestServer(t *testing.T, limits Limits) (*Server, *httptest.Server) {
	t.Helper()
	h := simtest.NewHarness(t)
	idx, err := indexdb.OpenSQLite(indexdb.MemoryPath)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	s := NewServer(h.Eng, session.NewStore(4), idx, limits, log.New(io.Discard, "", 0))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, url, raw, err)
		}
	}
	return resp.StatusCode
}

func TestRun_DefaultsAndReadBack(t *testing.T) {
	_, ts := newTestServer(t, Limits{})

	var run RunResponse
	if code := doJSON(t, http.MethodPost, ts.URL+"/run", "", &run); code != 200 {
		t.Fatalf("POST /run status=%d", code)
	}
	if run.RunID == "" || run.Result == nil {
		t.Fatalf("empty run response")
	}
	if run.Result.Config.Seed != 42 || run.Result.Config.InitialAgents != 10 || run.Result.Config.Ticks != 1 {
		t.Fatalf("defaults not applied: %+v", run.Result.Config)
	}

	var byID RunResponse
	if code := doJSON(t, http.MethodGet, ts.URL+"/runs/"+run.RunID, "", &byID); code != 200 {
		t.Fatalf("GET /runs/{id} status=%d", code)
	}
	if byID.RunID != run.RunID || len(byID.Result.Agents) != 10 {
		t.Fatalf("run read-back mismatch")
	}

	var agents []readmodel.AgentSummary
	if code := doJSON(t, http.MethodGet, ts.URL+"/agents", "", &agents); code != 200 {
		t.Fatalf("GET /agents status=%d", code)
	}
	if len(agents) != 10 || agents[0].Name != "Agent-1" || agents[9].Nick != "A10" {
		t.Fatalf("unexpected agents: %+v", agents)
	}
}

func TestRun_PartialConfigKeepsDefaults(t *testing.T) {
	_, ts := newTestServer(t, Limits{})
	var run RunResponse
	if code := doJSON(t, http.MethodPost, ts.URL+"/run", `{"initial_agents":3}`, &run); code != 200 {
		t.Fatalf("status=%d", code)
	}
	if run.Result.Config.Seed != 42 || run.Result.Config.InitialAgents != 3 || run.Result.Config.Ticks != 1 {
		t.Fatalf("config=%+v", run.Result.Config)
	}
}

func TestRun_RejectsBadRequests(t *testing.T) {
	_, ts := newTestServer(t, Limits{MaxTicks: 5, MaxAgents: 4})
	cases := []struct {
		name string
		body string
		code string
	}{
		{"too many ticks", `{"ticks":6}`, protocol.ErrLimit},
		{"too many agents", `{"initial_agents":5}`, protocol.ErrLimit},
		{"unknown field", `{"agents":2}`, protocol.ErrBadRequest},
		{"malformed", `{`, protocol.ErrBadRequest},
	}
	for _, tc := range cases {
		var e ErrorResponse
		if code := doJSON(t, http.MethodPost, ts.URL+"/run", tc.body, &e); code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", tc.name, code)
		}
		if e.Error == "" || e.Code != tc.code {
			t.Fatalf("%s: unexpected error body %+v", tc.name, e)
		}
	}
}

func TestAgents_NotFound(t *testing.T) {
	_, ts := newTestServer(t, Limits{})

	var e map[string]string
	if code := doJSON(t, http.MethodGet, ts.URL+"/agents", "", &e); code != 404 || e["error"] == "" {
		t.Fatalf("expected 404 before any run, got %d %v", code, e)
	}

	doJSON(t, http.MethodPost, ts.URL+"/run", `{"initial_agents":2,"ticks":1}`, nil)
	var ae ErrorResponse
	if code := doJSON(t, http.MethodGet, ts.URL+"/agents/99", "", &ae); code != 404 || ae.Code != protocol.ErrAgentNotFound {
		t.Fatalf("unknown agent status=%d body=%+v", code, ae)
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/agents/zero", "", &e); code != 400 {
		t.Fatalf("bad agent id status=%d", code)
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/agents?run=missing", "", &e); code != 404 {
		t.Fatalf("unknown run status=%d", code)
	}
}

func TestAgentViews(t *testing.T) {
	_, ts := newTestServer(t, Limits{})
	var run RunResponse
	doJSON(t, http.MethodPost, ts.URL+"/run", `{"seed":7,"initial_agents":3,"ticks":2}`, &run)

	var tr readmodel.AgentTraits
	if code := doJSON(t, http.MethodGet, ts.URL+"/agents/Agent-2/traits?run="+run.RunID, "", &tr); code != 200 {
		t.Fatalf("traits status=%d", code)
	}
	if tr.AgentID != 2 || tr.Traits != run.Result.Agents[1].Traits {
		t.Fatalf("traits mismatch: %+v", tr)
	}

	var coll readmodel.CollectionView
	if code := doJSON(t, http.MethodGet, ts.URL+"/agents/A1/collection", "", &coll); code != 200 {
		t.Fatalf("collection status=%d", code)
	}
	sum := 0
	for _, n := range coll.RarityBreakdown {
		sum += n
	}
	if coll.Count != run.Result.Agents[0].CollectionCount || sum != coll.Count {
		t.Fatalf("collection count=%d breakdown sum=%d", coll.Count, sum)
	}

	var cards readmodel.CardsView
	if code := doJSON(t, http.MethodGet, ts.URL+"/agents/1/cards", "", &cards); code != 200 {
		t.Fatalf("cards status=%d", code)
	}
	if cards.Count != len(run.Result.Agents[0].CardInstances) {
		t.Fatalf("cards count=%d", cards.Count)
	}
}

func TestSearchCards(t *testing.T) {
	_, ts := newTestServer(t, Limits{})
	var run RunResponse
	doJSON(t, http.MethodPost, ts.URL+"/run", `{"seed":3,"initial_agents":2,"ticks":1}`, &run)

	var body struct {
		RunID string            `json:"run_id"`
		Count int               `json:"count"`
		Cards []indexdb.CardRow `json:"cards"`
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/cards?owner=2&rarity=Common", "", &body); code != 200 {
		t.Fatalf("search status=%d", code)
	}
	if body.RunID != run.RunID || body.Count == 0 || body.Count != len(body.Cards) {
		t.Fatalf("unexpected search result: run=%s count=%d", body.RunID, body.Count)
	}
	for _, c := range body.Cards {
		if c.OwnerID != 2 || c.Rarity != "Common" {
			t.Fatalf("filter leaked %+v", c)
		}
	}

	var e map[string]string
	if code := doJSON(t, http.MethodGet, ts.URL+"/cards?min_price=cheap", "", &e); code != 400 {
		t.Fatalf("bad min_price status=%d", code)
	}
}

func TestMarketAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, Limits{})
	doJSON(t, http.MethodPost, ts.URL+"/run", `{"initial_agents":4,"ticks":2}`, nil)

	var m readmodel.MarketSummary
	if code := doJSON(t, http.MethodGet, ts.URL+"/market?top=3", "", &m); code != 200 {
		t.Fatalf("market status=%d", code)
	}
	if m.Tick != 2 || m.Latest == nil || len(m.TopMovers) > 3 {
		t.Fatalf("unexpected market summary: %+v", m)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(raw, []byte("polydros_runs_total 1\n")) || !bytes.Contains(raw, []byte("polydros_sessions 1\n")) {
		t.Fatalf("metrics missing counters:\n%s", raw)
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, Limits{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("healthz status=%d", resp.StatusCode)
	}
}
