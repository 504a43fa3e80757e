// Package mcp exposes runs and their read projections as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"polydros.ai/internal/persistence/indexdb"
	"polydros.ai/internal/session"
	"polydros.ai/internal/sim/engine"
	"polydros.ai/internal/sim/logic/ids"
	"polydros.ai/internal/sim/readmodel"
	"polydros.ai/internal/sim/world"
)

// Runner executes and stores a run. The HTTP server implements it, so both
// surfaces apply the same limits and indexing.
type Runner interface {
	Run(ctx context.Context, cfg engine.Config) (string, *engine.Result, error)
}

type Tools struct {
	runner Runner
	store  *session.Store
	idx    *indexdb.SQLiteIndex
}

// NewTools builds the tool set. idx may be nil; search_cards then reports an
// error.
func NewTools(runner Runner, store *session.Store, idx *indexdb.SQLiteIndex) *Tools {
	return &Tools{runner: runner, store: store, idx: idx}
}

// NewServer returns an MCP server with every tool registered.
func NewServer(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer("polydros", version)
	t.Register(s)
	return s
}

func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(runSimulationTool(), t.handleRunSimulation)
	s.AddTool(listAgentsTool(), t.handleListAgents)
	s.AddTool(getAgentTool(), t.handleGetAgent)
	s.AddTool(getAgentTraitsTool(), t.handleGetAgentTraits)
	s.AddTool(getAgentCollectionTool(), t.handleGetAgentCollection)
	s.AddTool(searchCardsTool(), t.handleSearchCards)
}

// --- Tool definitions ---

func runParam() mcp.ToolOption {
	return mcp.WithString("run_id", mcp.Description("Run id returned by run_simulation. Defaults to the latest run."))
}

func agentParam() mcp.ToolOption {
	return mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent id (3), name (Agent-3) or nick (A3)"))
}

func runSimulationTool() mcp.Tool {
	return mcp.NewTool("run_simulation",
		mcp.WithDescription("Run a deterministic card economy simulation and keep the result for the other tools. "+
			"Returns the run id and the final summary."),
		mcp.WithNumber("seed", mcp.Description("Run seed (default 42)")),
		mcp.WithNumber("initial_agents", mcp.Description("Number of agents (default 10)")),
		mcp.WithNumber("ticks", mcp.Description("Number of ticks to simulate (default 1)")),
	)
}

func listAgentsTool() mcp.Tool {
	return mcp.NewTool("list_agents",
		mcp.WithDescription("List the agents of a run with balance, collection size and primary trait."),
		runParam(),
	)
}

func getAgentTool() mcp.Tool {
	return mcp.NewTool("get_agent",
		mcp.WithDescription("Full export of one agent: collection, deck, traits, tracked card instances and events."),
		runParam(),
		agentParam(),
	)
}

func getAgentTraitsTool() mcp.Tool {
	return mcp.NewTool("get_agent_traits",
		mcp.WithDescription("Trait bundle of one agent."),
		runParam(),
		agentParam(),
	)
}

func getAgentCollectionTool() mcp.Tool {
	return mcp.NewTool("get_agent_collection",
		mcp.WithDescription("Collection of one agent with rarity breakdown, hologram count and total value."),
		runParam(),
		agentParam(),
	)
}

func searchCardsTool() mcp.Tool {
	return mcp.NewTool("search_cards",
		mcp.WithDescription("Search tracked card instances of a run, most expensive first."),
		runParam(),
		mcp.WithString("name", mcp.Description("Substring of the card name")),
		mcp.WithString("rarity", mcp.Description("Common, Uncommon, Rare, Mythic, Player or Alternate Art")),
		mcp.WithString("condition", mcp.Description("mint, played, damaged or worn")),
		mcp.WithString("owner", mcp.Description("Owner agent id, name or nick")),
		mcp.WithNumber("min_price", mcp.Description("Minimum current price")),
		mcp.WithNumber("max_price", mcp.Description("Maximum current price")),
		mcp.WithNumber("limit", mcp.Description("Maximum rows (default and cap 500)")),
	)
}

// --- Tool handlers ---

type runSummary struct {
	RunID         string        `json:"run_id"`
	Config        engine.Config `json:"config"`
	CatalogDigest string        `json:"catalog_digest"`
	Final         world.Summary `json:"final"`
	FinalDigest   string        `json:"final_digest"`
	Events        int           `json:"events"`
}

func (t *Tools) handleRunSimulation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def := engine.DefaultConfig()
	cfg := engine.Config{
		Seed:          int64(request.GetInt("seed", int(def.Seed))),
		InitialAgents: request.GetInt("initial_agents", def.InitialAgents),
		Ticks:         request.GetInt("ticks", def.Ticks),
	}
	runID, res, err := t.runner.Run(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultErrorf("run rejected: %v", err), nil
	}
	out := runSummary{
		RunID:         runID,
		Config:        res.Config,
		CatalogDigest: res.CatalogDigest,
		Final:         res.Final,
		Events:        len(res.Events),
	}
	if n := len(res.Timeseries); n > 0 {
		out.FinalDigest = res.Timeseries[n-1].Digest
	}
	return respondJSON(out)
}

func (t *Tools) session(request mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult) {
	sess, ok := t.store.Get(request.GetString("run_id", ""))
	if !ok {
		return nil, mcp.NewToolResultError("No simulation run found. Use run_simulation first.")
	}
	return sess, nil
}

func (t *Tools) handleListAgents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errRes := t.session(request)
	if errRes != nil {
		return errRes, nil
	}
	return respondJSON(readmodel.ListAgents(sess.Result))
}

// agentView resolves run_id and agent_id, then applies view.
func agentView[T any](t *Tools, request mcp.CallToolRequest, view func(*engine.Result, int) (T, bool)) (*mcp.CallToolResult, error) {
	sess, errRes := t.session(request)
	if errRes != nil {
		return errRes, nil
	}
	raw := request.GetString("agent_id", "")
	id, ok := ids.ParseAgentID(raw)
	if !ok {
		return mcp.NewToolResultErrorf("Invalid agent_id %q.", raw), nil
	}
	v, ok := view(sess.Result, id)
	if !ok {
		return mcp.NewToolResultErrorf("Agent %d not found in run %s.", id, sess.ID), nil
	}
	return respondJSON(v)
}

func (t *Tools) handleGetAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return agentView(t, request, readmodel.Agent)
}

func (t *Tools) handleGetAgentTraits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return agentView(t, request, readmodel.Traits)
}

func (t *Tools) handleGetAgentCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return agentView(t, request, readmodel.Collection)
}

func (t *Tools) handleSearchCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.idx == nil {
		return mcp.NewToolResultError("Card index is disabled."), nil
	}
	sess, errRes := t.session(request)
	if errRes != nil {
		return errRes, nil
	}
	q := indexdb.CardQuery{
		Name:      request.GetString("name", ""),
		Rarity:    request.GetString("rarity", ""),
		Condition: request.GetString("condition", ""),
		MinPrice:  request.GetFloat("min_price", 0),
		MaxPrice:  request.GetFloat("max_price", 0),
		Limit:     request.GetInt("limit", 0),
	}
	if owner := request.GetString("owner", ""); owner != "" {
		id, ok := ids.ParseAgentID(owner)
		if !ok {
			return mcp.NewToolResultErrorf("Invalid owner %q.", owner), nil
		}
		q.OwnerID = id
	}
	rows, err := t.idx.SearchCards(ctx, sess.ID, q)
	if err != nil {
		return mcp.NewToolResultErrorf("Search failed: %v", err), nil
	}
	return respondJSON(map[string]any{"run_id": sess.ID, "count": len(rows), "cards": rows})
}

func respondJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
