package main

import (
	"log"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"polydros.ai/internal/persistence/indexdb"
	"polydros.ai/internal/session"
	"polydros.ai/internal/transport/mcp"
)

const mcpVersion = "1.0.0"

// mountEmbeddedMCP serves the MCP tools over streamable HTTP on the main mux,
// sharing the run store with the HTTP API.
func mountEmbeddedMCP(mux *http.ServeMux, path string, runner mcp.Runner, store *session.Store, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	if path == "" {
		logger.Printf("embedded MCP disabled (mcp_path empty)")
		return
	}
	srv := mcp.NewServer(mcp.NewTools(runner, store, idx), mcpVersion)
	mux.Handle(path, server.NewStreamableHTTPServer(srv, server.WithEndpointPath(path), server.WithStateLess(true)))
	logger.Printf("embedded MCP on %s", path)
}
