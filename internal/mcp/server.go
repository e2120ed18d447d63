// Package mcp exposes the reflection engine over the Model Context
// Protocol so agents can run the pipeline and manage pending entries
// without shelling out.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roasbeef/skillreflect/internal/reflect"
)

// Server wraps the MCP server with the reflection engine.
type Server struct {
	server *mcp.Server
	engine *reflect.Engine
}

// NewServer creates a new MCP server with all reflection tools registered.
func NewServer(engine *reflect.Engine) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "skillreflect",
		Version: "0.1.0",
	}, nil)

	s := &Server{
		server: mcpServer,
		engine: engine,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// registerTools registers all reflection tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reflect_run",
		Description: "Run the reflection pipeline over a session transcript",
	}, s.handleRun)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reflect_pending",
		Description: "List ledger entries awaiting human review",
	}, s.handlePending)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reflect_resolve",
		Description: "Resolve a pending ledger entry to a terminal outcome",
	}, s.handleResolve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reflect_history",
		Description: "Show terminal reflection outcomes, optionally for one skill",
	}, s.handleHistory)
}
