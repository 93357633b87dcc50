// Package mcp exposes the compositor's IPC surface as MCP tools over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/ipc"
)

const (
	ServerName    = "tessera"
	ServerVersion = "0.1.0"
)

// Client is the part of the IPC client the tools use.
type Client interface {
	Dispatch(a action.Action) error
	ListWorkspaces() ([]ipc.WorkspaceInfo, error)
	ListOutputs() ([]ipc.OutputInfo, error)
	GetStatus() (*ipc.StatusData, error)
}

var _ Client = (*ipc.Client)(nil)

// Server is the MCP server bridging tool calls to a running compositor.
type Server struct {
	mcpServer *mcpsdk.Server
	client    Client
	logger    *slog.Logger
}

// NewServer creates a new MCP server that forwards to client.
func NewServer(client Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{client: client, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_workspaces",
		Description: "List every workspace ordered by index with its bound output (if any), whether it is active, and its windows (app id, title, floating) in stacking order.",
	}, s.handleListWorkspaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List connected outputs with their position in the global layout, current mode, and bound workspace.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report compositor status: session id, uptime, active output and workspace, window count, and config path.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dispatch",
		Description: "Run a compositor action: quit, close-focused-window, switch-to-workspace (needs workspace), spawn (needs command argv), or toggle-floating.",
	}, s.handleDispatch)
}
