// Package mcp exposes the publishing hub as an MCP server so agent hosts
// can drive sessions with tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/JonnyTran/heydev/internal/logging"
	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/flow"
	"github.com/JonnyTran/heydev/pkg/gate"
)

// GateResponse is the wire shape of a pending gate.
type GateResponse struct {
	ID      string   `json:"id" jsonschema_description:"Gate instance identifier, echo it back in respond"`
	Action  string   `json:"action" jsonschema_description:"Name of the gated action"`
	Prompt  string   `json:"prompt" jsonschema_description:"Question to put to the human"`
	Options []string `json:"options,omitempty" jsonschema_description:"Allowed sentinel responses, if closed"`
	Pending bool     `json:"pending" jsonschema_description:"Whether a gate is currently awaiting a response"`
}

// StateResponse wraps a session state snapshot.
type StateResponse struct {
	SessionID string        `json:"session_id"`
	State     *domain.State `json:"state"`
}

// Server wraps the hub and exposes it over MCP.
type Server struct {
	hub       *flow.Hub
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates the MCP server and registers the session tools.
func NewServer(hub *flow.Hub, version string, opts ...Option) *Server {
	s := &Server{
		hub:       hub,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("heydev-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start a publishing session. The session opens its first gate immediately."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Identifier of the session to start")),
	)
	s.mcpServer.AddTool(startTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("session_id", "")
		if id == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}
		if err := s.hub.Start(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("start failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("session %s started", id)), nil
	})

	stateTool := mcp.NewTool("get_state",
		mcp.WithDescription("Read the full shared state document of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(stateTool, mcp.NewStructuredToolHandler(s.handleGetState))

	gateTool := mcp.NewTool("pending_gate",
		mcp.WithDescription("Inspect the gate currently blocking a session, if any."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[GateResponse](),
	)
	s.mcpServer.AddTool(gateTool, mcp.NewStructuredToolHandler(s.handlePendingGate))

	respondTool := mcp.NewTool("respond",
		mcp.WithDescription("Answer a pending gate. Scalars are passed as JSON: a quoted string, a bare integer, or a sentinel like \"CONFIRM\"."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("gate_id", mcp.Required(), mcp.Description("Gate instance identifier from pending_gate")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Response value as JSON or a raw string")),
	)
	s.mcpServer.AddTool(respondTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID := request.GetString("session_id", "")
		gateID := request.GetString("gate_id", "")
		raw := request.GetString("value", "")

		if err := s.hub.Respond(sessionID, gateID, decodeValue(raw)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("respond failed: %v", err)), nil
		}
		s.logger.Info("gate resolved via mcp", "session_id", sessionID, "gate_id", gateID)
		return mcp.NewToolResultText("response accepted"), nil
	})

	abortTool := mcp.NewTool("abort_session",
		mcp.WithDescription("Abort a running session. Its pending gate is cancelled and never resolves."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	)
	s.mcpServer.AddTool(abortTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("session_id", "")
		if err := s.hub.Abort(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("abort failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("session %s aborted", id)), nil
	})

	listTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List known session identifiers."),
	)
	s.mcpServer.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.hub.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StateResponse, error) {
	id, _ := args["session_id"].(string)
	state, err := s.hub.State(ctx, id)
	if err != nil {
		return StateResponse{}, fmt.Errorf("get_state failed: %w", err)
	}
	return StateResponse{SessionID: id, State: state}, nil
}

func (s *Server) handlePendingGate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (GateResponse, error) {
	id, _ := args["session_id"].(string)
	g, ok, err := s.hub.Pending(id)
	if err != nil {
		return GateResponse{}, fmt.Errorf("pending_gate failed: %w", err)
	}
	if !ok {
		return GateResponse{Pending: false}, nil
	}
	return gateResponse(g), nil
}

func gateResponse(g *gate.Gate) GateResponse {
	return GateResponse{
		ID:      g.ID(),
		Action:  g.Action(),
		Prompt:  g.Prompt(),
		Options: g.Options(),
		Pending: true,
	}
}

// decodeValue interprets the tool's value argument. JSON scalars keep their
// type so integer indices arrive as numbers; anything that does not parse is
// treated as a raw string.
func decodeValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case string, float64, bool:
		return v
	default:
		return raw
	}
}
