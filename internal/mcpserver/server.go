// Package mcpserver exposes the memory bank over the Model Context
// Protocol, so MCP-speaking clients can add turns, search memories, and
// fetch summaries through stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tbellamy/membank/internal/memory"
)

// Bank is the subset of the memory bank the MCP tools need.
type Bank interface {
	AddTurn(ctx context.Context, userID, sessionID string, role memory.Role, text string) error
	SearchFacts(ctx context.Context, userID, query string) memory.SearchResult
	Summary(ctx context.Context, userID string) string
}

// Server wraps an MCP server around a bank.
type Server struct {
	mcp    *server.MCPServer
	bank   Bank
	logger *slog.Logger
}

// New builds the MCP server with all memory tools registered.
func New(bank Bank, logger *slog.Logger, version string) *Server {
	s := &Server{
		bank:   bank,
		logger: logger,
	}

	s.mcp = server.NewMCPServer("membank", version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("memory_add_turn",
		mcp.WithDescription("Record one conversation turn in the user's memory bank."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("User the turn belongs to")),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation session identifier")),
		mcp.WithString("role", mcp.Required(), mcp.Description("Speaker role: user or assistant")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Turn content")),
	), s.handleAddTurn)

	s.mcp.AddTool(mcp.NewTool("memory_search",
		mcp.WithDescription("Search the user's stored memories for facts relevant to a query."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("User whose memories to search")),
		mcp.WithString("query", mcp.Required(), mcp.Description("What to look for")),
	), s.handleSearch)

	s.mcp.AddTool(mcp.NewTool("memory_summary",
		mcp.WithDescription("Get a plain-text summary of everything stored about a user."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("User to summarize")),
	), s.handleSummary)

	return s
}

// ServeStdio runs the server over stdin/stdout until the client hangs up.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleAddTurn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	role, err := req.RequireString("role")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.addTurn(ctx, userID, sessionID, role, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.search(ctx, userID, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.bank.Summary(ctx, userID)), nil
}

// addTurn validates the role and stores the turn.
func (s *Server) addTurn(ctx context.Context, userID, sessionID, role, text string) (string, error) {
	r := memory.Role(role)
	if r != memory.RoleUser && r != memory.RoleAssistant {
		return "", fmt.Errorf("role must be %q or %q", memory.RoleUser, memory.RoleAssistant)
	}
	if err := s.bank.AddTurn(ctx, userID, sessionID, r, text); err != nil {
		return "", err
	}
	return "turn stored", nil
}

// search runs the bank search and renders the result as JSON text.
func (s *Server) search(ctx context.Context, userID, query string) (string, error) {
	result := s.bank.SearchFacts(ctx, userID, query)
	if result.Facts == nil {
		result.Facts = []memory.ScoredFact{}
	}
	if result.Degraded {
		s.logger.Warn("mcp search served degraded results", "user", userID)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode search result: %w", err)
	}
	return string(data), nil
}
