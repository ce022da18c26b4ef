// Package mcp provides a Model Context Protocol server for chat-manage.
//
// It exposes the conversation pipeline (chat_message), direct record queries
// (query_records) and per-owner counts (data_summary) as MCP tools, and the
// default owner's summary, contacts, weekly schedule and numerical facts as
// MCP resources.
// The server is served over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sth00619/chat-manage/internal/chat"
	"github.com/sth00619/chat-manage/internal/intent"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Service *chat.Service
	// Owner is used when a tool call names no owner.
	Owner   string
	Version string // version string for MCP server info
}

// dbMu serializes all MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines, and
// SQLite supports only one writer at a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all chat-manage tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	owner := cfg.Owner
	if owner == "" {
		owner = "local"
	}

	s := server.NewMCPServer(
		"chat-manage",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerChatTool(s, cfg.Service, owner)
	registerQueryTool(s, cfg.Service, owner)
	registerSummaryTool(s, cfg.Service, owner)

	registerSummaryResource(s, cfg.Service, owner)
	registerContactsResource(s, cfg.Service, owner)
	registerWeekResource(s, cfg.Service, owner)
	registerNumericalResource(s, cfg.Service, owner)

	return s
}

// --- Tools ---

func registerChatTool(s *server.MCPServer, svc *chat.Service, defaultOwner string) {
	tool := mcp.NewTool("chat_message",
		mcp.WithDescription("Send a natural-language message. Questions (\"내일 일정 알려줘\", \"show my contacts\") are answered from stored data; statements are parsed and saved as contacts, credentials, goals, schedules or numerical facts."),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's message"),
		),
		mcp.WithString("owner",
			mcp.Description("Owner whose data is read or written. Empty = the server's default owner."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		message, err := req.RequireString("message")
		if err != nil || strings.TrimSpace(message) == "" {
			return mcp.NewToolResultError("message is required"), nil
		}

		resp, err := svc.HandleMessage(ctx, ownerArg(req, defaultOwner), message)
		if err != nil {
			if resp != nil {
				return mcp.NewToolResultError(fmt.Sprintf("%s (%v)", resp.Message, err)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("chat error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(resp, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerQueryTool(s *server.MCPServer, svc *chat.Service, defaultOwner string) {
	tool := mcp.NewTool("query_records",
		mcp.WithDescription("Read stored records without going through message classification. Category 'none' returns the overall digest."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Record family to read"),
			mcp.Enum(string(intent.Schedules), string(intent.Contacts), string(intent.Goals), string(intent.None)),
		),
		mcp.WithString("when",
			mcp.Description("Optional timeframe for schedules: a relative kind (today, tomorrow, thisWeek, nextWeek, lastMonth, ...) or an expression such as '다음 주', '7월', '2025년 3월 2일'"),
		),
		mcp.WithString("owner",
			mcp.Description("Owner whose data is read. Empty = the server's default owner."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		category, err := req.RequireString("category")
		if err != nil {
			return mcp.NewToolResultError("category is required"), nil
		}
		when := ""
		if w, err := req.RequireString("when"); err == nil {
			when = w
		}

		resp, err := svc.Query(ctx, ownerArg(req, defaultOwner), intent.Category(category), when)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(resp, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerSummaryTool(s *server.MCPServer, svc *chat.Service, defaultOwner string) {
	tool := mcp.NewTool("data_summary",
		mcp.WithDescription("Count stored contacts, credentials, goals, schedules and numerical facts for an owner."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("owner",
			mcp.Description("Owner to summarize. Empty = the server's default owner."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		sum, err := svc.Summary(ctx, ownerArg(req, defaultOwner))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("summary error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(sum, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Helpers ---

func ownerArg(req mcp.CallToolRequest, fallback string) string {
	if o, err := req.RequireString("owner"); err == nil && strings.TrimSpace(o) != "" {
		return strings.TrimSpace(o)
	}
	return fallback
}
