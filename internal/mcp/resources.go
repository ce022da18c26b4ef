package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sth00619/chat-manage/internal/chat"
	"github.com/sth00619/chat-manage/internal/intent"
	"github.com/sth00619/chat-manage/internal/timeframe"
)

func registerSummaryResource(s *server.MCPServer, svc *chat.Service, owner string) {
	resource := mcp.NewResource(
		"chatmanage://summary",
		"Data Summary",
		mcp.WithResourceDescription("Record counts per type for the default owner."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		sum, err := svc.Summary(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("getting summary: %w", err)
		}
		return jsonContents(req.Params.URI, sum), nil
	})
}

func registerContactsResource(s *server.MCPServer, svc *chat.Service, owner string) {
	resource := mcp.NewResource(
		"chatmanage://contacts",
		"Contacts",
		mcp.WithResourceDescription("The default owner's contacts, ordered by name."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		resp, err := svc.Query(ctx, owner, intent.Contacts, "")
		if err != nil {
			return nil, fmt.Errorf("listing contacts: %w", err)
		}
		return jsonContents(req.Params.URI, resp.Data), nil
	})
}

func registerWeekResource(s *server.MCPServer, svc *chat.Service, owner string) {
	resource := mcp.NewResource(
		"chatmanage://schedules/this-week",
		"This Week's Schedules",
		mcp.WithResourceDescription("The default owner's schedules from Monday through Sunday of the current week."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		resp, err := svc.Query(ctx, owner, intent.Schedules, timeframe.ThisWeek.String())
		if err != nil {
			return nil, fmt.Errorf("listing this week's schedules: %w", err)
		}
		return jsonContents(req.Params.URI, resp.Data), nil
	})
}

func registerNumericalResource(s *server.MCPServer, svc *chat.Service, owner string) {
	resource := mcp.NewResource(
		"chatmanage://numerical-info",
		"Numerical Info",
		mcp.WithResourceDescription("The default owner's numerical facts (balances, body measurements, scores), newest first."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		infos, err := svc.NumericalInfo(ctx, owner, "")
		if err != nil {
			return nil, fmt.Errorf("listing numerical info: %w", err)
		}
		return jsonContents(req.Params.URI, infos), nil
	})
}

func jsonContents(uri string, v any) []mcp.ResourceContents {
	data, _ := json.MarshalIndent(v, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}
