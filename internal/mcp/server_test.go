package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sth00619/chat-manage/internal/chat"
	"github.com/sth00619/chat-manage/internal/llm"
	"github.com/sth00619/chat-manage/internal/store"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
}

func (m *mockProvider) Complete(_ context.Context, _ string, _ llm.CompletionOpts) (string, error) {
	return m.response, nil
}

func (m *mockProvider) Name() string { return "mock/mcp" }

// helper: create a test store with some data
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	contacts := []*store.Contact{
		{OwnerID: "local", Name: "김철수", Phone: "010-1234-5678"},
		{OwnerID: "local", Name: "Alice", Email: "alice@example.com"},
		{OwnerID: "other", Name: "Mallory"},
	}
	for _, c := range contacts {
		if err := s.InsertContact(ctx, c); err != nil {
			t.Fatalf("adding test contact: %v", err)
		}
	}
	return s
}

func newTestServer(t *testing.T, s *store.Store, response string) *server.MCPServer {
	t.Helper()
	svc := chat.NewService(s, &mockProvider{response: response}, chat.Config{Location: time.UTC})
	return NewServer(ServerConfig{Service: svc, Owner: "local", Version: "test"})
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t, setupTestStore(t), "{}")
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
}

// callTool is a helper that invokes an MCP tool through JSON-RPC.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]interface{}) *mcplib.CallToolResult {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      name,
			"arguments": args,
		},
	}))

	// Parse the JSON-RPC response
	respBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, string(respBytes))
	}

	if resp.Error != nil {
		t.Fatalf("JSON-RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}

	callResult := &mcplib.CallToolResult{
		IsError: resp.Result.IsError,
	}
	for _, c := range resp.Result.Content {
		if c.Type == "text" {
			callResult.Content = append(callResult.Content, mcplib.NewTextContent(c.Text))
		}
	}

	return callResult
}

// readResource invokes resources/read and returns the first text content.
func readResource(t *testing.T, srv *server.MCPServer, uri string) string {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "resources/read",
		"params":  map[string]interface{}{"uri": uri},
	}))
	respBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var resp struct {
		Result struct {
			Contents []struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, string(respBytes))
	}
	if resp.Error != nil {
		t.Fatalf("JSON-RPC error: %s", resp.Error.Message)
	}
	if len(resp.Result.Contents) == 0 {
		t.Fatalf("no contents for %s", uri)
	}
	return resp.Result.Contents[0].Text
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func getTextContent(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content found")
	return ""
}

func TestChatMessageTool_Query(t *testing.T) {
	srv := newTestServer(t, setupTestStore(t), "{}")

	result := callTool(t, srv, "chat_message", map[string]interface{}{
		"message": "연락처 목록 보여줘",
	})
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", getTextContent(t, result))
	}

	var resp struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &resp); err != nil {
		t.Fatalf("parsing chat response: %v", err)
	}
	if resp.Type != "query" {
		t.Fatalf("expected query response, got %q", resp.Type)
	}
	if !strings.HasPrefix(resp.Message, "연락처 목록 (2개):") {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if strings.Contains(resp.Message, "Mallory") {
		t.Error("another owner's contact leaked into the reply")
	}
}

func TestChatMessageTool_ExtractionForOwner(t *testing.T) {
	s := setupTestStore(t)
	srv := newTestServer(t, s, `{"goals": [{"title": "마라톤 완주", "status": "in_progress"}]}`)

	result := callTool(t, srv, "chat_message", map[string]interface{}{
		"message": "올해 마라톤 완주할 거야",
		"owner":   "other",
	})
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", getTextContent(t, result))
	}
	if !strings.Contains(getTextContent(t, result), "1개의 목표") {
		t.Errorf("unexpected reply: %s", getTextContent(t, result))
	}

	n, err := s.CountGoals(context.Background(), "other")
	if err != nil {
		t.Fatalf("CountGoals: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 goal for other, got %d", n)
	}
	if n, _ := s.CountGoals(context.Background(), "local"); n != 0 {
		t.Fatalf("expected no goals for local, got %d", n)
	}
}

func TestChatMessageTool_RequiresMessage(t *testing.T) {
	srv := newTestServer(t, setupTestStore(t), "{}")

	result := callTool(t, srv, "chat_message", map[string]interface{}{"message": "  "})
	if !result.IsError {
		t.Fatal("expected an error for a blank message")
	}
}

func TestQueryRecordsTool(t *testing.T) {
	s := setupTestStore(t)
	start := time.Now().UTC().Add(24 * time.Hour)
	if err := s.InsertSchedule(context.Background(), &store.Schedule{OwnerID: "local", Title: "standup", StartTime: &start}); err != nil {
		t.Fatalf("InsertSchedule: %v", err)
	}
	srv := newTestServer(t, s, "{}")

	result := callTool(t, srv, "query_records", map[string]interface{}{
		"category": "schedules",
		"when":     "tomorrow",
	})
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", getTextContent(t, result))
	}
	text := getTextContent(t, result)
	if !strings.Contains(text, "standup") {
		t.Errorf("expected tomorrow's schedule, got %s", text)
	}

	bad := callTool(t, srv, "query_records", map[string]interface{}{"category": "passwords"})
	if !bad.IsError {
		t.Error("expected an error for an unknown category")
	}
}

func TestDataSummaryTool(t *testing.T) {
	srv := newTestServer(t, setupTestStore(t), "{}")

	result := callTool(t, srv, "data_summary", map[string]interface{}{})
	var sum store.DataSummary
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &sum); err != nil {
		t.Fatalf("parsing summary: %v", err)
	}
	if sum.Contacts != 2 || sum.Total != 2 {
		t.Errorf("unexpected summary: %+v", sum)
	}

	result = callTool(t, srv, "data_summary", map[string]interface{}{"owner": "other"})
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &sum); err != nil {
		t.Fatalf("parsing summary: %v", err)
	}
	if sum.Contacts != 1 {
		t.Errorf("expected 1 contact for other, got %+v", sum)
	}
}

func TestResources(t *testing.T) {
	srv := newTestServer(t, setupTestStore(t), "{}")

	var sum store.DataSummary
	if err := json.Unmarshal([]byte(readResource(t, srv, "chatmanage://summary")), &sum); err != nil {
		t.Fatalf("parsing summary resource: %v", err)
	}
	if sum.Contacts != 2 {
		t.Errorf("unexpected summary resource: %+v", sum)
	}

	var contacts []store.Contact
	if err := json.Unmarshal([]byte(readResource(t, srv, "chatmanage://contacts")), &contacts); err != nil {
		t.Fatalf("parsing contacts resource: %v", err)
	}
	if len(contacts) != 2 || contacts[0].Name != "Alice" {
		t.Errorf("unexpected contacts resource: %+v", contacts)
	}

	var week []store.Schedule
	if err := json.Unmarshal([]byte(readResource(t, srv, "chatmanage://schedules/this-week")), &week); err != nil {
		t.Fatalf("parsing week resource: %v", err)
	}
	if len(week) != 0 {
		t.Errorf("expected no schedules, got %+v", week)
	}
}

func TestNumericalInfoResource(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, n := range []*store.NumericalInfo{
		{OwnerID: "local", Category: "health", Label: "체중", Value: "70", Unit: "kg"},
		{OwnerID: "other", Category: "banking", Label: "잔액", Value: "500"},
	} {
		if err := s.InsertNumericalInfo(ctx, n); err != nil {
			t.Fatalf("InsertNumericalInfo: %v", err)
		}
	}
	srv := newTestServer(t, s, "{}")

	var infos []store.NumericalInfo
	if err := json.Unmarshal([]byte(readResource(t, srv, "chatmanage://numerical-info")), &infos); err != nil {
		t.Fatalf("parsing numerical resource: %v", err)
	}
	if len(infos) != 1 || infos[0].Label != "체중" || infos[0].Value != "70" {
		t.Errorf("unexpected numerical resource: %+v", infos)
	}
}

func TestQueryRecordsTool_KindName(t *testing.T) {
	s := setupTestStore(t)
	start := time.Now().UTC().AddDate(0, 0, -1)
	if err := s.InsertSchedule(context.Background(), &store.Schedule{OwnerID: "local", Title: "retro", StartTime: &start}); err != nil {
		t.Fatalf("InsertSchedule: %v", err)
	}
	srv := newTestServer(t, s, "{}")

	result := callTool(t, srv, "query_records", map[string]interface{}{
		"category": "schedules",
		"when":     "yesterday",
	})
	if !strings.Contains(getTextContent(t, result), "retro") {
		t.Errorf("expected yesterday's schedule, got %s", getTextContent(t, result))
	}

	result = callTool(t, srv, "query_records", map[string]interface{}{
		"category": "schedules",
		"when":     "nextMonth",
	})
	if strings.Contains(getTextContent(t, result), "retro") {
		t.Errorf("next month should not include yesterday: %s", getTextContent(t, result))
	}
}
