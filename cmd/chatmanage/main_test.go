package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sth00619/chat-manage/internal/chat"
	"github.com/sth00619/chat-manage/internal/config"
	"github.com/sth00619/chat-manage/internal/llm"
	"github.com/sth00619/chat-manage/internal/store"
)

// resetFlags clears the package-level flag values between command runs and
// isolates the test from the user's home directory and API keys.
func resetFlags(t *testing.T) {
	t.Helper()
	flagConfig, flagDB, flagLLM, flagOwner, flagTZ, flagLogLevel = "", "", "", "", "", ""
	flagJSON, flagWhen = false, ""
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENROUTER_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"CHATMANAGE_DB", "CHATMANAGE_DB_PATH", "CHATMANAGE_LLM", "CHATMANAGE_TZ",
		"CHATMANAGE_LOG_LEVEL", "CHATMANAGE_LOG_PRETTY", "CHATMANAGE_OWNER",
	} {
		t.Setenv(k, "")
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "chatmanage "+version {
		t.Errorf("unexpected output %q", out)
	}
}

func TestConfigCommand_RedactsKeys(t *testing.T) {
	resetFlags(t)
	t.Setenv("OPENAI_API_KEY", "sk-secret-1234")

	out, err := runCLI(t, "config", "--owner", "alice", "--tz", "UTC")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if strings.Contains(out, "sk-secret") {
		t.Fatalf("API key leaked: %s", out)
	}

	var cfg config.ResolvedConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("parsing config output: %v\n%s", err, out)
	}
	if cfg.Owner.Value != "alice" || cfg.Owner.Source != config.SourceCLI {
		t.Errorf("unexpected owner %+v", cfg.Owner)
	}
	if got := cfg.LLMKeys["openai"].Value; got != "****1234" {
		t.Errorf("masked key = %q", got)
	}
}

func TestQueryAndSummaryCommands(t *testing.T) {
	resetFlags(t)
	dbPath := filepath.Join(t.TempDir(), "chat.db")

	s, err := store.New(store.Config{DBPath: dbPath})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if err := s.InsertContact(context.Background(), &store.Contact{OwnerID: "alice", Name: "김철수", Phone: "010-1111-2222"}); err != nil {
		t.Fatalf("InsertContact: %v", err)
	}
	s.Close()

	out, err := runCLI(t, "query", "contacts", "--db", dbPath, "--owner", "alice", "--log-level", "error")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out, "연락처 목록 (1개):") || !strings.Contains(out, "📞 010-1111-2222") {
		t.Errorf("unexpected query output:\n%s", out)
	}

	resetFlags(t)
	out, err = runCLI(t, "summary", "--json", "--db", dbPath, "--owner", "alice", "--log-level", "error")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var sum store.DataSummary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("parsing summary: %v\n%s", err, out)
	}
	if sum.Contacts != 1 || sum.Total != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}
}

func TestQueryCommand_UnknownCategory(t *testing.T) {
	resetFlags(t)
	dbPath := filepath.Join(t.TempDir(), "chat.db")
	if _, err := runCLI(t, "query", "passwords", "--db", dbPath, "--log-level", "error"); err == nil {
		t.Fatal("expected an error for an unknown category")
	}
}

func TestBuildProvider_NoKeyIsUnavailable(t *testing.T) {
	resetFlags(t)
	p := buildProvider(config.ResolvedConfig{})
	u, ok := p.(unavailableProvider)
	if !ok {
		t.Fatalf("expected unavailableProvider, got %T", p)
	}
	if _, err := u.Complete(context.Background(), "hi", llm.CompletionOpts{}); err == nil {
		t.Fatal("expected the configuration error from Complete")
	}
}

func TestBuildProvider_KeyFromConfig(t *testing.T) {
	resetFlags(t)
	cfg := config.ResolvedConfig{
		LLMProvider: config.ResolvedValue{Value: "google/gemini-2.5-flash", Source: config.SourceCLI},
		LLMKeys:     map[string]config.ResolvedValue{"google": {Value: "g-key", Source: config.SourceConfig}},
	}
	p := buildProvider(cfg)
	if _, ok := p.(unavailableProvider); ok {
		t.Fatal("expected a real provider")
	}
	if p.Name() != "google/gemini-2.5-flash" {
		t.Errorf("provider name = %q", p.Name())
	}
}

func TestRunREPL(t *testing.T) {
	resetFlags(t)
	s, err := store.New(store.Config{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer s.Close()

	svc := chat.NewService(s, unavailableProvider{err: errors.New("no key")}, chat.Config{Location: time.UTC})

	in := strings.NewReader("연락처 보여줘\n\n내 번호는 010-0000-0000이야\nexit\n무시됨\n")
	var out bytes.Buffer
	if err := runREPL(context.Background(), in, &out, svc, "u1"); err != nil {
		t.Fatalf("runREPL: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "저장된 연락처가 없습니다.") {
		t.Errorf("query reply missing:\n%s", got)
	}
	if !strings.Contains(got, "죄송합니다. 메시지를 처리하는 중 오류가 발생했습니다.") || !strings.Contains(got, "(error: ") {
		t.Errorf("extraction failure not reported:\n%s", got)
	}
	if strings.Contains(got, "무시됨") {
		t.Errorf("input after exit was processed:\n%s", got)
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":          "****",
		"abcd":      "****",
		"sk-abcdef": "****cdef",
	}
	for in, want := range tests {
		if got := mask(in); got != want {
			t.Errorf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}
