// Package llm provides a provider-agnostic LLM adapter for chat-manage.
// The extraction client uses it to turn free-form messages into candidate
// records. Providers talk to their REST APIs over net/http.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
)

// Provider is the interface for LLM completions.
type Provider interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	// Name returns a human-readable provider name (e.g., "openai/gpt-4o-mini").
	Name() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // Max tokens to generate (0 = provider default)
	Temperature float64 // 0.0-2.0 (0 = deterministic)
	Model       string  // Override model for this request (empty = use provider default)
	Format      string  // "json" for structured output, empty for plain text
	System      string  // System prompt (optional)
}

// Config holds provider configuration.
type Config struct {
	Provider string // "openai", "google", "openrouter"
	Model    string // e.g., "gpt-4o-mini", "gemini-2.5-flash"
	APIKey   string // API key (empty = read from env)
	BaseURL  string // Optional URL override
}

var (
	// ErrRateLimited is wrapped by Complete when the API answers 429.
	ErrRateLimited = errors.New("llm API rate limit exceeded")
	// ErrUnauthorized is wrapped by Complete when the API rejects the key.
	ErrUnauthorized = errors.New("llm API key rejected")
)

// DefaultProvider is used when no --llm flag or config is given.
const DefaultProvider = "openai"

type providerSpec struct {
	envKeys      []string
	defaultModel string
	baseURL      string
	build        func(key, model, baseURL string) Provider
}

var providers = map[string]providerSpec{
	"openai": {
		envKeys:      []string{"OPENAI_API_KEY"},
		defaultModel: "gpt-4o-mini",
		baseURL:      "https://api.openai.com/v1",
		build: func(key, model, baseURL string) Provider {
			return &chatCompletionsProvider{vendor: "openai", apiKey: key, model: model, baseURL: baseURL}
		},
	},
	"openrouter": {
		envKeys:      []string{"OPENROUTER_API_KEY"},
		defaultModel: "openai/gpt-4o-mini",
		baseURL:      "https://openrouter.ai/api/v1",
		build: func(key, model, baseURL string) Provider {
			return &chatCompletionsProvider{
				vendor:  "openrouter",
				apiKey:  key,
				model:   model,
				baseURL: baseURL,
				headers: map[string]string{
					"HTTP-Referer": "https://github.com/sth00619/chat-manage",
					"X-Title":      "chat-manage",
				},
			}
		},
	},
	"google": {
		envKeys:      []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		defaultModel: "gemini-2.5-flash",
		baseURL:      "https://generativelanguage.googleapis.com/v1beta",
		build: func(key, model, baseURL string) Provider {
			return &googleProvider{apiKey: key, model: model, baseURL: baseURL}
		},
	},
}

func supported() string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// NewProvider creates an LLM provider from the given config.
func NewProvider(cfg Config) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	pv, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: %s)", cfg.Provider, supported())
	}

	key := cfg.APIKey
	for _, env := range pv.envKeys {
		if key != "" {
			break
		}
		key = os.Getenv(env)
	}
	if key == "" {
		return nil, fmt.Errorf("%s provider requires %s env var", name, strings.Join(pv.envKeys, " or "))
	}

	model := cfg.Model
	if model == "" {
		model = pv.defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = pv.baseURL
	}
	return pv.build(key, model, strings.TrimRight(baseURL, "/")), nil
}

// ParseLLMFlag parses a --llm flag value into a Config.
// Format: "provider/model" e.g., "openai/gpt-4o-mini", "openrouter/openai/gpt-4o-mini"
func ParseLLMFlag(flag string) (Config, error) {
	if flag == "" {
		return Config{Provider: DefaultProvider, Model: providers[DefaultProvider].defaultModel}, nil
	}

	parts := strings.SplitN(flag, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return Config{}, fmt.Errorf("invalid --llm format %q: expected provider/model (e.g., openai/gpt-4o-mini)", flag)
	}

	provider := strings.ToLower(parts[0])
	if _, ok := providers[provider]; !ok {
		return Config{}, fmt.Errorf("unknown provider %q in --llm flag (supported: %s)", provider, supported())
	}
	return Config{Provider: provider, Model: parts[1]}, nil
}

// statusError maps a non-200 response to an error, wrapping the sentinel
// errors callers can branch on.
func statusError(vendor string, status int, body []byte) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s API error (status %d): %w", vendor, status, ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s API error (status %d): %w", vendor, status, ErrUnauthorized)
	}
	return fmt.Errorf("%s API error (status %d): %s", vendor, status, truncate(string(body), 500))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
