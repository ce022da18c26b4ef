// Package extract turns a free-form chat message into an untrusted batch of
// candidate records using an LLM.
//
// The model is asked for a single JSON object. Its answer is best-effort:
// markdown fences are stripped, malformed JSON is repaired, and lists may
// arrive as arrays, single objects or null. An answer that cannot be
// recovered yields an empty batch rather than an error.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/kaptinlin/jsonrepair"

	"github.com/sth00619/chat-manage/internal/llm"
	"github.com/sth00619/chat-manage/internal/logging"
)

const (
	// DefaultTimeout bounds a single extraction call.
	DefaultTimeout = 45 * time.Second

	extractMaxTokens   = 1500
	extractTemperature = 0.2
)

const extractSystemPrompt = `You are a personal assistant that extracts personal information from the user's message.

Extract only what the message states. Never invent values. Use an empty array when a category has nothing.

CATEGORIES:
- contacts: people, with name, phone, email, address and notes kept separate
- credentials: logins, with website or service name, username and password
- goals: things the user wants to achieve, with title, description, target_date and status (pending, in_progress or completed)
- schedules: appointments and events, with title, description, start_time, end_time and location
- numerical_info: numbers worth remembering (balances, weight, budget, scores), with category, label, value and unit

DATES:
- Resolve relative dates ("내일", "next Friday") against the current date given below.
- Write times as local ISO 8601 without an offset: "YYYY-MM-DDTHH:MM:SS".
- Write "YYYY-MM-DD" when only the day is known.

Return ONLY a JSON object of this shape:
{
  "contacts": [{"name": "", "phone": "", "email": "", "address": "", "notes": ""}],
  "credentials": [{"website": "", "username": "", "password": "", "notes": ""}],
  "goals": [{"title": "", "description": "", "target_date": "", "status": "pending"}],
  "schedules": [{"title": "", "description": "", "start_time": "", "end_time": "", "location": ""}],
  "numerical_info": [{"category": "", "label": "", "value": "", "unit": ""}],
  "reply": "one short sentence to the user, in the user's language"
}`

// Config configures an Extractor.
type Config struct {
	// Location is the user's time zone, shown to the model. Default UTC.
	Location *time.Location
	// Clock supplies "now". Default time.Now.
	Clock   func() time.Time
	Timeout time.Duration
	Logger  ectologger.Logger
}

// Extractor calls an LLM provider and decodes its answer into a Batch.
type Extractor struct {
	provider llm.Provider
	loc      *time.Location
	clock    func() time.Time
	timeout  time.Duration
	logger   ectologger.Logger
}

// NewExtractor creates an extractor backed by provider.
func NewExtractor(provider llm.Provider, cfg Config) *Extractor {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Extractor{
		provider: provider,
		loc:      cfg.Location,
		clock:    cfg.Clock,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// Name returns the backing provider's name.
func (e *Extractor) Name() string {
	return e.provider.Name()
}

// Extract asks the model for candidates in message. Provider failures are
// returned as errors; undecodable answers produce an empty batch.
func (e *Extractor) Extract(ctx context.Context, message string) (*Batch, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.provider.Complete(callCtx, buildExtractPrompt(message, e.clock().In(e.loc)), llm.CompletionOpts{
		MaxTokens:   extractMaxTokens,
		Temperature: extractTemperature,
		Format:      "json",
		System:      extractSystemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM extract call: %w", err)
	}

	batch, err := ParseBatch(raw)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"provider": e.provider.Name(),
			"raw":      truncateForError(raw, 300),
		}).Warn("discarding unparseable extraction")
		return &Batch{}, nil
	}
	return batch, nil
}

// buildExtractPrompt constructs the user message with the date context.
func buildExtractPrompt(message string, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Current date: %s (%s), time %s, time zone %s.\n\n",
		now.Format("2006-01-02"), now.Weekday(), now.Format("15:04"), now.Location()))
	sb.WriteString("MESSAGE:\n")
	sb.WriteString(message)
	return sb.String()
}

// ParseBatch decodes a model answer into a Batch, repairing malformed JSON
// when needed.
func ParseBatch(raw string) (*Batch, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty LLM answer")
	}

	var batch Batch
	err := json.Unmarshal([]byte(cleaned), &batch)
	if err == nil {
		return &batch, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return nil, fmt.Errorf("invalid JSON from LLM: %w", err)
	}
	batch = Batch{}
	if err := json.Unmarshal([]byte(repaired), &batch); err != nil {
		return nil, fmt.Errorf("invalid JSON from LLM after repair: %w", err)
	}
	return &batch, nil
}

// stripCodeFences removes markdown fences and any prose around the outermost
// JSON object.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		start, end := 0, len(lines)
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				if start == 0 {
					start = i + 1
				} else {
					end = i
					break
				}
			}
		}
		if start > 0 && end > start {
			cleaned = strings.Join(lines[start:end], "\n")
		}
	}

	if i := strings.Index(cleaned, "{"); i > 0 {
		cleaned = cleaned[i:]
	}
	// Only trailing prose is cut; a truncated object is left for repair.
	if j := strings.LastIndex(cleaned, "}"); j >= 0 && !strings.ContainsAny(cleaned[j+1:], `"{[:`) {
		cleaned = cleaned[:j+1]
	}
	return strings.TrimSpace(cleaned)
}

func truncateForError(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
