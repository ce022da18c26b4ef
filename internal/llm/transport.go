package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxReplyBytes caps how much of a reply body is read.
const maxReplyBytes = 4 << 20

// endpoint is one JSON-over-HTTP completion API.
type endpoint struct {
	vendor  string
	url     string
	headers map[string]string
}

// call POSTs payload as JSON and decodes a 200 reply into out. Other
// statuses map through statusError so callers can match ErrRateLimited and
// ErrUnauthorized.
func (e endpoint) call(ctx context.Context, client *http.Client, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", e.vendor, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", e.vendor, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", e.vendor, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return fmt.Errorf("reading %s reply: %w", e.vendor, err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(e.vendor, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s reply: %w", e.vendor, err)
	}
	return nil
}

// modelFor returns the per-call model override, or fallback.
func modelFor(fallback string, opts CompletionOpts) string {
	if opts.Model != "" {
		return opts.Model
	}
	return fallback
}

func wantsJSON(opts CompletionOpts) bool {
	return strings.EqualFold(strings.TrimSpace(opts.Format), "json")
}
