package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// googleProvider talks to the Gemini generateContent endpoint.
type googleProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  http.Client
}

type googleRequest struct {
	Contents          []googleContent  `json:"contents"`
	SystemInstruction *googleContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *googleGenConfig `json:"generationConfig,omitempty"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleGenConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type googleCandidate struct {
	Content      googleContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type googleResponse struct {
	Candidates []googleCandidate `json:"candidates"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *googleProvider) Name() string {
	return "google/" + g.model
}

func (g *googleProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error) {
	ep := endpoint{
		vendor:  "google",
		url:     fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, modelFor(g.model, opts)),
		headers: map[string]string{"x-goog-api-key": g.apiKey},
	}
	var resp googleResponse
	if err := ep.call(ctx, &g.client, newGoogleRequest(prompt, opts), &resp); err != nil {
		return "", err
	}
	return resp.text()
}

func newGoogleRequest(prompt string, opts CompletionOpts) googleRequest {
	cfg := &googleGenConfig{Temperature: opts.Temperature, MaxOutputTokens: opts.MaxTokens}
	if wantsJSON(opts) {
		cfg.ResponseMimeType = "application/json"
	}
	req := googleRequest{
		Contents:         []googleContent{{Role: "user", Parts: []googlePart{{Text: prompt}}}},
		GenerationConfig: cfg,
	}
	if opts.System != "" {
		req.SystemInstruction = &googleContent{Parts: []googlePart{{Text: opts.System}}}
	}
	return req
}

// text joins the first candidate's parts. Long JSON answers can arrive split.
func (r googleResponse) text() (string, error) {
	if r.Error != nil {
		return "", fmt.Errorf("google API error: %s (code %d)", r.Error.Message, r.Error.Code)
	}
	if len(r.Candidates) == 0 {
		return "", fmt.Errorf("empty response from google API")
	}
	first := r.Candidates[0]
	if len(first.Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from google API (finish reason %q)", first.FinishReason)
	}
	var b strings.Builder
	for _, p := range first.Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
