package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// chatCompletionsProvider implements Provider for OpenAI-compatible
// /chat/completions APIs (OpenAI itself and OpenRouter).
type chatCompletionsProvider struct {
	vendor  string
	apiKey  string
	model   string
	baseURL string
	headers map[string]string
	client  http.Client
}

type ccRequest struct {
	Model          string         `json:"model"`
	Messages       []ccMessage    `json:"messages"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat *ccResponseFmt `json:"response_format,omitempty"`
}

type ccMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ccResponseFmt struct {
	Type string `json:"type"`
}

type ccChoice struct {
	Message      ccMessage `json:"message"`
	FinishReason string    `json:"finish_reason"`
}

type ccResponse struct {
	ID      string     `json:"id"`
	Choices []ccChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (o *chatCompletionsProvider) Name() string {
	return o.vendor + "/" + o.model
}

func (o *chatCompletionsProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error) {
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	for k, v := range o.headers {
		headers[k] = v
	}
	ep := endpoint{vendor: o.vendor, url: o.baseURL + "/chat/completions", headers: headers}

	var resp ccResponse
	if err := ep.call(ctx, &o.client, newCCRequest(modelFor(o.model, opts), prompt, opts), &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s API error: %s", o.vendor, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s API", o.vendor)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func newCCRequest(model, prompt string, opts CompletionOpts) ccRequest {
	req := ccRequest{Model: model, MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}
	if opts.System != "" {
		req.Messages = append(req.Messages, ccMessage{Role: "system", Content: opts.System})
	}
	req.Messages = append(req.Messages, ccMessage{Role: "user", Content: prompt})
	if wantsJSON(opts) {
		req.ResponseFormat = &ccResponseFmt{Type: "json_object"}
	}
	return req
}
