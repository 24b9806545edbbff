// Package flowapi talks to the Flow LLM gateway: chat completions authorized
// through the token manager, plus a connection health probe.
package flowapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/flow-rag/chatbot-backend/pkg/auth"
	"github.com/flow-rag/chatbot-backend/pkg/status"
)

// Client generates responses via the gateway's OpenAI-compatible API. A
// model client is rebuilt on every call so each request picks up the current
// token; token caching lives in the token manager, not here.
type Client struct {
	BaseURL string
	Model   string
	Tenant  string
	Agent   string
	Tokens  auth.TokenProvider

	// HTTPClient is shared across the per-call model clients.
	HTTPClient *http.Client
}

func NewClient(baseURL, model, tenant, agent string, tokens auth.TokenProvider) *Client {
	return &Client{
		BaseURL:    baseURL,
		Model:      model,
		Tenant:     tenant,
		Agent:      agent,
		Tokens:     tokens,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GenerateResult is the outcome of a generation call. Response is set on
// success; Message carries the failure otherwise.
type GenerateResult struct {
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

// GenerateResponse composes a system+user message pair and invokes the
// remote model. Remote failures come back as an error-status result, never
// as a raised error.
func (c *Client) GenerateResponse(ctx context.Context, message string, contextChunks []string) GenerateResult {
	model, err := c.chatModel(ctx)
	if err != nil {
		return GenerateResult{Status: status.Error, Message: fmt.Sprintf("Error generating response: %v", err)}
	}

	resp, err := model.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(contextChunks)},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return GenerateResult{Status: status.Error, Message: fmt.Sprintf("Error generating response: %v", err)}
	}
	if len(resp.Choices) == 0 {
		return GenerateResult{Status: status.Error, Message: "Error generating response: no choices returned"}
	}
	return GenerateResult{Status: status.Success, Response: resp.Choices[0].Message.Content}
}

// HealthCheck probes the gateway with the current credential.
func (c *Client) HealthCheck(ctx context.Context) status.Result {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return status.Err("Connection error: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return status.Err("Connection error: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("FlowTenant", c.Tenant)
	req.Header.Set("FlowAgent", c.Agent)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return status.Err("Connection error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return status.Err("API error: health endpoint returned %d", resp.StatusCode)
	}
	return status.Result{Status: "ok", Message: "Successfully connected to Flow API"}
}

// chatModel builds a model client authorized with a freshly resolved token.
func (c *Client) chatModel(ctx context.Context) (*openai.Client, error) {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(token)
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   30 * time.Second,
		Transport: headerTransport{tenant: c.Tenant, agent: c.Agent, base: c.transport()},
	}
	return openai.NewClientWithConfig(cfg), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) transport() http.RoundTripper {
	if c.HTTPClient != nil && c.HTTPClient.Transport != nil {
		return c.HTTPClient.Transport
	}
	return http.DefaultTransport
}

// headerTransport injects the gateway routing headers on every request.
type headerTransport struct {
	tenant string
	agent  string
	base   http.RoundTripper
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("FlowTenant", t.tenant)
	req.Header.Set("FlowAgent", t.agent)
	return t.base.RoundTrip(req)
}
