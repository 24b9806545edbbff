package flowapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-rag/chatbot-backend/pkg/status"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) Token(_ context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

type capturedRequest struct {
	auth   string
	tenant string
	agent  string
	system string
	user   string
	model  string
}

func newChatServer(t *testing.T, reply string, code int) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		captured.auth = r.Header.Get("Authorization")
		captured.tenant = r.Header.Get("FlowTenant")
		captured.agent = r.Header.Get("FlowAgent")

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		captured.model = req.Model
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				captured.system = m.Content
			case "user":
				captured.user = m.Content
			}
		}

		if code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": reply}}},
		})
	}))
	return srv, captured
}

func TestGenerateResponseSuccess(t *testing.T) {
	srv, captured := newChatServer(t, "AI is the study of intelligent agents.", http.StatusOK)
	defer srv.Close()

	tokens := &staticTokens{token: "tok-123"}
	c := NewClient(srv.URL, "gpt-4o-mini", "acme", "chat-with-docs", tokens)

	res := c.GenerateResponse(context.Background(), "What is AI?", []string{"chunk one", "chunk two"})
	assert.Equal(t, status.Success, res.Status)
	assert.Equal(t, "AI is the study of intelligent agents.", res.Response)

	assert.Equal(t, "Bearer tok-123", captured.auth)
	assert.Equal(t, "acme", captured.tenant)
	assert.Equal(t, "chat-with-docs", captured.agent)
	assert.Equal(t, "gpt-4o-mini", captured.model)
	assert.Equal(t, "What is AI?", captured.user)
	assert.Contains(t, captured.system, "chunk one\n\nchunk two")
}

func TestGenerateResponseWithoutContextUsesBasePrompt(t *testing.T) {
	srv, captured := newChatServer(t, "hello", http.StatusOK)
	defer srv.Close()

	c := NewClient(srv.URL, "gpt-4o-mini", "acme", "agent", &staticTokens{token: "tok"})
	res := c.GenerateResponse(context.Background(), "hi", nil)

	assert.Equal(t, status.Success, res.Status)
	assert.NotContains(t, captured.system, "ONLY the following information")
	assert.Contains(t, captured.system, "helpful, accurate, and professional assistant")
}

func TestGenerateResponseRemoteFailureReturnsErrorStatus(t *testing.T) {
	srv, _ := newChatServer(t, "", http.StatusBadGateway)
	defer srv.Close()

	c := NewClient(srv.URL, "gpt-4o-mini", "acme", "agent", &staticTokens{token: "tok"})
	res := c.GenerateResponse(context.Background(), "hi", nil)

	assert.Equal(t, status.Error, res.Status)
	assert.NotEmpty(t, res.Message)
	assert.Empty(t, res.Response)
}

func TestGenerateResponseTokenFailureReturnsErrorStatus(t *testing.T) {
	c := NewClient("http://unused", "m", "t", "a", &staticTokens{err: errors.New("no token")})
	res := c.GenerateResponse(context.Background(), "hi", nil)
	assert.Equal(t, status.Error, res.Status)
}

func TestGenerateResolvesTokenOnEveryCall(t *testing.T) {
	srv, _ := newChatServer(t, "ok", http.StatusOK)
	defer srv.Close()

	tokens := &staticTokens{token: "tok"}
	c := NewClient(srv.URL, "m", "t", "a", tokens)

	c.GenerateResponse(context.Background(), "one", nil)
	c.GenerateResponse(context.Background(), "two", nil)
	assert.Equal(t, 2, tokens.calls)
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", "t", "a", &staticTokens{token: "tok"})
	res := c.HealthCheck(context.Background())
	assert.Equal(t, "ok", res.Status)
}

func TestHealthCheckDownstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", "t", "a", &staticTokens{token: "tok"})
	res := c.HealthCheck(context.Background())
	assert.Equal(t, status.Error, res.Status)
}
