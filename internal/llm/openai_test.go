package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path   string
	Auth   string
	Body   map[string]any
	Method string
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Path = r.URL.Path
		got.Method = r.Method
		got.Auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newTestClient(baseURL string) *OpenAIClient {
	return NewOpenAIClient(Options{
		APIKey:      "sk-or-test",
		BaseURL:     baseURL,
		Model:       "mistralai/mistral-7b-instruct:free",
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	})
}

func TestComplete_SendsChatCompletion(t *testing.T) {
	srv, got := newUpstream(t, http.StatusOK,
		`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`)

	text, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Prompt: "the prompt", MaxTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/chat/completions", got.Path)
	assert.Equal(t, "Bearer sk-or-test", got.Auth)
	assert.Equal(t, "mistralai/mistral-7b-instruct:free", got.Body["model"])
	assert.EqualValues(t, 500, got.Body["max_tokens"])
	assert.InDelta(t, 0.7, got.Body["temperature"], 0.0001)

	msgs, ok := got.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "the prompt", msg["content"])
}

func TestComplete_NoChoices(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `{"id":"1","choices":[]}`)

	text, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestComplete_EmptyContent(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":""}}]}`)

	text, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestComplete_NonSuccessKeepsStatusAndBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"json error", http.StatusTooManyRequests, `{"error":{"message":"Rate limit exceeded","code":429}}`},
		{"plain text", http.StatusBadGateway, "upstream unavailable"},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, tt.status, tt.body)

			_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Prompt: "p"})
			require.Error(t, err)

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr), "got %T: %v", err, err)
			assert.Equal(t, tt.status, upErr.StatusCode)
			assert.Equal(t, tt.body, upErr.Body)
		})
	}
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewOpenAIClient(Options{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: 20 * time.Millisecond})
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.Error(t, err)

	var upErr *UpstreamError
	assert.False(t, errors.As(err, &upErr))
}

func TestUpstreamError_Error(t *testing.T) {
	err := &UpstreamError{StatusCode: 500, Body: "boom"}
	assert.Equal(t, "upstream returned 500: boom", err.Error())
}
