package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// CompletionRequest is a single-prompt completion.  The prompt is sent as
// the only user message.
type CompletionRequest struct {
	Prompt    string
	MaxTokens int
}

// Client is what the diagnosis service needs from a completion backend.
// Complete returns the text of the first choice, or "" when the backend
// answered without any text.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Options configures an OpenAIClient.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OpenAIClient talks to any OpenAI-compatible chat completion API.  It is
// pointed at OpenRouter by default.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIClient constructs a client from opts.  The HTTP client enforces
// opts.Timeout per call and turns every non-200 response into an
// *UpstreamError that keeps the upstream body.
func NewOpenAIClient(opts Options) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   opts.Timeout,
		Transport: &statusTransport{base: http.DefaultTransport},
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
	}
}

// Model returns the model id sent with every request.
func (c *OpenAIClient) Model() string { return c.model }

// Complete sends the prompt to the chat completion endpoint and returns the
// first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}
	ctx, span := otel.Tracer("pain-diagnosis/llm").Start(ctx, "llm.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.model", c.model),
		attribute.Int("ai.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		status := 0
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			status = upErr.StatusCode
		}
		recordCompletion(ctx, c.model, status, time.Since(start), err)
		span.RecordError(err)
		return "", err
	}
	recordCompletion(ctx, c.model, http.StatusOK, time.Since(start), nil)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
