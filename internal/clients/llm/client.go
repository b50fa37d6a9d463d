// Package llm wraps an OpenAI-compatible chat completion API (Groq or OpenAI).
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// BackendGroq is the Groq hosted backend.
	BackendGroq = "Groq"
	// BackendOpenAI is the OpenAI backend.
	BackendOpenAI = "OpenAI"

	// GroqBaseURL is Groq's OpenAI-compatible endpoint.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Client sends single-turn chat completions.
type Client struct {
	api     *openai.Client
	backend string
	model   string
	log     zerolog.Logger
}

// NewGroqClient creates a client for Groq.
func NewGroqClient(apiKey, model string, log zerolog.Logger) *Client {
	if model == "" {
		model = DefaultGroqModel
	}
	return newClient(BackendGroq, apiKey, model, GroqBaseURL, log)
}

// NewOpenAIClient creates a client for OpenAI.
func NewOpenAIClient(apiKey, model string, log zerolog.Logger) *Client {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return newClient(BackendOpenAI, apiKey, model, "", log)
}

func newClient(backend, apiKey, model, baseURL string, log zerolog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		backend: backend,
		model:   model,
		log:     log.With().Str("client", strings.ToLower(backend)).Logger(),
	}
}

// Backend returns the backend name used in error reports.
func (c *Client) Backend() string {
	return c.backend
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a system and user message and returns the first choice's content.
// Failures are returned as *domain.AnalysisBackendError.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.backendError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &domain.AnalysisBackendError{
			Backend: c.backend,
			Status:  http.StatusOK,
			Message: "empty completion",
		}
	}

	c.log.Debug().
		Str("model", c.model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("Completion received")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) backendError(err error) *domain.AnalysisBackendError {
	out := &domain.AnalysisBackendError{Backend: c.backend, Message: err.Error(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		out.Status = apiErr.HTTPStatusCode
		out.Message = apiErr.Message
	case errors.As(err, &reqErr):
		out.Status = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			out.Message = reqErr.Err.Error()
		}
	}
	return out
}
