package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"brainboost/internal/config"
)

// Chat roles accepted by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn submitted in chat mode.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the hosted text-generation service.
type Completer interface {
	// Complete submits a single instruction and returns the raw generated text.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	// Chat submits a role-tagged conversation and returns the assistant message text.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// HTTPError is a non-2xx answer from the completion API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

var errNoChoices = errors.New("openai response has no choices")

// OpenAIClient talks to an OpenAI-compatible /v1/chat/completions endpoint.
// Calls are never retried.
type OpenAIClient struct {
	baseURL         string
	apiKey          string
	completionModel string
	chatModel       string
	temperature     float64
	timeout         time.Duration
	httpClient      *http.Client
}

// NewOpenAIClient builds a client; a nil httpClient uses http.DefaultClient.
func NewOpenAIClient(cfg config.OpenAIConfig, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIClient{
		baseURL:         baseURL,
		apiKey:          cfg.APIKey,
		completionModel: cfg.CompletionModel,
		chatModel:       cfg.ChatModel,
		temperature:     cfg.Temperature,
		timeout:         cfg.Timeout,
		httpClient:      httpClient,
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user turn to the completion model.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return c.createChatCompletion(ctx, chatCompletionRequest{
		Model:       c.completionModel,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
	})
}

// Chat sends the conversation to the chat model.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.createChatCompletion(ctx, chatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: c.temperature,
	})
}

func (c *OpenAIClient) createChatCompletion(ctx context.Context, body chatCompletionRequest) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errNoChoices
	}
	return out.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
