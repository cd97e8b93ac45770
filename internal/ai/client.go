package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Message mirrors OpenAI-compatible chat message payloads.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion wraps the assistant reply and usage metadata.
type Completion struct {
	Reply Message
	Usage *domain.AIUsage
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    httpDoer
	logger    *zap.Logger
}

// NewClient constructs a Client initialized from cfg.
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		baseURL:   base,
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: cfg.Timeout()},
		logger:    logger,
	}
}

type chatAPIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatAPIChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type providerError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type chatAPIResponse struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Created int64           `json:"created"`
	Choices []chatAPIChoice `json:"choices"`
	Usage   *domain.AIUsage `json:"usage"`
	Error   *providerError  `json:"error,omitempty"`
}

// Complete sends the prompt messages and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("ai: prompt messages cannot be empty")
	}

	payload := chatAPIRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ai: marshal payload: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ai: create request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("ai: call provider: %w", err)
	}
	defer response.Body.Close()

	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("ai: read response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, buildProviderError(response.StatusCode, respBody)
	}

	var apiResp chatAPIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("ai: decode response: %w", err)
	}
	if apiResp.Error != nil && apiResp.Error.Message != "" {
		return nil, fmt.Errorf("ai: provider error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("ai: response contained no choices")
	}

	reply := apiResp.Choices[0].Message
	if strings.TrimSpace(reply.Role) == "" {
		reply.Role = string(domain.AIRoleAssistant)
	}

	c.logger.Debug("ai completion",
		zap.String("model", c.model),
		zap.Int("prompt_messages", len(messages)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Completion{Reply: reply, Usage: apiResp.Usage}, nil
}

type providerErrorEnvelope struct {
	Error *providerError `json:"error,omitempty"`
}

func decodeProviderError(body []byte) *providerError {
	if len(body) == 0 {
		return nil
	}
	var envelope providerErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.Error == nil {
		return nil
	}
	envelope.Error.Message = strings.TrimSpace(envelope.Error.Message)
	return envelope.Error
}

func buildProviderError(statusCode int, body []byte) error {
	if apiErr := decodeProviderError(body); apiErr != nil {
		if apiErr.Code != "" && apiErr.Message != "" {
			return fmt.Errorf("ai: provider error (%d, %s): %s", statusCode, apiErr.Code, apiErr.Message)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("ai: provider error (%d): %s", statusCode, apiErr.Message)
		}
	}

	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		snippet = http.StatusText(statusCode)
	}
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}
	return fmt.Errorf("ai: provider error (%d): %s", statusCode, snippet)
}
