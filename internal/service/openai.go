package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"rentalsearch/internal/config"
)

const systemPrompt = `You are a rental housing search assistant. Follow the user's instructions exactly and answer only in the format they request.`

// OpenAIClient implements Reasoner over any OpenAI-compatible chat completion API
type OpenAIClient struct {
	client *openai.Client
	config *config.OpenAIConfig
	logger *zap.Logger
}

var _ Reasoner = (*OpenAIClient)(nil)

// NewOpenAIClient creates a chat-completion backed reasoner
func NewOpenAIClient(cfg *config.OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = cfg.APIBase
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: logger,
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClient) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// Model returns the configured chat model
func (c *OpenAIClient) Model() string {
	return c.config.ChatModel
}

// Classify sends the prompt as a single user turn and returns the assistant text
func (c *OpenAIClient) Classify(ctx context.Context, prompt string) (string, error) {
	if !c.IsEnabled() {
		return "", ErrReasonerDisabled
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.config.ChatTemperature),
		TopP:        float32(c.config.ChatTopP),
		MaxTokens:   c.config.ChatMaxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("Chat completion finished",
		zap.String("model", resp.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)))

	return resp.Choices[0].Message.Content, nil
}

// parseAPIError extracts a human-readable error from the API response
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s", reqErr.HTTPStatusCode, detail)
		}
		return fmt.Errorf("chat API error %d: %w", reqErr.HTTPStatusCode, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("chat request failed: %w", err)
}

// extractDetail pulls the "detail" field out of a JSON error body
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
