package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ContentRefresher/internal/config"
	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

const defaultTimeout = 60 * time.Second

// ChatGPTClient implements ports.ChatClient backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	client       openai.Client
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int64
}

var _ ports.ChatClient = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration. A missing API key yields
// domain.ErrConfiguration; callers treat that as "no backend".
// The SDK's own retries are disabled: every Complete is a single attempt.
func NewChatGPTClient(cfg config.ChatGPTConfig, opts ...option.RequestOption) (*ChatGPTClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key missing: %w", domain.ErrConfiguration)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("openai model missing: %w", domain.ErrConfiguration)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &ChatGPTClient{
		client:       openai.NewClient(reqOpts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

// Model names the backing model.
func (c *ChatGPTClient) Model() string {
	return c.model
}

// Complete sends one chat completion and returns the first choice.
func (c *ChatGPTClient) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil: %w", domain.ErrConfiguration)
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(safePrompt(prompt.System, c.systemPrompt)),
		openai.UserMessage(prompt.User),
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &domain.UpstreamStatusError{Service: "openai", StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("openai completion: %w: %w", domain.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices: %w", domain.ErrUpstream)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai: empty completion: %w", domain.ErrUpstream)
	}
	return content, nil
}

func safePrompt(prompt, fallback string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt != "" {
		return prompt
	}
	fallback = strings.TrimSpace(fallback)
	if fallback != "" {
		return fallback
	}
	return "You are a professional content writer."
}
