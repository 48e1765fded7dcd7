// Package llm holds the external AI classification provider.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/domain"
)

const (
	DefaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
)

var ErrEmptyResponse = errors.New("no text content in model response")

// AnthropicProvider classifies feedback through the Anthropic Messages API.
// Retries are disabled: a failed call goes straight to the heuristic path.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

type Option func(*settings)

type settings struct {
	baseURL   string
	model     string
	maxTokens int64
	logger    *zap.Logger
}

func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

func WithMaxTokens(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewAnthropicProvider(apiKey string, opts ...Option) *AnthropicProvider {
	s := settings{model: DefaultModel, maxTokens: defaultMaxTokens, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if s.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(s.baseURL))
	}

	return &AnthropicProvider{
		client:    anthropic.NewClient(clientOpts...),
		model:     s.model,
		maxTokens: s.maxTokens,
		logger:    s.logger.Named("anthropic"),
	}
}

func (p *AnthropicProvider) Classify(ctx context.Context, req classifier.Request) ([]byte, error) {
	prompt, err := userPrompt(req)
	if err != nil {
		return nil, err
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			p.logger.Debug("classification response",
				zap.Int("size", len(block.Text)),
				zap.Int64("tokens_in", message.Usage.InputTokens),
				zap.Int64("tokens_out", message.Usage.OutputTokens))
			return []byte(block.Text), nil
		}
	}
	return nil, ErrEmptyResponse
}

func userPrompt(req classifier.Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode classification request: %w", err)
	}
	return "Classify this customer feedback:\n" + string(body), nil
}

var systemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	categories := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		categories[i] = string(c)
	}
	emotions := make([]string, len(domain.Emotions))
	for i, e := range domain.Emotions {
		emotions[i] = string(e)
	}

	var b strings.Builder
	b.WriteString("You analyse banking customer feedback. ")
	b.WriteString("Reply with a single JSON object and nothing else, using exactly these fields:\n")
	b.WriteString(`{"sentiment": "positive|neutral|negative", "sentimentScore": 0-100, `)
	b.WriteString(`"categories": [up to 3], "emotions": [up to 3], `)
	b.WriteString(`"urgency": "low|medium|high|critical", "actionableInsights": "at most 500 characters", "confidenceScore": 0-100}`)
	b.WriteString("\nAllowed categories: ")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString("\nAllowed emotions: ")
	b.WriteString(strings.Join(emotions, ", "))
	b.WriteString("\nUse critical urgency only for fraud, security breaches or customers locked out of their money.")
	return b.String()
}
