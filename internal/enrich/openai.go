package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ostapv/leadwatch/internal/classifier"
	"github.com/ostapv/leadwatch/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIProvider struct {
	client      *openai.Client
	log         *slog.Logger
	model       string
	temperature float32
}

// NewOpenAIProvider creates an enrichment provider backed by an
// OpenAI-compatible chat completion endpoint. BaseURL may point at any
// compatible server.
func NewOpenAIProvider(cfg config.EnrichmentConfig, logger *slog.Logger) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "openai_provider")

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	log.Info("OpenAI provider initialized", "model", model, "base_url", clientCfg.BaseURL)
	return &openAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		log:         log,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Enrich(ctx context.Context, text string, pre classifier.Result) (*Analysis, error) {
	prompt, err := buildPrompt(text, pre)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		p.log.WarnContext(ctx, "OpenAI returned malformed JSON", "error", err, "response_text", raw)
		return nil, fmt.Errorf("invalid enrichment JSON received: %w", err)
	}
	return &analysis, nil
}
