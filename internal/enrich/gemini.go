package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/ostapv/leadwatch/internal/classifier"
	"github.com/ostapv/leadwatch/internal/config"
)

const defaultGeminiModel = "gemini-2.0-flash"

var enrichSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"category":     {Type: genai.TypeString, Description: "One of LEAD_SEARCH, LEAD_QUESTION, PARTNER_SERVICES, COMPETITOR, SPAM, OFFTOP, OTHER."},
		"score":        {Type: genai.TypeInteger, Description: "Confidence 0-100."},
		"reasons":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Short reason tags."},
		"should_reply": {Type: genai.TypeBoolean, Description: "Whether a first-contact reply is worth sending."},
		"draft_reply":  {Type: genai.TypeString, Description: "Draft first-contact reply in the author's language. Empty if should_reply is false."},
	},
	Required: []string{"category", "score", "reasons", "should_reply", "draft_reply"},
}

type geminiProvider struct {
	client *genai.Client
	log    *slog.Logger
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiProvider creates an enrichment provider backed by the
// Gemini API, using JSON schema mode for structured output.
func NewGeminiProvider(ctx context.Context, cfg config.EnrichmentConfig, logger *slog.Logger) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "gemini_provider")

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	temperature := cfg.Temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    enrichSchema,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemInstruction}}},
	}

	log.Info("Gemini provider initialized", "model", model)
	return &geminiProvider{
		client: client,
		log:    log,
		model:  model,
		config: genCfg,
	}, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Enrich(ctx context.Context, text string, pre classifier.Result) (*Analysis, error) {
	prompt, err := buildPrompt(text, pre)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, p.config)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("gemini returned empty content")
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		p.log.WarnContext(ctx, "Gemini returned malformed JSON", "error", err, "response_text", raw)
		return nil, fmt.Errorf("invalid enrichment JSON received: %w", err)
	}
	return &analysis, nil
}

// buildPrompt packs the message and the rule-based pre-analysis into
// one user prompt shared by both provider backends.
func buildPrompt(text string, pre classifier.Result) (string, error) {
	preJSON, err := json.Marshal(pre)
	if err != nil {
		return "", fmt.Errorf("failed to marshal pre-analysis: %w", err)
	}
	return fmt.Sprintf("Message:\n%s\n\nRule-based pre-analysis:\n%s", text, preJSON), nil
}
