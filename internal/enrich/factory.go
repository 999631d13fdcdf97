package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ostapv/leadwatch/internal/config"
)

// NewProvider builds the configured enrichment provider. Provider
// "none" yields nil, which the analyzer treats as rule-only operation.
func NewProvider(ctx context.Context, cfg config.EnrichmentConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg, logger)
	case "openai":
		return NewOpenAIProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown enrichment provider %q", cfg.Provider)
	}
}
