package provider

import (
	"fmt"

	"go.uber.org/zap"

	"content-pipeline/internal/config"
)

// FromConfig builds the provider registry for a process. The configured
// client type becomes the default text provider; Ideogram is registered only
// when an API key is present.
func FromConfig(cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	table, err := LoadTable(cfg.ProviderTablePath, cfg.AIClientType)
	if err != nil {
		return nil, err
	}
	if table.Text.Default.Model == "" {
		table.Text.Default.Model = cfg.AIModel
	}

	var text []TextProvider
	switch cfg.AIClientType {
	case "openai":
		text = append(text, NewOpenAI(OpenAIConfig{
			BaseURL: cfg.AIBaseURL,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
			Pricing: table.Prices,
		}, logger))
	case "ollama":
		p, err := NewOllama(OllamaConfig{
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		text = append(text, p)
	default:
		return nil, fmt.Errorf("unsupported AI client type %q", cfg.AIClientType)
	}

	var images []ImageProvider
	if cfg.IdeogramAPIKey != "" {
		images = append(images, NewIdeogram(IdeogramConfig{
			BaseURL: cfg.IdeogramBaseURL,
			APIKey:  cfg.IdeogramAPIKey,
			Timeout: cfg.IdeogramTimeout,
		}, logger))
	} else {
		logger.Warn("IDEOGRAM_API_KEY not set, image generation is disabled")
	}
	return NewRegistry(table, text, images, logger)
}
