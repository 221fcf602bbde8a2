package main

import (
	"fmt"

	"github.com/troupehq/troupe/internal/config"
	"github.com/troupehq/troupe/internal/provider"
)

// buildProvider creates the dialogue provider selected by config.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	return buildProviderForModel(cfg, cfg.Provider.Model)
}

// buildClassifierProvider creates the provider used for complexity
// classification, preferring the (usually cheaper) classifier model.
func buildClassifierProvider(cfg *config.Config) (provider.Provider, error) {
	model := cfg.Provider.ClassifierModel
	if model == "" {
		model = cfg.Provider.Model
	}
	return buildProviderForModel(cfg, model)
}

func buildProviderForModel(cfg *config.Config, model string) (provider.Provider, error) {
	switch cfg.Provider.Kind {
	case "anthropic", "":
		return provider.NewAnthropic(provider.AnthropicConfig{
			Model:  model,
			APIKey: cfg.Provider.APIKey,
		})
	case "openai":
		return provider.NewOpenAI(provider.OpenAIConfig{
			Model:  model,
			APIKey: cfg.Provider.APIKey,
		})
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}
