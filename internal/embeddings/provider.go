package embeddings

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/autocurate/autocurate/internal/config"
)

// fallbackModel is the small local model used when the configured backend
// cannot initialize.
const fallbackModel = "sentence-transformers/all-MiniLM-L6-v2"

// NewProvider creates an embedding provider from configuration.
//
// If the configured backend fails to initialize, construction falls back to
// the small local model. The fallback is observable: the returned provider
// reports the model and dimension actually in use, and the switch is logged
// at Warn. Callers must size any new vector index off Provider.Dimension(),
// not off the configured model.
func NewProvider(cfg config.EmbeddingsConfig, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := newConfiguredProvider(cfg, logger)
	if err == nil {
		logger.Info("embedding provider ready",
			zap.String("provider", cfg.Provider),
			zap.String("model", provider.Model()),
			zap.Int("dimension", provider.Dimension()),
		)
		return provider, nil
	}

	logger.Warn("configured embedding backend unavailable, falling back to local model",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.String("fallback_model", fallbackModel),
		zap.Error(err),
	)

	fallback, fbErr := NewFastEmbedProvider(FastEmbedConfig{
		Model:    fallbackModel,
		CacheDir: cfg.CacheDir,
	})
	if fbErr != nil {
		return nil, fmt.Errorf("configured backend failed (%v); fallback failed: %w", err, fbErr)
	}
	return fallback, nil
}

// newConfiguredProvider builds the backend named by the configuration.
func newConfiguredProvider(cfg config.EmbeddingsConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			APIKey:     cfg.APIKey,
			BatchSize:  cfg.BatchSize,
			BatchPause: cfg.BatchPause,
			Timeout:    cfg.Timeout,
		}, logger)
	case "fastembed", "":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
