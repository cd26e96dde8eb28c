package vectorstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/autocurate/autocurate/internal/config"
)

// New creates a vector index from configuration.
//
// The dimension comes from the embedding provider actually in use, never from
// configuration. If the configured backend cannot be reached, construction
// falls back to the in-memory index so the pipeline keeps working; the switch
// is logged at Warn.
func New(ctx context.Context, cfg config.VectorStoreConfig, dimension int, logger *zap.Logger) (Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	index, err := newConfiguredIndex(ctx, cfg, dimension, logger)
	if err == nil {
		return index, nil
	}

	if cfg.Provider == "memory" {
		return nil, err
	}

	logger.Warn("configured vector store unavailable, falling back to in-memory index",
		zap.String("provider", cfg.Provider),
		zap.Error(err),
	)
	return NewMemoryIndex(dimension)
}

// newConfiguredIndex builds the backend named by the configuration.
func newConfiguredIndex(ctx context.Context, cfg config.VectorStoreConfig, dimension int, logger *zap.Logger) (Index, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryIndex(dimension)
	case "chromem":
		return NewChromemIndex(ChromemConfig{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			Collection: cfg.Chromem.Collection,
			Dimension:  dimension,
		}, logger)
	case "qdrant":
		return NewQdrantIndex(ctx, QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: cfg.Qdrant.Collection,
			Timeout:    cfg.Qdrant.Timeout,
			Dimension:  dimension,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
