package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/autocurate/autocurate/internal/config"
	"github.com/autocurate/autocurate/internal/digest"
	"github.com/autocurate/autocurate/internal/embeddings"
	"github.com/autocurate/autocurate/internal/indexer"
	"github.com/autocurate/autocurate/internal/logging"
	"github.com/autocurate/autocurate/internal/retrieval"
	"github.com/autocurate/autocurate/internal/storage"
	"github.com/autocurate/autocurate/internal/textproc"
	"github.com/autocurate/autocurate/internal/vectorstore"
)

// app wires the pipeline components for one CLI invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *storage.Store
	provider embeddings.Provider
	index    vectorstore.Index
}

// newApp loads configuration and constructs the shared components. Callers
// must call close when done.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store, err := storage.New(cfg.Database.DSN, logger)
	if err != nil {
		logging.Sync(logger)
		return nil, err
	}

	provider, err := embeddings.NewProvider(cfg.Embeddings, logger)
	if err != nil {
		store.Close()
		logging.Sync(logger)
		return nil, err
	}

	index, err := vectorstore.New(ctx, cfg.VectorStore, provider.Dimension(), logger)
	if err != nil {
		provider.Close()
		store.Close()
		logging.Sync(logger)
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		provider: provider,
		index:    index,
	}, nil
}

func (a *app) close() {
	if err := a.index.Close(); err != nil {
		a.logger.Warn("closing vector index", zap.Error(err))
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Warn("closing embedding provider", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
	logging.Sync(a.logger)
}

// newIndexer builds the indexing pipeline.
func (a *app) newIndexer() *indexer.Indexer {
	chunker := textproc.NewChunker(a.cfg.Content.ChunkSize, a.cfg.Content.ChunkOverlap)
	return indexer.New(a.store, chunker, a.provider, a.index, a.cfg.Content.MinTextLength, a.logger)
}

// newComposer builds the digest pipeline.
func (a *app) newComposer() (*digest.Composer, error) {
	engine := retrieval.New(a.store, a.store, a.provider, a.index, a.cfg.Digest.Oversample, a.logger)
	summarizer, err := digest.NewOpenAISummarizer(a.cfg.Summarizer)
	if err != nil {
		return nil, fmt.Errorf("creating summarizer: %w", err)
	}
	return digest.NewComposer(engine, summarizer, a.store, a.logger), nil
}
