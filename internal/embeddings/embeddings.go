// Package embeddings provides embedding generation via multiple providers.
//
// Two interchangeable backends sit behind the Provider interface: a hosted
// OpenAI-compatible API (batched, rate-paced) and a local FastEmbed ONNX
// model. The backend is fixed at construction time; its output dimensionality
// becomes the fixed dimensionality for any vector index built against it.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts, one per input,
	// order-preserving. A failed call returns no partial results.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query. Some models
	// optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider is the interface for embedding providers.
type Provider interface {
	Embedder

	// Model returns the name of the model actually in use. Differs from the
	// configured model when construction fell back to the default local model.
	Model() string

	// Dimension returns the embedding dimension for the current model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}
