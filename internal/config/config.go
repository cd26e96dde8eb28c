// Package config provides configuration loading for autocurate.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. A single immutable Config is constructed at process start and
// passed into each component's constructor; it is never re-read mid-request.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete autocurate configuration.
type Config struct {
	Content     ContentConfig     `koanf:"content"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Database    DatabaseConfig    `koanf:"database"`
	Summarizer  SummarizerConfig  `koanf:"summarizer"`
	Digest      DigestConfig      `koanf:"digest"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ContentConfig holds content processing configuration.
type ContentConfig struct {
	// ChunkSize is the target chunk size in characters.
	ChunkSize int `koanf:"chunk_size"`

	// ChunkOverlap is the number of characters shared by adjacent chunks.
	ChunkOverlap int `koanf:"chunk_overlap"`

	// MinTextLength is the minimum cleaned-text length worth indexing.
	MinTextLength int `koanf:"min_text_length"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	// Provider is the backend type: "openai" (hosted API) or "fastembed" (local).
	Provider string `koanf:"provider"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// BaseURL is the hosted API base URL (openai provider only).
	BaseURL string `koanf:"base_url"`

	// APIKey is the hosted API key (openai provider only).
	APIKey string `koanf:"api_key"`

	// BatchSize is the maximum texts per hosted API call.
	BatchSize int `koanf:"batch_size"`

	// BatchPause is the mandatory pause between consecutive batch calls.
	BatchPause time.Duration `koanf:"batch_pause"`

	// CacheDir is the local model cache directory (fastembed provider only).
	CacheDir string `koanf:"cache_dir"`

	// Timeout bounds each hosted API call.
	Timeout time.Duration `koanf:"timeout"`
}

// VectorStoreConfig holds vector store configuration.
type VectorStoreConfig struct {
	// Provider is the backend type: "memory" (default), "chromem", or "qdrant".
	Provider string `koanf:"provider"`

	Chromem ChromemConfig `koanf:"chromem"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig holds chromem-go embedded vector database configuration.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`

	// Collection is the collection name.
	Collection string `koanf:"collection"`
}

// QdrantConfig holds Qdrant gRPC client configuration.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	Host string `koanf:"host"`

	// Port is the Qdrant gRPC port (6334, not the 6333 REST port).
	Port int `koanf:"port"`

	// Collection is the collection name.
	Collection string `koanf:"collection"`

	// Timeout bounds each Qdrant call.
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds relational storage configuration.
type DatabaseConfig struct {
	// DSN is the sqlite data source name.
	DSN string `koanf:"dsn"`
}

// SummarizerConfig holds LLM summarization configuration.
type SummarizerConfig struct {
	// BaseURL is the OpenAI-compatible chat completions base URL.
	BaseURL string `koanf:"base_url"`

	// Model is the chat model name.
	Model string `koanf:"model"`

	// APIKey is the API key.
	APIKey string `koanf:"api_key"`

	// MaxTokens bounds the generated summary length.
	MaxTokens int `koanf:"max_tokens"`

	// Temperature is the sampling temperature.
	Temperature float64 `koanf:"temperature"`

	// Timeout bounds each summarization call.
	Timeout time.Duration `koanf:"timeout"`
}

// DigestConfig holds digest retrieval configuration.
type DigestConfig struct {
	// Oversample is the multiplier applied to a user's max items when
	// fetching eligible content, leaving room for relevance narrowing.
	Oversample int `koanf:"oversample"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: "json" or "console".
	Format string `koanf:"format"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Content.ChunkSize == 0 {
		c.Content.ChunkSize = 512
	}
	if c.Content.ChunkOverlap == 0 {
		c.Content.ChunkOverlap = 50
	}
	if c.Content.MinTextLength == 0 {
		c.Content.MinTextLength = 100
	}

	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "fastembed"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = "https://api.openai.com/v1"
	}
	if c.Embeddings.BatchSize == 0 {
		c.Embeddings.BatchSize = 100
	}
	if c.Embeddings.BatchPause == 0 {
		c.Embeddings.BatchPause = time.Second
	}
	if c.Embeddings.Timeout == 0 {
		c.Embeddings.Timeout = 30 * time.Second
	}

	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = "memory"
	}
	if c.VectorStore.Chromem.Path == "" {
		c.VectorStore.Chromem.Path = "~/.config/autocurate/vectorstore"
	}
	if c.VectorStore.Chromem.Collection == "" {
		c.VectorStore.Chromem.Collection = "autocurate_content"
	}
	if c.VectorStore.Qdrant.Host == "" {
		c.VectorStore.Qdrant.Host = "localhost"
	}
	if c.VectorStore.Qdrant.Port == 0 {
		c.VectorStore.Qdrant.Port = 6334
	}
	if c.VectorStore.Qdrant.Collection == "" {
		c.VectorStore.Qdrant.Collection = "autocurate_content"
	}
	if c.VectorStore.Qdrant.Timeout == 0 {
		c.VectorStore.Qdrant.Timeout = 10 * time.Second
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "autocurate.db"
	}

	if c.Summarizer.BaseURL == "" {
		c.Summarizer.BaseURL = "https://api.openai.com/v1"
	}
	if c.Summarizer.Model == "" {
		c.Summarizer.Model = "gpt-4"
	}
	if c.Summarizer.MaxTokens == 0 {
		c.Summarizer.MaxTokens = 2000
	}
	if c.Summarizer.Temperature == 0 {
		c.Summarizer.Temperature = 0.7
	}
	if c.Summarizer.Timeout == 0 {
		c.Summarizer.Timeout = 60 * time.Second
	}

	if c.Digest.Oversample == 0 {
		c.Digest.Oversample = 5
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Content.ChunkSize <= 0 {
		return fmt.Errorf("content chunk size must be positive, got %d", c.Content.ChunkSize)
	}
	if c.Content.ChunkOverlap < 0 {
		return fmt.Errorf("content chunk overlap cannot be negative, got %d", c.Content.ChunkOverlap)
	}

	switch c.Embeddings.Provider {
	case "openai", "fastembed":
	default:
		return fmt.Errorf("unsupported embeddings provider: %s (supported: openai, fastembed)", c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings batch size must be positive, got %d", c.Embeddings.BatchSize)
	}

	switch c.VectorStore.Provider {
	case "memory", "chromem", "qdrant":
	default:
		return fmt.Errorf("unsupported vectorstore provider: %s (supported: memory, chromem, qdrant)", c.VectorStore.Provider)
	}
	if c.VectorStore.Provider == "qdrant" {
		if c.VectorStore.Qdrant.Port < 1 || c.VectorStore.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid qdrant port: %d (must be 1-65535)", c.VectorStore.Qdrant.Port)
		}
	}

	if c.Digest.Oversample < 1 {
		return errors.New("digest oversample must be at least 1")
	}

	return nil
}
