package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("autocurate.vectorstore.chromem")

// ChromemConfig holds configuration for the embedded chromem-go backend.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty keeps the index
	// purely in memory.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection name. Default: "autocurate_chunks".
	Collection string

	// Dimension is the expected embedding dimension. Must match the
	// embedding provider's output.
	Dimension int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "autocurate_chunks"
	}
}

// Validate validates the configuration.
func (c ChromemConfig) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return nil
}

// ChromemIndex implements Index using the embedded chromem-go database.
//
// Vectors arrive pre-embedded, so the collection's embedding function is
// never invoked. chromem's native where-filter only supports exact matches;
// membership conditions are applied client-side after an exhaustive query.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
	logger     *zap.Logger
}

// NewChromemIndex creates a chromem-backed index.
func NewChromemIndex(cfg ChromemConfig, logger *zap.Logger) (*ChromemIndex, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		path, err := expandPath(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding path: %w", err)
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", path, err)
		}
		db, err = chromem.NewPersistentDB(path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, rejectEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", cfg.Collection, err)
	}

	logger.Info("chromem index initialized",
		zap.String("path", cfg.Path),
		zap.String("collection", cfg.Collection),
		zap.Int("dimension", cfg.Dimension),
	)

	return &ChromemIndex{
		db:         db,
		collection: collection,
		config:     cfg,
		logger:     logger,
	}, nil
}

// rejectEmbeddingFunc guards against chromem ever computing an embedding
// itself. All vectors are supplied by the caller.
func rejectEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embeddings must be precomputed")
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Add stores a vector with its metadata. Re-adding an ID replaces the stored
// document.
func (c *ChromemIndex) Add(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Add")
	defer span.End()
	span.SetAttributes(attribute.String("id", id))

	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if len(vector) != c.config.Dimension {
		return fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vector), c.config.Dimension)
	}

	doc := chromem.Document{
		ID:        id,
		Metadata:  cloneMetadata(metadata),
		Embedding: vector,
	}
	if err := c.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding document: %w", err)
	}
	return nil
}

// Search returns up to k hits ordered by descending similarity.
func (c *ChromemIndex) Search(ctx context.Context, vector []float32, k int, filter Filter) ([]Result, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if len(vector) != c.config.Dimension {
		return nil, fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vector), c.config.Dimension)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	count := c.collection.Count()
	if count == 0 {
		return []Result{}, nil
	}

	// chromem's where-filter only does exact matches. Equality-only filters
	// push down; membership filters query exhaustively and filter here.
	var where map[string]string
	fetch := k
	postFilter := false
	if filter.equalityOnly() {
		where = filter.equalityMap()
	} else {
		fetch = count
		postFilter = true
	}
	if fetch > count {
		fetch = count
	}

	hits, err := c.collection.QueryEmbedding(ctx, vector, fetch, where, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]Result, 0, k)
	for _, hit := range hits {
		if postFilter && !filter.Matches(hit.Metadata) {
			continue
		}
		results = append(results, Result{
			ID:       hit.ID,
			Score:    hit.Similarity,
			Metadata: hit.Metadata,
		})
		if len(results) == k {
			break
		}
	}

	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// Delete removes vectors by ID. Unknown IDs are ignored.
func (c *ChromemIndex) Delete(ctx context.Context, ids []string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int("id_count", len(ids)))

	if len(ids) == 0 {
		return nil
	}
	if err := c.collection.Delete(ctx, nil, nil, ids...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// Count returns the number of stored vectors.
func (c *ChromemIndex) Count(ctx context.Context) (int, error) {
	return c.collection.Count(), nil
}

// Close is a no-op; chromem persists on write.
func (c *ChromemIndex) Close() error {
	return nil
}

var _ Index = (*ChromemIndex)(nil)
