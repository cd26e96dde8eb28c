// Package content defines the domain model for ingested articles and their
// chunks, plus the persistence contract the pipeline depends on.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a content record does not exist.
var ErrNotFound = errors.New("content not found")

// ProcessingStatus tracks a content record through the indexing pipeline.
type ProcessingStatus string

const (
	// StatusPending marks content waiting to be indexed.
	StatusPending ProcessingStatus = "pending"
	// StatusProcessing marks content currently being indexed.
	StatusProcessing ProcessingStatus = "processing"
	// StatusCompleted marks content successfully indexed.
	StatusCompleted ProcessingStatus = "completed"
	// StatusFailed marks content whose indexing failed; retryable via reset.
	StatusFailed ProcessingStatus = "failed"
)

// CanTransitionTo reports whether moving to next is a legal status transition.
// Transitions are monotonic (pending -> processing -> completed|failed); the
// only backward edge is the explicit failed -> pending reset for retry.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	case StatusFailed:
		return next == StatusPending
	default:
		return false
	}
}

// Record is one ingested article. Records are created by the ingest
// collaborator; the core only reads them and advances their processing status.
type Record struct {
	ID          int64            `db:"id"`
	SourceURL   string           `db:"url"`
	Title       string           `db:"title"`
	Author      string           `db:"author"`
	RawText     string           `db:"content"`
	CleanedText string           `db:"cleaned_content"`
	ContentHash string           `db:"content_hash"`
	WordCount   int              `db:"word_count"`
	Language    string           `db:"language"`
	Category    string           `db:"category"`
	PublishedAt *time.Time       `db:"published_date"`
	ScrapedAt   time.Time        `db:"scraped_at"`
	Status      ProcessingStatus `db:"processing_status"`
}

// Text returns the cleaned text, falling back to raw text when cleaning has
// not produced anything.
func (r *Record) Text() string {
	if r.CleanedText != "" {
		return r.CleanedText
	}
	return r.RawText
}

// Chunk is a contiguous slice of one record's text, the unit of embedding.
// Chunks are immutable once created; metadata is snapshotted from the parent
// record at chunk-creation time.
type Chunk struct {
	ID             int64             `db:"id"`
	ContentID      int64             `db:"content_id"`
	Ordinal        int               `db:"chunk_index"`
	Text           string            `db:"chunk_text"`
	VectorID       string            `db:"vector_id"`
	EmbeddingModel string            `db:"embedding_model"`
	Metadata       map[string]string `db:"-"`
	CreatedAt      time.Time         `db:"created_at"`
}

// VectorID returns the deterministic vector-store identifier for a chunk of
// the given content record. Re-indexing the same content reuses the same ids,
// making indexing idempotent at the vector-store level.
func VectorID(contentID int64, ordinal int) string {
	return fmt.Sprintf("%d_%d", contentID, ordinal)
}

// ParseVectorID splits a vector-store identifier back into its owning content
// id and chunk ordinal.
func ParseVectorID(id string) (contentID int64, ordinal int, err error) {
	n, err := fmt.Sscanf(id, "%d_%d", &contentID, &ordinal)
	if err != nil || n != 2 {
		return 0, 0, fmt.Errorf("malformed vector id %q", id)
	}
	return contentID, ordinal, nil
}

// EligibleQuery narrows the content listing used for digest retrieval.
// Zero values mean "no restriction" except Since, which is always applied.
type EligibleQuery struct {
	// Since is the lower bound on scrape time (the retrieval time window).
	Since time.Time

	// Categories restricts to the given category allow-set when non-empty.
	Categories []string

	// MaxWordCount is an upper bound on article length when positive.
	MaxWordCount int

	// Language restricts to one language code when non-empty.
	Language string

	// Limit caps the number of returned records when positive.
	Limit int
}

// Store is the persistence contract for content records and chunks.
// Implementations are expected to behave transactionally per call; the core
// does not manage schema or migrations.
type Store interface {
	// GetContent returns a content record by id, or ErrNotFound.
	GetContent(ctx context.Context, id int64) (*Record, error)

	// ListPending returns up to limit records in pending status, oldest first.
	ListPending(ctx context.Context, limit int) ([]Record, error)

	// ListEligible returns completed records matching the query, most
	// recently scraped first.
	ListEligible(ctx context.Context, q EligibleQuery) ([]Record, error)

	// UpdateStatus advances a record's processing status.
	UpdateStatus(ctx context.Context, id int64, status ProcessingStatus) error

	// SaveChunks persists chunk records. Saving the same (content, ordinal)
	// pair twice replaces the previous row.
	SaveChunks(ctx context.Context, chunks []Chunk) error
}
