// Package digest composes personalized article digests from retrieved
// content.
package digest

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoContent is returned when no articles are available for a digest.
	ErrNoContent = errors.New("no content available for digest")

	// ErrSummarizationFailed indicates the summarization backend failed.
	// Composition does not retry; the caller decides whether to reschedule.
	ErrSummarizationFailed = errors.New("summarization failed")
)

// Digest is one generated digest document.
type Digest struct {
	ID     string `db:"id"`
	UserID int64  `db:"user_id"`

	// Title combines the digest type with the generation date.
	Title string `db:"title"`

	// DigestType mirrors the user's frequency preference, e.g. "daily".
	DigestType string `db:"digest_type"`

	// Content is the rendered digest text.
	Content string `db:"content"`

	ArticleCount    int       `db:"article_count"`
	WordCount       int       `db:"word_count"`
	ReadTimeMinutes int       `db:"read_time_minutes"`
	GeneratedAt     time.Time `db:"generated_at"`

	// ModelUsed is the summarization model that wrote the body.
	ModelUsed string `db:"model_used"`

	// ContentIDs lists the included content records in digest order.
	ContentIDs []int64 `db:"-"`
}

// Summarizer produces the digest body from article content and reader
// context. Implementations are opaque to the composer; it never inspects or
// post-processes what comes back beyond word counting.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)

	// Model identifies the backing model, recorded on generated digests.
	Model() string
}

// Store persists generated digests.
type Store interface {
	// SaveDigest inserts a generated digest.
	SaveDigest(ctx context.Context, d Digest) error

	// ListDigests returns a user's digests, newest first, up to limit.
	ListDigests(ctx context.Context, userID int64, limit int) ([]Digest, error)
}
