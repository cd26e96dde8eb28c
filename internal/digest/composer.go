package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/autocurate/autocurate/internal/content"
	"github.com/autocurate/autocurate/internal/retrieval"
	"github.com/autocurate/autocurate/internal/textproc"
)

var tracer = otel.Tracer("autocurate.digest")

// timeNow is a variable for testing purposes.
var timeNow = time.Now

// excerptLimit bounds how much of each article goes into the prompt.
const excerptLimit = 1500

// Retriever selects digest candidates for a user.
type Retriever interface {
	Retrieve(ctx context.Context, userID int64) (*retrieval.Result, error)
}

// Composer turns retrieved articles into a stored digest document.
type Composer struct {
	retriever  Retriever
	summarizer Summarizer
	store      Store
	logger     *zap.Logger
}

// NewComposer creates a Composer.
func NewComposer(retriever Retriever, summarizer Summarizer, store Store, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		retriever:  retriever,
		summarizer: summarizer,
		store:      store,
		logger:     logger,
	}
}

// Compose generates, persists, and returns one digest for the user.
//
// The summarizer is treated as opaque: its output becomes the digest body
// unchanged apart from whitespace trimming, and a failure surfaces as
// ErrSummarizationFailed without retry. A user with no eligible content gets
// ErrNoContent rather than an empty digest.
func (c *Composer) Compose(ctx context.Context, userID int64) (*Digest, error) {
	ctx, span := tracer.Start(ctx, "Composer.Compose")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	result, err := c.retriever.Retrieve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("retrieving content for %d: %w", userID, err)
	}
	if len(result.Records) == 0 {
		return nil, ErrNoContent
	}

	prompt := buildPrompt(result)
	body, err := c.summarizer.Summarize(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summarizing digest for %d: %w", userID, err)
	}

	now := timeNow().UTC()
	digestType := result.Preferences.Frequency
	if digestType == "" {
		digestType = "daily"
	}
	contentIDs := make([]int64, len(result.Records))
	for i, rec := range result.Records {
		contentIDs[i] = rec.ID
	}
	d := &Digest{
		ID:              uuid.New().String(),
		UserID:          userID,
		Title:           buildTitle(digestType, now),
		DigestType:      digestType,
		Content:         body,
		ArticleCount:    len(result.Records),
		WordCount:       textproc.CountWords(body),
		ReadTimeMinutes: textproc.EstimateReadingTime(body),
		GeneratedAt:     now,
		ModelUsed:       c.summarizer.Model(),
		ContentIDs:      contentIDs,
	}

	if err := c.store.SaveDigest(ctx, *d); err != nil {
		return nil, fmt.Errorf("saving digest %s: %w", d.ID, err)
	}

	span.SetAttributes(
		attribute.Int("articles", d.ArticleCount),
		attribute.Int("words", d.WordCount),
	)
	c.logger.Info("composed digest",
		zap.String("digest_id", d.ID),
		zap.Int64("user_id", userID),
		zap.Int("articles", d.ArticleCount),
		zap.Int("read_time_minutes", d.ReadTimeMinutes),
	)
	return d, nil
}

// buildTitle renders a human title from the digest type and date, e.g.
// "Daily Digest - June 15, 2025".
func buildTitle(digestType string, at time.Time) string {
	label := strings.ToUpper(digestType[:1]) + digestType[1:]
	return fmt.Sprintf("%s Digest - %s", label, at.Format("January 2, 2006"))
}

// buildPrompt assembles the summarization prompt: reader context first, then
// the articles with bounded excerpts.
func buildPrompt(result *retrieval.Result) string {
	var b strings.Builder

	if pc := result.Preferences.PersonalizationContext(); pc != "" {
		b.WriteString(pc)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Write a digest of the following %d articles.\n\n", len(result.Records))

	for i, rec := range result.Records {
		fmt.Fprintf(&b, "Article %d: %s\n", i+1, rec.Title)
		if rec.Author != "" {
			fmt.Fprintf(&b, "By %s\n", rec.Author)
		}
		b.WriteString(excerpt(rec))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func excerpt(rec content.Record) string {
	text := rec.Text()
	if len(text) > excerptLimit {
		text = text[:excerptLimit]
	}
	return strings.TrimSpace(text)
}
