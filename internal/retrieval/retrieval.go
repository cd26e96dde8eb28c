// Package retrieval selects the articles for a user's digest, combining
// preference filtering, vector relevance, and recency.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/autocurate/autocurate/internal/content"
	"github.com/autocurate/autocurate/internal/embeddings"
	"github.com/autocurate/autocurate/internal/preferences"
	"github.com/autocurate/autocurate/internal/vectorstore"
)

var tracer = otel.Tracer("autocurate.retrieval")

// timeNow is a variable for testing purposes.
var timeNow = time.Now

// Result is the outcome of one retrieval pass.
type Result struct {
	// Records are the selected articles, relevance hits first, recency
	// backfill after, capped at the user's max items.
	Records []content.Record

	// Preferences are the preferences used, after defaulting.
	Preferences preferences.Preferences

	// RelevanceUsed reports whether vector similarity contributed to the
	// ordering. False when the user has no topics or vector search degraded.
	RelevanceUsed bool
}

// Engine retrieves digest candidates for a user.
type Engine struct {
	contents   content.Store
	prefs      preferences.Store
	embedder   embeddings.Embedder
	index      vectorstore.Index
	oversample int
	logger     *zap.Logger
}

// New creates a retrieval engine. oversample multiplies the user's max items
// when listing eligible content, leaving headroom for relevance narrowing.
func New(contents content.Store, prefs preferences.Store, embedder embeddings.Embedder, index vectorstore.Index, oversample int, logger *zap.Logger) *Engine {
	if oversample < 1 {
		oversample = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		contents:   contents,
		prefs:      prefs,
		embedder:   embedder,
		index:      index,
		oversample: oversample,
		logger:     logger,
	}
}

// Retrieve selects up to the user's max items of eligible content.
//
// Eligible content is listed oversampled from the preference-derived filter.
// When the user has topics, a vector search over the candidate set ranks by
// relevance; hits are deduplicated to one entry per article and padded with
// the most recent remaining candidates. Vector search failure degrades to
// pure recency rather than failing the digest.
func (e *Engine) Retrieve(ctx context.Context, userID int64) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Engine.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	prefs, err := e.prefs.GetPreferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, preferences.ErrNotFound) {
			return nil, fmt.Errorf("loading preferences for %d: %w", userID, err)
		}
		prefs = preferences.Default(userID)
	}

	maxItems := prefs.EffectiveMaxItems()
	query := preferences.BuildFilter(prefs, timeNow())
	query.Limit = maxItems * e.oversample

	candidates, err := e.contents.ListEligible(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing eligible content: %w", err)
	}
	if len(candidates) == 0 {
		return &Result{Records: []content.Record{}, Preferences: prefs}, nil
	}

	if len(prefs.Topics) == 0 {
		return &Result{
			Records:     truncate(candidates, maxItems),
			Preferences: prefs,
		}, nil
	}

	ranked, ok := e.rankByRelevance(ctx, prefs.Topics, candidates, maxItems)
	if !ok {
		return &Result{
			Records:     truncate(candidates, maxItems),
			Preferences: prefs,
		}, nil
	}

	span.SetAttributes(attribute.Int("selected", len(ranked)))
	return &Result{
		Records:       ranked,
		Preferences:   prefs,
		RelevanceUsed: true,
	}, nil
}

// rankByRelevance orders candidates by vector similarity to the user's
// topics. The boolean is false when vector ranking was unavailable and the
// caller should fall back to recency.
func (e *Engine) rankByRelevance(ctx context.Context, topics []string, candidates []content.Record, maxItems int) ([]content.Record, bool) {
	queryVector, err := e.embedder.EmbedQuery(ctx, strings.Join(topics, " "))
	if err != nil {
		e.logger.Warn("topic embedding failed, falling back to recency",
			zap.Error(err),
		)
		return nil, false
	}

	byID := make(map[int64]*content.Record, len(candidates))
	candidateIDs := make([]string, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
		candidateIDs[i] = strconv.FormatInt(candidates[i].ID, 10)
	}

	// Search restricted to this user's candidates. k covers every candidate
	// chunk that could map to a distinct article.
	filter := vectorstore.Filter{}.In("content_id", candidateIDs)
	hits, err := e.index.Search(ctx, queryVector, maxItems*e.oversample, filter)
	if err != nil {
		e.logger.Warn("vector search failed, falling back to recency",
			zap.Error(err),
		)
		return nil, false
	}

	// Multiple chunks of one article can hit; keep the best-scoring chunk
	// per article by taking hits in score order.
	selected := make([]content.Record, 0, maxItems)
	seen := make(map[int64]bool, maxItems)
	for _, hit := range hits {
		contentID, _, err := content.ParseVectorID(hit.ID)
		if err != nil {
			e.logger.Warn("skipping malformed vector id", zap.String("id", hit.ID))
			continue
		}
		rec, ok := byID[contentID]
		if !ok || seen[contentID] {
			continue
		}
		seen[contentID] = true
		selected = append(selected, *rec)
		if len(selected) == maxItems {
			return selected, true
		}
	}

	// Backfill with the most recent candidates not already selected.
	for _, rec := range candidates {
		if seen[rec.ID] {
			continue
		}
		selected = append(selected, rec)
		if len(selected) == maxItems {
			break
		}
	}
	return selected, true
}

func truncate(records []content.Record, n int) []content.Record {
	if len(records) > n {
		records = records[:n]
	}
	return records
}
