package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"volos-codex/internal/ai"
	"volos-codex/internal/telemetry"
	"volos-codex/models"
)

// DefaultTopK is the number of passages a search returns at most. Smaller
// limits are allowed; larger ones are capped to it.
const DefaultTopK = 5

// BookSearch ranks indexed pages of one rule system against a query.
type BookSearch struct {
	index   *BookIndex
	topK    int
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func NewBookSearch(index *BookIndex, topK int, log *slog.Logger, metrics *telemetry.Metrics) *BookSearch {
	if topK <= 0 || topK > DefaultTopK {
		topK = DefaultTopK
	}
	if log == nil {
		log = slog.Default()
	}
	return &BookSearch{
		index:   index,
		topK:    topK,
		logger:  log.With("component", "book_search"),
		metrics: metrics,
	}
}

type scoredEntry struct {
	key   string
	text  string
	score float64
}

// Search returns the texts of up to topK pages tagged with system, most
// similar to query first. Equal scores are ordered by page key. A blank
// query returns no passages without embedding anything.
func (s *BookSearch) Search(ctx context.Context, query string, system models.RuleSystem) ([]string, error) {
	if err := s.index.EnsureIndexed(ctx); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}

	ctx, span := tracer.Start(ctx, "book_search.search", trace.WithAttributes(
		attribute.String("rule_system", system.String()),
	))
	defer span.End()
	start := time.Now()

	queryVec, err := s.index.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	candidates := s.index.Entries(system)
	scored := make([]scoredEntry, 0, len(candidates))
	for _, e := range candidates {
		scored = append(scored, scoredEntry{
			key:   e.Key,
			text:  e.Text,
			score: ai.CosineSimilarity(e.Embedding, queryVec),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].key < scored[j].key
	})

	if len(scored) > s.topK {
		scored = scored[:s.topK]
	}

	results := make([]string, 0, len(scored))
	for _, e := range scored {
		results = append(results, e.text)
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	s.metrics.RecordSearch(ctx, system.String(), len(results), time.Since(start))
	s.logger.Info("search completed",
		"system", system.String(),
		"candidates", len(candidates),
		"results", len(results),
	)
	return results, nil
}
