package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	CacheLookups        metric.Int64Counter
	ExtractionDuration  metric.Float64Histogram
	PagesIndexed        metric.Int64Counter
	IndexScans          metric.Int64Counter
	SearchDuration      metric.Float64Histogram
	EmbeddingCalls      metric.Int64Counter
	TokensUsed          metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("volos-codex")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"page_cache.lookups",
		metric.WithDescription("Page cache lookups by result"),
	)
	if err != nil {
		return nil, err
	}

	extractionDuration, err := meter.Float64Histogram(
		"book.extraction.duration",
		metric.WithDescription("Book extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	pagesIndexed, err := meter.Int64Counter(
		"book_index.pages",
		metric.WithDescription("Pages added to the embedding index"),
	)
	if err != nil {
		return nil, err
	}

	indexScans, err := meter.Int64Counter(
		"book_index.scans",
		metric.WithDescription("Full corpus scans"),
	)
	if err != nil {
		return nil, err
	}

	searchDuration, err := meter.Float64Histogram(
		"book_search.duration",
		metric.WithDescription("Search duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingCalls, err := meter.Int64Counter(
		"embeddings.calls",
		metric.WithDescription("Embedding requests by provider"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"gemini.tokens.used",
		metric.WithDescription("Total Gemini tokens used"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		CacheLookups:        cacheLookups,
		ExtractionDuration:  extractionDuration,
		PagesIndexed:        pagesIndexed,
		IndexScans:          indexScans,
		SearchDuration:      searchDuration,
		EmbeddingCalls:      embeddingCalls,
		TokensUsed:          tokensUsed,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(ctx context.Context, method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	)

	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordExtraction records a book extraction that parsed the document.
func (m *Metrics) RecordExtraction(ctx context.Context, duration time.Duration, status string) {
	if m == nil {
		return
	}
	m.ExtractionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("extraction.status", status),
	))
}

func (m *Metrics) RecordIndexScan(ctx context.Context) {
	if m == nil {
		return
	}
	m.IndexScans.Add(ctx, 1)
}

func (m *Metrics) RecordPagesIndexed(ctx context.Context, system string, pages int) {
	if m == nil {
		return
	}
	m.PagesIndexed.Add(ctx, int64(pages), metric.WithAttributes(attribute.String("rule_system", system)))
}

func (m *Metrics) RecordSearch(ctx context.Context, system string, results int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("rule_system", system),
		attribute.Int("results", results),
	))
}

func (m *Metrics) RecordEmbeddingCall(ctx context.Context, provider string, success bool) {
	if m == nil {
		return
	}
	m.EmbeddingCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("success", success),
	))
}

// RecordTokensUsed records Gemini token usage
func (m *Metrics) RecordTokensUsed(ctx context.Context, tokens int64, model string) {
	if m == nil {
		return
	}
	m.TokensUsed.Add(ctx, tokens, metric.WithAttributes(
		attribute.String("gemini.model", model),
	))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("state", state),
	))
}
