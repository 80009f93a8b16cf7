package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"volos-codex/internal/telemetry"
	"volos-codex/models"
)

// Namespaces the layout-aware markdown extraction in the page cache.
const markdownCacheKeyPrefix = "book_content_md_"

var tracer = otel.Tracer("volos-codex/services")

// PDFExtractor turns a book into its ordered, non-blank markdown pages and
// keeps the result in the page cache.
type PDFExtractor struct {
	source  PageSource
	cache   *PageCache
	logger  *slog.Logger
	metrics *telemetry.Metrics

	group singleflight.Group
}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor(source PageSource, cache *PageCache, log *slog.Logger, metrics *telemetry.Metrics) *PDFExtractor {
	if log == nil {
		log = slog.Default()
	}
	return &PDFExtractor{
		source:  source,
		cache:   cache,
		logger:  log.With("component", "pdf_extractor"),
		metrics: metrics,
	}
}

// CacheKey is the page cache key for the book at path.
func CacheKey(path string) string {
	return markdownCacheKeyPrefix + filepath.Base(path)
}

// ExtractPages returns the book's page texts in order. A cached copy is
// returned without opening the file; otherwise the book is parsed and the
// result cached. Parse failures are not cached. Cache failures are returned.
//
// Concurrent calls for one book share a single extraction. That extraction
// is not cancelled with any one caller; each caller stops waiting when its
// own ctx is done.
func (e *PDFExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := CacheKey(path)
	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (interface{}, error) {
		return e.extract(shared, path, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		pages := res.Val.([]string)
		out := make([]string, len(pages))
		copy(out, pages)
		return out, nil
	}
}

// ExtractRecords is ExtractPages with each text numbered from 1.
func (e *PDFExtractor) ExtractRecords(ctx context.Context, path string) ([]models.PageRecord, error) {
	pages, err := e.ExtractPages(ctx, path)
	if err != nil {
		return nil, err
	}

	documentID := filepath.Base(path)
	records := make([]models.PageRecord, 0, len(pages))
	for i, text := range pages {
		records = append(records, models.PageRecord{
			DocumentID: documentID,
			PageIndex:  i + 1,
			Text:       text,
		})
	}
	return records, nil
}

func (e *PDFExtractor) extract(ctx context.Context, path, key string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "pdf_extractor.extract",
		trace.WithAttributes(attribute.String("book.file", filepath.Base(path))))
	defer span.End()

	pages, hit, err := e.cache.GetPages(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache read failed")
		return nil, err
	}
	e.metrics.RecordCacheLookup(ctx, hit)
	span.SetAttributes(attribute.Bool("page_cache.hit", hit))
	if hit {
		e.logger.Debug("page cache hit", "key", key, "pages", len(pages))
		return pages, nil
	}

	start := time.Now()
	pages, err = e.readPages(ctx, path)
	if err != nil {
		e.metrics.RecordExtraction(ctx, time.Since(start), "error")
		e.logger.Error("failed to extract book", "file", path, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return nil, err
	}
	e.metrics.RecordExtraction(ctx, time.Since(start), "ok")

	if err := e.cache.SetPages(ctx, key, pages); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache write failed")
		return nil, err
	}

	e.logger.Info("book extracted",
		"file", filepath.Base(path),
		"pages", len(pages),
		"duration", time.Since(start).String(),
	)
	return pages, nil
}

func (e *PDFExtractor) readPages(ctx context.Context, path string) ([]string, error) {
	doc, err := e.source.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pages := []string{}
	for n := 1; n <= doc.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		words, err := doc.PageWords(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}

		text := PageToMarkdown(words)
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}
