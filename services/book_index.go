package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"volos-codex/internal/ai"
	"volos-codex/internal/telemetry"
	"volos-codex/models"
)

const defaultCorpusDir = "Books"

// PageExtractor yields the ordered non-blank page texts of a book.
type PageExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// BookIndexOptions configures a BookIndex.
type BookIndexOptions struct {
	// CorpusCandidates are tried in order by ResolveCorpusDir.
	CorpusCandidates []string
	// Concurrency bounds how many books are indexed at once.
	Concurrency int
	Logger      *slog.Logger
	Metrics     *telemetry.Metrics
}

// BookIndex holds one embedding per retained page of every classified book.
// The corpus is scanned once, on the first EnsureIndexed call to complete.
type BookIndex struct {
	extractor   PageExtractor
	embedder    ai.Embedder
	candidates  []string
	concurrency int
	logger      *slog.Logger
	metrics     *telemetry.Metrics

	// build admits one scan at a time; callers waiting on it can give up
	// through their context.
	build   chan struct{}
	indexed atomic.Bool
	scans   atomic.Int64

	mu        sync.RWMutex
	entries   map[string]models.IndexEntry
	corpusDir string
}

func NewBookIndex(extractor PageExtractor, embedder ai.Embedder, opts BookIndexOptions) *BookIndex {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &BookIndex{
		extractor:   extractor,
		embedder:    embedder,
		candidates:  opts.CorpusCandidates,
		concurrency: opts.Concurrency,
		logger:      log.With("component", "book_index"),
		metrics:     opts.Metrics,
		build:       make(chan struct{}, 1),
		entries:     make(map[string]models.IndexEntry),
	}
}

// EnsureIndexed builds the index if no earlier call has. Concurrent callers
// wait for the running build instead of starting their own. A build cut short
// by cancellation or a cache outage is discarded and retried by the next call.
func (b *BookIndex) EnsureIndexed(ctx context.Context) error {
	if b.indexed.Load() {
		return nil
	}

	select {
	case b.build <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-b.build }()

	if b.indexed.Load() {
		return nil
	}

	dir, entries, err := b.scan(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.entries = entries
	b.corpusDir = dir
	b.mu.Unlock()
	b.indexed.Store(true)

	return nil
}

// Indexed reports whether a build has completed.
func (b *BookIndex) Indexed() bool {
	return b.indexed.Load()
}

// Scans reports how many corpus scans have started.
func (b *BookIndex) Scans() int64 {
	return b.scans.Load()
}

// Entries returns a snapshot of the entries tagged with system.
func (b *BookIndex) Entries(system models.RuleSystem) []models.IndexEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.IndexEntry, 0)
	for _, e := range b.entries {
		if e.System == system {
			out = append(out, e)
		}
	}
	return out
}

// Stats summarizes the index.
func (b *BookIndex) Stats() models.IndexStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := models.IndexStats{
		Indexed:   b.indexed.Load(),
		Pages:     len(b.entries),
		PerSystem: make(map[string]int),
		CorpusDir: b.corpusDir,
	}
	for _, e := range b.entries {
		stats.PerSystem[e.System.String()]++
	}
	return stats
}

// Embed embeds text in the same space as the indexed pages.
func (b *BookIndex) Embed(ctx context.Context, text string) ([]float32, error) {
	return b.embedder.Embed(ctx, text)
}

func (b *BookIndex) scan(ctx context.Context) (string, map[string]models.IndexEntry, error) {
	b.scans.Add(1)
	b.metrics.RecordIndexScan(ctx)

	ctx, span := tracer.Start(ctx, "book_index.scan")
	defer span.End()

	start := time.Now()
	entries := make(map[string]models.IndexEntry)

	dir := ResolveCorpusDir(b.candidates)
	span.SetAttributes(attribute.String("corpus.dir", dir))
	b.logger.Info("indexing books for semantic search", "dir", dir)

	files, err := ListBooks(dir)
	if errors.Is(err, fs.ErrNotExist) {
		b.logger.Error("books directory not found", "dir", dir)
		return dir, entries, nil
	}
	if err != nil {
		b.logger.Error("failed to list books directory", "dir", dir, "error", err)
		return dir, entries, nil
	}
	if len(files) == 0 {
		b.logger.Warn("no PDF files found", "dir", dir)
		return dir, entries, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	books := 0
	for _, name := range files {
		system := ClassifySystem(name)
		if system == models.Unknown {
			b.logger.Info("skipping unclassified book", "file", name)
			continue
		}
		books++

		g.Go(func() error {
			bookEntries, err := b.indexBook(gctx, filepath.Join(dir, name), system)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if errors.Is(err, ErrCacheUnavailable) || isContextError(err) {
					return err
				}
				b.logger.Error("failed to index book", "file", name, "error", err)
				return nil
			}

			mu.Lock()
			for key, entry := range bookEntries {
				entries[key] = entry
			}
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan aborted")
		b.logger.Error("book indexing aborted", "error", err)
		return "", nil, err
	}

	span.SetAttributes(attribute.Int("index.pages", len(entries)))
	b.logger.Info("indexing complete",
		"books", books,
		"pages", len(entries),
		"duration", time.Since(start).String(),
	)
	return dir, entries, nil
}

func (b *BookIndex) indexBook(ctx context.Context, path string, system models.RuleSystem) (map[string]models.IndexEntry, error) {
	pages, err := b.extractor.ExtractPages(ctx, path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	out := make(map[string]models.IndexEntry, len(pages))
	pageIndex := 0
	for _, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pageIndex++
		key := fmt.Sprintf("%s_Page%d", name, pageIndex)

		vec, err := b.embedder.Embed(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isContextError(err) {
				return nil, err
			}
			b.logger.Warn("failed to embed page", "key", key, "error", err)
			continue
		}

		out[key] = models.IndexEntry{
			Key:       key,
			Embedding: vec,
			Text:      text,
			System:    system,
		}
	}

	b.metrics.RecordPagesIndexed(ctx, system.String(), len(out))
	b.logger.Debug("book indexed", "file", name, "system", system.String(), "pages", len(out))
	return out, nil
}

// isContextError reports a cancellation or deadline from any context, not
// only the scan's own. Such a book is not broken, so the scan must not latch
// without it.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ResolveCorpusDir picks the first candidate directory holding at least one
// PDF, else the first existing directory, else the first candidate.
func ResolveCorpusDir(candidates []string) string {
	firstExisting := ""
	for _, dir := range candidates {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if firstExisting == "" {
			firstExisting = dir
		}
		if files, err := ListBooks(dir); err == nil && len(files) > 0 {
			return dir
		}
	}

	if firstExisting != "" {
		return firstExisting
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return defaultCorpusDir
}

// ListBooks returns the base names of the PDFs directly inside dir, sorted.
func ListBooks(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range dirEntries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}
