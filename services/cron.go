package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"

	"volos-codex/models"
)

const cacheWarmTag = "page-cache-warm"

// WarmReport counts the outcome of one warm pass.
type WarmReport struct {
	Books   int
	Pages   int
	Failed  int
	Skipped int
}

// CacheWarmer periodically extracts every classified book so expired page
// cache entries are rebuilt off the request path.
type CacheWarmer struct {
	scheduler  *gocron.Scheduler
	extractor  PageExtractor
	candidates []string
	interval   time.Duration
	timeout    time.Duration
	logger     *slog.Logger
	cancel     context.CancelFunc
	ctx        context.Context
}

// NewCacheWarmer creates a warmer running every interval. Each pass is
// bounded by timeout when positive.
func NewCacheWarmer(extractor PageExtractor, candidates []string, interval, timeout time.Duration, log *slog.Logger) *CacheWarmer {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &CacheWarmer{
		scheduler:  s,
		extractor:  extractor,
		candidates: candidates,
		interval:   interval,
		timeout:    timeout,
		logger:     log.With("component", "cache_warmer"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start schedules warm passes. The first pass runs one interval from now.
func (w *CacheWarmer) Start() error {
	if w.interval <= 0 {
		return fmt.Errorf("cache warm interval must be positive, got %s", w.interval)
	}

	_, err := w.scheduler.Every(w.interval).
		Tag(cacheWarmTag).
		SingletonMode().
		WaitForSchedule().
		Do(w.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to schedule cache warm job: %w", err)
	}

	w.scheduler.StartAsync()
	w.logger.Info("cache warmer started", "interval", w.interval.String())
	return nil
}

// Stop stops the scheduler and cancels a running pass.
func (w *CacheWarmer) Stop() {
	w.scheduler.Stop()
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *CacheWarmer) runScheduled() {
	ctx := w.ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if _, err := w.WarmOnce(ctx); err != nil {
		w.logger.Error("cache warm pass failed", "error", err)
	}
}

// WarmOnce extracts every classified book in the corpus. Books still cached
// are served from the cache. A cache outage stops the pass.
func (w *CacheWarmer) WarmOnce(ctx context.Context) (WarmReport, error) {
	var report WarmReport

	dir := ResolveCorpusDir(w.candidates)
	files, err := ListBooks(dir)
	if err != nil {
		return report, fmt.Errorf("failed to list books in %s: %w", dir, err)
	}

	start := time.Now()
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if ClassifySystem(name) == models.Unknown {
			report.Skipped++
			continue
		}

		pages, err := w.extractor.ExtractPages(ctx, filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, ErrCacheUnavailable) || ctx.Err() != nil {
				return report, err
			}
			report.Failed++
			w.logger.Warn("failed to warm book", "file", name, "error", err)
			continue
		}
		report.Books++
		report.Pages += len(pages)
	}

	w.logger.Info("cache warm pass complete",
		"books", report.Books,
		"pages", report.Pages,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", time.Since(start).String(),
	)
	return report, nil
}
