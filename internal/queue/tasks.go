package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"volos-codex/internal/config"
	"volos-codex/internal/logger"
	"volos-codex/services"
)

const (
	TaskExtractBook = "book:extract"
	TaskWarmCorpus  = "corpus:warm"
)

type ExtractBookPayload struct {
	FilePath string `json:"file_path"`
}

// Task creators
func NewExtractBookTask(filePath string) (*asynq.Task, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, services.ErrEmptyPath
	}

	payload, err := json.Marshal(ExtractBookPayload{FilePath: filePath})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskExtractBook,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

func NewWarmCorpusTask() *asynq.Task {
	return asynq.NewTask(
		TaskWarmCorpus,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(time.Hour),
		asynq.Queue("low"),
		asynq.Unique(time.Hour),
	)
}

// BookExtractor fills the page cache for one book.
type BookExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// CorpusWarmer extracts every classified book.
type CorpusWarmer interface {
	WarmOnce(ctx context.Context) (services.WarmReport, error)
}

// Task handlers
type TaskProcessor struct {
	extractor BookExtractor
	warmer    CorpusWarmer
}

func NewTaskProcessor(extractor BookExtractor, warmer CorpusWarmer) *TaskProcessor {
	return &TaskProcessor{
		extractor: extractor,
		warmer:    warmer,
	}
}

// Register adds the processor's handlers to mux.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskExtractBook, p.ProcessExtractBook)
	mux.HandleFunc(TaskWarmCorpus, p.ProcessWarmCorpus)
}

// ProcessExtractBook extracts a book into the page cache. Only cache
// outages are retried; a book that fails to parse fails the same way again.
func (p *TaskProcessor) ProcessExtractBook(ctx context.Context, t *asynq.Task) error {
	var payload ExtractBookPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.FilePath) == "" {
		return fmt.Errorf("%w: %w", services.ErrEmptyPath, asynq.SkipRetry)
	}

	logger.Info("extracting book", "file", payload.FilePath)

	pages, err := p.extractor.ExtractPages(ctx, payload.FilePath)
	if err != nil {
		if errors.Is(err, services.ErrCacheUnavailable) || ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("extract %s: %v: %w", payload.FilePath, err, asynq.SkipRetry)
	}

	logger.Info("book extracted", "file", payload.FilePath, "pages", len(pages))
	return nil
}

func (p *TaskProcessor) ProcessWarmCorpus(ctx context.Context, t *asynq.Task) error {
	if p.warmer == nil {
		return fmt.Errorf("no corpus warmer configured: %w", asynq.SkipRetry)
	}

	report, err := p.warmer.WarmOnce(ctx)
	if err != nil {
		return err
	}

	logger.Info("corpus warmed", "books", report.Books, "pages", report.Pages, "failed", report.Failed)
	return nil
}

// Enqueuer submits extraction work to the worker.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(opt asynq.RedisConnOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(opt)}
}

func (e *Enqueuer) EnqueueExtract(ctx context.Context, filePath string) (*asynq.TaskInfo, error) {
	task, err := NewExtractBookTask(filePath)
	if err != nil {
		return nil, err
	}
	return e.client.EnqueueContext(ctx, task)
}

func (e *Enqueuer) EnqueueWarm(ctx context.Context) (*asynq.TaskInfo, error) {
	return e.client.EnqueueContext(ctx, NewWarmCorpusTask())
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// RedisConnOpt points asynq at the same Redis the page cache uses.
func RedisConnOpt(cfg *config.Config) (asynq.RedisClientOpt, error) {
	opt, err := config.RedisOptions(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
