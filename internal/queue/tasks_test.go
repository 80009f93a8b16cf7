package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volos-codex/internal/config"
	"volos-codex/services"
)

type fakeExtractor struct {
	paths []string
	pages []string
	err   error
}

func (f *fakeExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	f.paths = append(f.paths, path)
	return f.pages, f.err
}

type fakeWarmer struct {
	calls int
	err   error
}

func (f *fakeWarmer) WarmOnce(ctx context.Context) (services.WarmReport, error) {
	f.calls++
	return services.WarmReport{Books: 2, Pages: 10}, f.err
}

func TestNewExtractBookTask(t *testing.T) {
	task, err := NewExtractBookTask("/books/dnd5_phb.pdf")
	require.NoError(t, err)
	assert.Equal(t, TaskExtractBook, task.Type())

	var payload ExtractBookPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "/books/dnd5_phb.pdf", payload.FilePath)

	_, err = NewExtractBookTask(" ")
	assert.ErrorIs(t, err, services.ErrEmptyPath)
}

func TestProcessExtractBook(t *testing.T) {
	ctx := context.Background()
	task, err := NewExtractBookTask("/books/dnd5_phb.pdf")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		extractor := &fakeExtractor{pages: []string{"a"}}
		p := NewTaskProcessor(extractor, nil)
		require.NoError(t, p.ProcessExtractBook(ctx, task))
		assert.Equal(t, []string{"/books/dnd5_phb.pdf"}, extractor.paths)
	})

	t.Run("bad payload skips retry", func(t *testing.T) {
		p := NewTaskProcessor(&fakeExtractor{}, nil)
		err := p.ProcessExtractBook(ctx, asynq.NewTask(TaskExtractBook, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)

		err = p.ProcessExtractBook(ctx, asynq.NewTask(TaskExtractBook, []byte(`{"file_path":""}`)))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.ErrorIs(t, err, services.ErrEmptyPath)
	})

	t.Run("parse failure skips retry", func(t *testing.T) {
		p := NewTaskProcessor(&fakeExtractor{err: errors.New("malformed xref")}, nil)
		err := p.ProcessExtractBook(ctx, task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("cache outage is retried", func(t *testing.T) {
		outage := fmt.Errorf("%w: dial tcp: refused", services.ErrCacheUnavailable)
		p := NewTaskProcessor(&fakeExtractor{err: outage}, nil)
		err := p.ProcessExtractBook(ctx, task)
		assert.ErrorIs(t, err, services.ErrCacheUnavailable)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestProcessWarmCorpus(t *testing.T) {
	ctx := context.Background()

	warmer := &fakeWarmer{}
	require.NoError(t, NewTaskProcessor(nil, warmer).ProcessWarmCorpus(ctx, NewWarmCorpusTask()))
	assert.Equal(t, 1, warmer.calls)

	err := NewTaskProcessor(nil, nil).ProcessWarmCorpus(ctx, NewWarmCorpusTask())
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestEnqueuer_RejectsEmptyPath(t *testing.T) {
	e := NewEnqueuer(asynq.RedisClientOpt{Addr: "127.0.0.1:0"})
	defer e.Close()

	_, err := e.EnqueueExtract(context.Background(), "")
	assert.ErrorIs(t, err, services.ErrEmptyPath)
}

func TestRedisConnOpt(t *testing.T) {
	opt, err := RedisConnOpt(&config.Config{RedisURL: "redis://:secret@cache:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)

	opt, err = RedisConnOpt(&config.Config{RedisURL: "localhost:6379", RedisDB: 1})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, 1, opt.DB)
}
