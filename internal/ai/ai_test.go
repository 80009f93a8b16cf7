package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volos-codex/internal/config"
)

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := NewLocalEmbedder(128)
	ctx := context.Background()

	a, err := e.Embed(ctx, "You cause a creature to fall asleep.")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "You cause a creature to fall asleep.")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-6)
}

func TestLocalEmbedder_RelatedTextScoresHigher(t *testing.T) {
	e := NewLocalEmbedder(384)
	ctx := context.Background()

	query, _ := e.Embed(ctx, "sleep spell")
	related, _ := e.Embed(ctx, "# Sleep\nThis spell sends creatures into a magical sleep.")
	unrelated, _ := e.Embed(ctx, "Grappling uses an Athletics check against the target.")

	assert.Greater(t, CosineSimilarity(query, related), CosineSimilarity(query, unrelated))
}

func TestLocalEmbedder_StopwordsOnly(t *testing.T) {
	v, err := NewLocalEmbedder(16).Embed(context.Background(), "the and of")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), v)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 1}, []float32{-1, -1}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 0}))
}

type failingEmbedder struct {
	calls int
	err   error
}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1}, nil
}

func (f *failingEmbedder) Dimension() int { return 1 }
func (f *failingEmbedder) Name() string   { return "failing" }

func TestGuardedEmbedder_OpensAfterFailures(t *testing.T) {
	inner := &failingEmbedder{err: errors.New("503")}
	g := NewGuardedEmbedder(inner, "tier2", nil)

	var transitions []gobreaker.State
	g.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := g.Embed(ctx, "x")
		assert.EqualError(t, err, "503")
	}

	_, err := g.Embed(ctx, "x")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, gobreaker.StateOpen, g.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}

func TestGuardedEmbedder_PassesThrough(t *testing.T) {
	g := NewGuardedEmbedder(&failingEmbedder{}, "tier1", nil)

	v, err := g.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, v)
	assert.Equal(t, "failing", g.Name())
	assert.Equal(t, 1, g.Dimension())
}

func TestTokenCounter_Windows(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tc := NewTokenCounter(RateLimits{RPM: 2, TPM: 100, RPD: 3})
	tc.now = func() time.Time { return now }

	assert.True(t, tc.CanConsume(10, 1))
	tc.RecordUsage(10, 1)
	tc.RecordUsage(10, 1)
	assert.False(t, tc.CanConsume(10, 1), "minute request budget spent")

	now = now.Add(time.Minute)
	assert.True(t, tc.CanConsume(10, 1))
	tc.RecordUsage(10, 1)
	assert.False(t, tc.CanConsume(10, 1), "daily request budget spent")

	assert.False(t, tc.CanConsume(101, 0))
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(context.Background(), &config.Config{EmbeddingsProvider: "local", LocalEmbeddingDim: 32}, nil)
	require.NoError(t, err)
	assert.Equal(t, 32, e.Dimension())

	_, err = NewEmbedder(context.Background(), &config.Config{EmbeddingsProvider: "openai"}, nil)
	assert.Error(t, err)

	_, err = NewEmbedder(context.Background(), &config.Config{EmbeddingsProvider: "bogus"}, nil)
	assert.Error(t, err)

	e, err = NewEmbedder(context.Background(), &config.Config{EmbeddingsProvider: "openai", OpenAIAPIKey: "sk-test", OpenAIEmbeddingsModel: "text-embedding-3-large"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3072, e.Dimension())
	assert.Equal(t, "openai-text-embedding-3-large", e.Name())
}
