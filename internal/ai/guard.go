package ai

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"volos-codex/internal/logger"
	"volos-codex/internal/telemetry"
)

// ErrProviderUnavailable is returned while a provider's breaker is open.
var ErrProviderUnavailable = errors.New("embedding provider temporarily unavailable")

// GuardedEmbedder throttles a remote embedder and trips a circuit breaker
// after repeated failures.
type GuardedEmbedder struct {
	next        Embedder
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	metrics     *telemetry.Metrics

	// OnStateChange, when set, observes breaker transitions.
	OnStateChange func(name string, from, to gobreaker.State)
}

func NewGuardedEmbedder(next Embedder, tier string, metrics *telemetry.Metrics) *GuardedEmbedder {
	limits := getRateLimits(tier)
	g := &GuardedEmbedder{
		next:    next,
		metrics: metrics,
		// Embedding calls are cheap; allow a burst of a tenth of the minute budget.
		rateLimiter: rate.NewLimiter(rate.Limit(float64(limits.EmbedRPM)*0.9/60.0), max(1, limits.EmbedRPM/10)),
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up is not a provider fault.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			g.metrics.RecordCircuitBreakerState(name, to.String())
			if g.OnStateChange != nil {
				g.OnStateChange(name, from, to)
			}
		},
	})

	return g
}

func (g *GuardedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Embed(ctx, text)
	})
	g.metrics.RecordEmbeddingCall(ctx, g.next.Name(), err == nil)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrProviderUnavailable
		}
		return nil, err
	}
	return result.([]float32), nil
}

func (g *GuardedEmbedder) Dimension() int { return g.next.Dimension() }

func (g *GuardedEmbedder) Name() string { return g.next.Name() }

// State reports the breaker state.
func (g *GuardedEmbedder) State() gobreaker.State {
	return g.breaker.State()
}
