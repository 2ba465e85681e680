package llm

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cognicore/feedscope/internal/logging"
	"github.com/cognicore/feedscope/pkg/feedscope/intent"
)

// Backend interprets questions and narrates outcomes.
type Backend interface {
	Interpret(ctx context.Context, question string) (intent.Intent, error)
	Narrate(ctx context.Context, question string, in intent.Intent, out intent.Outcome) (string, error)
}

// BreakerConfig controls when a backend is taken out of rotation.
type BreakerConfig struct {
	Name string
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open before a trial call.
	Cooldown time.Duration
}

// Breaker wraps a Backend with circuit breakers. While open, calls fail
// fast with gobreaker.ErrOpenState and callers fall back to keywords.
type Breaker struct {
	backend   Backend
	interpret *gobreaker.CircuitBreaker[intent.Intent]
	narrate   *gobreaker.CircuitBreaker[string]
}

// NewBreaker wraps b.
func NewBreaker(b Backend, cfg BreakerConfig) *Breaker {
	if cfg.Failures == 0 {
		cfg.Failures = 3
	}
	if cfg.Name == "" {
		cfg.Name = "llm"
	}
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		}
	}
	return &Breaker{
		backend:   b,
		interpret: gobreaker.NewCircuitBreaker[intent.Intent](settings(cfg.Name + ".interpret")),
		narrate:   gobreaker.NewCircuitBreaker[string](settings(cfg.Name + ".narrate")),
	}
}

// Interpret implements Backend.
func (b *Breaker) Interpret(ctx context.Context, question string) (intent.Intent, error) {
	return b.interpret.Execute(func() (intent.Intent, error) {
		return b.backend.Interpret(ctx, question)
	})
}

// Narrate implements Backend.
func (b *Breaker) Narrate(ctx context.Context, question string, in intent.Intent, out intent.Outcome) (string, error) {
	return b.narrate.Execute(func() (string, error) {
		return b.backend.Narrate(ctx, question, in, out)
	})
}

// State reports the interpret and narrate breaker states.
func (b *Breaker) State() (interpret, narrate string) {
	return b.interpret.State().String(), b.narrate.State().String()
}
