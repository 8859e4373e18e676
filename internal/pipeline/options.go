package pipeline

import (
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the number of concurrent extraction/inference slots.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		p.pool = NewPool(n)
	}
}

// WithTimeout sets the per-request deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *errors.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithBreaker guards document extraction with a circuit breaker. A nil
// breaker disables it.
func WithBreaker(b *Breaker) Option {
	return func(p *Pipeline) {
		p.breaker = b
	}
}

// WithSummaryLength sets the resume preview length.
func WithSummaryLength(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.summaryLength = n
		}
	}
}

// FromConfig applies the pipeline section of cfg.
func FromConfig(cfg *config.Config, logger *errors.Logger) []Option {
	return []Option{
		WithLogger(logger),
		WithWorkers(cfg.Pipeline.Workers),
		WithTimeout(cfg.Pipeline.RequestTimeout),
		WithSummaryLength(cfg.Pipeline.SummaryLength),
		WithBreaker(NewBreaker(&cfg.Pipeline.CircuitBreaker, logger)),
	}
}
