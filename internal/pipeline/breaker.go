package pipeline

import (
	"context"
	stderrors "errors"

	"github.com/sony/gobreaker/v2"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"
)

// Breaker guards document extraction. Rejected documents are the caller's
// problem and do not count against it; panics and unexpected failures in
// the extractors do. A nil Breaker runs calls directly.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[types.NormalizedText]
}

// NewBreaker returns nil when the breaker is disabled.
func NewBreaker(cfg *config.CircuitBreakerConfig, logger *errors.Logger) *Breaker {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "document-extraction",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return true
			}
			switch errors.TypeOf(err) {
			case errors.ErrorTypeExtraction, errors.ErrorTypeValidation:
				return true
			}
			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[types.NormalizedText](settings)}
}

// Execute runs fn under the breaker. While open it fails fast with an
// internal EXTRACTOR_UNAVAILABLE error.
func (b *Breaker) Execute(fn func() (types.NormalizedText, error)) (types.NormalizedText, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	out, err := b.cb.Execute(fn)
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NormalizedText{}, errors.NewInternalError(errors.ErrCodeExtractorUnavailable,
			"document extraction is temporarily unavailable", err)
	}
	return out, err
}

// Stats returns circuit breaker statistics.
func (b *Breaker) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	counts := b.cb.Counts()
	return map[string]any{
		"enabled": true,
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts": map[string]uint32{
			"requests":              counts.Requests,
			"total_successes":       counts.TotalSuccesses,
			"total_failures":        counts.TotalFailures,
			"consecutive_successes": counts.ConsecutiveSuccesses,
			"consecutive_failures":  counts.ConsecutiveFailures,
		},
	}
}

// IsHealthy reports whether the breaker is closed. A disabled breaker is healthy.
func (b *Breaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
