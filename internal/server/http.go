package server

import (
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
	"resumatch/internal/pipeline"
)

// multipartOverhead covers form boundaries, headers and the job description
// field on top of the resume file itself.
const multipartOverhead = 2 << 20

// Server exposes the matching pipeline over HTTP.
type Server struct {
	cfg      *config.Config
	version  string
	pipeline *pipeline.Pipeline
	obs      *observability.Manager
	metrics  *observability.Metrics
	logger   *errors.Logger

	apiKeys     *APIKeyStore
	rateLimiter *RateLimiter
	certs       *CertificateManager
	keyWatcher  *VaultWatcher

	maxRequestSize int64
	startedAt      time.Time
}

// NewServer wires a Server around p. A nil om records into no-op metrics.
func NewServer(cfg *config.Config, p *pipeline.Pipeline, om *observability.Manager, version string, logger *errors.Logger) (*Server, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if om == nil {
		disabled := *cfg
		disabled.Observability.Enabled = false
		var err error
		if om, err = observability.NewManager(&disabled, version); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:            cfg,
		version:        version,
		pipeline:       p,
		obs:            om,
		metrics:        om.Metrics(),
		logger:         logger,
		apiKeys:        NewAPIKeyStore(cfg.Server.APIKeys),
		maxRequestSize: cfg.Pipeline.MaxDocumentBytes + multipartOverhead,
		startedAt:      time.Now(),
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMin, rl.BurstCapacity, logger)
	}
	return s, nil
}

// Close releases background resources that are not tied to a running
// listener. Start calls it on shutdown.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
		s.rateLimiter = nil
	}
	if s.keyWatcher != nil {
		if err := s.keyWatcher.Stop(); err != nil {
			s.logger.LogError(err, "Failed to stop API key watcher")
		}
	}
	if s.certs != nil {
		if err := s.certs.Stop(); err != nil {
			s.logger.LogError(err, "Failed to stop certificate manager")
		}
	}
}
