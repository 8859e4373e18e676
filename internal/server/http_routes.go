package server

import (
	"net/http"

	"resumatch/internal/pipeline"

	"github.com/google/uuid"
)

// Handler returns the full HTTP handler: request ids, tracing, then routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.Handle("POST /analyze", s.protect(s.analyzeHandler))
	mux.Handle("POST /analyze_text", s.protect(s.analyzeTextHandler))
	mux.Handle("POST /parse_resume", s.protect(s.parseResumeHandler))

	return s.requestIDMiddleware(s.obs.HTTPMiddleware()(mux))
}

// protect applies rate limiting, authentication and the body size limit.
func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return s.rateLimitMiddleware(s.authMiddleware(s.requestSizeLimitMiddleware(h)))
}

// requestIDMiddleware tags each request with an id. A well-formed
// X-Request-ID from the caller is kept.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(pipeline.WithRequestID(r.Context(), id)))
	})
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.apiKeys.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := apiKeyFromRequest(r)
		if apiKey == "" {
			s.logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, r, http.StatusUnauthorized, "unauthorized",
				"X-API-Key header or Authorization Bearer token required")
			return
		}

		if !s.apiKeys.Valid(apiKey) {
			s.logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, r, http.StatusUnauthorized, "unauthorized", "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.maxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}
