package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"resumatch/internal/errors"
	"resumatch/internal/pipeline"
	"resumatch/internal/types"
)

// healthHandler reports service status with model, taxonomy, breaker and
// certificate state. It answers 503 when the service is degraded.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	engine := s.pipeline.Engine()
	stats := s.pipeline.Stats()

	response := map[string]any{
		"status":           "healthy",
		"service":          "resumatch",
		"version":          s.version,
		"model_version":    engine.ModelVersion(),
		"taxonomy_version": engine.TaxonomyVersion(),
		"circuit_breaker":  stats.CircuitBreaker,
	}

	healthy := s.pipeline.Healthy()
	if s.certs != nil {
		certStatus, certHealthy := s.certs.Health()
		response["certificates"] = certStatus
		healthy = healthy && certHealthy
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// statsHandler reports pool, rate limiting and authentication statistics.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service":        "resumatch",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"pipeline":       s.pipeline.Stats(),
		"server": map[string]any{
			"max_request_size_bytes": s.maxRequestSize,
			"api_keys":               s.apiKeys.Len(),
		},
	}

	if s.rateLimiter != nil {
		response["rate_limiting"] = s.rateLimiter.Stats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}
	if s.keyWatcher != nil {
		response["api_key_rotation"] = s.keyWatcher.Status()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON body into v, rejecting unknown fields.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}
	defer func() { _ = r.Body.Close() }()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return bodyError(err, "request body is not valid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, errName, message string) {
	writeJSON(w, status, types.ErrorResponse{
		Error:     errName,
		Message:   message,
		RequestID: pipeline.RequestID(r.Context()),
	})
}

// writeAppError writes err with its type as the error name and the
// sanitized message.
func writeAppError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeErrorResponse(w, r, status, string(errors.TypeOf(err)), errors.PublicMessage(err))
}
