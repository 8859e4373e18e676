package server

import (
	"net/http"
	"strings"
	"sync"
)

// APIKeyStore holds the accepted API keys. Keys can be replaced at runtime
// when Vault rotates them.
type APIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewAPIKeyStore creates a store holding keys. Blank keys are ignored.
func NewAPIKeyStore(keys []string) *APIKeyStore {
	s := &APIKeyStore{}
	s.Replace(keys)
	return s
}

// Replace swaps the full key set.
func (s *APIKeyStore) Replace(keys []string) {
	next := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			next[key] = struct{}{}
		}
	}
	s.mu.Lock()
	s.keys = next
	s.mu.Unlock()
}

// Enabled reports whether any key is configured. With no keys the API is open.
func (s *APIKeyStore) Enabled() bool {
	return s.Len() > 0
}

// Len returns the number of accepted keys.
func (s *APIKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Valid reports whether key is accepted.
func (s *APIKeyStore) Valid(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// apiKeyFromRequest reads X-API-Key, falling back to a Bearer token.
func apiKeyFromRequest(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
