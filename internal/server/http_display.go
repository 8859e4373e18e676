package server

import (
	"fmt"
	"io"
)

// displayServerInfo prints the listening address and security settings.
func (s *Server) displayServerInfo(w io.Writer, addr string) {
	scheme := "http"
	if s.certs != nil {
		scheme = "https"
	}
	fmt.Fprintf(w, "Listening on %s://%s (TLS mode: %s)\n", scheme, addr, s.cfg.Server.TLS.Mode)
	fmt.Fprintf(w, "Model %s, taxonomy %s\n",
		s.pipeline.Engine().ModelVersion(), s.pipeline.Engine().TaxonomyVersion())

	fmt.Fprintln(w, "Available endpoints:")
	fmt.Fprintln(w, "  GET  /health        - Health check")
	fmt.Fprintln(w, "  GET  /stats         - Server statistics")
	fmt.Fprintln(w, "  POST /analyze       - Match an uploaded resume against a job description")
	fmt.Fprintln(w, "  POST /analyze_text  - Match pasted resume text against a job description")
	fmt.Fprintln(w, "  POST /parse_resume  - Extract contact, skills and ATS checks from a resume")

	if s.apiKeys.Enabled() {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", s.apiKeys.Len())
	} else {
		fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
		fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
	}

	if rl := s.cfg.Server.RateLimit; rl.Enabled {
		fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n", rl.RequestsPerMin, rl.BurstCapacity)
	} else {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
	}
}
