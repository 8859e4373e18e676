package cli

import (
	"resumatch/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP matching service",
		Long: `Start an HTTP server that exposes resume matching as a REST API.

Available endpoints:
- POST /analyze: Match an uploaded resume file against a job description
- POST /analyze_text: Match pasted resume text against a job description
- POST /parse_resume: Extract contact, skills and ATS checks from a resume
- GET /health: Health check with model, taxonomy and certificate status
- GET /stats: Server statistics, worker pool and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		RunE: runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().String("host", "", "Host to bind to (default from config)")
	cmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	cmd.Flags().Int("workers", 0, "Concurrent extraction and inference slots (overrides config)")
	cmd.Flags().String("model", "", "Classifier artifact file (overrides config)")
	cmd.Flags().Float64("threshold", 0, "Fit decision threshold in (0, 1) (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// artifacts load before the listener opens; failure is fatal
	p, om, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, p, om, Version, logger)
	if err != nil {
		shutdownObservability(om, logger)
		return err
	}
	return srv.Start(cmd.Context())
}
