package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
	"resumatch/internal/pipeline"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// skipConfigAnnotation marks commands that run without loading configuration.
const skipConfigAnnotation = "resumatch/skip-config"

// flagBindings maps config keys onto the flags that override them. Only
// flags defined on the running command are bound.
var flagBindings = map[string]string{
	"app.logLevel":         "log-level",
	"server.port":          "port",
	"server.host":          "host",
	"server.tls.mode":      "tls-mode",
	"server.tls.certFile":  "cert-file",
	"server.tls.keyFile":   "key-file",
	"server.tls.caFile":    "ca-file",
	"pipeline.workers":     "workers",
	"artifacts.modelFile":  "model",
	"classifier.threshold": "threshold",
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "resumatch",
		Short: "Score how well a resume fits a job description",
		Long: `Resumatch matches a resume against a job description. It extracts the
text of PDF, DOCX, HTML or plain-text resumes, finds the skills both documents
mention, and predicts Fit or Not Fit with a confidence score.

It can also parse a resume on its own, reporting contact details, a profile
title, a summary and ATS readiness, and it can serve all of this over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, skip := cmd.Annotations[skipConfigAnnotation]; skip {
				return nil
			}
			return loadRuntime(cmd, configFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./config.yaml, $HOME/.resumatch, /etc/resumatch)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the CLI with args taken from os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadRuntime loads configuration and the logger and attaches them to the
// command context, making them available to all subcommands.
func loadRuntime(cmd *cobra.Command, configFile string) error {
	var bindings []config.FlagBinding
	for key, name := range flagBindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			bindings = append(bindings, config.FlagBinding{Key: key, Flag: flag})
		}
	}

	cfg, err := config.LoadConfig(configFile, bindings...)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load configuration", err)
	}

	level, err := errors.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to initialize logger", err)
	}
	logger := errors.NewLoggerWithWriter(os.Stderr, level)

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load secrets from Vault", err)
	}
	if err := cfg.Validate(); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid configuration after applying Vault secrets", err)
	}

	logger.Debug("Configuration loaded",
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel,
		"workers", cfg.Pipeline.Workers)

	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// buildPipeline loads the engine artifacts and wires the pipeline to a fresh
// observability manager. Artifact load failures are fatal.
func buildPipeline(cfg *config.Config, logger *errors.Logger) (*pipeline.Pipeline, *observability.Manager, error) {
	engine, err := pipeline.LoadEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Engine loaded",
		"model_version", engine.ModelVersion(),
		"taxonomy_version", engine.TaxonomyVersion(),
		"taxonomy_skills", engine.Taxonomy.Len())

	om, err := observability.NewManager(cfg, Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	opts := append(pipeline.FromConfig(cfg, logger), pipeline.WithObserver(om.Metrics()))
	return pipeline.New(engine, opts...), om, nil
}

func shutdownObservability(om *observability.Manager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}
