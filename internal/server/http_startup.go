package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer s.shutdownObservability()
	defer s.Close()

	vaultClient, err := s.initializeVaultClient()
	if err != nil {
		return err
	}
	if err := s.watchAPIKeys(vaultClient); err != nil {
		return err
	}

	tlsConfig, err := s.setupTLS(vaultClient, secretVersion(vaultClient, s.cfg.Vault.Secrets.TLSCerts))
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}

	metricsServer := s.startMetricsServer()
	s.displayServerInfo(os.Stdout, addr)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "address", addr, "tls_enabled", tlsConfig != nil)
		var err error
		if tlsConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("Received shutdown signal, starting graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			s.logger.LogError(err, "Failed to shutdown metrics server")
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return httpServer.Close()
	}

	s.logger.Info("Server shutdown completed successfully")
	return nil
}

// startMetricsServer serves the Prometheus endpoint on its own port.
func (s *Server) startMetricsServer() *http.Server {
	handler := s.obs.MetricsHandler()
	if handler == nil {
		return nil
	}
	prom := s.cfg.Observability.Prometheus
	srv := observability.NewPrometheusServer(handler, prom.Endpoint, prom.Port)
	go func() {
		s.logger.Info("Starting Prometheus metrics server", "address", srv.Addr, "endpoint", prom.Endpoint)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.LogError(err, "Prometheus server error")
		}
	}()
	return srv
}

func (s *Server) shutdownObservability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.obs.Shutdown(ctx); err != nil {
		s.logger.LogError(err, "Failed to shutdown observability")
	}
}

// initializeVaultClient creates a Vault client when any watcher needs one.
func (s *Server) initializeVaultClient() (VaultClientInterface, error) {
	if !s.cfg.Vault.Enabled || !s.cfg.Server.TLS.AutoReload.VaultWatcher.Enabled {
		return nil, nil
	}
	vc, err := config.NewVaultClient(s.cfg.Vault, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vault client: %w", err)
	}
	if vc == nil {
		return nil, nil
	}
	return vc, nil
}

// watchAPIKeys polls the Vault API key secret and swaps the accepted keys
// when it is rotated.
func (s *Server) watchAPIKeys(client VaultClientInterface) error {
	path := s.cfg.Vault.Secrets.APIKeys
	if client == nil || path == "" {
		return nil
	}

	watcher := NewVaultWatcher(client, path,
		s.cfg.Server.TLS.AutoReload.VaultWatcher.PollInterval,
		secretVersion(client, path),
		s.applyAPIKeySecret,
		s.logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start API key watcher: %w", err)
	}
	s.keyWatcher = watcher
	return nil
}

// applyAPIKeySecret replaces the key set from a rotated secret. An empty
// set is refused so a bad rotation cannot open the API.
func (s *Server) applyAPIKeySecret(secret *config.VaultSecret) error {
	raw, _ := secret.Data["keys"].(string)
	keys := config.SplitKeys(raw)
	if len(keys) == 0 {
		return fmt.Errorf("rotated API key secret has no keys (version %d)", secret.Version)
	}
	s.apiKeys.Replace(keys)
	s.metrics.RecordKeyRotation(context.Background(), len(keys))
	s.logger.Info("API keys rotated from Vault", "count", len(keys), "version", secret.Version)
	return nil
}

// secretVersion returns the current version of path, or 0 when it cannot be
// read, so watchers only fire on later rotations.
func secretVersion(client VaultClientInterface, path string) int64 {
	if client == nil || path == "" {
		return 0
	}
	secret, err := client.GetSecretV2(path)
	if err != nil || secret == nil {
		return 0
	}
	return secret.Version
}
