package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
)

const (
	certCriticalThreshold = 24 * time.Hour
	certWarningThreshold  = 7 * 24 * time.Hour
)

// CertificateManager holds the live TLS material and swaps it when the
// files or the Vault secret behind it change.
type CertificateManager struct {
	mu sync.RWMutex

	config     config.TLSConfig
	serverCert *tls.Certificate
	caCertPool *x509.CertPool
	notAfter   time.Time

	fileWatcher  *CertWatcher
	vaultWatcher *VaultWatcher

	metrics *observability.Metrics
	logger  *errors.Logger

	reloadCount        int64
	reloadFailureCount int64
	lastReloadTime     time.Time
	lastReloadError    string
}

// NewCertificateManager creates a manager for cfg. Call Load before serving.
func NewCertificateManager(cfg config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{config: cfg, metrics: metrics, logger: logger}
}

// Load reads the certificate, key and CA from content or files.
func (cm *CertificateManager) Load() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.loadLocked()
}

func (cm *CertificateManager) loadLocked() error {
	cert, err := loadKeyPair(cm.config)
	if err != nil {
		return err
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}

	var pool *x509.CertPool
	if cm.config.Mode == "mutual" {
		if pool, err = loadCAPool(cm.config); err != nil {
			return err
		}
	}

	cm.serverCert = &cert
	cm.caCertPool = pool
	cm.notAfter = leaf.NotAfter
	return nil
}

// Reload re-reads the TLS material. On failure the previous material stays
// in use.
func (cm *CertificateManager) Reload(source string) error {
	cm.mu.Lock()
	err := cm.loadLocked()
	cm.reloadCount++
	cm.lastReloadTime = time.Now()
	cm.lastReloadError = ""
	if err != nil {
		cm.reloadFailureCount++
		cm.lastReloadError = err.Error()
	}
	notAfter := cm.notAfter
	cm.mu.Unlock()

	if cm.metrics != nil {
		cm.metrics.RecordCertReload(context.Background(), source, err)
	}
	if cm.logger != nil {
		if err != nil {
			cm.logger.LogError(err, "Failed to reload TLS certificates", "source", source)
		} else {
			cm.logger.Info("TLS certificates reloaded", "source", source, "not_after", notAfter)
		}
	}
	return err
}

// ApplyVaultSecret takes new PEM content from a rotated Vault secret and
// reloads. Content replaces the file paths it shadows.
func (cm *CertificateManager) ApplyVaultSecret(secret *config.VaultSecret) error {
	cm.mu.Lock()
	if s, _ := secret.Data["cert"].(string); s != "" {
		cm.config.CertContent, cm.config.CertFile = s, ""
	}
	if s, _ := secret.Data["key"].(string); s != "" {
		cm.config.KeyContent, cm.config.KeyFile = s, ""
	}
	if s, _ := secret.Data["ca"].(string); s != "" {
		cm.config.CAContent, cm.config.CAFile = s, ""
	}
	cm.mu.Unlock()
	return cm.Reload("vault")
}

// StartFileWatcher watches the configured files. It is a no-op when the
// material came from content.
func (cm *CertificateManager) StartFileWatcher(debounce time.Duration) error {
	files := []string{cm.config.CertFile, cm.config.KeyFile, cm.config.CAFile}
	if files[0] == "" && files[1] == "" && files[2] == "" {
		return nil
	}
	watcher := NewCertWatcher(files, debounce, func() { _ = cm.Reload("file") }, cm.logger)
	if err := watcher.Start(); err != nil {
		return err
	}
	cm.fileWatcher = watcher
	return nil
}

// WatchVault polls secretPath for new TLS material.
func (cm *CertificateManager) WatchVault(client VaultClientInterface, secretPath string, interval time.Duration, initialVersion int64) error {
	watcher := NewVaultWatcher(client, secretPath, interval, initialVersion, cm.ApplyVaultSecret, cm.logger)
	if err := watcher.Start(); err != nil {
		return err
	}
	cm.vaultWatcher = watcher
	return nil
}

// Stop stops all watchers.
func (cm *CertificateManager) Stop() error {
	var firstErr error
	if cm.fileWatcher != nil {
		firstErr = cm.fileWatcher.Stop()
	}
	if cm.vaultWatcher != nil {
		if err := cm.vaultWatcher.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetCertificate is the tls.Config hook that serves the current certificate.
func (cm *CertificateManager) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	return cm.serverCert, nil
}

// ClientCAs returns the current client CA pool, nil outside mutual mode.
func (cm *CertificateManager) ClientCAs() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// CheckExpiry returns the time until the server certificate expires.
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.notAfter.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cm.notAfter), nil
}

// Health reports certificate expiry and reload state. healthy is false once
// the certificate is within a day of expiry.
func (cm *CertificateManager) Health() (map[string]any, bool) {
	status := map[string]any{}
	ttl, err := cm.CheckExpiry()
	if err != nil {
		status["status"] = "missing"
		status["error"] = err.Error()
		return status, false
	}

	healthy := true
	switch {
	case ttl <= 0:
		status["status"], healthy = "expired", false
	case ttl <= certCriticalThreshold:
		status["status"], healthy = "critical", false
	case ttl <= certWarningThreshold:
		status["status"] = "warning"
	default:
		status["status"] = "ok"
	}
	status["time_to_expiry_hours"] = int(ttl.Hours())

	cm.mu.RLock()
	status["reloads"] = map[string]any{
		"count":      cm.reloadCount,
		"failures":   cm.reloadFailureCount,
		"last":       cm.lastReloadTime,
		"last_error": cm.lastReloadError,
	}
	cm.mu.RUnlock()

	if cm.fileWatcher != nil {
		status["file_watcher"] = map[string]any{
			"running": cm.fileWatcher.IsRunning(),
			"files":   cm.fileWatcher.WatchedFiles(),
		}
	}
	if cm.vaultWatcher != nil {
		status["vault_watcher"] = cm.vaultWatcher.Status()
	}
	return status, healthy
}

func loadKeyPair(cfg config.TLSConfig) (tls.Certificate, error) {
	switch {
	case cfg.CertContent != "" && cfg.KeyContent != "":
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	case cfg.CertFile != "" && cfg.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	default:
		return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}
}

func loadCAPool(cfg config.TLSConfig) (*x509.CertPool, error) {
	var pem []byte
	switch {
	case cfg.CAContent != "":
		pem = []byte(cfg.CAContent)
	case cfg.CAFile != "":
		var err error
		if pem, err = os.ReadFile(cfg.CAFile); err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}
