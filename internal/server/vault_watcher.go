package server

import (
	"fmt"
	"sync"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

// VaultClientInterface defines the interface for Vault operations
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// SecretChangeFunc receives a KVv2 secret whose version moved forward.
type SecretChangeFunc func(secret *config.VaultSecret) error

// VaultWatcher polls a KVv2 secret and calls onChange whenever its version
// increases. The server runs one per rotated secret (API keys, TLS material).
type VaultWatcher struct {
	mu sync.RWMutex

	client       VaultClientInterface
	secretPath   string
	pollInterval time.Duration
	onChange     SecretChangeFunc
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastError   string
	lastChecked time.Time
}

// NewVaultWatcher creates a new VaultWatcher. initialVersion is the version
// already applied at startup; only newer versions trigger onChange.
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, initialVersion int64, onChange SecretChangeFunc, logger *errors.Logger) *VaultWatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onChange:     onChange,
		logger:       logger,
		stopChan:     make(chan struct{}),
		lastVersion:  initialVersion,
	}
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.pollLoop()
	if vw.logger != nil {
		vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	}
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	if vw.logger != nil {
		vw.logger.Info("Vault watcher stopped", "secret_path", vw.secretPath)
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := vw.poll(); err != nil && vw.logger != nil {
				vw.logger.LogError(err, "Vault secret poll failed", "secret_path", vw.secretPath)
			}
		case <-vw.stopChan:
			return
		}
	}
}

// poll reads the secret once and applies it when its version is newer.
func (vw *VaultWatcher) poll() error {
	secret, changed, err := vw.checkForUpdates()
	if err == nil && changed {
		if vw.logger != nil {
			vw.logger.Info("Vault secret changed", "secret_path", vw.secretPath, "version", secret.Version)
		}
		err = vw.onChange(secret)
	}

	vw.mu.Lock()
	vw.lastChecked = time.Now()
	vw.lastError = ""
	if err != nil {
		vw.lastError = err.Error()
	}
	vw.mu.Unlock()
	return err
}

// checkForUpdates reports whether the secret version moved past lastVersion.
func (vw *VaultWatcher) checkForUpdates() (*config.VaultSecret, bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return nil, false, fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return secret, true, nil
	}
	return secret, false, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
	if !vw.lastChecked.IsZero() {
		status["last_checked"] = vw.lastChecked
	}
	if vw.lastError != "" {
		status["last_error"] = vw.lastError
	}
	return status
}
