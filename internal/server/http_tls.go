package server

import (
	"crypto/tls"
	"fmt"

	"resumatch/internal/config"
)

// setupTLS loads the certificate manager and starts its watchers. It returns
// nil when TLS is disabled.
func (s *Server) setupTLS(vaultClient VaultClientInterface, vaultVersion int64) (*tls.Config, error) {
	tlsCfg := s.cfg.Server.TLS
	if tlsCfg.Mode == "" || tlsCfg.Mode == "disabled" {
		return nil, nil
	}

	cm := NewCertificateManager(tlsCfg, s.metrics, s.logger)
	if err := cm.Load(); err != nil {
		return nil, fmt.Errorf("failed to load TLS certificates: %w", err)
	}
	s.certs = cm

	if tlsCfg.AutoReload.Enabled {
		if tlsCfg.AutoReload.FileWatcher.Enabled {
			if err := cm.StartFileWatcher(tlsCfg.AutoReload.FileWatcher.DebounceDelay); err != nil {
				return nil, fmt.Errorf("failed to start certificate watcher: %w", err)
			}
		}
		if tlsCfg.AutoReload.VaultWatcher.Enabled && vaultClient != nil && s.cfg.Vault.Secrets.TLSCerts != "" {
			if err := cm.WatchVault(vaultClient, s.cfg.Vault.Secrets.TLSCerts,
				tlsCfg.AutoReload.VaultWatcher.PollInterval, vaultVersion); err != nil {
				return nil, fmt.Errorf("failed to start Vault certificate watcher: %w", err)
			}
		}
	}

	return buildTLSConfig(tlsCfg, cm), nil
}

// buildTLSConfig creates a tls.Config that always serves the manager's
// current certificate and, in mutual mode, its current client CA pool.
func buildTLSConfig(cfg config.TLSConfig, cm *CertificateManager) *tls.Config {
	base := &tls.Config{
		MinVersion:     minTLSVersion(cfg.MinVersion),
		CipherSuites:   cipherSuiteIDs(cfg.CipherSuites),
		GetCertificate: cm.GetCertificate,
		ServerName:     cfg.ServerName,
		ClientAuth:     tls.NoClientCert,
	}
	if cfg.InsecureSkipVerify {
		base.InsecureSkipVerify = true
	}

	if cfg.Mode != "mutual" {
		return base
	}

	base.ClientAuth = clientAuthPolicy(cfg.ClientAuthPolicy)
	base.ClientCAs = cm.ClientCAs()
	base.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		perConn := base.Clone()
		perConn.GetConfigForClient = nil
		perConn.ClientCAs = cm.ClientCAs()
		return perConn, nil
	}
	return base
}

func minTLSVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

// cipherSuiteIDs maps configured names onto IDs, skipping unknown names.
func cipherSuiteIDs(names []string) []uint16 {
	if len(names) == 0 {
		return nil
	}
	known := map[string]uint16{}
	for _, suite := range tls.CipherSuites() {
		known[suite.Name] = suite.ID
	}
	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		if id, ok := known[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
