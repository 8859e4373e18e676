package config

import "fmt"

// certSource describes one PEM input that may come from a file or inline content.
type certSource struct {
	name    string
	file    string
	content string
}

func (s certSource) set() bool { return s.file != "" || s.content != "" }

func (s certSource) duplicate() error {
	if s.file != "" && s.content != "" {
		return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", s.name, s.name)
	}
	return nil
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}

	cert := certSource{name: "cert", file: tls.CertFile, content: tls.CertContent}
	key := certSource{name: "key", file: tls.KeyFile, content: tls.KeyContent}
	ca := certSource{name: "ca", file: tls.CAFile, content: tls.CAContent}

	switch tls.Mode {
	case "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	if !cert.set() || !key.set() {
		return fmt.Errorf("TLS certificate and key are required for %s mode (provide either files or content)", tls.Mode)
	}
	if err := cert.duplicate(); err != nil {
		return err
	}
	if err := key.duplicate(); err != nil {
		return err
	}
	if tls.Mode == "server" {
		return nil
	}

	if !ca.set() {
		return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}
	if err := ca.duplicate(); err != nil {
		return err
	}
	switch tls.ClientAuthPolicy {
	case "", "require", "request", "verify":
		return nil
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}
