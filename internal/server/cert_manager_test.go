package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resumatch/internal/config"
)

// selfSigned returns PEM cert and key valid for validFor from now.
func selfSigned(t *testing.T, cn string, validFor time.Duration) (certPEM, keyPEM string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

func subjectOf(t *testing.T, cm *CertificateManager) string {
	t.Helper()
	cert, err := cm.GetCertificate(nil)
	if err != nil {
		t.Fatalf("GetCertificate() error = %v", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	return leaf.Subject.CommonName
}

func TestCertificateManagerLoadAndHealth(t *testing.T) {
	tests := []struct {
		name     string
		validFor time.Duration
		status   string
		healthy  bool
	}{
		{"ok", 90 * 24 * time.Hour, "ok", true},
		{"warning", 3 * 24 * time.Hour, "warning", true},
		{"critical", 2 * time.Hour, "critical", false},
		{"expired", -time.Minute, "expired", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certPEM, keyPEM := selfSigned(t, "server", tt.validFor)
			cm := NewCertificateManager(config.TLSConfig{Mode: "server", CertContent: certPEM, KeyContent: keyPEM}, nil, nil)
			if err := cm.Load(); err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			status, healthy := cm.Health()
			if status["status"] != tt.status || healthy != tt.healthy {
				t.Errorf("Health() = %v, %v; want %s, %v", status["status"], healthy, tt.status, tt.healthy)
			}
		})
	}
}

func TestCertificateManagerLoadErrors(t *testing.T) {
	certPEM, keyPEM := selfSigned(t, "server", time.Hour*48)

	tests := []struct {
		name string
		cfg  config.TLSConfig
	}{
		{"no material", config.TLSConfig{Mode: "server"}},
		{"bad pem", config.TLSConfig{Mode: "server", CertContent: "junk", KeyContent: "junk"}},
		{"missing files", config.TLSConfig{Mode: "server", CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}},
		{"mutual without ca", config.TLSConfig{Mode: "mutual", CertContent: certPEM, KeyContent: keyPEM}},
		{"mutual with bad ca", config.TLSConfig{Mode: "mutual", CertContent: certPEM, KeyContent: keyPEM, CAContent: "junk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewCertificateManager(tt.cfg, nil, nil).Load(); err == nil {
				t.Error("Load() should fail")
			}
		})
	}

	if _, healthy := NewCertificateManager(config.TLSConfig{}, nil, nil).Health(); healthy {
		t.Error("unloaded manager should be unhealthy")
	}
}

func TestCertificateManagerApplyVaultSecret(t *testing.T) {
	oldCert, oldKey := selfSigned(t, "old", 30*24*time.Hour)
	cm := NewCertificateManager(config.TLSConfig{Mode: "server", CertContent: oldCert, KeyContent: oldKey}, nil, nil)
	if err := cm.Load(); err != nil {
		t.Fatal(err)
	}

	newCert, newKey := selfSigned(t, "new", 30*24*time.Hour)
	if err := cm.ApplyVaultSecret(&config.VaultSecret{Data: map[string]any{"cert": newCert, "key": newKey}, Version: 2}); err != nil {
		t.Fatalf("ApplyVaultSecret() error = %v", err)
	}
	if got := subjectOf(t, cm); got != "new" {
		t.Errorf("serving %q after rotation, want new", got)
	}

	// a broken rotation keeps serving the last good certificate
	if err := cm.ApplyVaultSecret(&config.VaultSecret{Data: map[string]any{"cert": "junk"}, Version: 3}); err == nil {
		t.Fatal("ApplyVaultSecret() should fail on bad PEM")
	}
	if got := subjectOf(t, cm); got != "new" {
		t.Errorf("serving %q after failed rotation, want new", got)
	}

	status, _ := cm.Health()
	reloads := status["reloads"].(map[string]any)
	if reloads["count"] != int64(2) || reloads["failures"] != int64(1) {
		t.Errorf("reloads = %v", reloads)
	}
}

func TestCertificateManagerFileWatcher(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")

	write := func(cn string) {
		certPEM, keyPEM := selfSigned(t, cn, 30*24*time.Hour)
		if err := os.WriteFile(keyFile, []byte(keyPEM), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(certFile, []byte(certPEM), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("first")

	cm := NewCertificateManager(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, nil)
	if err := cm.Load(); err != nil {
		t.Fatal(err)
	}
	if err := cm.StartFileWatcher(20 * time.Millisecond); err != nil {
		t.Fatalf("StartFileWatcher() error = %v", err)
	}
	defer func() { _ = cm.Stop() }()

	write("second")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if subjectOf(t, cm) == "second" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("certificate not reloaded after file change, serving %q", subjectOf(t, cm))
}

func TestBuildTLSConfigMutual(t *testing.T) {
	certPEM, keyPEM := selfSigned(t, "server", 30*24*time.Hour)
	cfg := config.TLSConfig{
		Mode:             "mutual",
		CertContent:      certPEM,
		KeyContent:       keyPEM,
		CAContent:        certPEM,
		MinVersion:       "1.3",
		ClientAuthPolicy: "verify",
		CipherSuites:     []string{"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256", "NOT_A_SUITE"},
	}
	cm := NewCertificateManager(cfg, nil, nil)
	if err := cm.Load(); err != nil {
		t.Fatal(err)
	}

	tlsConfig := buildTLSConfig(cfg, cm)
	if tlsConfig.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %x", tlsConfig.MinVersion)
	}
	if tlsConfig.ClientAuth != tls.VerifyClientCertIfGiven {
		t.Errorf("ClientAuth = %v", tlsConfig.ClientAuth)
	}
	if len(tlsConfig.CipherSuites) != 1 {
		t.Errorf("CipherSuites = %v, want unknown names dropped", tlsConfig.CipherSuites)
	}

	perConn, err := tlsConfig.GetConfigForClient(&tls.ClientHelloInfo{})
	if err != nil {
		t.Fatalf("GetConfigForClient() error = %v", err)
	}
	if perConn.ClientCAs == nil || perConn.GetConfigForClient != nil {
		t.Error("per-connection config should carry the current CA pool")
	}

	serverOnly := buildTLSConfig(config.TLSConfig{Mode: "server"}, cm)
	if serverOnly.ClientAuth != tls.NoClientCert || serverOnly.MinVersion != tls.VersionTLS12 {
		t.Errorf("server mode config = %+v", serverOnly)
	}
}

func TestSetupTLSDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	tlsConfig, err := s.setupTLS(nil, 0)
	if err != nil || tlsConfig != nil {
		t.Errorf("setupTLS() = %v, %v; want nil, nil when disabled", tlsConfig, err)
	}
}
