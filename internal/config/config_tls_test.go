package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSConfig
		expectError string
	}{
		{name: "disabled", tls: TLSConfig{Mode: "disabled"}},
		{name: "disabled ignores missing files", tls: TLSConfig{Mode: "disabled", CertFile: "x", CertContent: "y"}},
		{name: "invalid mode", tls: TLSConfig{Mode: "strict"}, expectError: "invalid TLS mode"},
		{name: "invalid version", tls: TLSConfig{Mode: "disabled", MinVersion: "1.1"}, expectError: "invalid TLS minVersion"},
		{name: "server with files", tls: TLSConfig{Mode: "server", CertFile: "c", KeyFile: "k"}},
		{name: "server with content", tls: TLSConfig{Mode: "server", CertContent: "c", KeyContent: "k", MinVersion: "1.3"}},
		{name: "server missing key", tls: TLSConfig{Mode: "server", CertFile: "c"}, expectError: "certificate and key are required for server mode"},
		{name: "server duplicate cert", tls: TLSConfig{Mode: "server", CertFile: "c", CertContent: "c", KeyFile: "k"}, expectError: "certFile and certContent"},
		{name: "server duplicate key", tls: TLSConfig{Mode: "server", CertFile: "c", KeyFile: "k", KeyContent: "k"}, expectError: "keyFile and keyContent"},
		{name: "mutual", tls: TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "ca", ClientAuthPolicy: "verify"}},
		{name: "mutual missing ca", tls: TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k"}, expectError: "CA certificate is required"},
		{name: "mutual duplicate ca", tls: TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "ca", CAContent: "ca"}, expectError: "caFile and caContent"},
		{name: "mutual bad policy", tls: TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "ca", ClientAuthPolicy: "optional"}, expectError: "invalid clientAuthPolicy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()
			if tt.expectError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}
