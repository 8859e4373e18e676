package config

import (
	"os"
	"path/filepath"
	"testing"

	"resumatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDecodeKVv2(t *testing.T) {
	tests := []struct {
		name        string
		raw         map[string]any
		expectError string
		wantVersion int64
	}{
		{
			name: "valid secret",
			raw: map[string]any{
				"data":     map[string]any{"keys": "a,b"},
				"metadata": map[string]any{"version": float64(3)},
			},
			wantVersion: 3,
		},
		{
			name:        "missing data",
			raw:         map[string]any{"metadata": map[string]any{"version": 1}},
			expectError: "missing 'data' field",
		},
		{
			name:        "missing metadata",
			raw:         map[string]any{"data": map[string]any{}},
			expectError: "missing 'metadata' field",
		},
		{
			name:        "missing version",
			raw:         map[string]any{"data": map[string]any{}, "metadata": map[string]any{}},
			expectError: "missing 'version' field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := decodeKVv2(tt.raw, "secret/data/test")
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, secret.Version)
			assert.Equal(t, "a,b", secret.Data["keys"])
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token", TokenFile: "/ignored"})
		require.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("blank token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "empty-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("   \n"), 0600))

		_, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestApplyTLSSecret(t *testing.T) {
	t.Run("content replaces files", func(t *testing.T) {
		tls := TLSConfig{CertFile: "/etc/cert.pem", KeyFile: "/etc/key.pem", CAFile: "/etc/ca.pem"}
		secret := &VaultSecret{Data: map[string]any{"cert": "CERT", "key": "KEY"}}

		require.NoError(t, applyTLSSecret(&tls, secret))
		assert.Equal(t, "CERT", tls.CertContent)
		assert.Empty(t, tls.CertFile)
		assert.Equal(t, "KEY", tls.KeyContent)
		assert.Empty(t, tls.KeyFile)
		assert.Equal(t, "/etc/ca.pem", tls.CAFile, "CA file kept when Vault has no CA")
	})

	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		t.Run("rejects "+field, func(t *testing.T) {
			var tls TLSConfig
			err := applyTLSSecret(&tls, &VaultSecret{Data: map[string]any{field: "/path"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestSplitKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitKeys(" a, b ,,c "))
	assert.Equal(t, []string{}, SplitKeys(""))
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := Default()
	cfg.Server.APIKeys = []string{"local"}

	require.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))
	assert.Equal(t, []string{"local"}, cfg.Server.APIKeys)
}

func TestGetSecretV2NilClient(t *testing.T) {
	var vc *VaultClient
	_, err := vc.GetSecretV2("secret/data/x")
	assert.Error(t, err)
}
