package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UCSM_HOST", "ucs.example.com")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "ucs.example.com", cfg.Host)
	assert.Equal(t, "admin", cfg.Login)
	assert.Empty(t, cfg.Password)
	assert.False(t, cfg.Secure)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("UCSM_HOST", "10.0.0.1:8443")
	t.Setenv("UCSM_LOGIN", "operator")
	t.Setenv("UCSM_PASSWORD", "secret")
	t.Setenv("UCSM_SECURE", "true")
	t.Setenv("UCSM_TIMEOUT", "5s")
	t.Setenv("UCSM_LOG_LEVEL", "debug")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "operator", cfg.Login)
	assert.Equal(t, "secret", cfg.Password)
	assert.True(t, cfg.Secure)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ucsmquery.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
host: ucs-file.example.com
login: reader
secure: true
log:
  format: json
`), 0o600))

	// environment wins over the file
	t.Setenv("UCSM_LOGIN", "env-user")

	v := New()
	v.Set("config", file)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "ucs-file.example.com", cfg.Host)
	assert.Equal(t, "env-user", cfg.Login)
	assert.True(t, cfg.Secure)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	v := New()
	v.Set("config", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoadNoHost(t *testing.T) {
	t.Setenv("UCSM_HOST", "")

	_, err := Load(New())
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestHostPort(t *testing.T) {
	tt := []struct {
		host     string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"ucs.example.com", "ucs.example.com", 0, false},
		{"ucs.example.com:8080", "ucs.example.com", 8080, false},
		{"10.0.0.1", "10.0.0.1", 0, false},
		{"10.0.0.1:443", "10.0.0.1", 443, false},
		{"[::1]:80", "::1", 80, false},
		{"[::1]", "::1", 0, false},
		{"ucs:http", "", 0, true},
		{"ucs:70000", "", 0, true},
	}

	for _, tc := range tt {
		t.Run(tc.host, func(t *testing.T) {
			cfg := &Config{Host: tc.host}
			host, port, err := cfg.HostPort()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantPort, port)
		})
	}
}
