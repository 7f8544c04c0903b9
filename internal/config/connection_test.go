package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddConnectionFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadConnectionFromFlags(t *testing.T) {
	flags := newFlags(t,
		"--url", "https://engine.example.com/ovirt-engine/api",
		"--username", "admin@internal",
		"--password", "secret",
		"--insecure",
		"--timeout", "30s",
	)

	s, err := LoadConnection(flags)
	require.NoError(t, err)
	assert.Equal(t, "https://engine.example.com/ovirt-engine/api", s.URL)
	assert.Equal(t, "admin@internal", s.Username)
	assert.Equal(t, "secret", s.Password)
	assert.True(t, s.Insecure)
	assert.Equal(t, 30*time.Second, s.Timeout)
}

func TestLoadConnectionFromEnv(t *testing.T) {
	t.Setenv("OVIRT_URL", "https://engine.example.com/ovirt-engine/api")
	t.Setenv("OVIRT_USERNAME", "admin@internal")
	t.Setenv("OVIRT_PASSWORD", "from-env")
	t.Setenv("OVIRT_CA_FILE", "/etc/pki/ovirt-engine/ca.pem")

	flags := newFlags(t, "--password", "from-flag")

	s, err := LoadConnection(flags)
	require.NoError(t, err)
	assert.Equal(t, "admin@internal", s.Username)
	assert.Equal(t, "from-flag", s.Password, "flags take precedence over the environment")
	assert.Equal(t, "/etc/pki/ovirt-engine/ca.pem", s.CAFile)
	assert.Equal(t, defaultTimeout, s.Timeout)
}

func TestLoadConnectionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connection.yaml")
	content := "url: https://engine.example.com/ovirt-engine/api\nusername: admin@internal\npassword: from-file\ntimeout: 10s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s, err := LoadConnection(newFlags(t, "--connection-file", path))
	require.NoError(t, err)
	assert.Equal(t, "from-file", s.Password)
	assert.Equal(t, 10*time.Second, s.Timeout)
}

func TestLoadConnectionReportsAllMissing(t *testing.T) {
	_, err := LoadConnection(newFlags(t, "--insecure", "--ca-file", "/tmp/ca.pem"))
	require.Error(t, err)

	for _, want := range []string{"url is required", "username is required", "password is required", "mutually exclusive"} {
		assert.True(t, strings.Contains(err.Error(), want), "expected %q in %v", want, err)
	}
}

func TestLoadConnectionTimeoutInSeconds(t *testing.T) {
	t.Setenv("OVIRT_URL", "https://engine.example.com/ovirt-engine/api")
	t.Setenv("OVIRT_USERNAME", "admin@internal")
	t.Setenv("OVIRT_PASSWORD", "secret")

	t.Run("env", func(t *testing.T) {
		t.Setenv("OVIRT_TIMEOUT", "120")
		s, err := LoadConnection(newFlags(t))
		require.NoError(t, err)
		assert.Equal(t, 120*time.Second, s.Timeout)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "connection.yaml")
		require.NoError(t, os.WriteFile(path, []byte("timeout: 60\n"), 0600))
		s, err := LoadConnection(newFlags(t, "--connection-file", path))
		require.NoError(t, err)
		assert.Equal(t, 60*time.Second, s.Timeout)
	})

	t.Run("flag", func(t *testing.T) {
		s, err := LoadConnection(newFlags(t, "--timeout", "45"))
		require.NoError(t, err)
		assert.Equal(t, 45*time.Second, s.Timeout)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := LoadConnection(newFlags(t, "--timeout", "soon"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid timeout")
	})
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{value: "", want: defaultTimeout},
		{value: "120", want: 120 * time.Second},
		{value: "1.5", want: 1500 * time.Millisecond},
		{value: "90s", want: 90 * time.Second},
		{value: "2m", want: 2 * time.Minute},
		{value: "1m0s", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseTimeout(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConnectionCompressFromEnv(t *testing.T) {
	t.Setenv("OVIRT_URL", "https://engine.example.com/ovirt-engine/api")
	t.Setenv("OVIRT_USERNAME", "admin@internal")
	t.Setenv("OVIRT_PASSWORD", "secret")
	t.Setenv("OVIRT_COMPRESS", "false")

	s, err := LoadConnection(newFlags(t))
	require.NoError(t, err)
	assert.False(t, s.Compress)

	s, err = LoadConnection(newFlags(t, "--compress=true"))
	require.NoError(t, err)
	assert.True(t, s.Compress, "flags take precedence over the environment")
}

func TestLoadConnectionCompressDefault(t *testing.T) {
	s, err := LoadConnection(newFlags(t,
		"--url", "https://engine.example.com/ovirt-engine/api",
		"--username", "admin@internal",
		"--password", "secret",
	))
	require.NoError(t, err)
	assert.True(t, s.Compress)
}
