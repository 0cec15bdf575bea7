package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_LocaleFromEnvironment(t *testing.T) {
	t.Setenv("EMALLOC_LOCALE", "de")

	output, err := executeRoot(t, "selftest", "--start", "1", "--end", "20002", "--step", "10000")
	require.NoError(t, err)

	assertContains(t, output, []string{
		"ensure(10.001): buf 10001, capacity 16.384",
		"ensure(20.001): buf 20001, capacity 32.768",
	})
}

func TestRoot_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("EMALLOC_LOCALE", "de")

	output, err := executeRoot(t, "--locale", "en", "round", "100000")
	require.NoError(t, err)
	assert.Contains(t, output, "100,000 -> 131,072")
}

func TestRoot_ConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "emalloc.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("json: true\nstart: 1\nend: 100002\nstep: 50000\n"), 0o644))

	output, err := executeRoot(t, "--config", cfg, "selftest")
	require.NoError(t, err)

	var report selftestReport
	decodeJSON(t, output, &report)
	require.Len(t, report.Steps, 3)
	assert.Equal(t, uint(50001), report.Steps[1].Size)
	assert.Equal(t, uint(65536), report.Steps[1].Capacity)
	assert.Equal(t, uint(131072), report.Steps[2].Capacity)
}

func TestRoot_RejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
		want string
	}{
		{"log format flag", nil, []string{"--log-format", "xml", "version"}, "unknown format"},
		{"log level env", map[string]string{"EMALLOC_LOG_LEVEL": "loud"}, []string{"version"}, "logger"},
		{"locale flag", nil, []string{"--locale", "!!", "version"}, "invalid locale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := executeRoot(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRoot_VersionMatchesFlag(t *testing.T) {
	fromFlag, err := executeRoot(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, fromFlag, "version "+version)

	fromCmd, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, fromCmd, "emalloc "+version)
}
