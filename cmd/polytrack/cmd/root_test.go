package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandFlagDefaults(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	config, err := flags.GetString("config")
	require.NoError(t, err)
	assert.Equal(t, "polytrack.yaml", config)

	for _, name := range []string{"log-level", "log-format", "store", "config-id"} {
		value, err := flags.GetString(name)
		require.NoError(t, err)
		assert.Empty(t, value, "flag %s should default to empty", name)
	}
}

func TestGetCLIOverrides(t *testing.T) {
	origLevel, origFormat := logLevel, logFormat
	origStore, origID := storePath, configID
	defer func() {
		logLevel, logFormat = origLevel, origFormat
		storePath, configID = origStore, origID
	}()

	logLevel = "debug"
	logFormat = "text"
	storePath = "/tmp/state.db"
	configID = "staging"

	overrides := GetCLIOverrides()
	assert.Equal(t, "debug", overrides.LogLevel)
	assert.Equal(t, "text", overrides.LogFormat)
	assert.Equal(t, "/tmp/state.db", overrides.StorePath)
	assert.Equal(t, "staging", overrides.ConfigID)
}

func TestRegisteredCommands(t *testing.T) {
	expected := map[string]bool{
		"version":   false,
		"discover":  false,
		"targets":   false,
		"validate":  false,
		"report":    false,
		"revisions": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := expected[c.Name()]; ok {
			expected[c.Name()] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "command %s not registered", name)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "polytrack version")
	assert.Contains(t, out.String(), "Commit:")
	assert.Contains(t, out.String(), "Go version:")
}
