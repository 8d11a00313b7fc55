package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "reports", config.ExportDir)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Equal(t, "stderr", config.LogOutput)
}

func TestLoadConfigReadsDirectoryAPIKey(t *testing.T) {
	t.Setenv("TLV2", "test-api-key")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test-api-key", config.DirectoryAPIKey)
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{LogLevel: "info"}

	config.UpdateFromFlags(true, false, true, "debug")
	assert.True(t, config.Verbose)
	assert.False(t, config.Quiet)
	assert.True(t, config.NoColor)
	assert.Equal(t, "debug", config.LogLevel)

	// Empty flag value leaves the configured level alone.
	config.UpdateFromFlags(false, true, false, "")
	assert.Equal(t, "debug", config.LogLevel)
}
