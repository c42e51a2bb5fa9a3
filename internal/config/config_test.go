package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsStorePathWhenUnset(t *testing.T) {
	t.Setenv(EnvStorePath, "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cold.db", cfg.StorePath)
}

func TestLoadLeavesThresholdsNilWhenUnset(t *testing.T) {
	t.Setenv(EnvStagingThreshold, "")
	t.Setenv(EnvArchivingThreshold, "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.StagingThreshold)
	assert.Nil(t, cfg.ArchivingThreshold)
}

func TestLoadParsesThresholds(t *testing.T) {
	t.Setenv(EnvStagingThreshold, "2")
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.StagingThreshold)
	assert.Equal(t, 2, *cfg.StagingThreshold)
	assert.Equal(t, cfg.StagingThreshold, cfg.ThresholdFor("stage"))
}

func TestLoadRejectsNonIntegerThreshold(t *testing.T) {
	t.Setenv(EnvStagingThreshold, "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadReadsRemoteBackendSettings(t *testing.T) {
	t.Setenv(EnvS3Region, "us-east-1")
	t.Setenv(EnvS3Endpoint, "http://localhost:9000")
	t.Setenv(EnvAzureAccountURL, "https://example.blob.core.windows.net")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "http://localhost:9000", cfg.S3Endpoint)
	assert.Equal(t, "https://example.blob.core.windows.net", cfg.AzureAccountURL)
}

func TestLoadLeavesRemoteBackendSettingsEmptyWhenUnset(t *testing.T) {
	t.Setenv(EnvS3Region, "")
	t.Setenv(EnvS3Endpoint, "")
	t.Setenv(EnvAzureAccountURL, "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.S3Region)
	assert.Empty(t, cfg.S3Endpoint)
	assert.Empty(t, cfg.AzureAccountURL)
}
