// Package config reads the cold storage subsystem's environment-driven
// configuration: per-action transfer thresholds and back-end endpoints,
// read directly with os.Getenv the way the teacher's API key and CSV
// path resolution does, rather than through a file-config layer.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvStagingThreshold   = "COLD_ACTIVE_STAGING_TRANSFERS_THRESHOLD"
	EnvArchivingThreshold = "COLD_ACTIVE_ARCHIVING_TRANSFERS_THRESHOLD"
	EnvWideAreaEndpoint   = "COLD_WIDEAREA_ENDPOINT"
	EnvStorePath          = "COLD_STORE_PATH"
	EnvLocationFile       = "COLD_LOCATION_FILE"
	EnvS3Region           = "COLD_S3_REGION"
	EnvS3Endpoint         = "COLD_S3_ENDPOINT"
	EnvAzureAccountURL    = "COLD_AZURE_ACCOUNT_URL"
)

// Config holds the process-wide settings read from the environment.
type Config struct {
	// StagingThreshold is the maximum number of concurrently-unfinished
	// stage transfers; nil means "no budget configured, skip this
	// action" per the Request Driver's admission pass.
	StagingThreshold *int
	// ArchivingThreshold is the archive-side equivalent of
	// StagingThreshold.
	ArchivingThreshold *int
	// WideAreaEndpoint is the base URL of the wide-area transfer
	// scheduler the widearea backend submits jobs to.
	WideAreaEndpoint string
	// StorePath is the path to the embedded buntdb database file.
	StorePath string
	// LocationFile is an optional YAML file the location table is
	// loaded from and exported to.
	LocationFile string
	// S3Region and S3Endpoint configure the s3object verification
	// backend; both empty means it is not registered.
	S3Region   string
	S3Endpoint string
	// AzureAccountURL configures the azureblob verification backend;
	// empty means it is not registered.
	AzureAccountURL string
}

// Load reads Config from the environment, defaulting StorePath when
// unset and leaving thresholds nil when their variables are absent.
func Load() (*Config, error) {
	cfg := &Config{
		WideAreaEndpoint: os.Getenv(EnvWideAreaEndpoint),
		StorePath:        os.Getenv(EnvStorePath),
		LocationFile:     os.Getenv(EnvLocationFile),
		S3Region:         os.Getenv(EnvS3Region),
		S3Endpoint:       os.Getenv(EnvS3Endpoint),
		AzureAccountURL:  os.Getenv(EnvAzureAccountURL),
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "cold.db"
	}

	staging, err := optionalInt(EnvStagingThreshold)
	if err != nil {
		return nil, err
	}
	cfg.StagingThreshold = staging

	archiving, err := optionalInt(EnvArchivingThreshold)
	if err != nil {
		return nil, err
	}
	cfg.ArchivingThreshold = archiving

	return cfg, nil
}

func optionalInt(name string) (*int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s must be an integer, got %q: %w", name, raw, err)
	}
	return &value, nil
}

// ThresholdFor returns the configured threshold for the given action,
// matching the Request Driver's get_active_transfers_threshold lookup.
func (c *Config) ThresholdFor(action string) *int {
	if action == "stage" {
		return c.StagingThreshold
	}
	return c.ArchivingThreshold
}
