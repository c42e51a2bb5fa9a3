// Package version provides build version information for the cold
// command, set by ldflags at build time. It is a separate package so
// cmd/cold and internal/cli can both reference it without an import
// cycle.
package version

// Version is the build version string, set by ldflags during build.
var Version = "dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"
