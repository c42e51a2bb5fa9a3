// cold is the operator CLI for the cold storage subsystem.
package main

import (
	"os"

	"github.com/cernopendata/coldstorage/internal/cli"
	"github.com/cernopendata/coldstorage/internal/version"
)

// these are overridden by ldflags at build time, e.g.:
// -ldflags "-X main.buildVersion=v1.2.3 -X main.buildTime=..."
var (
	buildVersion = ""
	buildTime    = ""
)

func main() {
	if buildVersion != "" {
		version.Version = buildVersion
	}
	if buildTime != "" {
		version.BuildTime = buildTime
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
