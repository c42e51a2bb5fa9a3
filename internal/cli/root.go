// Package cli provides the command-line interface for the cold storage
// subsystem.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cernopendata/coldstorage/internal/app"
	"github.com/cernopendata/coldstorage/internal/config"
	"github.com/cernopendata/coldstorage/internal/logging"
	"github.com/cernopendata/coldstorage/internal/version"
)

var (
	verbose bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "cold",
		Short:   "Cold storage operator CLI for the CERN Open Data Portal",
		Version: version.Version,
		Long: `cold ` + version.Version + `

Operational tool for moving record files between the hot disk cache and
the cold tape-backed archive: archive, stage, clear-hot, list, and the
process-transfers/process-requests workers.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			if verbose {
				logging.SetGlobalLevel(-1)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug messages)")

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nreceived signal %v, cancelling\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds every subcommand to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newArchiveCmd())
	rootCmd.AddCommand(newStageCmd())
	rootCmd.AddCommand(newClearHotCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newProcessTransfersCmd())
	rootCmd.AddCommand(newProcessRequestsCmd())
	rootCmd.AddCommand(newLocationCmd())
	rootCmd.AddCommand(newServeCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context, cancelled on SIGINT/SIGTERM.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// buildServices loads configuration and wires the subsystem's Services,
// the standard way every command reaches the catalog/manager/worker.
// Callers own the returned Services and must Close it.
func buildServices() (*app.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cli: load config: %w", err)
	}

	locations, err := loadLocations(cfg.LocationFile)
	if err != nil {
		return nil, fmt.Errorf("cli: load locations: %w", err)
	}

	recordStore, indexer, pids, mail := newPortalCollaborators(cfg)

	svc, err := app.New(cfg, GetLogger().Zerolog(), recordStore, indexer, pids, mail, locations, registerRemoteBackends(cfg))
	if err != nil {
		return nil, fmt.Errorf("cli: build services: %w", err)
	}
	return svc, nil
}
