package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cernopendata/coldstorage/internal/config"
	"github.com/cernopendata/coldstorage/internal/storage"
)

func newLocationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Manage the hot/cold prefix -> backend location table",
	}
	cmd.AddCommand(newLocationAddCmd())
	cmd.AddCommand(newLocationListCmd())
	return cmd
}

func newLocationAddCmd() *cobra.Command {
	var coldPath, hotPath, backendName string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a hot/cold prefix pair bound to a backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			locations, err := loadLocations(cfg.LocationFile)
			if err != nil {
				return err
			}
			locations = append(locations, storage.Location{
				HotPrefix:  hotPath,
				ColdPrefix: coldPath,
				Backend:    backendName,
			})
			if err := saveLocations(cfg.LocationFile, locations); err != nil {
				return fmt.Errorf("location add: %w", err)
			}
			fmt.Printf("added location: %s <-> %s via %s\n", hotPath, coldPath, backendName)
			return nil
		},
	}
	cmd.Flags().StringVar(&coldPath, "cold-path", "", "cold prefix (required)")
	cmd.Flags().StringVar(&hotPath, "hot-path", "", "hot prefix (required)")
	cmd.Flags().StringVar(&backendName, "manager-class", "", "backend registry key bound to this location (required)")
	cmd.MarkFlagRequired("cold-path")
	cmd.MarkFlagRequired("hot-path")
	cmd.MarkFlagRequired("manager-class")
	return cmd
}

func newLocationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured location table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			locations, err := loadLocations(cfg.LocationFile)
			if err != nil {
				return err
			}
			for _, loc := range locations {
				fmt.Printf("%-10s hot=%s cold=%s\n", loc.Backend, loc.HotPrefix, loc.ColdPrefix)
			}
			return nil
		},
	}
}
