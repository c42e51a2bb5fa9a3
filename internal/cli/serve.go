package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cernopendata/coldstorage/internal/daemon"
)

func newServeCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run process-requests/process-transfers on a timer until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer svc.Close()

			guard, err := daemon.Acquire(svc.Config.StorePath)
			if err != nil {
				return err
			}
			defer guard.Release()

			GetLogger().Info().Dur("interval", interval).Msg("worker started")
			svc.Worker.Run(GetContext(), interval)
			GetLogger().Info().Msg("worker stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "time between worker cycles")
	return cmd
}
