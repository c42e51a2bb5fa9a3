package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newProcessTransfersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-transfers",
		Short: "Reconcile every ongoing transfer against its backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer svc.Close()

			stats, err := svc.Worker.ProcessTransfers(time.Now().UTC())
			if err != nil {
				return fmt.Errorf("process-transfers: %w", err)
			}
			for status, n := range stats {
				fmt.Printf("%-14s %d\n", status, n)
			}
			return nil
		},
	}
}

func newProcessRequestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-requests",
		Short: "Admit submitted requests and complete started ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Worker.ProcessRequests(); err != nil {
				return fmt.Errorf("process-requests: %w", err)
			}
			return nil
		},
	}
}
