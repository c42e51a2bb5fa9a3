package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cernopendata/coldstorage/internal/catalog"
	"github.com/cernopendata/coldstorage/internal/manager"
)

type moveFlags struct {
	register bool
	limit    int
	force    bool
	dry      bool
}

func addMoveFlags(cmd *cobra.Command, f *moveFlags) {
	cmd.Flags().BoolVar(&f.register, "register", false, "register files already present at the destination instead of re-transferring them")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "positive N caps transfers issued; negative N leaves the last |N| files untouched")
	cmd.Flags().BoolVar(&f.force, "force", false, "skip the destination verify/register fast path and always submit")
	cmd.Flags().BoolVar(&f.dry, "dry", false, "report the outcome each file would get without submitting anything")
}

func newArchiveCmd() *cobra.Command {
	f := &moveFlags{}
	cmd := &cobra.Command{
		Use:   "archive RECID",
		Short: "Move a record's files from the hot cache to the cold archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(args[0], catalog.ActionArchive, f)
		},
	}
	addMoveFlags(cmd, f)
	return cmd
}

func newStageCmd() *cobra.Command {
	f := &moveFlags{}
	cmd := &cobra.Command{
		Use:   "stage RECID",
		Short: "Move a record's files from the cold archive to the hot cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(args[0], catalog.ActionStage, f)
		},
	}
	addMoveFlags(cmd, f)
	return cmd
}

func runMove(recID, action string, f *moveFlags) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	recordUUID, err := svc.ResolveUUID(recID)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", recID, err)
	}

	summary, err := svc.Manager.DoOperation(action, recordUUID, f.limit, f.register, f.force, f.dry, "")
	if err != nil {
		return fmt.Errorf("%s %s: %w", action, recordUUID, err)
	}

	printSummary(recordUUID, summary.Counts)
	return exitForSummary(summary.Counts)
}

func newClearHotCmd() *cobra.Command {
	var limit int
	var dry bool
	cmd := &cobra.Command{
		Use:   "clear-hot RECID",
		Short: "Remove a record's hot copies once they are safely archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer svc.Close()

			recordUUID, err := svc.ResolveUUID(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}

			summary, err := svc.Manager.ClearHot(recordUUID, limit, dry)
			if err != nil {
				return fmt.Errorf("clear-hot %s: %w", recordUUID, err)
			}

			printSummary(recordUUID, summary.Counts)
			return exitForSummary(summary.Counts)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "positive N caps files cleared; negative N leaves the last |N| files untouched")
	cmd.Flags().BoolVar(&dry, "dry", false, "report what would be cleared without removing anything")
	return cmd
}

func printSummary(recordUUID string, counts map[string]int) {
	fmt.Printf("%s:\n", recordUUID)
	for _, outcome := range []string{
		manager.OutcomeDone, manager.OutcomeScheduled, manager.OutcomeCreated,
		manager.OutcomeRegistered, manager.OutcomeToRegister, manager.OutcomeInconsistent,
		manager.OutcomeError, manager.OutcomeDry,
	} {
		if n, ok := counts[outcome]; ok && n > 0 {
			fmt.Printf("  %-12s %d\n", outcome, n)
		}
	}
}

func exitForSummary(counts map[string]int) error {
	if counts[manager.OutcomeError] > 0 || counts[manager.OutcomeInconsistent] > 0 {
		return fmt.Errorf("completed with %d error(s), %d inconsistency(ies)", counts[manager.OutcomeError], counts[manager.OutcomeInconsistent])
	}
	return nil
}
