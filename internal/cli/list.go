package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cernopendata/coldstorage/internal/app"
	"github.com/cernopendata/coldstorage/internal/catalog"
	"github.com/cernopendata/coldstorage/internal/progress"
)

func newListCmd() *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "list RECID",
		Short: "List a record's files with their hot and cold copies",
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

			files, err := svc.Manager.List(recordUUID)
			if err != nil {
				return fmt.Errorf("list %s: %w", recordUUID, err)
			}

			var reporter progress.Reporter = progress.NewNoOpProgress()
			if verify {
				reporter = progress.NewCLIProgress()
				reporter.Start(int64(len(files)), "verifying "+recordUUID)
			}

			archived, staged := 0, 0
			for i, f := range files {
				cold := f.Tags[catalog.TagURICold]
				if cold == "" {
					cold = "-"
				}
				hot := f.URI
				if !f.IsStaged() {
					hot = "-"
				}
				fmt.Printf("%s  hot=%s  cold=%s  size=%d\n", f.ID, hot, cold, f.Size)

				if verify {
					verifyFile(svc, f)
					reporter.Update(int64(i + 1))
				}
				if f.IsArchived() {
					archived++
				}
				if f.IsStaged() {
					staged++
				}
			}
			reporter.Finish()
			fmt.Printf("\n%d files, %d archived, %d staged\n", len(files), archived, staged)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "additionally check destination existence, size and checksum")
	return cmd
}

// verifyFile checks whichever copies a file has against their backend,
// printing a one-line result for each.
func verifyFile(svc *app.Services, f *catalog.File) {
	if f.IsArchived() {
		report("cold", svc, catalog.ActionArchive, f.Tags[catalog.TagURICold], f)
	}
	if f.IsStaged() {
		report("hot", svc, catalog.ActionStage, f.URI, f)
	}
}

func report(label string, svc *app.Services, action, uri string, f *catalog.File) {
	ok, reason, err := svc.Router.VerifyFile(svc.Backends, action, uri, f.Size, f.Checksum)
	switch {
	case err != nil:
		fmt.Printf("    %s verify error: %v\n", label, err)
	case ok:
		fmt.Printf("    %s verify ok\n", label)
	default:
		fmt.Printf("    %s verify failed: %s\n", label, reason)
	}
}
