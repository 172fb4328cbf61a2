package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCommand(flags *globalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <ads.json|s3://bucket/key>",
		Short: "Reconcile a canonical artifact into the ads database",
		Long: `Import validates a canonical artifact against its schema and reconciles each
ad into the record store in its own transaction. With --dry-run the artifact
is validated and listed but nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, flags, appOptions{store: !dryRun})
			if err != nil {
				return err
			}
			defer a.Close()

			if dryRun {
				art, err := a.pipeline.Artifacts.LoadCanonical(ctx, args[0])
				if err != nil {
					return fmt.Errorf("load artifact: %w", err)
				}
				renderAds(os.Stdout, art.Ads)
				fmt.Fprintf(os.Stdout, "dry run: %d ads valid, nothing written\n", len(art.Ads))
				return nil
			}

			summary, err := a.pipeline.ImportFile(ctx, args[0])
			if err != nil {
				return err
			}
			renderSummary(os.Stdout, summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the artifact without writing")
	return cmd
}
