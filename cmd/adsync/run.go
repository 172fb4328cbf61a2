package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	var (
		out    string
		maxAds int
	)
	cmd := &cobra.Command{
		Use:   "run <responses.json|s3://bucket/key>",
		Short: "Parse captured responses and import the result in one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, flags, appOptions{store: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("max-ads") {
				maxAds = a.cfg.MaxAds
			}
			summary, err := a.pipeline.Run(ctx, args[0], out, maxAds)
			if err != nil {
				return err
			}
			renderSummary(os.Stdout, summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the canonical artifact here")
	cmd.Flags().IntVar(&maxAds, "max-ads", 50, "maximum number of unique ads to extract (default MAX_ADS)")
	return cmd
}
