package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newParseCommand(flags *globalFlags) *cobra.Command {
	var (
		out    string
		maxAds int
	)
	cmd := &cobra.Command{
		Use:   "parse <responses.json|s3://bucket/key>",
		Short: "Extract canonical ads from captured GraphQL responses",
		Long: `Parse reads a JSON array of captured {url, data} responses, extracts up to
--max-ads unique ads in capture order and writes the canonical artifact.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, flags, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("max-ads") {
				maxAds = a.cfg.MaxAds
			}
			art, err := a.pipeline.Parse(ctx, args[0], out, maxAds)
			if err != nil {
				return err
			}
			renderAds(os.Stdout, art.Ads)
			if out == "" {
				fmt.Fprintln(os.Stderr, "no --out given; artifact not written")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "parsed_ads.json", "where to write the canonical artifact (file or s3://)")
	cmd.Flags().IntVar(&maxAds, "max-ads", 50, "maximum number of unique ads to extract (default MAX_ADS)")
	return cmd
}
