package main

import (
	"fmt"

	"friendmap/backend/internal/app"

	"github.com/spf13/cobra"
)

func (c *cli) newScrapeCmd() *cobra.Command {
	var (
		src    sourceFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Dump a server's recent messages as JSON",
		Long:  "Collects recent messages of every text channel and writes them to <server-name-slug>_messages.json unless -o is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := src.request(cmd, c.cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := app.New(ctx, c.cfg, c.log, c.appOpts...)
			if err != nil {
				return err
			}
			defer a.Close()

			community, err := a.Pipeline.Scrape(ctx, req)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = slugify(community.Name) + "_messages.json"
			}
			if err := writeJSON(path, community); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d channels, %d messages)\n", path, len(community.Channels), community.MessageCount())
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output-file", "o", "", "Path to write the messages to")
	return cmd
}
