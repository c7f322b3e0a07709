package main

import (
	"fmt"

	"friendmap/backend/internal/app"

	"github.com/spf13/cobra"
)

func (c *cli) newMapCmd() *cobra.Command {
	var (
		src sourceFlags
		out graphFlags
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Scrape a server and write its member network graph",
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
			g := a.Pipeline.Analyze(ctx, community, out.window())
			if err := out.write(g, c.cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d members, %d connections)\n", out.output, g.NodeCount(), g.EdgeCount())
			return nil
		},
	}

	src.register(cmd)
	out.register(cmd)
	return cmd
}
