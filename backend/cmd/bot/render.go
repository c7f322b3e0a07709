package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"friendmap/backend/internal/app"
	"friendmap/backend/internal/socialgraph"

	"github.com/spf13/cobra"
)

func (c *cli) newRenderCmd() *cobra.Command {
	var (
		out      graphFlags
		input    string
		dbPath   string
		serverID string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the network graph of a saved community",
		Long:  "Reads a community from a JSON dump (--input) or a snapshot database (--db with --server-id) and writes its network graph.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (input == "") == (dbPath == "") {
				return errors.New("exactly one of --input or --db is required")
			}
			if dbPath != "" && serverID == "" {
				return errors.New("--server-id is required with --db")
			}
			ctx := cmd.Context()

			cfg := *c.cfg
			if dbPath != "" {
				cfg.SnapshotDB = dbPath
			}
			a, err := app.New(ctx, &cfg, c.log, c.appOpts...)
			if err != nil {
				return err
			}
			defer a.Close()

			var community *socialgraph.Community
			if dbPath != "" {
				community, err = a.Pipeline.Load(ctx, serverID)
			} else {
				community, err = readCommunity(input)
			}
			if err != nil {
				return err
			}

			g := a.Pipeline.Analyze(ctx, community, out.window())
			if err := out.write(g, &cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d members, %d connections)\n", out.output, g.NodeCount(), g.EdgeCount())
			return nil
		},
	}

	out.register(cmd)
	cmd.Flags().StringVar(&input, "input", "", "Community JSON written by scrape")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite snapshot database")
	cmd.Flags().StringVar(&serverID, "server-id", "", "Server id to load from --db")
	return cmd
}

func readCommunity(path string) (*socialgraph.Community, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var community socialgraph.Community
	if err := json.NewDecoder(f).Decode(&community); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &community, nil
}
