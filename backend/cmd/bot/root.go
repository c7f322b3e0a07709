package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"friendmap/backend/internal/app"
	"friendmap/backend/internal/discord"
	"friendmap/backend/internal/render"
	"friendmap/backend/internal/socialgraph"
	"friendmap/backend/pkg/config"
	"friendmap/backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries state shared by every subcommand
type cli struct {
	env      string
	logLevel string
	logFile  string

	cfg     *config.Config
	log     *zap.Logger
	appOpts []app.Option
}

func newRootCmd(appOpts ...app.Option) *cobra.Command {
	c := &cli{appOpts: appOpts}

	root := &cobra.Command{
		Use:               "friendmap",
		Short:             "Map who talks to whom in a Discord server",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.env, "env", "", "Environment (development or production), overrides ENV")
	pf.StringVar(&c.logLevel, "log-level", "", "Logging level (debug, info, warn, error), overrides LOG_LEVEL")
	pf.StringVar(&c.logFile, "log-file", "", "Also write logs to this file, overrides LOG_FILE")

	root.AddCommand(c.newMapCmd(), c.newScrapeCmd(), c.newRenderCmd(), c.newBotCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.env != "" {
		cfg.Env = c.env
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.logFile != "" {
		cfg.LogFile = c.logFile
	}

	if err := logger.Init(logger.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logger.Get()
	return nil
}

// sourceFlags select what to scrape
type sourceFlags struct {
	tokenFile     string
	serverName    string
	messageNumber int
	timeout       float64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tokenFile, "token-file", "", "Path to file containing the Discord token (alias -tf); DISCORD_TOKEN is used when unset")
	cmd.Flags().StringVarP(&f.serverName, "server-name", "s", "", "Name of the Discord server to collect messages from")
	cmd.Flags().IntVarP(&f.messageNumber, "message-number", "n", discord.DefaultMessagesNumber, "Number of messages to collect per channel")
	cmd.Flags().Float64VarP(&f.timeout, "timeout", "t", discord.DefaultTimeout.Seconds(), "Seconds to collect messages before stopping")
	_ = cmd.MarkFlagRequired("server-name")
}

func (f *sourceFlags) request(cmd *cobra.Command, cfg *config.Config) (discord.ScrapeRequest, error) {
	token := cfg.DiscordToken
	if f.tokenFile != "" {
		raw, err := os.ReadFile(f.tokenFile)
		if err != nil {
			return discord.ScrapeRequest{}, fmt.Errorf("failed to read token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return discord.ScrapeRequest{}, fmt.Errorf("a Discord token is required: pass --token-file or set DISCORD_TOKEN")
	}

	req := discord.ScrapeRequest{
		Token:          token,
		ServerName:     f.serverName,
		MessagesNumber: cfg.MessagesPerChannel,
		Timeout:        cfg.ScrapeTimeout,
	}
	if cmd.Flags().Changed("message-number") {
		req.MessagesNumber = f.messageNumber
	}
	if cmd.Flags().Changed("timeout") {
		req.Timeout = seconds(f.timeout)
	}
	return req, nil
}

// graphFlags control how a graph is written
type graphFlags struct {
	output      string
	layout      string
	replyWindow float64
}

func (f *graphFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output-file", "o", "", "Path to write the network graph to (.html, or .dot for Graphviz)")
	cmd.Flags().StringVar(&f.layout, "layout", "", "Node layout: "+strings.Join(render.Layouts(), ", ")+" (default LAYOUT)")
	cmd.Flags().Float64Var(&f.replyWindow, "reply-window", 0, "Seconds within which a message counts as a reply (default REPLY_WINDOW)")
	_ = cmd.MarkFlagRequired("output-file")
}

func (f *graphFlags) window() time.Duration {
	return seconds(f.replyWindow)
}

// write renders g to the output file, picking the format from its extension
func (f *graphFlags) write(g *socialgraph.Graph, cfg *config.Config) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(f.output), ".dot") {
		data = []byte(render.DOT(g))
	} else {
		layout := f.layout
		if layout == "" {
			layout = cfg.Layout
		}
		page, err := render.HTML(g, layout)
		if err != nil {
			return err
		}
		data = page
	}
	if err := os.WriteFile(f.output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.output, err)
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
