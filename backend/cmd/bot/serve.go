package main

import (
	"errors"
	"strings"

	"friendmap/backend/internal/app"
	"friendmap/backend/internal/bot"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run a Discord bot that answers \"@bot map\" with the server's graph",
		Long:  "Connects to the gateway with DISCORD_TOKEN and replies to mentions in any server the bot has joined.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimPrefix(strings.TrimSpace(c.cfg.DiscordToken), "Bot ")
			if token == "" {
				return errors.New("DISCORD_TOKEN is required")
			}
			ctx := cmd.Context()
			log := c.log

			a, err := app.New(ctx, c.cfg, log, c.appOpts...)
			if err != nil {
				return err
			}
			defer a.Close()

			// Create Discord session
			dg, err := discordgo.New("Bot " + token)
			if err != nil {
				return err
			}

			handler := bot.NewHandler(a.Pipeline, token, bot.Options{
				MessagesNumber: c.cfg.MessagesPerChannel,
				Timeout:        c.cfg.ScrapeTimeout,
				Layout:         c.cfg.Layout,
			}, log)
			dg.AddHandler(handler.HandleMessage)

			// Message content is privileged and must be enabled for the application
			dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

			if err := dg.Open(); err != nil {
				return err
			}
			defer dg.Close()

			log.Info("Discord bot is running. Press CTRL-C to exit.",
				zap.Int("messages_per_channel", c.cfg.MessagesPerChannel),
				zap.Duration("reply_window", c.cfg.ReplyWindow),
			)
			<-ctx.Done()

			log.Info("Shutting down Discord bot...")
			return nil
		},
	}
}
