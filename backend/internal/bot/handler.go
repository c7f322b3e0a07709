// Package bot answers map requests from inside Discord: mention the bot with
// "map" and it replies with the server's network graph.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"friendmap/backend/internal/discord"
	"friendmap/backend/internal/services"
	apperrors "friendmap/backend/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Options are the scrape and render settings used for every request
type Options struct {
	MessagesNumber int
	Timeout        time.Duration
	Layout         string
}

// session is the part of *discordgo.Session the handler uses
type session interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler handles Discord message processing
type Handler struct {
	pipeline *services.Pipeline
	token    string
	opts     Options
	logger   *zap.Logger
}

// NewHandler creates a handler that scrapes with the bot's own token
func NewHandler(pipeline *services.Pipeline, token string, opts Options, logger *zap.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		token:    token,
		opts:     opts,
		logger:   logger,
	}
}

// HandleMessage is the discordgo MessageCreate callback
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State == nil || s.State.User == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.Timeout+30*time.Second)
	defer cancel()
	h.handle(ctx, s, s.State.User.ID, m.Message)
}

func (h *Handler) handle(ctx context.Context, s session, botID string, m *discordgo.Message) {
	// Ignore messages from bots, ourselves included
	if m == nil || m.Author == nil || m.Author.Bot || m.Author.ID == botID {
		return
	}
	// Maps are per server
	if m.GuildID == "" {
		return
	}

	cmd, ok := parseCommand(m.Content, botID)
	if !ok {
		return
	}

	h.logger.Info("Processing map request",
		zap.String("user_id", m.Author.ID),
		zap.String("guild_id", m.GuildID),
		zap.String("channel_id", m.ChannelID),
		zap.String("command", cmd.name),
	)

	var reply *discordgo.MessageSend
	switch cmd.name {
	case "map":
		reply = h.mapGuild(ctx, s, m.GuildID, cmd.window)
	default:
		reply = &discordgo.MessageSend{Content: helpText}
	}
	reply.Reference = m.Reference()

	if _, err := s.ChannelMessageSendComplex(m.ChannelID, reply); err != nil {
		h.logger.Error("Failed to send reply",
			zap.String("channel_id", m.ChannelID),
			zap.Error(err),
		)
	}
}

func (h *Handler) mapGuild(ctx context.Context, s session, guildID string, window time.Duration) *discordgo.MessageSend {
	guild, err := s.Guild(guildID)
	if err != nil {
		h.logger.Error("Failed to look up guild", zap.String("guild_id", guildID), zap.Error(err))
		return &discordgo.MessageSend{Content: "Sorry, I could not look up this server."}
	}

	community, err := h.pipeline.Scrape(ctx, discord.ScrapeRequest{
		Token:          h.token,
		ServerName:     guild.Name,
		MessagesNumber: h.opts.MessagesNumber,
		Timeout:        h.opts.Timeout,
	})
	if err != nil {
		h.logger.Error("Failed to scrape guild", zap.String("guild_id", guildID), zap.Error(err))
		return &discordgo.MessageSend{Content: scrapeErrorText(err)}
	}

	g := h.pipeline.Analyze(ctx, community, window)
	reply, err := graphReply(g, h.opts.Layout, h.pipeline.Engine(window).ReplyWindow())
	if err != nil {
		h.logger.Error("Failed to render graph", zap.String("guild_id", guildID), zap.Error(err))
		return &discordgo.MessageSend{Content: "Sorry, I could not draw this server's graph."}
	}
	return reply
}

func scrapeErrorText(err error) string {
	var auth *apperrors.ErrDiscordAuthFailed
	var notFound *apperrors.ErrDiscordGuildNotFound
	switch {
	case errors.As(err, &auth):
		return "Discord rejected my token, ask an admin to check the configuration."
	case errors.As(err, &notFound):
		return "I cannot see this server's channels."
	default:
		return "Sorry, I could not read this server's messages."
	}
}

const helpText = "Mention me with `map` to get this server's network graph, or `map <seconds>` to change the reply window."

type command struct {
	name   string
	window time.Duration
}

// parseCommand reads "<@bot> map [seconds]". Messages that do not start with
// the bot mention are not commands.
func parseCommand(content, botID string) (command, bool) {
	content = strings.TrimSpace(content)
	rest, ok := strings.CutPrefix(content, "<@"+botID+">")
	if !ok {
		rest, ok = strings.CutPrefix(content, "<@!"+botID+">")
	}
	if !ok {
		return command{}, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "map") {
		return command{name: "help"}, true
	}
	cmd := command{name: "map"}
	if len(fields) > 1 {
		secs, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || secs <= 0 {
			return command{name: "help"}, true
		}
		cmd.window = time.Duration(secs * float64(time.Second))
	}
	return cmd, true
}
