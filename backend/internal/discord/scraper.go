package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"friendmap/backend/internal/socialgraph"
	apperrors "friendmap/backend/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMessagesNumber is the per-channel history depth
	DefaultMessagesNumber = 30
	// DefaultTimeout bounds a whole scrape
	DefaultTimeout = 30 * time.Second

	pageSize      = 100
	guildPageSize = 200

	maxPageRetries = 3
	retryDelay     = 500 * time.Millisecond
)

// Session is the part of *discordgo.Session the scraper needs
type Session interface {
	UserGuilds(limit int, beforeID, afterID string, withCounts bool, options ...discordgo.RequestOption) ([]*discordgo.UserGuild, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// SessionFactory opens a REST session for a token
type SessionFactory func(token string) (Session, error)

// NewSession is the production SessionFactory. Tokens without a scheme are
// treated as bot tokens.
func NewSession(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("empty token")
	}
	if !strings.HasPrefix(token, "Bot ") && !strings.HasPrefix(token, "Bearer ") {
		token = "Bot " + token
	}
	s, err := discordgo.New(token)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ScrapeRequest describes one collection run
type ScrapeRequest struct {
	Token          string
	ServerName     string
	MessagesNumber int
	Timeout        time.Duration
}

// Scraper collects the recent history of every text channel in a guild
type Scraper struct {
	newSession  SessionFactory
	concurrency int
	retries     int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewScraper creates a scraper. concurrency bounds parallel channel fetches.
func NewScraper(factory SessionFactory, concurrency int, logger *zap.Logger) *Scraper {
	if factory == nil {
		factory = NewSession
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scraper{
		newSession:  factory,
		concurrency: concurrency,
		retries:     maxPageRetries,
		retryDelay:  retryDelay,
		logger:      logger,
	}
}

// Scrape collects a community. Running out of time is not an error: whatever
// was fetched before the deadline is returned. Inaccessible channels are kept
// with the messages fetched so far, possibly none.
func (s *Scraper) Scrape(ctx context.Context, req ScrapeRequest) (*socialgraph.Community, error) {
	if req.MessagesNumber <= 0 {
		req.MessagesNumber = DefaultMessagesNumber
	}
	if req.Timeout <= 0 {
		req.Timeout = DefaultTimeout
	}

	session, err := s.newSession(req.Token)
	if err != nil {
		return nil, apperrors.NewDiscordAuthFailed(err)
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	guild, err := s.findGuild(scrapeCtx, session, req.ServerName)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Obtained guild",
		zap.String("guild_id", guild.ID),
		zap.String("guild_name", guild.Name),
	)

	channels, err := session.GuildChannels(guild.ID, discordgo.WithContext(scrapeCtx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewContextCancelled("Scrape", ctx.Err())
		}
		if scrapeCtx.Err() != nil {
			return nil, apperrors.NewContextTimeout("Scrape", req.Timeout)
		}
		return nil, classify(guild.ID, err)
	}

	textChannels := make([]*discordgo.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews {
			textChannels = append(textChannels, ch)
			continue
		}
		s.logger.Debug("Skipping non-text channel",
			zap.String("channel_id", ch.ID),
			zap.String("channel_name", ch.Name),
			zap.Int("channel_type", int(ch.Type)),
		)
	}

	community := &socialgraph.Community{
		Name:     guild.Name,
		ID:       guild.ID,
		Channels: make([]socialgraph.Channel, len(textChannels)),
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, ch := range textChannels {
		g.Go(func() error {
			community.Channels[i] = s.scrapeChannel(scrapeCtx, session, guild.Name, ch, req.MessagesNumber)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, apperrors.NewContextCancelled("Scrape", ctx.Err())
	}
	if scrapeCtx.Err() != nil {
		s.logger.Warn("Scrape deadline reached, returning partial data",
			zap.String("guild_id", guild.ID),
			zap.Duration("timeout", req.Timeout),
			zap.Int("messages", community.MessageCount()),
		)
	}

	s.logger.Info("Scraped guild",
		zap.String("guild_id", guild.ID),
		zap.Int("channels", len(community.Channels)),
		zap.Int("messages", community.MessageCount()),
	)
	return community, nil
}

func (s *Scraper) findGuild(ctx context.Context, session Session, name string) (*discordgo.UserGuild, error) {
	after := ""
	for {
		guilds, err := session.UserGuilds(guildPageSize, "", after, false, discordgo.WithContext(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.NewContextCancelled("findGuild", ctx.Err())
			}
			if code := statusCode(err); code == http.StatusUnauthorized {
				return nil, apperrors.NewDiscordAuthFailed(err)
			}
			return nil, classify("", err)
		}
		for _, g := range guilds {
			if g.Name == name {
				return g, nil
			}
		}
		if len(guilds) < guildPageSize {
			return nil, apperrors.NewDiscordGuildNotFound(name)
		}
		after = guilds[len(guilds)-1].ID
	}
}

// scrapeChannel pages backwards through history and returns it oldest first
func (s *Scraper) scrapeChannel(ctx context.Context, session Session, guildName string, ch *discordgo.Channel, target int) socialgraph.Channel {
	out := socialgraph.Channel{Name: ch.Name, ID: ch.ID, Messages: []socialgraph.Message{}}
	log := s.logger.With(zap.String("channel_id", ch.ID), zap.String("channel_name", ch.Name))

	var fetched []*discordgo.Message
	beforeID := ""
	for len(fetched) < target {
		if ctx.Err() != nil {
			log.Debug("Channel fetch interrupted", zap.Int("fetched", len(fetched)))
			break
		}

		batch, err := s.fetchPage(ctx, session, ch.ID, min(pageSize, target-len(fetched)), beforeID, log)
		if err != nil {
			switch statusCode(err) {
			case http.StatusForbidden:
				log.Info("Cannot access channel")
			case http.StatusNotFound:
				log.Info("Channel not found")
			default:
				if ctx.Err() == nil {
					log.Warn("Failed to fetch messages from channel", zap.Error(classify(ch.ID, err)))
				}
			}
			break
		}
		if len(batch) == 0 {
			break
		}

		fetched = append(fetched, batch...)
		beforeID = batch[len(batch)-1].ID
	}

	// Discord returns newest first
	for i := len(fetched) - 1; i >= 0; i-- {
		m := fetched[i]
		if m.Author == nil {
			continue
		}
		out.Messages = append(out.Messages, convertMessage(m, guildName, ch.Name))
	}

	log.Debug("Fetched channel", zap.Int("message_count", len(out.Messages)))
	return out
}

// fetchPage requests one page of history, retrying rate limits and server
// errors with exponential backoff
func (s *Scraper) fetchPage(ctx context.Context, session Session, channelID string, limit int, beforeID string, log *zap.Logger) ([]*discordgo.Message, error) {
	delay := s.retryDelay
	for attempt := 0; ; attempt++ {
		batch, err := session.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
		if err == nil {
			return batch, nil
		}
		if attempt >= s.retries || !apperrors.IsRetryable(classify(channelID, err)) {
			return nil, err
		}
		log.Debug("Retrying channel page",
			zap.Int("attempt", attempt+1),
			zap.Int("status", statusCode(err)),
			zap.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func convertMessage(m *discordgo.Message, guildName, channelName string) socialgraph.Message {
	mentions := make([]socialgraph.Author, 0, len(m.Mentions))
	for _, u := range m.Mentions {
		if u == nil {
			continue
		}
		mentions = append(mentions, socialgraph.Author{ID: u.ID, Name: u.Username})
	}
	return socialgraph.Message{
		Author:    socialgraph.Author{ID: m.Author.ID, Name: m.Author.Username},
		Server:    guildName,
		Channel:   channelName,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
		Content:   m.Content,
		Mentions:  mentions,
	}
}

func statusCode(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}

func classify(channelID string, err error) error {
	return apperrors.NewDiscordChannelFetchFailed(channelID, statusCode(err), err)
}
