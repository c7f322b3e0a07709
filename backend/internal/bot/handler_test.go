package bot

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"friendmap/backend/internal/discord"
	"friendmap/backend/internal/services"
	"friendmap/backend/internal/socialgraph"
	apperrors "friendmap/backend/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const botID = "bot-123"

type fakeSession struct {
	guild    *discordgo.Guild
	guildErr error
	sent     []*discordgo.MessageSend
	channels []string
}

func (f *fakeSession) Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error) {
	if f.guildErr != nil {
		return nil, f.guildErr
	}
	return f.guild, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channels = append(f.channels, channelID)
	f.sent = append(f.sent, data)
	return &discordgo.Message{}, nil
}

type fakeSource struct {
	community *socialgraph.Community
	err       error
	last      discord.ScrapeRequest
}

func (f *fakeSource) Scrape(ctx context.Context, req discord.ScrapeRequest) (*socialgraph.Community, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.community, nil
}

func testCommunity() *socialgraph.Community {
	alice := socialgraph.Author{ID: "1", Name: "alice"}
	bob := socialgraph.Author{ID: "2", Name: "bob"}
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(offset int) string {
		return base.Add(time.Duration(offset) * time.Second).Format(time.RFC3339)
	}
	return &socialgraph.Community{
		ID:   "g1",
		Name: "guild",
		Channels: []socialgraph.Channel{{
			ID:   "c1",
			Name: "general",
			Messages: []socialgraph.Message{
				{Author: alice, Timestamp: at(0)},
				{Author: bob, Timestamp: at(5)},
				{Author: alice, Timestamp: at(10)},
				{Author: bob, Timestamp: at(15)},
			},
		}},
	}
}

func newTestHandler(src *fakeSource) *Handler {
	pipeline := services.NewPipeline(src, 0)
	return NewHandler(pipeline, "bot-token", Options{MessagesNumber: 50, Timeout: time.Minute, Layout: "circular"}, zap.NewNop())
}

func message(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m1",
		ChannelID: "chan-1",
		GuildID:   "g1",
		Content:   content,
		Author:    &discordgo.User{ID: "user-456", Username: "carol"},
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    command
		ok      bool
	}{
		{"map", "<@bot-123> map", command{name: "map"}, true},
		{"nickname mention", "<@!bot-123>   MAP  ", command{name: "map"}, true},
		{"window", "<@bot-123> map 45", command{name: "map", window: 45 * time.Second}, true},
		{"fractional window", "<@bot-123> map 1.5", command{name: "map", window: 1500 * time.Millisecond}, true},
		{"bad window", "<@bot-123> map soon", command{name: "help"}, true},
		{"negative window", "<@bot-123> map -3", command{name: "help"}, true},
		{"bare mention", "<@bot-123>", command{name: "help"}, true},
		{"other words", "<@bot-123> hello there", command{name: "help"}, true},
		{"not addressed", "map", command{}, false},
		{"someone else", "<@999> map", command{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCommand(tt.content, botID)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandle_Map(t *testing.T) {
	src := &fakeSource{community: testCommunity()}
	s := &fakeSession{guild: &discordgo.Guild{ID: "g1", Name: "guild"}}
	h := newTestHandler(src)

	h.handle(context.Background(), s, botID, message("<@bot-123> map"))

	assert.Equal(t, discord.ScrapeRequest{Token: "bot-token", ServerName: "guild", MessagesNumber: 50, Timeout: time.Minute}, src.last)
	require.Len(t, s.sent, 1)
	assert.Equal(t, []string{"chan-1"}, s.channels)

	reply := s.sent[0]
	require.NotNil(t, reply.Reference)
	assert.Equal(t, "m1", reply.Reference.MessageID)

	require.Len(t, reply.Embeds, 1)
	embed := reply.Embeds[0]
	assert.Equal(t, "2 members, 2 connections", embed.Description)
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "1. alice → bob (2)\n2. bob → alice (1)", embed.Fields[0].Value)
	assert.Contains(t, embed.Footer.Text, "20s")

	require.Len(t, reply.Files, 1)
	assert.Equal(t, "friendmap.html", reply.Files[0].Name)
	page, err := io.ReadAll(reply.Files[0].Reader)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Plotly.newPlot")
}

func TestHandle_MapWithWindow(t *testing.T) {
	src := &fakeSource{community: testCommunity()}
	s := &fakeSession{guild: &discordgo.Guild{ID: "g1", Name: "guild"}}

	newTestHandler(src).handle(context.Background(), s, botID, message("<@bot-123> map 3"))

	require.Len(t, s.sent, 1)
	embed := s.sent[0].Embeds[0]
	assert.Equal(t, "2 members, 0 connections", embed.Description)
	assert.Empty(t, embed.Fields)
	assert.Contains(t, embed.Footer.Text, "3s")
}

func TestHandle_Ignored(t *testing.T) {
	tests := []struct {
		name string
		msg  *discordgo.Message
	}{
		{"own message", func() *discordgo.Message {
			m := message("<@bot-123> map")
			m.Author = &discordgo.User{ID: botID}
			return m
		}()},
		{"other bot", func() *discordgo.Message {
			m := message("<@bot-123> map")
			m.Author.Bot = true
			return m
		}()},
		{"direct message", func() *discordgo.Message {
			m := message("<@bot-123> map")
			m.GuildID = ""
			return m
		}()},
		{"not addressed", message("what a map")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{community: testCommunity()}
			s := &fakeSession{guild: &discordgo.Guild{Name: "guild"}}
			newTestHandler(src).handle(context.Background(), s, botID, tt.msg)
			assert.Empty(t, s.sent)
		})
	}
}

func TestHandle_Help(t *testing.T) {
	s := &fakeSession{}
	newTestHandler(&fakeSource{}).handle(context.Background(), s, botID, message("<@bot-123> hi"))

	require.Len(t, s.sent, 1)
	assert.Equal(t, helpText, s.sent[0].Content)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		guildErr error
		srcErr   error
		want     string
	}{
		{"guild lookup", errors.New("boom"), nil, "could not look up"},
		{"auth", nil, apperrors.NewDiscordAuthFailed(nil), "rejected my token"},
		{"not visible", nil, apperrors.NewDiscordGuildNotFound("guild"), "cannot see"},
		{"other", nil, errors.New("502"), "could not read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{guild: &discordgo.Guild{Name: "guild"}, guildErr: tt.guildErr}
			newTestHandler(&fakeSource{err: tt.srcErr}).handle(context.Background(), s, botID, message("<@bot-123> map"))

			require.Len(t, s.sent, 1)
			assert.True(t, strings.Contains(s.sent[0].Content, tt.want), s.sent[0].Content)
			assert.Empty(t, s.sent[0].Files)
		})
	}
}

func TestTopConnections(t *testing.T) {
	a := socialgraph.Author{ID: "a", Name: "a"}
	b := socialgraph.Author{ID: "b", Name: "b"}
	c := socialgraph.Author{ID: "c", Name: "c"}
	g := socialgraph.NewGraph("g", "g")
	g.AddEdge(a, b)
	g.AddWeightedEdge(b, c, 3)
	g.AddEdge(c, a)

	assert.Equal(t, "1. b → c (3)\n2. a → b (1)", topConnections(g, 2))
	assert.Empty(t, topConnections(socialgraph.NewGraph("e", "e"), 5))
}
