package bot

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"time"

	"friendmap/backend/internal/render"
	"friendmap/backend/internal/socialgraph"

	"github.com/bwmarrin/discordgo"
)

const (
	topPairs   = 5
	embedColor = 0x5865F2 // Discord blurple
)

// graphReply builds the reply: a summary embed plus the rendered page attached
func graphReply(g *socialgraph.Graph, layout string, window time.Duration) (*discordgo.MessageSend, error) {
	page, err := render.HTML(g, layout)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title:       render.Title(g.Name, time.Now()),
		Description: fmt.Sprintf("%d members, %d connections", g.NodeCount(), g.EdgeCount()),
		Color:       embedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Reply window %s. Open the attachment in a browser.", window),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if top := topConnections(g, topPairs); top != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Who talks to whom",
			Value: top,
		})
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files: []*discordgo.File{{
			Name:        "friendmap.html",
			ContentType: "text/html",
			Reader:      bytes.NewReader(page),
		}},
	}, nil
}

// topConnections lists the n heaviest edges, ties in insertion order
func topConnections(g *socialgraph.Graph, n int) string {
	triples := g.Triples()
	slices.SortStableFunc(triples, func(a, b socialgraph.WeightedConnection) int {
		return b.Weight - a.Weight
	})
	if len(triples) > n {
		triples = triples[:n]
	}

	var b strings.Builder
	for i, t := range triples {
		fmt.Fprintf(&b, "%d. %s → %s (%d)\n", i+1, t.Source.Name, t.Target.Name, t.Weight)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
