package socialgraph

import (
	"iter"

	"go.uber.org/zap"
)

// Connections yields every reply and mention occurrence in a community.
// Per channel, inferred replies come first, then mentions in message order.
func (e *Engine) Connections(c Community) iter.Seq[Connection] {
	return func(yield func(Connection) bool) {
		for _, ch := range c.Channels {
			for pair := range e.InferReplies(ch) {
				if !yield(pair.Connection()) {
					return
				}
			}
			for i, m := range ch.Messages {
				if ValidateAuthor(m.Author, ch.ID, i, "author") != nil {
					continue
				}
				_, mentions := e.ExtractMentions(m)
				for _, conn := range mentions {
					if !yield(conn) {
						return
					}
				}
			}
		}
	}
}

// Aggregate builds the community graph. Each channel is reduced to its own
// graph and merged in, so pairs seen in several channels share one edge.
func (e *Engine) Aggregate(c Community) *Graph {
	g := NewGraph(c.ID, c.Name)
	for _, ch := range c.Channels {
		g.Merge(e.AggregateChannel(ch))
	}
	e.logger.Debug("Aggregated community graph",
		zap.String("server_id", c.ID),
		zap.String("server_name", c.Name),
		zap.Int("channels", len(c.Channels)),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
	)
	return g
}

// AggregateChannel builds the graph of a single channel
func (e *Engine) AggregateChannel(ch Channel) *Graph {
	g := NewGraph(ch.ID, ch.Name)
	var mentions []Connection
	for i, m := range ch.Messages {
		if err := ValidateAuthor(m.Author, ch.ID, i, "author"); err != nil {
			// timeline logs the same record
			continue
		}
		author, conns := e.ExtractMentions(m)
		g.AddNode(author)
		mentions = append(mentions, conns...)
	}
	for pair := range e.InferReplies(ch) {
		g.AddEdge(pair.Trigger.Author, pair.Reply.Author)
	}
	for _, conn := range mentions {
		g.AddEdge(conn.Source, conn.Target)
	}
	return g
}
