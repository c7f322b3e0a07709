package socialgraph

import "time"

// Author identifies a chat participant. ID is the graph key, Name is a label.
type Author struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Message is one chat message as delivered by the message source
type Message struct {
	Author    Author   `json:"author"`
	Server    string   `json:"server"`
	Channel   string   `json:"channel"`
	Timestamp string   `json:"timestamp"`
	Content   string   `json:"content"`
	Mentions  []Author `json:"mentions"`
}

// Channel is an ordered message sequence. Order is the scan order.
type Channel struct {
	Name     string    `json:"name"`
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}

// Community is a server: the unit of graph construction
type Community struct {
	Name     string    `json:"name"`
	ID       string    `json:"id"`
	Channels []Channel `json:"channels"`
}

// MessageCount returns the number of messages across all channels
func (c *Community) MessageCount() int {
	n := 0
	for _, ch := range c.Channels {
		n += len(ch.Messages)
	}
	return n
}

// ConnectionKind tells which heuristic produced a connection
type ConnectionKind string

const (
	ConnectionReply   ConnectionKind = "reply"
	ConnectionMention ConnectionKind = "mention"
)

// Connection is one directed interaction occurrence, before aggregation
type Connection struct {
	Source Author         `json:"source"`
	Target Author         `json:"target"`
	Kind   ConnectionKind `json:"kind"`
}

// ReplyPair is an inferred reply: Reply's author answered Trigger's author
type ReplyPair struct {
	Trigger Message
	Reply   Message
	Elapsed time.Duration
}

// Connection reduces the pair to author identities
func (p ReplyPair) Connection() Connection {
	return Connection{Source: p.Trigger.Author, Target: p.Reply.Author, Kind: ConnectionReply}
}
