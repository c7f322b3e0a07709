package socialgraph

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	alice = Author{ID: "1", Name: "alice"}
	bob   = Author{ID: "2", Name: "bob"}
	carol = Author{ID: "3", Name: "carol"}
)

var base = time.Date(2018, 11, 11, 11, 0, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithLogger(zap.NewNop())}, opts...)...)
}

// msg builds a message offset seconds after base
func msg(a Author, offset float64, mentions ...Author) Message {
	at := base.Add(time.Duration(offset * float64(time.Second)))
	return Message{
		Author:    a,
		Server:    "srv",
		Channel:   "general",
		Timestamp: at.Format(time.RFC3339Nano),
		Content:   "hi",
		Mentions:  mentions,
	}
}

func channel(id string, msgs ...Message) Channel {
	return Channel{ID: id, Name: id, Messages: msgs}
}

func loadCommunity(t *testing.T, path string) Community {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var c Community
	require.NoError(t, json.Unmarshal(data, &c))
	return c
}

func namePairs(conns []Connection) [][2]string {
	out := make([][2]string, 0, len(conns))
	for _, c := range conns {
		out = append(out, [2]string{c.Source.Name, c.Target.Name})
	}
	return out
}
