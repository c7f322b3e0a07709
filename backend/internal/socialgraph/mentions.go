package socialgraph

import (
	"fmt"

	"go.uber.org/zap"
)

// ExtractMentions returns the message author, which must always become a
// graph node, and one mention connection per valid entry in m.Mentions.
// Mentions missing an id or name are skipped and logged.
func (e *Engine) ExtractMentions(m Message) (Author, []Connection) {
	if len(m.Mentions) == 0 {
		return m.Author, nil
	}
	out := make([]Connection, 0, len(m.Mentions))
	for i, mentioned := range m.Mentions {
		if err := ValidateAuthor(mentioned, m.Channel, i, fmt.Sprintf("mentions[%d]", i)); err != nil {
			e.logger.Warn("Skipping mention",
				zap.String("channel", m.Channel),
				zap.String("author_id", m.Author.ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, Connection{Source: m.Author, Target: mentioned, Kind: ConnectionMention})
	}
	return m.Author, out
}
