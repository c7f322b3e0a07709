package store

import (
	"context"
	"database/sql"
	"time"

	"friendmap/backend/internal/socialgraph"
	apperrors "friendmap/backend/pkg/errors"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS servers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	scraped_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS channels (
	server_id TEXT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
	id        TEXT NOT NULL,
	name      TEXT NOT NULL,
	position  INTEGER NOT NULL,
	PRIMARY KEY (server_id, id)
);
CREATE TABLE IF NOT EXISTS members (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	last_seen TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	server_id   TEXT NOT NULL,
	channel_id  TEXT NOT NULL,
	position    INTEGER NOT NULL,
	author_id   TEXT NOT NULL,
	author_name TEXT NOT NULL,
	server      TEXT NOT NULL,
	channel     TEXT NOT NULL,
	timestamp   TEXT NOT NULL,
	content     TEXT NOT NULL,
	FOREIGN KEY (server_id, channel_id) REFERENCES channels(server_id, id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS mentions (
	message_id  INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	member_id   TEXT NOT NULL,
	member_name TEXT NOT NULL,
	PRIMARY KEY (message_id, position)
);
CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(server_id, channel_id, position);
`

// Store persists scraped communities in SQLite
type Store struct {
	conn   *sql.DB
	Path   string
	logger *zap.Logger
}

// Summary describes a stored snapshot
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ScrapedAt time.Time `json:"scraped_at"`
	Channels  int       `json:"channels"`
	Messages  int       `json:"messages"`
}

// Open opens a SQLite database with WAL mode and foreign keys enabled and
// creates the schema if needed
func Open(path string, logger *zap.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageFailed("open database", err)
	}
	// one writer; keeps the foreign_keys pragma on the connection we use
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, apperrors.NewStorageFailed(pragma, err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, apperrors.NewStorageFailed("create schema", err)
	}

	return &Store{conn: conn, Path: path, logger: logger}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// SaveCommunity replaces the stored snapshot of c.ID with c
func (s *Store) SaveCommunity(ctx context.Context, c *socialgraph.Community) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageFailed("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339)

	if _, err = tx.ExecContext(ctx, `DELETE FROM servers WHERE id = ?`, c.ID); err != nil {
		return apperrors.NewStorageFailed("delete previous snapshot", err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO servers (id, name, scraped_at) VALUES (?, ?, ?)`, c.ID, c.Name, now); err != nil {
		return apperrors.NewStorageFailed("insert server", err)
	}

	for chPos, ch := range c.Channels {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO channels (server_id, id, name, position) VALUES (?, ?, ?, ?)`,
			c.ID, ch.ID, ch.Name, chPos,
		); err != nil {
			return apperrors.NewStorageFailed("insert channel", err)
		}

		for msgPos, m := range ch.Messages {
			if err = upsertMember(ctx, tx, m.Author, now); err != nil {
				return err
			}
			var res sql.Result
			res, err = tx.ExecContext(ctx, `
				INSERT INTO messages (server_id, channel_id, position, author_id, author_name, server, channel, timestamp, content)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, ch.ID, msgPos, m.Author.ID, m.Author.Name, m.Server, m.Channel, m.Timestamp, m.Content,
			)
			if err != nil {
				return apperrors.NewStorageFailed("insert message", err)
			}
			var messageID int64
			if messageID, err = res.LastInsertId(); err != nil {
				return apperrors.NewStorageFailed("message id", err)
			}

			for mPos, mentioned := range m.Mentions {
				if err = upsertMember(ctx, tx, mentioned, now); err != nil {
					return err
				}
				if _, err = tx.ExecContext(ctx,
					`INSERT INTO mentions (message_id, position, member_id, member_name) VALUES (?, ?, ?, ?)`,
					messageID, mPos, mentioned.ID, mentioned.Name,
				); err != nil {
					return apperrors.NewStorageFailed("insert mention", err)
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewStorageFailed("commit snapshot", err)
	}

	s.logger.Info("Snapshot saved",
		zap.String("server_id", c.ID),
		zap.String("server_name", c.Name),
		zap.Int("channels", len(c.Channels)),
		zap.Int("messages", c.MessageCount()),
	)
	return nil
}

// upsertMember keeps the latest display name per member id
func upsertMember(ctx context.Context, tx *sql.Tx, a socialgraph.Author, now string) error {
	if a.ID == "" {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO members (id, name, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, last_seen = excluded.last_seen`,
		a.ID, a.Name, now,
	)
	if err != nil {
		return apperrors.NewStorageFailed("upsert member", err)
	}
	return nil
}

// LoadCommunity rebuilds a stored snapshot with channel and message order intact
func (s *Store) LoadCommunity(ctx context.Context, serverID string) (*socialgraph.Community, error) {
	c := &socialgraph.Community{ID: serverID, Channels: []socialgraph.Channel{}}
	err := s.conn.QueryRowContext(ctx, `SELECT name FROM servers WHERE id = ?`, serverID).Scan(&c.Name)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewSnapshotNotFound(serverID)
	}
	if err != nil {
		return nil, apperrors.NewStorageFailed("load server", err)
	}

	channelIndex := map[string]int{}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name FROM channels WHERE server_id = ? ORDER BY position`, serverID)
	if err != nil {
		return nil, apperrors.NewStorageFailed("load channels", err)
	}
	for rows.Next() {
		ch := socialgraph.Channel{Messages: []socialgraph.Message{}}
		if err := rows.Scan(&ch.ID, &ch.Name); err != nil {
			rows.Close()
			return nil, apperrors.NewStorageFailed("scan channel", err)
		}
		channelIndex[ch.ID] = len(c.Channels)
		c.Channels = append(c.Channels, ch)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageFailed("load channels", err)
	}

	type ref struct{ channel, message int }
	messageRefs := map[int64]ref{}
	rows, err = s.conn.QueryContext(ctx, `
		SELECT id, channel_id, author_id, author_name, server, channel, timestamp, content
		FROM messages WHERE server_id = ? ORDER BY channel_id, position`, serverID)
	if err != nil {
		return nil, apperrors.NewStorageFailed("load messages", err)
	}
	for rows.Next() {
		var (
			id        int64
			channelID string
			m         = socialgraph.Message{Mentions: []socialgraph.Author{}}
		)
		if err := rows.Scan(&id, &channelID, &m.Author.ID, &m.Author.Name, &m.Server, &m.Channel, &m.Timestamp, &m.Content); err != nil {
			rows.Close()
			return nil, apperrors.NewStorageFailed("scan message", err)
		}
		idx := channelIndex[channelID]
		messageRefs[id] = ref{channel: idx, message: len(c.Channels[idx].Messages)}
		c.Channels[idx].Messages = append(c.Channels[idx].Messages, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageFailed("load messages", err)
	}

	rows, err = s.conn.QueryContext(ctx, `
		SELECT mn.message_id, mn.member_id, mn.member_name
		FROM mentions mn JOIN messages m ON m.id = mn.message_id
		WHERE m.server_id = ? ORDER BY mn.message_id, mn.position`, serverID)
	if err != nil {
		return nil, apperrors.NewStorageFailed("load mentions", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			messageID int64
			a         socialgraph.Author
		)
		if err := rows.Scan(&messageID, &a.ID, &a.Name); err != nil {
			return nil, apperrors.NewStorageFailed("scan mention", err)
		}
		r := messageRefs[messageID]
		msg := &c.Channels[r.channel].Messages[r.message]
		msg.Mentions = append(msg.Mentions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageFailed("load mentions", err)
	}

	return c, nil
}

// ListCommunities returns one summary per stored server, most recent first
func (s *Store) ListCommunities(ctx context.Context) ([]Summary, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT s.id, s.name, s.scraped_at,
			(SELECT COUNT(*) FROM channels c WHERE c.server_id = s.id),
			(SELECT COUNT(*) FROM messages m WHERE m.server_id = s.id)
		FROM servers s ORDER BY s.scraped_at DESC, s.id`)
	if err != nil {
		return nil, apperrors.NewStorageFailed("list snapshots", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			scrapedAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &scrapedAt, &sum.Channels, &sum.Messages); err != nil {
			return nil, apperrors.NewStorageFailed("scan snapshot", err)
		}
		sum.ScrapedAt, _ = time.Parse(time.RFC3339, scrapedAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageFailed("list snapshots", err)
	}
	return out, nil
}
