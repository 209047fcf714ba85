package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"makeChannel/internal/domain"
)

const defaultRecentLimit = 50

// AuditStore guarda los efectos que aplicó el bot. Es solo de escritura para
// el bot: ninguna decisión se toma leyendo esta tabla.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(dbPath string) (*AuditStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &AuditStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	guild_id TEXT,
	channel_id TEXT,
	user_id TEXT,
	detail TEXT,
	metadata TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at DESC);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: migrate audit_events: %w", err)
	}
	return nil
}

func (s *AuditStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *AuditStore) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if entry == nil {
		return fmt.Errorf("sqlite: audit entry nil")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const stmt = `
INSERT INTO audit_events (kind, guild_id, channel_id, user_id, detail, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?);
`

	res, err := s.db.ExecContext(
		ctx,
		stmt,
		string(entry.Kind),
		entry.GuildID,
		entry.ChannelID,
		entry.UserID,
		entry.Detail,
		encodeMetadata(entry.Metadata),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: record audit: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// Recent devuelve las últimas entradas, la más nueva primero.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	const query = `
SELECT id, kind, guild_id, channel_id, user_id, detail, metadata, created_at
FROM audit_events
ORDER BY created_at DESC, id DESC
LIMIT ?;
`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list audit: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditEntry
	for rows.Next() {
		var (
			record                     domain.AuditEntry
			kind                       string
			guildID, channelID, userID sql.NullString
			detail, metadata           sql.NullString
			createdAt                  sql.NullTime
		)

		if err := rows.Scan(
			&record.ID,
			&kind,
			&guildID,
			&channelID,
			&userID,
			&detail,
			&metadata,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan audit: %w", err)
		}

		record.Kind = domain.AuditKind(kind)
		record.GuildID = guildID.String
		record.ChannelID = channelID.String
		record.UserID = userID.String
		record.Detail = detail.String
		record.Metadata = decodeMetadata(metadata.String)
		record.CreatedAt = createdAt.Time

		out = append(out, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list audit rows: %w", err)
	}

	return out, nil
}

func encodeMetadata(data map[string]string) interface{} {
	if len(data) == 0 {
		return nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return string(encoded)
}

func decodeMetadata(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil
	}
	return metadata
}

var _ domain.AuditRepository = (*AuditStore)(nil)
