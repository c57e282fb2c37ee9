// Package cache keeps a local sqlite copy of fetched message threads so a
// conversation can still be opened when the backend is unreachable. The
// cache is strictly a fallback: fresh fetches always overwrite it, with
// one exception, a row marked deleted by moderation is never reverted to
// its original body.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ismaelvargas20/motochat/internal/models"
)

const defaultBusyTimeoutMs = 5000

// Store is a per-client message cache backed by sqlite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database at path.
func Open(path string, busyTimeoutMs int) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache path required")
	}
	if busyTimeoutMs <= 0 {
		busyTimeoutMs = defaultBusyTimeoutMs
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path, busyTimeoutMs)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open message cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to message cache: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TEXT NOT NULL,
			deleted INTEGER NOT NULL DEFAULT 0,
			read_by TEXT,
			cached_at TEXT NOT NULL,
			PRIMARY KEY (conversation_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS messages_thread_idx ON messages(conversation_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize cache schema: %w", err)
		}
	}
	return nil
}

// SaveThread upserts a fetched thread. A cached row already marked deleted
// keeps its placeholder state even when the incoming copy is stale and
// still carries the original body.
func (s *Store) SaveThread(ctx context.Context, conversationID string, messages []models.Message) error {
	if s == nil || s.db == nil {
		return errors.New("message cache unavailable")
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return errors.New("conversation id required")
	}
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, body, created_at, deleted, read_by, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, id) DO UPDATE SET
			sender_id = excluded.sender_id,
			body = CASE WHEN messages.deleted = 1 THEN messages.body ELSE excluded.body END,
			created_at = excluded.created_at,
			deleted = MAX(messages.deleted, excluded.deleted),
			read_by = excluded.read_by,
			cached_at = excluded.cached_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache upsert: %w", err)
	}
	defer stmt.Close()

	cachedAt := time.Now().UTC().Format(time.RFC3339Nano)
	for _, msg := range messages {
		if strings.TrimSpace(msg.ID) == "" || msg.Pending {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			msg.ID,
			conversationID,
			msg.SenderID,
			msg.Body,
			msg.Timestamp.UTC().Format(time.RFC3339Nano),
			boolToInt(msg.Deleted()),
			strings.Join(msg.ReadBy, ","),
			cachedAt,
		); err != nil {
			return fmt.Errorf("failed to cache message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache transaction: %w", err)
	}
	return nil
}

// Thread returns the cached messages of a conversation in chronological
// order. An unknown conversation yields an empty slice, not an error.
func (s *Store) Thread(ctx context.Context, conversationID string) ([]models.Message, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("message cache unavailable")
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, errors.New("conversation id required")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, body, created_at, deleted, read_by
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached thread: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			id         string
			senderID   string
			body       string
			createdRaw string
			deleted    int
			readRaw    sql.NullString
		)
		if err := rows.Scan(&id, &senderID, &body, &createdRaw, &deleted, &readRaw); err != nil {
			return nil, fmt.Errorf("failed to scan cached message: %w", err)
		}

		msg := models.Message{
			ID:             id,
			ConversationID: conversationID,
			SenderID:       senderID,
			Body:           body,
			Timestamp:      parseCacheTime(createdRaw),
			Moderation:     models.ModerationStateActive,
			ReadBy:         splitReadBy(readRaw),
		}
		if deleted == 1 {
			msg.Moderation = models.ModerationStateDeleted
			msg.Body = ""
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cached thread query error: %w", err)
	}
	return messages, nil
}

// MarkDeleted flags a cached message as removed by moderation and drops
// its body. Unknown ids are a no-op.
func (s *Store) MarkDeleted(ctx context.Context, conversationID, messageID string) error {
	if s == nil || s.db == nil {
		return errors.New("message cache unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE messages SET deleted = 1, body = ''
		WHERE conversation_id = ? AND id = ?
	`, conversationID, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark cached message deleted: %w", err)
	}
	return nil
}

// Prune drops cached rows older than the retention cutoff.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) error {
	if s == nil || s.db == nil {
		return errors.New("message cache unavailable")
	}
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE cached_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune message cache: %w", err)
	}
	return nil
}

func parseCacheTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func splitReadBy(value sql.NullString) []string {
	if !value.Valid || strings.TrimSpace(value.String) == "" {
		return nil
	}
	parts := strings.Split(value.String, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
