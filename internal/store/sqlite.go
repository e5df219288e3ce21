package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avaldez/sqlquest/internal/domain"
	"github.com/avaldez/sqlquest/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	chatMu sync.Mutex // serializes chat log writes to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS awards (
		user_id TEXT NOT NULL,
		challenge_id INTEGER NOT NULL,
		xp INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, challenge_id)
	);
	CREATE INDEX IF NOT EXISTS idx_awards_user ON awards(user_id);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_user_time ON chat_messages(user_id, created_at);

	CREATE TABLE IF NOT EXISTS knowledge_docs (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		embedding TEXT
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username,
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// AwardChallenge records a completed challenge. The (user_id, challenge_id)
// primary key plus INSERT OR IGNORE makes the award idempotent at the
// database level: repeat submissions never add XP twice.
func (s *SQLiteStore) AwardChallenge(ctx context.Context, userID string, challengeID, xp int) (bool, error) {
	query := `
	INSERT OR IGNORE INTO awards (user_id, challenge_id, xp, created_at)
	VALUES (?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query, userID, challengeID, xp, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("award challenge: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetAwards returns all awards for a user.
func (s *SQLiteStore) GetAwards(ctx context.Context, userID string) ([]domain.Award, error) {
	query := `
		SELECT user_id, challenge_id, xp, created_at
		FROM awards WHERE user_id = ? ORDER BY challenge_id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query awards: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close awards rows", "error", closeErr)
		}
	}()

	var awards []domain.Award
	for rows.Next() {
		var a domain.Award
		var createdAt int64
		if err := rows.Scan(&a.UserID, &a.ChallengeID, &a.XP, &createdAt); err != nil {
			return nil, fmt.Errorf("scan award row: %w", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0)
		awards = append(awards, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate awards: %w", err)
	}

	return awards, nil
}

// AppendChatMessage appends one message to a user's conversation log.
// Retries with exponential backoff on SQLITE_BUSY.
func (s *SQLiteStore) AppendChatMessage(ctx context.Context, msg *domain.ChatMessage) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lastErr = s.appendChatMessageOnce(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(lastErr) {
			return lastErr
		}
		if i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // 100ms, 200ms, 400ms
			slog.Debug("AppendChatMessage hit SQLITE_BUSY, retrying",
				"user_id", msg.UserID,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
		}
	}
	return fmt.Errorf("append chat message after %d attempts: %w", maxRetries, lastErr)
}

func (s *SQLiteStore) appendChatMessageOnce(ctx context.Context, msg *domain.ChatMessage) error {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	query := `
	INSERT INTO chat_messages (id, user_id, role, content, created_at)
	VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// GetChatHistory returns up to limit most recent messages in insertion
// order. Ordering uses the table rowid: timestamps have second granularity,
// so a question and its reply written in the same second would otherwise
// tie and come back in arbitrary order.
func (s *SQLiteStore) GetChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, role, content, created_at FROM (
			SELECT rowid AS seq, id, user_id, role, content, created_at
			FROM chat_messages WHERE user_id = ?
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close chat history rows", "error", closeErr)
		}
	}()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}

	return messages, nil
}

// ClearChatHistory removes a user's conversation log.
func (s *SQLiteStore) ClearChatHistory(ctx context.Context, userID string) error {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}

// UpsertKnowledgeDoc stores one knowledge base document and its embedding.
// The embedding is serialized as JSON; NULL when no engine produced one.
func (s *SQLiteStore) UpsertKnowledgeDoc(ctx context.Context, doc *domain.KnowledgeDoc) error {
	var embedding any
	if len(doc.Embedding) > 0 {
		b, err := json.Marshal(doc.Embedding)
		if err != nil {
			return fmt.Errorf("serialize embedding: %w", err)
		}
		embedding = string(b)
	}

	query := `
	INSERT INTO knowledge_docs (id, content, embedding)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		content = excluded.content,
		embedding = excluded.embedding`

	if _, err := s.db.ExecContext(ctx, query, doc.ID, doc.Content, embedding); err != nil {
		return fmt.Errorf("upsert knowledge doc: %w", err)
	}
	return nil
}

// ListKnowledgeDocs returns all knowledge base documents.
func (s *SQLiteStore) ListKnowledgeDocs(ctx context.Context) ([]domain.KnowledgeDoc, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, embedding FROM knowledge_docs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query knowledge docs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close knowledge docs rows", "error", closeErr)
		}
	}()

	var docs []domain.KnowledgeDoc
	for rows.Next() {
		var doc domain.KnowledgeDoc
		var embedding sql.NullString
		if err := rows.Scan(&doc.ID, &doc.Content, &embedding); err != nil {
			return nil, fmt.Errorf("scan knowledge doc: %w", err)
		}
		if embedding.Valid && embedding.String != "" {
			if err := json.Unmarshal([]byte(embedding.String), &doc.Embedding); err != nil {
				return nil, fmt.Errorf("deserialize embedding for %s: %w", doc.ID, err)
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge docs: %w", err)
	}

	return docs, nil
}

// CountKnowledgeDocs returns the number of stored documents.
func (s *SQLiteStore) CountKnowledgeDocs(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_docs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count knowledge docs: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
