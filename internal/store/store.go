// Package store provides data persistence interfaces and implementations for
// application state: users, challenge awards, chat history and the knowledge
// base vectors. The course dataset itself lives in a separate database.
package store

import (
	"context"
	"time"

	"github.com/avaldez/sqlquest/internal/domain"
)

// Repository defines the interface for persisting application state.
type Repository interface {
	// GetUser retrieves a user by their user ID. Returns (nil, nil) when the
	// user does not exist.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// AwardChallenge records a completed challenge for a user. Idempotent:
	// returns true only when the award was newly inserted; a repeat award for
	// the same challenge is a no-op returning false.
	AwardChallenge(ctx context.Context, userID string, challengeID, xp int) (bool, error)

	// GetAwards returns all awards for a user.
	GetAwards(ctx context.Context, userID string) ([]domain.Award, error)

	// AppendChatMessage appends one message to a user's conversation log.
	AppendChatMessage(ctx context.Context, msg *domain.ChatMessage) error

	// GetChatHistory returns up to limit most recent messages for a user, in
	// chronological order.
	GetChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error)

	// ClearChatHistory removes a user's conversation log.
	ClearChatHistory(ctx context.Context, userID string) error

	// UpsertKnowledgeDoc stores one knowledge base document and its
	// embedding.
	UpsertKnowledgeDoc(ctx context.Context, doc *domain.KnowledgeDoc) error

	// ListKnowledgeDocs returns all knowledge base documents.
	ListKnowledgeDocs(ctx context.Context) ([]domain.KnowledgeDoc, error)

	// CountKnowledgeDocs returns the number of stored documents.
	CountKnowledgeDocs(ctx context.Context) (int, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
