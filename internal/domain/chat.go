package domain

import "time"

// Chat message roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// ChatMessage is one entry in a learner's conversation with the agent.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// KnowledgeDoc is one entry of the course knowledge base together with its
// stored embedding vector. Embedding is empty when the document was indexed
// without an embedding engine.
type KnowledgeDoc struct {
	ID        string
	Content   string
	Embedding []float32
}

// Award records a completed challenge and the XP granted for it.
type Award struct {
	UserID      string
	ChallengeID int
	XP          int
	CreatedAt   time.Time
}
