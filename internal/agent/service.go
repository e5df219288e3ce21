package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avaldez/sqlquest/internal/domain"
	"github.com/avaldez/sqlquest/internal/store"
)

// OfflineReply explains that the assistant is running without a model and
// echoes the question plus whatever context would have been used.
func OfflineReply(question string, contextDocs []string) string {
	contextText := "(sem contexto)"
	if len(contextDocs) > 0 {
		contextText = strings.Join(contextDocs, "\n\n")
	}
	return "O agente IA não está configurado (GEMINI_API_KEY ausente).\n\n" +
		"Pergunta do aluno:\n" + question + "\n\n" +
		"Contexto disponível:\n" + contextText
}

// Service runs the course assistant: topic guard, knowledge retrieval and
// answer generation, persisting the conversation per user.
type Service struct {
	repo         store.Repository
	retriever    *Retriever
	llm          LLM
	topK         int
	historyLimit int
	logger       *slog.Logger
}

type ServiceConfig struct {
	TopK         int
	HistoryLimit int
}

// NewService wires the assistant. retriever and llm may both be nil, in
// which case every answer is the offline fallback.
func NewService(repo store.Repository, retriever *Retriever, llm LLM, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	return &Service{
		repo:         repo,
		retriever:    retriever,
		llm:          llm,
		topK:         cfg.TopK,
		historyLimit: cfg.HistoryLimit,
		logger:       logger,
	}
}

// Enabled reports whether a model is wired in.
func (s *Service) Enabled() bool {
	return s.llm != nil
}

// Answer runs the full pipeline for one question and returns the stored
// agent message. Both sides of the exchange are persisted even when the
// question is blocked or the model is offline.
func (s *Service) Answer(ctx context.Context, userID, question string) (domain.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ChatMessage{}, fmt.Errorf("agent: question is empty")
	}

	if err := s.append(ctx, userID, domain.RoleUser, question); err != nil {
		return domain.ChatMessage{}, err
	}

	reply, err := s.generate(ctx, userID, question)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	msg := domain.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      domain.RoleAgent,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendChatMessage(ctx, &msg); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("agent: failed to store reply: %w", err)
	}
	return msg, nil
}

func (s *Service) generate(ctx context.Context, userID, question string) (string, error) {
	if IsForbidden(question) {
		s.logger.Info("chat question blocked", "user_id", userID)
		return ForbiddenReply, nil
	}

	var contextDocs []string
	if s.retriever != nil {
		docs, err := s.retriever.Retrieve(ctx, question, s.topK)
		if err != nil {
			// Retrieval is best-effort: answer without context rather than fail.
			s.logger.Warn("knowledge retrieval failed", "error", err)
		} else {
			for _, doc := range docs {
				contextDocs = append(contextDocs, doc.Content)
			}
		}
	}

	if s.llm == nil {
		return OfflineReply(question, contextDocs), nil
	}

	turns, err := s.buildTurns(ctx, userID, question, contextDocs)
	if err != nil {
		return "", err
	}

	answer, err := s.llm.Complete(ctx, systemPrompt, turns)
	if err != nil {
		return "", fmt.Errorf("agent: completion failed: %w", err)
	}
	return answer, nil
}

// buildTurns converts prior history plus the current question into model
// turns. The current question was already persisted, so it is dropped from
// the history tail and re-added with the retrieval context attached.
func (s *Service) buildTurns(ctx context.Context, userID, question string, contextDocs []string) ([]Turn, error) {
	history, err := s.repo.GetChatHistory(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("agent: failed to load history: %w", err)
	}
	if n := len(history); n > 0 && history[n-1].Role == domain.RoleUser && history[n-1].Content == question {
		history = history[:n-1]
	}

	turns := make([]Turn, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == domain.RoleAgent {
			role = "model"
		}
		turns = append(turns, Turn{Role: role, Text: msg.Content})
	}

	prompt := question
	if len(contextDocs) > 0 {
		prompt = fmt.Sprintf("Use as informações abaixo como contexto adicional:\n%s\n\nPergunta do aluno:\n%s",
			strings.Join(contextDocs, "\n\n---\n\n"), question)
	}
	turns = append(turns, Turn{Role: "user", Text: prompt})
	return turns, nil
}

func (s *Service) append(ctx context.Context, userID, role, content string) error {
	msg := domain.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendChatMessage(ctx, &msg); err != nil {
		return fmt.Errorf("agent: failed to store message: %w", err)
	}
	return nil
}

// History returns the stored conversation, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	return s.repo.GetChatHistory(ctx, userID, s.historyLimit)
}

// Reset clears the stored conversation.
func (s *Service) Reset(ctx context.Context, userID string) error {
	return s.repo.ClearChatHistory(ctx, userID)
}
