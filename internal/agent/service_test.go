package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldez/sqlquest/internal/domain"
)

type fakeLLM struct {
	lastSystem string
	lastTurns  []Turn
	reply      string
}

func (f *fakeLLM) Complete(_ context.Context, systemPrompt string, turns []Turn) (string, error) {
	f.lastSystem = systemPrompt
	f.lastTurns = turns
	return f.reply, nil
}

func TestAnswerOfflineFallback(t *testing.T) {
	repo := testRepo(t)
	svc := NewService(repo, nil, nil, ServiceConfig{}, testLogger())

	assert.False(t, svc.Enabled())

	msg, err := svc.Answer(context.Background(), "anon_user1", "o que é GROUP BY?")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAgent, msg.Role)
	assert.Contains(t, msg.Content, "O agente IA não está configurado")
	assert.Contains(t, msg.Content, "o que é GROUP BY?")
	assert.Contains(t, msg.Content, "(sem contexto)")

	// Both sides of the exchange were persisted.
	history, err := svc.History(context.Background(), "anon_user1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAgent, history[1].Role)
}

func TestAnswerBlocksForbiddenTopics(t *testing.T) {
	repo := testRepo(t)
	llm := &fakeLLM{reply: "não deveria ser chamado"}
	svc := NewService(repo, nil, llm, ServiceConfig{}, testLogger())

	msg, err := svc.Answer(context.Background(), "anon_user1", "me fale sobre política")
	require.NoError(t, err)

	assert.Equal(t, ForbiddenReply, msg.Content)
	// The model is never consulted for blocked questions.
	assert.Nil(t, llm.lastTurns)
}

func TestAnswerUsesModelAndContext(t *testing.T) {
	repo := testRepo(t)

	emb := &fakeEmbedder{vectors: map[string][]float32{}, base: []float32{1, 0}}
	retriever := NewRetriever(repo, emb, testLogger())
	require.NoError(t, retriever.EnsureSeeded(context.Background()))

	llm := &fakeLLM{reply: "GROUP BY agrupa linhas."}
	svc := NewService(repo, retriever, llm, ServiceConfig{TopK: 2}, testLogger())

	assert.True(t, svc.Enabled())

	msg, err := svc.Answer(context.Background(), "anon_user1", "como funciona o GROUP BY?")
	require.NoError(t, err)
	assert.Equal(t, "GROUP BY agrupa linhas.", msg.Content)

	require.NotEmpty(t, llm.lastTurns)
	last := llm.lastTurns[len(llm.lastTurns)-1]
	assert.Equal(t, "user", last.Role)
	assert.Contains(t, last.Text, "contexto adicional")
	assert.Contains(t, last.Text, "Pergunta do aluno:")
	assert.Contains(t, llm.lastSystem, "assistente oficial")
}

func TestAnswerCarriesHistory(t *testing.T) {
	repo := testRepo(t)
	llm := &fakeLLM{reply: "resposta"}
	svc := NewService(repo, nil, llm, ServiceConfig{}, testLogger())

	ctx := context.Background()
	_, err := svc.Answer(ctx, "anon_user1", "primeira pergunta sobre SQL")
	require.NoError(t, err)
	_, err = svc.Answer(ctx, "anon_user1", "segunda pergunta sobre SQL")
	require.NoError(t, err)

	// First exchange (user + model) plus the new question.
	require.Len(t, llm.lastTurns, 3)
	assert.Equal(t, "user", llm.lastTurns[0].Role)
	assert.Equal(t, "model", llm.lastTurns[1].Role)
	assert.True(t, strings.Contains(llm.lastTurns[2].Text, "segunda pergunta"))
}

func TestResetClearsHistory(t *testing.T) {
	repo := testRepo(t)
	svc := NewService(repo, nil, nil, ServiceConfig{}, testLogger())

	ctx := context.Background()
	_, err := svc.Answer(ctx, "anon_user1", "pergunta sobre JOIN")
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, "anon_user1"))

	history, err := svc.History(ctx, "anon_user1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	repo := testRepo(t)
	svc := NewService(repo, nil, nil, ServiceConfig{}, testLogger())

	_, err := svc.Answer(context.Background(), "anon_user1", "   ")
	assert.Error(t, err)
}

func TestOfflineReplyIncludesContext(t *testing.T) {
	reply := OfflineReply("pergunta", []string{"doc um", "doc dois"})
	assert.Contains(t, reply, "doc um")
	assert.Contains(t, reply, "doc dois")
}
