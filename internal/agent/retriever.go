package agent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/avaldez/sqlquest/internal/domain"
	"github.com/avaldez/sqlquest/internal/store"
)

// Retriever finds the knowledge documents most similar to a question.
type Retriever struct {
	repo     store.Repository
	embedder Embedder
	logger   *slog.Logger
}

func NewRetriever(repo store.Repository, embedder Embedder, logger *slog.Logger) *Retriever {
	return &Retriever{repo: repo, embedder: embedder, logger: logger}
}

// EnsureSeeded embeds and stores the knowledge base documents that are not
// persisted yet. Already-stored documents keep their embeddings.
func (r *Retriever) EnsureSeeded(ctx context.Context) error {
	count, err := r.repo.CountKnowledgeDocs(ctx)
	if err != nil {
		return fmt.Errorf("retriever: failed to count knowledge docs: %w", err)
	}

	docs := defaultKnowledgeBase()
	if count >= len(docs) {
		return nil
	}

	for _, doc := range docs {
		vec, err := r.embedder.Embed(ctx, doc.Content, TaskDocument)
		if err != nil {
			return fmt.Errorf("retriever: failed to embed doc %q: %w", doc.ID, err)
		}
		doc.Embedding = vec
		if err := r.repo.UpsertKnowledgeDoc(ctx, &doc); err != nil {
			return fmt.Errorf("retriever: failed to store doc %q: %w", doc.ID, err)
		}
	}

	r.logger.Info("knowledge base seeded", "docs", len(docs))
	return nil
}

// Retrieve returns the topK documents ranked by cosine similarity to the
// question. Documents without an embedding are skipped.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]domain.KnowledgeDoc, error) {
	queryVec, err := r.embedder.Embed(ctx, question, TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("retriever: failed to embed question: %w", err)
	}

	docs, err := r.repo.ListKnowledgeDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("retriever: failed to list knowledge docs: %w", err)
	}

	type scored struct {
		doc   domain.KnowledgeDoc
		score float64
	}
	ranked := make([]scored, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		ranked = append(ranked, scored{doc: doc, score: CosineSimilarity(queryVec, doc.Embedding)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}
	out := make([]domain.KnowledgeDoc, 0, topK)
	for _, s := range ranked[:topK] {
		out = append(out, s.doc)
	}
	return out, nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
