package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/repository/contract"

	"github.com/google/uuid"
)

// ProfileChunkRepository is an in-memory chunk index with the same
// session-scoping contract as the pgvector implementation. Used by tests and
// DB-less development.
type ProfileChunkRepository struct {
	mu     sync.RWMutex
	chunks map[uuid.UUID][]*entity.ProfileChunk // keyed by session id
}

func NewProfileChunkRepository() *ProfileChunkRepository {
	return &ProfileChunkRepository{
		chunks: make(map[uuid.UUID][]*entity.ProfileChunk),
	}
}

var _ contract.ProfileChunkRepository = (*ProfileChunkRepository)(nil)

func (r *ProfileChunkRepository) CreateBulk(ctx context.Context, chunks []*entity.ProfileChunk) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range chunks {
		if c.Id == uuid.Nil {
			c.Id = uuid.New()
		}
		copied := *c
		r.chunks[c.SessionId] = append(r.chunks[c.SessionId], &copied)
	}
	return len(chunks), nil
}

func (r *ProfileChunkRepository) SearchSimilarWithScore(ctx context.Context, sessionId uuid.UUID, embedding []float32, limit int) ([]*entity.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Only the owning session's bucket is ever consulted.
	var scored []*entity.ScoredChunk
	for _, c := range r.chunks[sessionId] {
		copied := *c
		scored = append(scored, &entity.ScoredChunk{
			Chunk:      &copied,
			Similarity: cosineSimilarity(embedding, c.EmbeddingValue),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (r *ProfileChunkRepository) CountBySessionId(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.chunks[sessionId])), nil
}

func (r *ProfileChunkRepository) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := int64(len(r.chunks[sessionId]))
	delete(r.chunks, sessionId)
	return count, nil
}

// cosineSimilarity clamps to [0,1] to match the pgvector query, which
// computes 1 - cosine_distance.
func cosineSimilarity(a, b []float32) float64 {
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

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
