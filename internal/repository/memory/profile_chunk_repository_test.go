package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ai-scholarmatch-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchIsSessionScoped(t *testing.T) {
	repo := NewProfileChunkRepository()
	ctx := context.Background()

	sessionA := uuid.New()
	sessionB := uuid.New()
	vec := []float32{1, 0}

	_, err := repo.CreateBulk(ctx, []*entity.ProfileChunk{
		{SessionId: sessionA, Document: "belongs to A", EmbeddingValue: vec},
		{SessionId: sessionB, Document: "belongs to B", EmbeddingValue: vec},
	})
	require.NoError(t, err)

	results, err := repo.SearchSimilarWithScore(ctx, sessionA, vec, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "belongs to A", results[0].Chunk.Document)
}

func TestDeleteOnlyRemovesOwnSession(t *testing.T) {
	repo := NewProfileChunkRepository()
	ctx := context.Background()

	sessionA := uuid.New()
	sessionB := uuid.New()
	vec := []float32{1, 0}

	_, err := repo.CreateBulk(ctx, []*entity.ProfileChunk{
		{SessionId: sessionA, Document: "a", EmbeddingValue: vec},
		{SessionId: sessionA, Document: "aa", EmbeddingValue: vec},
		{SessionId: sessionB, Document: "b", EmbeddingValue: vec},
	})
	require.NoError(t, err)

	deleted, err := repo.DeleteBySessionId(ctx, sessionA)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	count, err := repo.CountBySessionId(ctx, sessionB)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

// Many sessions adding and querying concurrently must never observe each
// other's chunks.
func TestConcurrentSessionsStayIsolated(t *testing.T) {
	repo := NewProfileChunkRepository()
	ctx := context.Background()

	const sessions = 20
	const chunksPerSession = 25

	ids := make([]uuid.UUID, sessions)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for i, sessionId := range ids {
		wg.Add(1)
		go func(i int, sessionId uuid.UUID) {
			defer wg.Done()
			for j := 0; j < chunksPerSession; j++ {
				_, err := repo.CreateBulk(ctx, []*entity.ProfileChunk{{
					SessionId:      sessionId,
					Document:       fmt.Sprintf("session-%d-chunk-%d", i, j),
					EmbeddingValue: []float32{1, 0},
					ChunkIndex:     j,
				}})
				assert.NoError(t, err)

				// Interleave queries with writes from other sessions.
				results, err := repo.SearchSimilarWithScore(ctx, sessionId, []float32{1, 0}, chunksPerSession)
				assert.NoError(t, err)
				for _, r := range results {
					assert.Equal(t, sessionId, r.Chunk.SessionId)
				}
			}
		}(i, sessionId)
	}
	wg.Wait()

	for _, sessionId := range ids {
		count, err := repo.CountBySessionId(ctx, sessionId)
		require.NoError(t, err)
		assert.EqualValues(t, chunksPerSession, count)
	}
}

func TestCosineSimilarityClamps(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	// Opposed vectors clamp to zero rather than going negative.
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 0}))
}
