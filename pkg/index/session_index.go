// Package index exposes the similarity index through session-scoped
// handles. The underlying chunk store is shared by all sessions; an
// unscoped query is not expressible through this API.
package index

import (
	"context"
	"time"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/apperror"
	"ai-scholarmatch-be/internal/repository/contract"
	"ai-scholarmatch-be/pkg/embedding"

	"github.com/google/uuid"
)

const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

// Provider mints session handles over the shared store.
type Provider struct {
	repo     contract.ProfileChunkRepository
	embedder embedding.EmbeddingProvider
}

func NewProvider(repo contract.ProfileChunkRepository, embedder embedding.EmbeddingProvider) *Provider {
	return &Provider{
		repo:     repo,
		embedder: embedder,
	}
}

func (p *Provider) ForSession(sessionId uuid.UUID) *SessionIndex {
	return &SessionIndex{
		sessionId: sessionId,
		repo:      p.repo,
		embedder:  p.embedder,
	}
}

// SessionIndex is a handle bound to one session. Every operation carries the
// session id down to the store.
type SessionIndex struct {
	sessionId uuid.UUID
	repo      contract.ProfileChunkRepository
	embedder  embedding.EmbeddingProvider
}

func (x *SessionIndex) SessionId() uuid.UUID {
	return x.sessionId
}

// Add embeds and stores the given texts. All texts are embedded before
// anything is written, and the store insert is a single atomic batch, so a
// failure anywhere stores nothing.
func (x *SessionIndex) Add(ctx context.Context, texts []string) (int, error) {
	chunks := make([]*entity.ProfileChunk, 0, len(texts))
	for i, text := range texts {
		res, err := x.embedder.Generate(ctx, text, taskTypeDocument)
		if err != nil {
			return 0, apperror.Index("embed_chunk", err)
		}
		chunks = append(chunks, &entity.ProfileChunk{
			Id:             uuid.New(),
			SessionId:      x.sessionId,
			Document:       text,
			EmbeddingValue: res.Embedding.Values,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	count, err := x.repo.CreateBulk(ctx, chunks)
	if err != nil {
		return 0, apperror.Index("store_chunks", err)
	}
	return count, nil
}

// Query embeds the query text and returns the top k chunks of this session,
// ranked by similarity in [0,1].
func (x *SessionIndex) Query(ctx context.Context, queryText string, k int) ([]*entity.ScoredChunk, error) {
	res, err := x.embedder.Generate(ctx, queryText, taskTypeQuery)
	if err != nil {
		return nil, apperror.Index("embed_query", err)
	}

	scored, err := x.repo.SearchSimilarWithScore(ctx, x.sessionId, res.Embedding.Values, k)
	if err != nil {
		return nil, apperror.Index("search_chunks", err)
	}
	return scored, nil
}

func (x *SessionIndex) Count(ctx context.Context) (int64, error) {
	return x.repo.CountBySessionId(ctx, x.sessionId)
}

// Purge removes every chunk this session owns. Cleanup is an explicit
// operation, not garbage collection.
func (x *SessionIndex) Purge(ctx context.Context) (int64, error) {
	count, err := x.repo.DeleteBySessionId(ctx, x.sessionId)
	if err != nil {
		return 0, apperror.Index("delete_chunks", err)
	}
	return count, nil
}
