package contract

import (
	"context"

	"ai-scholarmatch-be/internal/entity"

	"github.com/google/uuid"
)

// ProfileChunkRepository stores embedded profile chunks. The physical store
// is shared across sessions; every read and delete is mandatorily scoped by
// sessionId.
type ProfileChunkRepository interface {
	// CreateBulk stores the batch atomically: either every chunk is
	// persisted or none is.
	CreateBulk(ctx context.Context, chunks []*entity.ProfileChunk) (int, error)

	SearchSimilarWithScore(ctx context.Context, sessionId uuid.UUID, embedding []float32, limit int) ([]*entity.ScoredChunk, error)
	CountBySessionId(ctx context.Context, sessionId uuid.UUID) (int64, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) (int64, error)
}
