package implementation

import (
	"context"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/mapper"
	"ai-scholarmatch-be/internal/model"
	"ai-scholarmatch-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ProfileChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProfileChunkMapper
}

func NewProfileChunkRepository(db *gorm.DB) contract.ProfileChunkRepository {
	return &ProfileChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewProfileChunkMapper(),
	}
}

// CreateBulk inserts the whole batch in a single statement, so a failure
// stores nothing.
func (r *ProfileChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.ProfileChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return 0, err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return len(models), nil
}

// SearchSimilarWithScore returns chunks ranked by cosine similarity.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector). The session_id predicate is the
// isolation invariant: a chunk from another session is never returned, no
// matter how similar.
func (r *ProfileChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, sessionId uuid.UUID, embedding []float32, limit int) ([]*entity.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.ProfileChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("profile_chunks").
		Select("profile_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("session_id = ?", sessionId).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredChunk{
			Chunk:      r.mapper.ToEntity(&res.ProfileChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *ProfileChunkRepositoryImpl) CountBySessionId(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ProfileChunk{}).
		Where("session_id = ?", sessionId).
		Count(&count).Error
	return count, err
}

func (r *ProfileChunkRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Delete(&model.ProfileChunk{})
	return res.RowsAffected, res.Error
}
