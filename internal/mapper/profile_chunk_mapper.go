package mapper

import (
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ProfileChunkMapper struct{}

func NewProfileChunkMapper() *ProfileChunkMapper {
	return &ProfileChunkMapper{}
}

func (m *ProfileChunkMapper) ToEntity(c *model.ProfileChunk) *entity.ProfileChunk {
	if c == nil {
		return nil
	}

	return &entity.ProfileChunk{
		Id:             c.Id,
		SessionId:      c.SessionId,
		Document:       c.Document,
		EmbeddingValue: c.EmbeddingValue.Slice(),
		ChunkIndex:     c.ChunkIndex,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *ProfileChunkMapper) ToModel(c *entity.ProfileChunk) *model.ProfileChunk {
	if c == nil {
		return nil
	}

	return &model.ProfileChunk{
		Id:             c.Id,
		SessionId:      c.SessionId,
		Document:       c.Document,
		EmbeddingValue: pgvector.NewVector(c.EmbeddingValue),
		ChunkIndex:     c.ChunkIndex,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *ProfileChunkMapper) ToModels(chunks []*entity.ProfileChunk) []*model.ProfileChunk {
	models := make([]*model.ProfileChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
