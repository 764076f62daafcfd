package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProfileChunk is one embedded slice of the personal profile document,
// owned by exactly one session. Every index read and delete is scoped by
// SessionId.
type ProfileChunk struct {
	Id             uuid.UUID
	SessionId      uuid.UUID
	Document       string
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
}

// ScoredChunk pairs a chunk with its cosine similarity to a query, in [0,1].
type ScoredChunk struct {
	Chunk      *ProfileChunk
	Similarity float64
}
