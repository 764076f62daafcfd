package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/repository/specification"
	"ai-scholarmatch-be/internal/repository/unitofwork"
	"ai-scholarmatch-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.SessionRepository())
	assert.NotNil(t, uow.ProfileChunkRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	ctx := context.Background()

	t.Run("Session lifecycle round trip", func(t *testing.T) {
		session := &entity.Session{
			Id:          uuid.New(),
			Status:      constant.RunStatusRunning,
			SourceRef:   "https://example.org/scholarship",
			DocumentRef: "/tmp/profile.txt",
		}
		require.NoError(t, uow.SessionRepository().Create(ctx, session))
		defer uow.SessionRepository().Delete(ctx, session.Id)

		text := "integration test profile"
		err := uow.SessionRepository().UpdateState(ctx, session.Id,
			entity.RunState{PersonalText: &text}, false)
		require.NoError(t, err)

		// Write-once: a second write to the same field must be rejected.
		err = uow.SessionRepository().UpdateState(ctx, session.Id,
			entity.RunState{PersonalText: &text}, false)
		assert.Error(t, err)

		require.NoError(t, uow.SessionRepository().UpdateStatus(ctx, session.Id, constant.RunStatusAwaitingInput))

		found, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, constant.RunStatusAwaitingInput, found.Status)
		require.NotNil(t, found.State.PersonalText)
		assert.Equal(t, text, *found.State.PersonalText)
	})

	t.Run("Error append is durable", func(t *testing.T) {
		session := &entity.Session{
			Id:          uuid.New(),
			Status:      constant.RunStatusRunning,
			SourceRef:   "https://example.org/scholarship",
			DocumentRef: "/tmp/profile.txt",
		}
		require.NoError(t, uow.SessionRepository().Create(ctx, session))
		defer uow.SessionRepository().Delete(ctx, session.Id)

		runErr := entity.RunError{
			Stage:      constant.StageIngestTarget,
			Message:    "fetch failed with 503",
			OccurredAt: time.Now(),
		}
		require.NoError(t, uow.SessionRepository().AppendError(ctx, session.Id, runErr))

		found, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
		require.NoError(t, err)
		require.Len(t, found.Errors, 1)
		assert.Equal(t, constant.StageIngestTarget, found.Errors[0].Stage)
	})

	t.Run("Chunk store is session scoped", func(t *testing.T) {
		sessionA := uuid.New()
		sessionB := uuid.New()

		embedding := make([]float32, 768)
		embedding[0] = 1

		chunks := []*entity.ProfileChunk{
			{Id: uuid.New(), SessionId: sessionA, Document: "chunk for A", EmbeddingValue: embedding, ChunkIndex: 0},
			{Id: uuid.New(), SessionId: sessionB, Document: "chunk for B", EmbeddingValue: embedding, ChunkIndex: 0},
		}
		created, err := uow.ProfileChunkRepository().CreateBulk(ctx, chunks)
		require.NoError(t, err)
		assert.Equal(t, 2, created)
		defer uow.ProfileChunkRepository().DeleteBySessionId(ctx, sessionA)
		defer uow.ProfileChunkRepository().DeleteBySessionId(ctx, sessionB)

		results, err := uow.ProfileChunkRepository().SearchSimilarWithScore(ctx, sessionA, embedding, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "chunk for A", results[0].Chunk.Document)
	})
}
