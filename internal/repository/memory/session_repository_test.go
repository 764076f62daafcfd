package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession() *entity.Session {
	return &entity.Session{
		Id:          uuid.New(),
		Status:      constant.RunStatusRunning,
		SourceRef:   "https://example.org/grant",
		DocumentRef: "/tmp/profile.txt",
	}
}

func TestUpdateStateIsWriteOnce(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	session := newSession()
	require.NoError(t, repo.Create(ctx, session))

	text := "first"
	require.NoError(t, repo.UpdateState(ctx, session.Id, entity.RunState{PersonalText: &text}, false))

	other := "second"
	err := repo.UpdateState(ctx, session.Id, entity.RunState{PersonalText: &other}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrStateFieldOverwrite))

	// force overrides, for explicit administrative repair only.
	require.NoError(t, repo.UpdateState(ctx, session.Id, entity.RunState{PersonalText: &other}, true))

	found, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.Equal(t, other, *found.State.PersonalText)
}

func TestFindOneReturnsNilForMissing(t *testing.T) {
	repo := NewSessionRepository()

	found, err := repo.FindOne(context.Background(), specification.ByID{ID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindAllByStatus(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	running := newSession()
	require.NoError(t, repo.Create(ctx, running))

	waiting := newSession()
	waiting.Status = constant.RunStatusAwaitingInput
	require.NoError(t, repo.Create(ctx, waiting))

	done := newSession()
	done.Status = constant.RunStatusComplete
	require.NoError(t, repo.Create(ctx, done))

	found, err := repo.FindAllByStatus(ctx, constant.RunStatusRunning, constant.RunStatusResuming)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, running.Id, found[0].Id)
}

// Concurrent partial-state writes to one session must all land; the last
// reader sees every field.
func TestConcurrentStateWritesAllLand(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	session := newSession()
	require.NoError(t, repo.Create(ctx, session))

	text := "personal"
	raw := "raw"
	profile := entity.TargetProfile{Name: "Grant"}
	count := 3

	writes := []entity.RunState{
		{PersonalText: &text},
		{TargetRawText: &raw},
		{TargetProfile: &profile},
		{ChunkCount: &count},
	}

	var wg sync.WaitGroup
	for _, partial := range writes {
		wg.Add(1)
		go func(partial entity.RunState) {
			defer wg.Done()
			assert.NoError(t, repo.UpdateState(ctx, session.Id, partial, false))
		}(partial)
	}
	wg.Wait()

	found, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.NotNil(t, found.State.PersonalText)
	assert.NotNil(t, found.State.TargetRawText)
	assert.NotNil(t, found.State.TargetProfile)
	assert.NotNil(t, found.State.ChunkCount)
}

func TestReturnedSessionsAreCopies(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	session := newSession()
	require.NoError(t, repo.Create(ctx, session))

	found, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)

	// Mutating the returned value must not leak into the store.
	found.Status = constant.RunStatusFailed

	again, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.Equal(t, constant.RunStatusRunning, again.Status)
}
