// FILE: internal/service/run_service_test.go
package service

import (
	"context"
	"encoding/json"
	"testing"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/dto"
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/apperror"
	"ai-scholarmatch-be/internal/repository/memory"
	"ai-scholarmatch-be/internal/repository/rediscache"
	"ai-scholarmatch-be/internal/repository/specification"
	"ai-scholarmatch-be/pkg/index"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) sessionIds(t *testing.T) []uuid.UUID {
	t.Helper()
	var ids []uuid.UUID
	for _, payload := range p.payloads {
		var msg dto.RunSessionMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		ids = append(ids, msg.SessionId)
	}
	return ids
}

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }

type serviceHarness struct {
	svc       IRunService
	sessions  *memory.SessionRepository
	chunks    *memory.ProfileChunkRepository
	publisher *recordingPublisher
}

func newServiceHarness() *serviceHarness {
	sessions := memory.NewSessionRepository()
	chunks := memory.NewProfileChunkRepository()
	uowFactory := memory.NewRepositoryFactory(sessions, chunks)
	publisher := &recordingPublisher{}

	svc := NewRunService(
		uowFactory,
		publisher,
		rediscache.NewStatusCache(nil, 0), // caching disabled
		index.NewProvider(chunks, nil),
		nil, // no NATS in unit tests
		testLogger{},
	)
	return &serviceHarness{svc: svc, sessions: sessions, chunks: chunks, publisher: publisher}
}

func (h *serviceHarness) seedSession(t *testing.T, status string, answers map[string]string) *entity.Session {
	t.Helper()
	session := &entity.Session{
		Id:          uuid.New(),
		Status:      status,
		SourceRef:   "https://example.org/grant",
		DocumentRef: "/tmp/profile.txt",
	}
	if answers != nil {
		session.State.ExternalInput = answers
	}
	require.NoError(t, h.sessions.Create(context.Background(), session))
	return session
}

func TestStartRunCreatesAndEnqueues(t *testing.T) {
	h := newServiceHarness()

	res, err := h.svc.StartRun(context.Background(), &dto.StartRunRequest{
		SourceRef:   "https://example.org/grant",
		DocumentRef: "/tmp/profile.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.RunStatusRunning, res.Status)

	stored, err := h.sessions.FindOne(context.Background(), specification.ByID{ID: res.SessionId})
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, []uuid.UUID{res.SessionId}, h.publisher.sessionIds(t))
}

func TestGetStatusUnknownSession(t *testing.T) {
	h := newServiceHarness()

	_, err := h.svc.GetStatus(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetStatusShapesByStatus(t *testing.T) {
	h := newServiceHarness()
	ctx := context.Background()

	session := h.seedSession(t, constant.RunStatusAwaitingInput, nil)
	question := "What community work have you done?"
	points := []string{"point"}
	require.NoError(t, h.sessions.UpdateState(ctx, session.Id, entity.RunState{
		Question:      &question,
		TalkingPoints: points,
	}, false))

	status, err := h.svc.GetStatus(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, question, status.Question)
	// Generation output is only exposed once the run completes.
	assert.Empty(t, status.TalkingPoints)

	require.NoError(t, h.sessions.UpdateStatus(ctx, session.Id, constant.RunStatusComplete))
	status, err = h.svc.GetStatus(ctx, session.Id)
	require.NoError(t, err)
	assert.Empty(t, status.Question)
	assert.Equal(t, points, status.TalkingPoints)
}

func TestResumeHappyPath(t *testing.T) {
	h := newServiceHarness()
	ctx := context.Background()
	session := h.seedSession(t, constant.RunStatusAwaitingInput, nil)

	answers := map[string]string{"q": "a"}
	res, err := h.svc.Resume(ctx, &dto.ResumeRunRequest{Id: session.Id, Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, constant.RunStatusResuming, res.Status)

	stored, err := h.sessions.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.Equal(t, constant.RunStatusResuming, stored.Status)
	assert.Equal(t, answers, stored.State.ExternalInput)

	assert.Equal(t, []uuid.UUID{session.Id}, h.publisher.sessionIds(t))
}

func TestResumeReplayIsIdempotent(t *testing.T) {
	h := newServiceHarness()
	ctx := context.Background()
	answers := map[string]string{"q": "a"}

	t.Run("while resuming", func(t *testing.T) {
		session := h.seedSession(t, constant.RunStatusResuming, answers)

		res, err := h.svc.Resume(ctx, &dto.ResumeRunRequest{Id: session.Id, Answers: answers})
		require.NoError(t, err)
		assert.Equal(t, constant.RunStatusResuming, res.Status)
		// A replay does not enqueue a second execution.
		assert.Empty(t, h.publisher.payloads)
	})

	t.Run("after completion", func(t *testing.T) {
		session := h.seedSession(t, constant.RunStatusComplete, answers)

		res, err := h.svc.Resume(ctx, &dto.ResumeRunRequest{Id: session.Id, Answers: answers})
		require.NoError(t, err)
		assert.Equal(t, constant.RunStatusComplete, res.Status)
		assert.Empty(t, h.publisher.payloads)
	})
}

func TestResumeRetriesAfterPartialResume(t *testing.T) {
	h := newServiceHarness()
	ctx := context.Background()
	answers := map[string]string{"q": "a"}

	// Answers persisted but the session never left awaiting_input: the
	// status flip was lost. The retry must complete the transition instead
	// of tripping the write-once merge.
	session := h.seedSession(t, constant.RunStatusAwaitingInput, answers)

	res, err := h.svc.Resume(ctx, &dto.ResumeRunRequest{Id: session.Id, Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, constant.RunStatusResuming, res.Status)

	stored, err := h.sessions.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.Equal(t, constant.RunStatusResuming, stored.Status)
	assert.Equal(t, answers, stored.State.ExternalInput)
	assert.Equal(t, []uuid.UUID{session.Id}, h.publisher.sessionIds(t))

	// Different answers still conflict with the stored input.
	_, err = h.svc.Resume(ctx, &dto.ResumeRunRequest{
		Id:      session.Id,
		Answers: map[string]string{"q": "something else"},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidSessionState))
}

func TestResumeConflictingReplayRejected(t *testing.T) {
	h := newServiceHarness()
	session := h.seedSession(t, constant.RunStatusComplete, map[string]string{"q": "a"})

	_, err := h.svc.Resume(context.Background(), &dto.ResumeRunRequest{
		Id:      session.Id,
		Answers: map[string]string{"q": "something else"},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidSessionState))
}

func TestResumeRequiresAwaitingInput(t *testing.T) {
	h := newServiceHarness()

	for _, status := range []string{constant.RunStatusRunning, constant.RunStatusFailed} {
		session := h.seedSession(t, status, nil)
		_, err := h.svc.Resume(context.Background(), &dto.ResumeRunRequest{
			Id:      session.Id,
			Answers: map[string]string{"q": "a"},
		})
		require.Error(t, err, "status %s", status)
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidSessionState))
	}
}

func TestResumeUnknownSession(t *testing.T) {
	h := newServiceHarness()

	_, err := h.svc.Resume(context.Background(), &dto.ResumeRunRequest{
		Id:      uuid.New(),
		Answers: map[string]string{"q": "a"},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCleanupRemovesSessionAndChunks(t *testing.T) {
	h := newServiceHarness()
	ctx := context.Background()
	session := h.seedSession(t, constant.RunStatusComplete, nil)

	_, err := h.chunks.CreateBulk(ctx, []*entity.ProfileChunk{
		{SessionId: session.Id, Document: "chunk", EmbeddingValue: []float32{1, 0}},
	})
	require.NoError(t, err)

	require.NoError(t, h.svc.Cleanup(ctx, session.Id))

	stored, err := h.sessions.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.Nil(t, stored)

	count, err := h.chunks.CountBySessionId(ctx, session.Id)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecoverInterruptedReEnqueuesInFlightOnly(t *testing.T) {
	h := newServiceHarness()

	running := h.seedSession(t, constant.RunStatusRunning, nil)
	resuming := h.seedSession(t, constant.RunStatusResuming, nil)
	h.seedSession(t, constant.RunStatusAwaitingInput, nil)
	h.seedSession(t, constant.RunStatusComplete, nil)
	h.seedSession(t, constant.RunStatusFailed, nil)

	recovered, err := h.svc.RecoverInterrupted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, recovered)

	ids := h.publisher.sessionIds(t)
	assert.ElementsMatch(t, []uuid.UUID{running.Id, resuming.Id}, ids)
}
