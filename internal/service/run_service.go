// FILE: internal/service/run_service.go
package service

import (
	"context"
	"encoding/json"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/dto"
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/apperror"
	"ai-scholarmatch-be/internal/pkg/logger"
	"ai-scholarmatch-be/internal/repository/rediscache"
	"ai-scholarmatch-be/internal/repository/specification"
	"ai-scholarmatch-be/internal/repository/unitofwork"
	"ai-scholarmatch-be/pkg/events"
	"ai-scholarmatch-be/pkg/index"
	pktNats "ai-scholarmatch-be/pkg/nats"

	"github.com/google/uuid"
)

type IRunService interface {
	StartRun(ctx context.Context, request *dto.StartRunRequest) (*dto.StartRunResponse, error)
	GetStatus(ctx context.Context, sessionId uuid.UUID) (*dto.RunStatusResponse, error)
	Resume(ctx context.Context, request *dto.ResumeRunRequest) (*dto.ResumeRunResponse, error)
	Cleanup(ctx context.Context, sessionId uuid.UUID) error
	RecoverInterrupted(ctx context.Context) (int, error)
}

type runService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	statusCache      *rediscache.StatusCache
	indexProvider    *index.Provider
	natsPub          *pktNats.Publisher
	logger           logger.ILogger
}

func NewRunService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	statusCache *rediscache.StatusCache,
	indexProvider *index.Provider,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
) IRunService {
	return &runService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		statusCache:      statusCache,
		indexProvider:    indexProvider,
		natsPub:          natsPub,
		logger:           log,
	}
}

// StartRun persists a new session in running state and enqueues its
// execution. The HTTP caller gets the session id back immediately; all
// stage work happens on the consumer.
func (s *runService) StartRun(ctx context.Context, request *dto.StartRunRequest) (*dto.StartRunResponse, error) {
	session := &entity.Session{
		Id:             uuid.New(),
		Status:         constant.RunStatusRunning,
		SourceRef:      request.SourceRef,
		DocumentRef:    request.DocumentRef,
		ApplicantEmail: request.ApplicantEmail,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.enqueue(ctx, session.Id); err != nil {
		return nil, err
	}

	s.logger.Info("run", "run started", map[string]interface{}{
		"session_id": session.Id.String(),
		"source_ref": session.SourceRef,
	})
	s.publishEvent(ctx, events.NewRunStarted(session.Id, session.SourceRef))
	return &dto.StartRunResponse{SessionId: session.Id, Status: session.Status}, nil
}

func (s *runService) GetStatus(ctx context.Context, sessionId uuid.UUID) (*dto.RunStatusResponse, error) {
	if cached, err := s.statusCache.Get(ctx, sessionId); err == nil && cached != nil {
		return cached, nil
	}

	session, err := s.findSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	status := buildStatusResponse(session)
	if err := s.statusCache.Set(ctx, status); err != nil {
		s.logger.Warn("run", "failed to cache status", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
	return status, nil
}

// Resume accepts the applicant's answers for a suspended session and
// re-enqueues execution. Replays are idempotent: resubmitting the same
// answers to a session that already moved on reports success without
// re-running anything.
func (s *runService) Resume(ctx context.Context, request *dto.ResumeRunRequest) (*dto.ResumeRunResponse, error) {
	session, err := s.findSession(ctx, request.Id)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case constant.RunStatusAwaitingInput:
		// A crash between the state write and the status flip leaves the
		// answers persisted with the session still awaiting_input. The
		// retry must not hit the write-once merge for the same answers.
		if session.State.ExternalInput != nil && !sameAnswers(session.State.ExternalInput, request.Answers) {
			return nil, apperror.InvalidSessionState(session.Status, "already resumed with different input")
		}
	case constant.RunStatusResuming, constant.RunStatusComplete:
		if sameAnswers(session.State.ExternalInput, request.Answers) {
			return &dto.ResumeRunResponse{SessionId: session.Id, Status: session.Status}, nil
		}
		return nil, apperror.InvalidSessionState(session.Status, "already resumed with different input")
	default:
		return nil, apperror.InvalidSessionState(session.Status, "resume requires awaiting_input")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if session.State.ExternalInput == nil {
		partial := entity.RunState{ExternalInput: request.Answers}
		if err := uow.SessionRepository().UpdateState(ctx, session.Id, partial, false); err != nil {
			return nil, err
		}
	}
	if err := uow.SessionRepository().UpdateStatus(ctx, session.Id, constant.RunStatusResuming); err != nil {
		return nil, err
	}

	if err := s.statusCache.Invalidate(ctx, session.Id); err != nil {
		s.logger.Warn("run", "failed to invalidate status cache", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}

	if err := s.enqueue(ctx, session.Id); err != nil {
		return nil, err
	}

	s.logger.Info("run", "run resumed", map[string]interface{}{
		"session_id": session.Id.String(),
		"answers":    len(request.Answers),
	})
	s.publishEvent(ctx, events.NewRunResumed(session.Id))
	return &dto.ResumeRunResponse{SessionId: session.Id, Status: constant.RunStatusResuming}, nil
}

// Cleanup removes a session and everything keyed by it: its indexed
// chunks, its cached status, and finally the session row.
func (s *runService) Cleanup(ctx context.Context, sessionId uuid.UUID) error {
	session, err := s.findSession(ctx, sessionId)
	if err != nil {
		return err
	}

	purged, err := s.indexProvider.ForSession(session.Id).Purge(ctx)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}

	if err := s.statusCache.Invalidate(ctx, session.Id); err != nil {
		s.logger.Warn("run", "failed to invalidate status cache", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}

	s.logger.Info("run", "session cleaned up", map[string]interface{}{
		"session_id":    session.Id.String(),
		"chunks_purged": purged,
	})
	return nil
}

// RecoverInterrupted re-enqueues every session a previous process left in a
// non-suspended, non-terminal status. Called once at startup; execution
// restarts from each session's checkpoint, so completed stages do not run
// twice. Sessions in awaiting_input need no recovery, their next step is
// an explicit resume.
func (s *runService) RecoverInterrupted(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.SessionRepository().FindAllByStatus(ctx,
		constant.RunStatusRunning, constant.RunStatusResuming)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, session := range sessions {
		if err := s.enqueue(ctx, session.Id); err != nil {
			s.logger.Error("run", "failed to re-enqueue interrupted session", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
			continue
		}
		recovered++
	}

	if recovered > 0 {
		s.logger.Info("run", "recovered interrupted sessions", map[string]interface{}{
			"count": recovered,
		})
	}
	return recovered, nil
}

func (s *runService) enqueue(ctx context.Context, sessionId uuid.UUID) error {
	payload, err := json.Marshal(dto.RunSessionMessage{SessionId: sessionId})
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, payload)
}

func (s *runService) publishEvent(ctx context.Context, event events.Event) {
	if s.natsPub == nil {
		return
	}
	if err := s.natsPub.Publish(ctx, event); err != nil {
		s.logger.Warn("run", "failed to publish lifecycle event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *runService) findSession(ctx context.Context, sessionId uuid.UUID) (*entity.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session " + sessionId.String())
	}
	return session, nil
}

func buildStatusResponse(session *entity.Session) *dto.RunStatusResponse {
	status := &dto.RunStatusResponse{
		SessionId: session.Id,
		Status:    session.Status,
		SourceRef: session.SourceRef,
		Match:     session.State.Match,
		Errors:    session.Errors,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
	if session.State.TargetProfile != nil {
		status.TargetName = session.State.TargetProfile.Name
	}
	if session.Status == constant.RunStatusAwaitingInput && session.State.Question != nil {
		status.Question = *session.State.Question
	}
	if session.Status == constant.RunStatusComplete {
		status.TalkingPoints = session.State.TalkingPoints
		status.Essay = session.State.Essay
	}
	return status
}

func sameAnswers(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for key, value := range a {
		if b[key] != value {
			return false
		}
	}
	return true
}
