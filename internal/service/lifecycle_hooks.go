// FILE: internal/service/lifecycle_hooks.go
package service

import (
	"context"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/logger"
	"ai-scholarmatch-be/internal/pkg/mailer"
	"ai-scholarmatch-be/internal/repository/rediscache"
	"ai-scholarmatch-be/pkg/events"
	pktNats "ai-scholarmatch-be/pkg/nats"
	"ai-scholarmatch-be/pkg/workflow"
)

// lifecycleHooks fans workflow transitions out to the event bus, the
// applicant's inbox, and the status cache. Every sink is best effort: by
// the time a hook fires the state transition is already durable, and a
// notification failure must never fail the run.
type lifecycleHooks struct {
	natsPub      *pktNats.Publisher
	emailService mailer.IEmailService
	statusCache  *rediscache.StatusCache
	logger       logger.ILogger
}

func NewLifecycleHooks(
	natsPub *pktNats.Publisher,
	emailService mailer.IEmailService,
	statusCache *rediscache.StatusCache,
	log logger.ILogger,
) workflow.Hooks {
	return &lifecycleHooks{
		natsPub:      natsPub,
		emailService: emailService,
		statusCache:  statusCache,
		logger:       log,
	}
}

func (h *lifecycleHooks) RunSuspended(ctx context.Context, session *entity.Session, question string) {
	h.invalidate(ctx, session)
	h.publish(ctx, events.NewRunAwaitingInput(session.Id, session.State.Match.Gaps))

	if session.ApplicantEmail != "" {
		if err := h.emailService.SendGapQuestion(session.ApplicantEmail, session.Id.String(), question); err != nil {
			h.logger.Warn("hooks", "failed to send gap question email", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		}
	}
}

func (h *lifecycleHooks) RunCompleted(ctx context.Context, session *entity.Session) {
	h.invalidate(ctx, session)
	h.publish(ctx, events.NewRunComplete(session.Id, session.State.Match.MatchScore))

	if session.ApplicantEmail != "" {
		if err := h.emailService.SendRunComplete(session.ApplicantEmail, session.Id.String()); err != nil {
			h.logger.Warn("hooks", "failed to send completion email", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		}
	}
}

func (h *lifecycleHooks) RunFailed(ctx context.Context, session *entity.Session, cause error) {
	h.invalidate(ctx, session)
	h.publish(ctx, events.NewRunFailed(session.Id, cause.Error()))
}

func (h *lifecycleHooks) publish(ctx context.Context, event events.Event) {
	if h.natsPub == nil {
		return
	}
	if err := h.natsPub.Publish(ctx, event); err != nil {
		h.logger.Warn("hooks", "failed to publish lifecycle event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func (h *lifecycleHooks) invalidate(ctx context.Context, session *entity.Session) {
	if err := h.statusCache.Invalidate(ctx, session.Id); err != nil {
		h.logger.Warn("hooks", "failed to invalidate status cache", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
}
