// Package workflow implements the fixed-topology stage scheduler: parallel
// ingestion fan-out joined into derivation and scoring, one conditional
// interrupt with a durable checkpoint, and generation after direct pass or
// resume. The topology is small and fixed, so the phases are a hardcoded
// sequence rather than a graph interpreter.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/apperror"
	"ai-scholarmatch-be/internal/pkg/logger"
	"ai-scholarmatch-be/internal/repository/specification"
	"ai-scholarmatch-be/internal/repository/unitofwork"
	"ai-scholarmatch-be/pkg/index"
	"ai-scholarmatch-be/pkg/match"
	"ai-scholarmatch-be/pkg/stage"

	"github.com/google/uuid"
)

// Hooks receives lifecycle notifications after the corresponding state is
// durable. Implementations must not block the engine for long.
type Hooks interface {
	RunSuspended(ctx context.Context, session *entity.Session, question string)
	RunCompleted(ctx context.Context, session *entity.Session)
	RunFailed(ctx context.Context, session *entity.Session, cause error)
}

type Config struct {
	// GenerationRetries is the number of extra attempts for the idempotent
	// generation stages after the first failure.
	GenerationRetries int
}

type Engine struct {
	uowFactory unitofwork.RepositoryFactory
	invoker    *stage.Invoker
	matcher    *match.Engine
	indexes    *index.Provider
	hooks      Hooks
	logger     logger.ILogger
	cfg        Config
}

func NewEngine(
	uowFactory unitofwork.RepositoryFactory,
	invoker *stage.Invoker,
	matcher *match.Engine,
	indexes *index.Provider,
	hooks Hooks,
	log logger.ILogger,
	cfg Config,
) *Engine {
	return &Engine{
		uowFactory: uowFactory,
		invoker:    invoker,
		matcher:    matcher,
		indexes:    indexes,
		hooks:      hooks,
		logger:     log,
		cfg:        cfg,
	}
}

// Execute drives a session forward from its persisted checkpoint. It is
// safe to call again after a crash: each phase is skipped when its state
// fields are already checkpointed. Sessions in any status other than
// running or resuming are left untouched (redelivered messages).
func (e *Engine) Execute(ctx context.Context, sessionId uuid.UUID) error {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return apperror.NotFound("session " + sessionId.String())
	}

	if session.Status != constant.RunStatusRunning && session.Status != constant.RunStatusResuming {
		e.logger.Debug("workflow", "skipping execution for settled session", map[string]interface{}{
			"session_id": sessionId.String(),
			"status":     session.Status,
		})
		return nil
	}

	if err := e.runForward(ctx, session); err != nil {
		e.fail(ctx, session, err)
		return err
	}
	return nil
}

// runForward walks the phase sequence. A nil return means the session
// either completed or intentionally suspended in awaiting_input.
func (e *Engine) runForward(ctx context.Context, session *entity.Session) error {
	idx := e.indexes.ForSession(session.Id)

	if err := e.ensureIngested(ctx, session, idx); err != nil {
		return err
	}
	if err := e.ensureDerived(ctx, session); err != nil {
		return err
	}
	if err := e.ensureScored(ctx, session, idx); err != nil {
		return err
	}

	// Conditional branch: suspend when the score demands external input
	// and none has arrived yet.
	if session.State.Match.Interrupt && session.State.ExternalInput == nil {
		return e.suspend(ctx, session)
	}

	if err := e.ensureGenerated(ctx, session); err != nil {
		return err
	}
	return e.complete(ctx, session)
}

type ingestTargetResult struct {
	out *stage.IngestTargetOutput
	err error
}

type ingestDocumentResult struct {
	out *stage.IngestDocumentOutput
	err error
}

// ensureIngested runs the two ingestion stages concurrently and joins on
// both. The join is both-or-fail: a failure on either side fails the run
// with no partial downstream execution. Outputs are checkpointed in one
// state write after the join.
func (e *Engine) ensureIngested(ctx context.Context, session *entity.Session, idx *index.SessionIndex) error {
	needTarget := session.State.TargetProfile == nil
	needDocument := session.State.PersonalText == nil
	if !needTarget && !needDocument {
		return nil
	}

	var targetCh chan ingestTargetResult
	var documentCh chan ingestDocumentResult

	if needTarget {
		targetCh = make(chan ingestTargetResult, 1)
		go func() {
			out, err := e.invoker.IngestTarget(ctx, stage.IngestTargetInput{SourceRef: session.SourceRef})
			targetCh <- ingestTargetResult{out: out, err: err}
		}()
	}

	if needDocument {
		documentCh = make(chan ingestDocumentResult, 1)
		go func() {
			// A previous attempt may have indexed chunks before crashing
			// ahead of the checkpoint; purge so re-ingestion cannot
			// duplicate them.
			if _, err := idx.Purge(ctx); err != nil {
				documentCh <- ingestDocumentResult{err: err}
				return
			}
			out, err := e.invoker.IngestDocument(ctx, stage.IngestDocumentInput{
				DocumentRef: session.DocumentRef,
				Index:       idx,
			})
			documentCh <- ingestDocumentResult{out: out, err: err}
		}()
	}

	// Join barrier: wait for every launched stage, then evaluate.
	var partial entity.RunState
	var firstErr error

	if targetCh != nil {
		res := <-targetCh
		if res.err != nil {
			e.recordError(ctx, session.Id, constant.StageIngestTarget, res.err, "source_ref="+session.SourceRef)
			firstErr = res.err
		} else {
			profile := res.out.Profile
			rawText := res.out.RawText
			partial.TargetProfile = &profile
			partial.TargetRawText = &rawText
		}
	}

	if documentCh != nil {
		res := <-documentCh
		if res.err != nil {
			e.recordError(ctx, session.Id, constant.StageIngestDocument, res.err, "document_ref="+session.DocumentRef)
			if firstErr == nil {
				firstErr = res.err
			}
		} else {
			text := res.out.ExtractedText
			count := res.out.ChunkCount
			partial.PersonalText = &text
			partial.ChunkCount = &count
		}
	}

	if firstErr != nil {
		return firstErr
	}

	if err := e.checkpoint(ctx, session, partial); err != nil {
		return err
	}

	e.logger.Info("workflow", "ingestion join complete", map[string]interface{}{
		"session_id": session.Id.String(),
		"chunks":     session.State.ChunkCount,
	})
	return nil
}

// ensureDerived runs the criteria derivation stage against the target
// ingestion output and validates the weight set before anything downstream
// can observe it. Tone and gap prompt are degradable; criteria are not.
func (e *Engine) ensureDerived(ctx context.Context, session *entity.Session) error {
	if session.State.Criteria != nil {
		return nil
	}

	out, err := e.invoker.Derive(ctx, stage.DeriveInput{CombinedText: *session.State.TargetRawText})
	if err != nil {
		e.recordError(ctx, session.Id, constant.StageDerive, err, summarize(*session.State.TargetRawText))
		return err
	}

	if err := match.ValidateWeights(out.Criteria); err != nil {
		e.recordError(ctx, session.Id, constant.StageDerive, err, fmt.Sprintf("criteria_count=%d", len(out.Criteria)))
		return err
	}

	tone := out.Tone
	if tone == "" {
		tone = constant.DefaultTone
		e.recordError(ctx, session.Id, constant.StageDerive,
			apperror.Collaborator(constant.StageDerive, errors.New("missing tone, using default")), "")
	}
	gapPrompt := out.GapPrompt
	if gapPrompt == "" {
		gapPrompt = constant.DefaultGapPrompt
	}

	return e.checkpoint(ctx, session, entity.RunState{
		Criteria:  out.Criteria,
		Tone:      &tone,
		GapPrompt: &gapPrompt,
	})
}

func (e *Engine) ensureScored(ctx context.Context, session *entity.Session, idx *index.SessionIndex) error {
	if session.State.Match != nil {
		return nil
	}

	result, err := e.matcher.Score(ctx, session.State.Criteria, idx)
	if err != nil {
		e.recordError(ctx, session.Id, constant.StageScore, err, fmt.Sprintf("criteria_count=%d", len(session.State.Criteria)))
		return err
	}

	return e.checkpoint(ctx, session, entity.RunState{Match: result})
}

// suspend persists the gap question and the full checkpoint, then flips the
// status to awaiting_input and exits. Nothing stays resident in the process;
// the gap between interrupt and resume is unbounded.
func (e *Engine) suspend(ctx context.Context, session *entity.Session) error {
	if session.State.Question == nil {
		out, err := e.invoker.AskQuestion(ctx, stage.AskQuestionInput{
			Gaps:      session.State.Match.Gaps,
			GapPrompt: *session.State.GapPrompt,
			Profile:   *session.State.TargetProfile,
		})
		question := ""
		if err != nil {
			// Degradable: a failed question stage must not kill the run;
			// fall back to the derivation's gap prompt.
			e.recordError(ctx, session.Id, constant.StageAskQuestion, err, fmt.Sprintf("gaps=%v", session.State.Match.Gaps))
			question = *session.State.GapPrompt
		} else {
			question = out.QuestionText
		}

		if err := e.checkpoint(ctx, session, entity.RunState{Question: &question}); err != nil {
			return err
		}
	}

	// Checkpoint is durable; only now flip the status. A crash between the
	// two leaves the session re-runnable from the checkpoint.
	if err := e.setStatus(ctx, session, constant.RunStatusAwaitingInput); err != nil {
		return err
	}

	e.logger.Info("workflow", "run suspended awaiting external input", map[string]interface{}{
		"session_id": session.Id.String(),
		"gaps":       session.State.Match.Gaps,
	})
	if e.hooks != nil {
		e.hooks.RunSuspended(ctx, session, *session.State.Question)
	}
	return nil
}

// ensureGenerated runs the two generation stages in order, each retried up
// to cfg.GenerationRetries extra times. Every failed attempt is recorded.
func (e *Engine) ensureGenerated(ctx context.Context, session *entity.Session) error {
	if session.State.TalkingPoints == nil {
		out, err := retry(e.cfg.GenerationRetries, func() (*stage.GeneratePointsOutput, error) {
			out, err := e.invoker.GeneratePoints(ctx, stage.GeneratePointsInput{
				Profile:  *session.State.TargetProfile,
				Criteria: session.State.Criteria,
				Match:    *session.State.Match,
			})
			if err != nil {
				e.recordError(ctx, session.Id, constant.StageGeneratePoints, err, "")
			}
			return out, err
		})
		if err != nil {
			return err
		}
		if err := e.checkpoint(ctx, session, entity.RunState{TalkingPoints: out.Points}); err != nil {
			return err
		}
	}

	if session.State.Essay == nil {
		out, err := retry(e.cfg.GenerationRetries, func() (*stage.GenerateEssayOutput, error) {
			out, err := e.invoker.GenerateEssay(ctx, stage.GenerateEssayInput{
				Profile:       *session.State.TargetProfile,
				PersonalText:  *session.State.PersonalText,
				Tone:          *session.State.Tone,
				Criteria:      session.State.Criteria,
				Match:         *session.State.Match,
				ExternalInput: session.State.ExternalInput,
			})
			if err != nil {
				e.recordError(ctx, session.Id, constant.StageGenerateEssay, err, "")
			}
			return out, err
		})
		if err != nil {
			return err
		}
		essay := out.Essay
		if err := e.checkpoint(ctx, session, entity.RunState{Essay: &essay}); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) complete(ctx context.Context, session *entity.Session) error {
	if err := e.setStatus(ctx, session, constant.RunStatusComplete); err != nil {
		return err
	}
	e.logger.Info("workflow", "run complete", map[string]interface{}{
		"session_id":  session.Id.String(),
		"match_score": session.State.Match.MatchScore,
	})
	if e.hooks != nil {
		e.hooks.RunCompleted(ctx, session)
	}
	return nil
}

// fail marks the session terminal. The causing error was already recorded
// by the failing phase; a recording failure here must not mask the cause.
func (e *Engine) fail(ctx context.Context, session *entity.Session, cause error) {
	if err := e.setStatus(ctx, session, constant.RunStatusFailed); err != nil {
		e.logger.Error("workflow", "failed to mark session failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return
	}
	e.logger.Warn("workflow", "run failed", map[string]interface{}{
		"session_id": session.Id.String(),
		"error":      cause.Error(),
	})
	if e.hooks != nil {
		e.hooks.RunFailed(ctx, session, cause)
	}
}

// checkpoint persists the partial state and mirrors it into the in-memory
// session, which is only a cache of the store.
func (e *Engine) checkpoint(ctx context.Context, session *entity.Session, partial entity.RunState) error {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionRepository().UpdateState(ctx, session.Id, partial, false); err != nil {
		if errors.Is(err, entity.ErrStateFieldOverwrite) {
			return apperror.Validation("checkpoint conflict: %v", err)
		}
		return err
	}
	return session.State.Merge(partial, false)
}

func (e *Engine) setStatus(ctx context.Context, session *entity.Session, status string) error {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionRepository().UpdateStatus(ctx, session.Id, status); err != nil {
		return err
	}
	session.Status = status
	return nil
}

// recordError appends a session error entry. The stage comes from the
// error itself when tagged, else from the phase that observed it.
func (e *Engine) recordError(ctx context.Context, sessionId uuid.UUID, stageName string, cause error, inputSummary string) {
	var appErr *apperror.AppError
	if errors.As(cause, &appErr) && appErr.Stage != "" {
		stageName = appErr.Stage
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	err := uow.SessionRepository().AppendError(ctx, sessionId, entity.RunError{
		Stage:        stageName,
		Message:      cause.Error(),
		InputSummary: inputSummary,
		OccurredAt:   time.Now(),
	})
	if err != nil {
		e.logger.Error("workflow", "failed to append session error", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

func retry[O any](extraAttempts int, fn func() (*O, error)) (*O, error) {
	var out *O
	var err error
	for attempt := 0; attempt <= extraAttempts; attempt++ {
		out, err = fn()
		if err == nil {
			return out, nil
		}
	}
	return nil, err
}

func summarize(text string) string {
	const maxLen = 120
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
