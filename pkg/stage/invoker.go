package stage

import (
	"context"
	"errors"
	"time"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/pkg/apperror"
	"ai-scholarmatch-be/internal/pkg/logger"
)

// Invoker wraps the collaborators with a per-stage timeout and uniform
// error conversion. A timed-out stage is a stage failure, never an open
// suspension; the only intentional suspension point in the system is the
// awaiting_input status, which lives outside any stage call.
type Invoker struct {
	collab  Collaborators
	timeout time.Duration
	logger  logger.ILogger
}

func NewInvoker(collab Collaborators, timeout time.Duration, log logger.ILogger) *Invoker {
	return &Invoker{
		collab:  collab,
		timeout: timeout,
		logger:  log,
	}
}

func (i *Invoker) IngestTarget(ctx context.Context, in IngestTargetInput) (*IngestTargetOutput, error) {
	return invoke(ctx, i, constant.StageIngestTarget, in, i.collab.IngestTarget)
}

func (i *Invoker) IngestDocument(ctx context.Context, in IngestDocumentInput) (*IngestDocumentOutput, error) {
	return invoke(ctx, i, constant.StageIngestDocument, in, i.collab.IngestDocument)
}

func (i *Invoker) Derive(ctx context.Context, in DeriveInput) (*DeriveOutput, error) {
	return invoke(ctx, i, constant.StageDerive, in, i.collab.Derive)
}

func (i *Invoker) AskQuestion(ctx context.Context, in AskQuestionInput) (*AskQuestionOutput, error) {
	return invoke(ctx, i, constant.StageAskQuestion, in, i.collab.AskQuestion)
}

func (i *Invoker) GeneratePoints(ctx context.Context, in GeneratePointsInput) (*GeneratePointsOutput, error) {
	return invoke(ctx, i, constant.StageGeneratePoints, in, i.collab.GeneratePoints)
}

func (i *Invoker) GenerateEssay(ctx context.Context, in GenerateEssayInput) (*GenerateEssayOutput, error) {
	return invoke(ctx, i, constant.StageGenerateEssay, in, i.collab.GenerateEssay)
}

// invoke is the uniform seam: timeout, duration logging, error
// classification. An AppError from the collaborator (e.g. an IndexError
// from document ingestion) keeps its kind; everything else becomes a
// CollaboratorError tagged with the stage name.
func invoke[I any, O any](ctx context.Context, inv *Invoker, name string, in I, fn func(context.Context, I) (*O, error)) (*O, error) {
	stageCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	start := time.Now()
	out, err := fn(stageCtx, in)
	elapsed := time.Since(start)

	if err != nil {
		if inv.logger != nil {
			inv.logger.Warn("stage", "stage invocation failed", map[string]interface{}{
				"stage":       name,
				"duration_ms": elapsed.Milliseconds(),
				"error":       err.Error(),
			})
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.Collaborator(name, err)
	}

	if inv.logger != nil {
		inv.logger.Debug("stage", "stage invocation complete", map[string]interface{}{
			"stage":       name,
			"duration_ms": elapsed.Milliseconds(),
		})
	}
	return out, nil
}
