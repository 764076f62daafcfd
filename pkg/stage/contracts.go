// Package stage defines the typed envelopes exchanged with the external
// collaborators and the uniform invocation seam the workflow engine calls
// through. The collaborators' internals (scraping, extraction, text
// generation) are outside this system's scope.
package stage

import (
	"context"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/pkg/index"
)

type IngestTargetInput struct {
	SourceRef string
}

type IngestTargetOutput struct {
	Profile entity.TargetProfile
	RawText string
}

type IngestDocumentInput struct {
	DocumentRef string
	// Index is the session-scoped handle the collaborator populates as a
	// side effect of extraction.
	Index *index.SessionIndex
}

type IngestDocumentOutput struct {
	ExtractedText string
	ChunkCount    int
}

type DeriveInput struct {
	CombinedText string
}

type DeriveOutput struct {
	Criteria []entity.Criterion
	// Tone and GapPrompt are degradable: the engine substitutes defaults
	// when a collaborator omits them. Criteria are not degradable.
	Tone      string
	GapPrompt string
}

type AskQuestionInput struct {
	Gaps      []string
	GapPrompt string
	Profile   entity.TargetProfile
}

type AskQuestionOutput struct {
	QuestionText string
}

type GeneratePointsInput struct {
	Profile  entity.TargetProfile
	Criteria []entity.Criterion
	Match    entity.MatchResult
}

type GeneratePointsOutput struct {
	Points []string
}

type GenerateEssayInput struct {
	Profile      entity.TargetProfile
	PersonalText string
	Tone         string
	Criteria     []entity.Criterion
	Match        entity.MatchResult
	// ExternalInput is nil when the run completed without interruption.
	ExternalInput map[string]string
}

type GenerateEssayOutput struct {
	Essay entity.EssayDraft
}

// Collaborators is the set of external stage functions. Implementations
// must honor ctx cancellation; the invoker imposes the per-stage timeout.
type Collaborators interface {
	IngestTarget(ctx context.Context, in IngestTargetInput) (*IngestTargetOutput, error)
	IngestDocument(ctx context.Context, in IngestDocumentInput) (*IngestDocumentOutput, error)
	Derive(ctx context.Context, in DeriveInput) (*DeriveOutput, error)
	AskQuestion(ctx context.Context, in AskQuestionInput) (*AskQuestionOutput, error)
	GeneratePoints(ctx context.Context, in GeneratePointsInput) (*GeneratePointsOutput, error)
	GenerateEssay(ctx context.Context, in GenerateEssayInput) (*GenerateEssayOutput, error)
}
