package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrStateFieldOverwrite is returned when a merge would silently replace a
// field a previous stage already wrote. Overwrites require force.
var ErrStateFieldOverwrite = errors.New("state field already set")

// Session is one matching run. Terminal once Status is complete or failed.
type Session struct {
	Id             uuid.UUID
	Status         string
	SourceRef      string
	DocumentRef    string
	ApplicantEmail string
	State          RunState
	Errors         []RunError
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// RunError records a stage failure with enough context to diagnose without
// re-running.
type RunError struct {
	Stage        string    `json:"stage"`
	Message      string    `json:"message"`
	InputSummary string    `json:"input_summary,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// TargetProfile is the structured record produced by target ingestion.
type TargetProfile struct {
	Name         string   `json:"name"`
	Organization string   `json:"organization,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// EssayDraft is the output of the essay generation stage.
type EssayDraft struct {
	Content string `json:"content"`
	Notes   string `json:"notes,omitempty"`
	Length  int    `json:"length"`
}

// RunState is the checkpointed state bag accumulated by the workflow. Every
// field is written at most once per run attempt; the whole struct is
// persisted as a single JSONB checkpoint, and a resumed run reconstructs
// execution purely from it plus the supplied external input.
type RunState struct {
	TargetProfile *TargetProfile    `json:"target_profile,omitempty"`
	TargetRawText *string           `json:"target_raw_text,omitempty"`
	PersonalText  *string           `json:"personal_text,omitempty"`
	ChunkCount    *int              `json:"chunk_count,omitempty"`
	Criteria      []Criterion       `json:"criteria,omitempty"`
	Tone          *string           `json:"tone,omitempty"`
	GapPrompt     *string           `json:"gap_prompt,omitempty"`
	Match         *MatchResult      `json:"match,omitempty"`
	Question      *string           `json:"question,omitempty"`
	ExternalInput map[string]string `json:"external_input,omitempty"`
	TalkingPoints []string          `json:"talking_points,omitempty"`
	Essay         *EssayDraft       `json:"essay,omitempty"`
}

// Merge folds the set fields of partial into s. Attempting to replace an
// already-set field fails with ErrStateFieldOverwrite unless force is true,
// so stage ordering bugs surface immediately instead of as silent data loss.
func (s *RunState) Merge(partial RunState, force bool) error {
	if partial.TargetProfile != nil {
		if s.TargetProfile != nil && !force {
			return fmt.Errorf("%w: target_profile", ErrStateFieldOverwrite)
		}
		s.TargetProfile = partial.TargetProfile
	}
	if partial.TargetRawText != nil {
		if s.TargetRawText != nil && !force {
			return fmt.Errorf("%w: target_raw_text", ErrStateFieldOverwrite)
		}
		s.TargetRawText = partial.TargetRawText
	}
	if partial.PersonalText != nil {
		if s.PersonalText != nil && !force {
			return fmt.Errorf("%w: personal_text", ErrStateFieldOverwrite)
		}
		s.PersonalText = partial.PersonalText
	}
	if partial.ChunkCount != nil {
		if s.ChunkCount != nil && !force {
			return fmt.Errorf("%w: chunk_count", ErrStateFieldOverwrite)
		}
		s.ChunkCount = partial.ChunkCount
	}
	if partial.Criteria != nil {
		if s.Criteria != nil && !force {
			return fmt.Errorf("%w: criteria", ErrStateFieldOverwrite)
		}
		s.Criteria = partial.Criteria
	}
	if partial.Tone != nil {
		if s.Tone != nil && !force {
			return fmt.Errorf("%w: tone", ErrStateFieldOverwrite)
		}
		s.Tone = partial.Tone
	}
	if partial.GapPrompt != nil {
		if s.GapPrompt != nil && !force {
			return fmt.Errorf("%w: gap_prompt", ErrStateFieldOverwrite)
		}
		s.GapPrompt = partial.GapPrompt
	}
	if partial.Match != nil {
		if s.Match != nil && !force {
			return fmt.Errorf("%w: match", ErrStateFieldOverwrite)
		}
		s.Match = partial.Match
	}
	if partial.Question != nil {
		if s.Question != nil && !force {
			return fmt.Errorf("%w: question", ErrStateFieldOverwrite)
		}
		s.Question = partial.Question
	}
	if partial.ExternalInput != nil {
		if s.ExternalInput != nil && !force {
			return fmt.Errorf("%w: external_input", ErrStateFieldOverwrite)
		}
		s.ExternalInput = partial.ExternalInput
	}
	if partial.TalkingPoints != nil {
		if s.TalkingPoints != nil && !force {
			return fmt.Errorf("%w: talking_points", ErrStateFieldOverwrite)
		}
		s.TalkingPoints = partial.TalkingPoints
	}
	if partial.Essay != nil {
		if s.Essay != nil && !force {
			return fmt.Errorf("%w: essay", ErrStateFieldOverwrite)
		}
		s.Essay = partial.Essay
	}
	return nil
}
