package dto

import (
	"time"

	"ai-scholarmatch-be/internal/entity"

	"github.com/google/uuid"
)

type StartRunRequest struct {
	SourceRef      string `json:"source_ref" validate:"required,url"`
	DocumentRef    string `json:"document_ref" validate:"required"`
	ApplicantEmail string `json:"applicant_email" validate:"omitempty,email"`
}

type StartRunResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

type ResumeRunRequest struct {
	Id      uuid.UUID
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

type ResumeRunResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

// RunSessionMessage is the internal queue payload that triggers (or
// re-triggers) execution of a session.
type RunSessionMessage struct {
	SessionId uuid.UUID `json:"session_id"`
}

// RunStatusResponse is the polled view of a session. Question is set only
// while the run is awaiting input; Match and the generation outputs appear
// as their stages checkpoint.
type RunStatusResponse struct {
	SessionId     uuid.UUID           `json:"session_id"`
	Status        string              `json:"status"`
	SourceRef     string              `json:"source_ref"`
	TargetName    string              `json:"target_name,omitempty"`
	Match         *entity.MatchResult `json:"match,omitempty"`
	Question      string              `json:"question,omitempty"`
	TalkingPoints []string            `json:"talking_points,omitempty"`
	Essay         *entity.EssayDraft  `json:"essay,omitempty"`
	Errors        []entity.RunError   `json:"errors,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     *time.Time          `json:"updated_at"`
}
