package mapper

import (
	"encoding/json"
	"time"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) (*entity.Session, error) {
	if s == nil {
		return nil, nil
	}

	var state entity.RunState
	if len(s.State) > 0 {
		if err := json.Unmarshal(s.State, &state); err != nil {
			return nil, err
		}
	}

	var runErrors []entity.RunError
	if len(s.Errors) > 0 {
		if err := json.Unmarshal(s.Errors, &runErrors); err != nil {
			return nil, err
		}
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Session{
		Id:             s.Id,
		Status:         s.Status,
		SourceRef:      s.SourceRef,
		DocumentRef:    s.DocumentRef,
		ApplicantEmail: s.ApplicantEmail,
		State:          state,
		Errors:         runErrors,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func (m *SessionMapper) ToModel(s *entity.Session) (*model.Session, error) {
	if s == nil {
		return nil, nil
	}

	stateJSON, err := json.Marshal(s.State)
	if err != nil {
		return nil, err
	}

	errorsJSON, err := json.Marshal(s.Errors)
	if err != nil {
		return nil, err
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Session{
		Id:             s.Id,
		Status:         s.Status,
		SourceRef:      s.SourceRef,
		DocumentRef:    s.DocumentRef,
		ApplicantEmail: s.ApplicantEmail,
		State:          stateJSON,
		Errors:         errorsJSON,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
	}, nil
}
