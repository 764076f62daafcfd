package contract

import (
	"context"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/repository/specification"

	"github.com/google/uuid"
)

// SessionRepository is the single source of truth for run state. Updates to
// one session are serialized (row lock on the gorm implementation, mutex on
// the in-memory one) so near-simultaneous stage completions never lose
// writes.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	FindAllByStatus(ctx context.Context, statuses ...string) ([]*entity.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateState merges partial into the persisted checkpoint. Overwriting
	// an already-set field is rejected unless force is true.
	UpdateState(ctx context.Context, id uuid.UUID, partial entity.RunState, force bool) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	AppendError(ctx context.Context, id uuid.UUID, runErr entity.RunError) error
	Delete(ctx context.Context, id uuid.UUID) error
}
