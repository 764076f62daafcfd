package memory

import (
	"context"
	"sync"
	"time"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/repository/contract"
	"ai-scholarmatch-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository is an in-memory implementation of the session store
// contract, used by tests and DB-less development. A single mutex serializes
// all updates, which satisfies the per-session serialization requirement.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[uuid.UUID]*entity.Session),
	}
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *session
	r.sessions[session.Id] = &copied
	return nil
}

// FindOne only understands the ByID specification; that is the only lookup
// the engine performs.
func (r *SessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			if s, found := r.sessions[byId.ID]; found {
				copied := *s
				return &copied, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (r *SessionRepository) FindAllByStatus(ctx context.Context, statuses ...string) ([]*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Session
	for _, s := range r.sessions {
		for _, status := range statuses {
			if s.Status == status {
				copied := *s
				result = append(result, &copied)
				break
			}
		}
	}
	return result, nil
}

func (r *SessionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sessions)), nil
}

func (r *SessionRepository) UpdateState(ctx context.Context, id uuid.UUID, partial entity.RunState, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.sessions[id]
	if !found {
		return gorm.ErrRecordNotFound
	}
	if err := s.State.Merge(partial, force); err != nil {
		return err
	}
	now := time.Now()
	s.UpdatedAt = &now
	return nil
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.sessions[id]
	if !found {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	now := time.Now()
	s.UpdatedAt = &now
	return nil
}

func (r *SessionRepository) AppendError(ctx context.Context, id uuid.UUID, runErr entity.RunError) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.sessions[id]
	if !found {
		return gorm.ErrRecordNotFound
	}
	s.Errors = append(s.Errors, runErr)
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}
