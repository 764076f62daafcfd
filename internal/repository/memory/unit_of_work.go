package memory

import (
	"context"

	"ai-scholarmatch-be/internal/repository/contract"
	"ai-scholarmatch-be/internal/repository/unitofwork"
)

// RepositoryFactory is the in-memory counterpart of the gorm factory. The
// repositories are shared across units of work, mirroring how the database
// is shared across transactions.
type RepositoryFactory struct {
	sessions *SessionRepository
	chunks   *ProfileChunkRepository
}

func NewRepositoryFactory(sessions *SessionRepository, chunks *ProfileChunkRepository) *RepositoryFactory {
	return &RepositoryFactory{
		sessions: sessions,
		chunks:   chunks,
	}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{factory: f}
}

type unitOfWork struct {
	factory *RepositoryFactory
}

// Begin, Commit and Rollback are no-ops: the memory repositories apply each
// operation atomically under their own locks.
func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) SessionRepository() contract.SessionRepository {
	return u.factory.sessions
}

func (u *unitOfWork) ProfileChunkRepository() contract.ProfileChunkRepository {
	return u.factory.chunks
}
