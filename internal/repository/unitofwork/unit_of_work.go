package unitofwork

import (
	"context"

	"ai-scholarmatch-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	ProfileChunkRepository() contract.ProfileChunkRepository
}
