package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/mapper"
	"ai-scholarmatch-be/internal/model"
	"ai-scholarmatch-be/internal/repository/contract"
	"ai-scholarmatch-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	m, err := r.mapper.ToModel(session)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	hydrated, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*session = *hydrated
	return nil
}

func (r *SessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	var m model.Session
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *SessionRepositoryImpl) FindAllByStatus(ctx context.Context, statuses ...string) ([]*entity.Session, error) {
	var models []*model.Session
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	sessions := make([]*entity.Session, len(models))
	for i, m := range models {
		if sessions[i], err = r.mapper.ToEntity(m); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (r *SessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Session{}).Count(&count).Error
	return count, err
}

// UpdateState merges the partial state under a row lock so concurrent stage
// completions on the same session are serialized. The new checkpoint is
// committed in its own transaction, before any status flip.
func (r *SessionRepositoryImpl) UpdateState(ctx context.Context, id uuid.UUID, partial entity.RunState, force bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "id = ?", id).Error; err != nil {
			return err
		}

		session, err := r.mapper.ToEntity(&m)
		if err != nil {
			return err
		}

		if err := session.State.Merge(partial, force); err != nil {
			return err
		}

		stateJSON, err := json.Marshal(session.State)
		if err != nil {
			return err
		}

		return tx.Model(&model.Session{}).
			Where("id = ?", id).
			Update("state", stateJSON).Error
	})
}

func (r *SessionRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SessionRepositoryImpl) AppendError(ctx context.Context, id uuid.UUID, runErr entity.RunError) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "id = ?", id).Error; err != nil {
			return err
		}

		var runErrors []entity.RunError
		if len(m.Errors) > 0 {
			if err := json.Unmarshal(m.Errors, &runErrors); err != nil {
				return err
			}
		}
		runErrors = append(runErrors, runErr)

		errorsJSON, err := json.Marshal(runErrors)
		if err != nil {
			return err
		}

		return tx.Model(&model.Session{}).
			Where("id = ?", id).
			Update("errors", errorsJSON).Error
	})
}

func (r *SessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Session{}, id).Error
}
