package stage

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCollaborators struct {
	Collaborators
	deriveFn func(ctx context.Context, in DeriveInput) (*DeriveOutput, error)
}

func (s *scriptedCollaborators) Derive(ctx context.Context, in DeriveInput) (*DeriveOutput, error) {
	return s.deriveFn(ctx, in)
}

func TestInvokerWrapsPlainErrors(t *testing.T) {
	collab := &scriptedCollaborators{
		deriveFn: func(context.Context, DeriveInput) (*DeriveOutput, error) {
			return nil, errors.New("connection refused")
		},
	}
	invoker := NewInvoker(collab, time.Second, nil)

	_, err := invoker.Derive(context.Background(), DeriveInput{})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindCollaborator, appErr.Kind)
	assert.Equal(t, constant.StageDerive, appErr.Stage)
}

func TestInvokerPreservesAppErrorKind(t *testing.T) {
	collab := &scriptedCollaborators{
		deriveFn: func(context.Context, DeriveInput) (*DeriveOutput, error) {
			return nil, apperror.Index("store_chunks", errors.New("insert failed"))
		},
	}
	invoker := NewInvoker(collab, time.Second, nil)

	_, err := invoker.Derive(context.Background(), DeriveInput{})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindIndex))
}

func TestInvokerEnforcesTimeout(t *testing.T) {
	collab := &scriptedCollaborators{
		deriveFn: func(ctx context.Context, in DeriveInput) (*DeriveOutput, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return &DeriveOutput{}, nil
			}
		},
	}
	invoker := NewInvoker(collab, 20*time.Millisecond, nil)

	start := time.Now()
	_, err := invoker.Derive(context.Background(), DeriveInput{})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindCollaborator))
	assert.Less(t, elapsed, time.Second)
}

func TestInvokerPassesOutputThrough(t *testing.T) {
	want := &DeriveOutput{
		Criteria: []entity.Criterion{{Name: "Leadership", Weight: 1.0}},
		Tone:     "sincere",
	}
	collab := &scriptedCollaborators{
		deriveFn: func(context.Context, DeriveInput) (*DeriveOutput, error) {
			return want, nil
		},
	}
	invoker := NewInvoker(collab, time.Second, nil)

	got, err := invoker.Derive(context.Background(), DeriveInput{CombinedText: "text"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
