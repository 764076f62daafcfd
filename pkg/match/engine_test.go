package match

import (
	"context"
	"testing"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubIndex returns a fixed similarity per query text.
type stubIndex struct {
	similarities map[string]float64
}

func (s *stubIndex) Query(ctx context.Context, queryText string, k int) ([]*entity.ScoredChunk, error) {
	sim, ok := s.similarities[queryText]
	if !ok {
		return nil, nil
	}
	return []*entity.ScoredChunk{
		{Chunk: &entity.ProfileChunk{Document: queryText}, Similarity: sim},
	}, nil
}

func criteria(weights map[string]float64) []entity.Criterion {
	out := make([]entity.Criterion, 0, len(weights))
	// Fixed order keeps per-criterion assertions stable.
	for _, name := range []string{"Leadership", "Service", "Academic"} {
		if w, ok := weights[name]; ok {
			out = append(out, entity.Criterion{Name: name, Weight: w})
		}
	}
	return out
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []entity.Criterion
		wantErr bool
	}{
		{
			name:    "empty set",
			weights: nil,
			wantErr: true,
		},
		{
			name:    "sums to one",
			weights: []entity.Criterion{{Name: "A", Weight: 0.4}, {Name: "B", Weight: 0.3}, {Name: "C", Weight: 0.3}},
			wantErr: false,
		},
		{
			name:    "single criterion full weight",
			weights: []entity.Criterion{{Name: "A", Weight: 1.0}},
			wantErr: false,
		},
		{
			name:    "boundary low 0.99",
			weights: []entity.Criterion{{Name: "A", Weight: 0.5}, {Name: "B", Weight: 0.49}},
			wantErr: true,
		},
		{
			name:    "boundary high 1.01",
			weights: []entity.Criterion{{Name: "A", Weight: 0.6}, {Name: "B", Weight: 0.41}},
			wantErr: true,
		},
		{
			name:    "clearly under",
			weights: []entity.Criterion{{Name: "A", Weight: 0.5}},
			wantErr: true,
		},
		{
			name:    "clearly over",
			weights: []entity.Criterion{{Name: "A", Weight: 0.8}, {Name: "B", Weight: 0.8}},
			wantErr: true,
		},
		{
			name:    "negative weight",
			weights: []entity.Criterion{{Name: "A", Weight: 1.2}, {Name: "B", Weight: -0.2}},
			wantErr: true,
		},
		{
			name:    "weight above one",
			weights: []entity.Criterion{{Name: "A", Weight: 1.5}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeights(tt.weights)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsKind(err, apperror.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScoreWeakCriterionInterrupts(t *testing.T) {
	engine := NewEngine(0.7, 0.8, nil)
	idx := &stubIndex{similarities: map[string]float64{
		"Leadership": 0.9,
		"Service":    0.2,
		"Academic":   0.8,
	}}

	result, err := engine.Score(context.Background(),
		criteria(map[string]float64{"Leadership": 0.4, "Service": 0.3, "Academic": 0.3}), idx)
	require.NoError(t, err)

	assert.InDelta(t, 0.66, result.MatchScore, 1e-9)
	assert.Equal(t, []string{"Service"}, result.Gaps)
	assert.True(t, result.Interrupt)

	require.Len(t, result.PerCriterion, 3)
	assert.Equal(t, "Leadership", result.PerCriterion[0].Name)
	assert.InDelta(t, 0.9, result.PerCriterion[0].BestMatchScore, 1e-9)
}

func TestScoreStrongProfilePasses(t *testing.T) {
	engine := NewEngine(0.7, 0.8, nil)
	idx := &stubIndex{similarities: map[string]float64{
		"Leadership": 0.9,
		"Service":    0.85,
		"Academic":   0.8,
	}}

	result, err := engine.Score(context.Background(),
		criteria(map[string]float64{"Leadership": 0.4, "Service": 0.3, "Academic": 0.3}), idx)
	require.NoError(t, err)

	assert.InDelta(t, 0.855, result.MatchScore, 1e-9)
	assert.Empty(t, result.Gaps)
	assert.False(t, result.Interrupt)
}

func TestScoreThresholdIsInclusivePass(t *testing.T) {
	engine := NewEngine(0.7, 0.8, nil)

	t.Run("exactly at threshold passes", func(t *testing.T) {
		idx := &stubIndex{similarities: map[string]float64{"Fit": 0.8}}
		result, err := engine.Score(context.Background(),
			[]entity.Criterion{{Name: "Fit", Weight: 1.0}}, idx)
		require.NoError(t, err)
		assert.InDelta(t, 0.8, result.MatchScore, 1e-9)
		assert.False(t, result.Interrupt)
	})

	t.Run("just under threshold interrupts", func(t *testing.T) {
		idx := &stubIndex{similarities: map[string]float64{"Fit": 0.79999}}
		result, err := engine.Score(context.Background(),
			[]entity.Criterion{{Name: "Fit", Weight: 1.0}}, idx)
		require.NoError(t, err)
		assert.True(t, result.Interrupt)
		// 0.79999 clears the gap threshold; the interrupt comes purely
		// from the overall score.
		assert.Empty(t, result.Gaps)
	})
}

func TestScoreEmptyIndexScoresZero(t *testing.T) {
	engine := NewEngine(0.7, 0.8, nil)
	idx := &stubIndex{similarities: map[string]float64{}}

	result, err := engine.Score(context.Background(),
		criteria(map[string]float64{"Leadership": 0.4, "Service": 0.3, "Academic": 0.3}), idx)
	require.NoError(t, err)

	assert.Zero(t, result.MatchScore)
	assert.Equal(t, []string{"Leadership", "Service", "Academic"}, result.Gaps)
	assert.True(t, result.Interrupt)
}

func TestScoreRejectsInvalidWeights(t *testing.T) {
	engine := NewEngine(0.7, 0.8, nil)
	idx := &stubIndex{similarities: map[string]float64{"A": 0.9}}

	_, err := engine.Score(context.Background(),
		[]entity.Criterion{{Name: "A", Weight: 0.5}}, idx)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
