// Package match computes the weighted similarity score between a target
// profile's criteria and an indexed personal profile.
package match

import (
	"context"
	"math"

	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/apperror"
	"ai-scholarmatch-be/internal/pkg/logger"
)

// WeightEpsilon is the tolerance for the weight-sum check. Weight sets
// summing outside 1.0 ± WeightEpsilon are a validation error, never a
// silent normalization.
const WeightEpsilon = 0.01

// Index is the read surface the engine needs; satisfied by
// index.SessionIndex and by test fakes.
type Index interface {
	Query(ctx context.Context, queryText string, k int) ([]*entity.ScoredChunk, error)
}

type Engine struct {
	gapThreshold   float64
	matchThreshold float64
	logger         logger.ILogger
}

// NewEngine builds a scoring engine with injected thresholds. The two
// thresholds are independent knobs.
func NewEngine(gapThreshold, matchThreshold float64, log logger.ILogger) *Engine {
	return &Engine{
		gapThreshold:   gapThreshold,
		matchThreshold: matchThreshold,
		logger:         log,
	}
}

// Score validates the weight set, probes the index once per criterion for
// the top-1 similarity, and derives the gap set and the interrupt decision.
// The match threshold is inclusive-pass: a score exactly at the threshold
// does not interrupt. No side effects beyond the index queries.
func (e *Engine) Score(ctx context.Context, criteria []entity.Criterion, idx Index) (*entity.MatchResult, error) {
	if err := ValidateWeights(criteria); err != nil {
		return nil, err
	}

	result := &entity.MatchResult{
		PerCriterion: make([]entity.CriterionScore, 0, len(criteria)),
		Gaps:         []string{},
	}

	for _, criterion := range criteria {
		best, err := e.bestMatch(ctx, criterion, idx)
		if err != nil {
			return nil, err
		}

		result.PerCriterion = append(result.PerCriterion, entity.CriterionScore{
			Name:           criterion.Name,
			Weight:         criterion.Weight,
			BestMatchScore: best,
		})
		result.MatchScore += criterion.Weight * best

		if best < e.gapThreshold {
			result.Gaps = append(result.Gaps, criterion.Name)
		}
	}

	result.Interrupt = result.MatchScore < e.matchThreshold || len(result.Gaps) > 0

	if e.logger != nil {
		e.logger.Info("match", "scored session criteria", map[string]interface{}{
			"match_score": result.MatchScore,
			"gaps":        result.Gaps,
			"interrupt":   result.Interrupt,
		})
	}

	return result, nil
}

func (e *Engine) bestMatch(ctx context.Context, criterion entity.Criterion, idx Index) (float64, error) {
	scored, err := idx.Query(ctx, criterion.QueryText(), 1)
	if err != nil {
		return 0, err
	}
	if len(scored) == 0 {
		// Nothing indexed for this session; criterion matches nothing.
		return 0, nil
	}
	return scored[0].Similarity, nil
}

// ValidateWeights rejects weight sets whose sum is outside 1.0 ± WeightEpsilon,
// or with any weight outside [0,1].
func ValidateWeights(criteria []entity.Criterion) error {
	if len(criteria) == 0 {
		return apperror.Validation("criteria set is empty")
	}

	var sum float64
	for _, c := range criteria {
		if c.Weight < 0 || c.Weight > 1 {
			return apperror.Validation("criterion %q weight %.4f outside [0,1]", c.Name, c.Weight)
		}
		sum += c.Weight
	}

	if math.Abs(sum-1.0) > WeightEpsilon {
		return apperror.Validation("criteria weights sum to %.4f, expected 1.0 ± %.2f", sum, WeightEpsilon)
	}
	return nil
}
