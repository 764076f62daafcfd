package entity

// Criterion is one weighted requirement derived from the target profile.
type Criterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
}

// QueryText returns the text used to probe the similarity index for this
// criterion. The description is preferred when present.
func (c Criterion) QueryText() string {
	if c.Description != "" {
		return c.Description
	}
	return c.Name
}

// CriterionScore records the best similarity found in the personal profile
// for one criterion.
type CriterionScore struct {
	Name           string  `json:"name"`
	Weight         float64 `json:"weight"`
	BestMatchScore float64 `json:"best_match_score"`
}

// MatchResult is the scoring engine's output. It has no side effects beyond
// the index queries that produced it.
type MatchResult struct {
	MatchScore   float64          `json:"match_score"`
	PerCriterion []CriterionScore `json:"per_criterion"`
	Gaps         []string         `json:"gaps"`
	Interrupt    bool             `json:"interrupt"`
}
