// internal/matching/calculate.go
package matching

import (
	"errors"
	"fmt"
	"math"

	"neighborhood-matcher/internal/models"
)

var (
	ErrContractViolation = errors.New("CONTRACT_VIOLATION")
	ErrInvalidConfig     = errors.New("CONFIG_UPDATE_INVALID")
	ErrCancelled         = errors.New("MATCHING_CANCELLED")
)

// CalculateMatch scores one neighborhood for one user under cfg. It is a pure
// function: identical inputs give bit-identical results.
func CalculateMatch(cfg Config, user models.UserProfile, n models.Neighborhood) (MatchResult, error) {
	if err := checkContract(user, n); err != nil {
		return MatchResult{}, err
	}

	var (
		breakdown   Breakdown
		totalScore  float64
		totalWeight float64
	)

	for _, f := range models.AllFactors() {
		entry := factorEntry(cfg, user, n, f)
		breakdown.Factors[f] = entry
		totalScore += entry.Impact
		totalWeight += entry.Weight
	}

	breakdown.Budget = budgetEntry(user, n)
	totalScore += breakdown.Budget.Impact
	totalWeight += breakdown.Budget.Weight

	score := totalScore / totalWeight
	penalty := (1 - n.DataQuality) * cfg.Penalties.IncompleteData
	score = math.Max(0, score-penalty)

	confidence := Confidence(n.DataQuality, score, breakdown.Scores())
	reasons, concerns := Insights(user, n, breakdown)

	return MatchResult{
		Neighborhood: n,
		Score:        score,
		Confidence:   confidence,
		Reasons:      reasons,
		Concerns:     concerns,
		Breakdown:    breakdown,
	}, nil
}

// checkContract rejects records the engine cannot score. Values outside the
// [1,10] and [0,1] domains are not checked here.
func checkContract(user models.UserProfile, n models.Neighborhood) error {
	if n.ID == "" {
		return fmt.Errorf("%w: neighborhood without id", ErrContractViolation)
	}
	if !n.Scores.Finite() {
		return fmt.Errorf("%w: neighborhood %s has non-numeric scores", ErrContractViolation, n.ID)
	}
	if !finite(n.DataQuality) || !finite(n.Demographics.MedianIncome) {
		return fmt.Errorf("%w: neighborhood %s has non-numeric data quality or median income", ErrContractViolation, n.ID)
	}
	if !user.Lifestyle.Finite() {
		return fmt.Errorf("%w: profile %s has non-numeric lifestyle preferences", ErrContractViolation, user.ID)
	}
	if !finite(user.Budget.Min) || !finite(user.Budget.Max) {
		return fmt.Errorf("%w: profile %s has a non-numeric budget", ErrContractViolation, user.ID)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
