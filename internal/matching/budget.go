package matching

import (
	"math"

	"neighborhood-matcher/internal/models"
)

const (
	baseRent        = 2000.0
	referenceIncome = 60000.0

	// underBudgetScore is the flat score for a suspiciously cheap estimate.
	underBudgetScore = 0.8
)

// EstimateRent is a heuristic monthly housing cost: a base rent scaled by the
// inverted cost score and by median income relative to a reference income.
// It is a rough signal for budget fit, not a real estate valuation.
func EstimateRent(n models.Neighborhood) float64 {
	costMultiplier := (11 - n.Scores[models.Cost]) / 10
	incomeMultiplier := n.Demographics.MedianIncome / referenceIncome
	return baseRent * costMultiplier * incomeMultiplier
}

// BudgetCompatibility scores an estimated rent against the user's range.
// A zero-width range gives the full penalty as soon as the estimate exceeds it.
func BudgetCompatibility(budget models.Budget, estimatedRent float64) float64 {
	switch {
	case estimatedRent >= budget.Min && estimatedRent <= budget.Max:
		return 1.0
	case estimatedRent < budget.Min:
		return underBudgetScore
	}

	overBudget := estimatedRent - budget.Max
	flexibility := budget.Max - budget.Min

	ratio := 1.0
	if flexibility != 0 {
		ratio = overBudget / flexibility
	}
	penalty := math.Min(1, ratio)
	return math.Max(0, 1-penalty)
}

func budgetEntry(user models.UserProfile, n models.Neighborhood) BreakdownEntry {
	score := BudgetCompatibility(user.Budget, EstimateRent(n))
	return BreakdownEntry{
		Score:  score,
		Weight: budgetWeight,
		Impact: score * budgetWeight,
	}
}
