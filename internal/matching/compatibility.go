package matching

import (
	"math"

	"neighborhood-matcher/internal/models"
)

// FactorCompatibility is 1 minus the preference/score distance on a tenth
// scale. Inputs outside [1,10] are not clamped; keeping them in range is the
// caller's job.
func FactorCompatibility(preference, score float64) float64 {
	return 1 - math.Abs(preference-score)/10
}

// factorEntry scores one lifestyle factor for a user and neighborhood.
func factorEntry(cfg Config, user models.UserProfile, n models.Neighborhood, f models.Factor) BreakdownEntry {
	weight := cfg.Weight(f)
	if user.HasPriority(f) {
		weight *= 1 + priorityBonus
	}

	compatibility := FactorCompatibility(user.Lifestyle[f], n.Scores[f])
	return BreakdownEntry{
		Score:  compatibility,
		Weight: weight,
		Impact: compatibility * weight,
	}
}
