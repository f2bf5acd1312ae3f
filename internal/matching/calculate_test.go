// internal/matching/calculate_test.go
package matching

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhood-matcher/internal/models"
)

// ==========================
// Fixtures
// ==========================

func uniformVector(v float64) models.FactorVector {
	var out models.FactorVector
	for _, f := range models.AllFactors() {
		out[f] = v
	}
	return out
}

func testUser(pref float64, priorities ...models.Factor) models.UserProfile {
	return models.UserProfile{
		ID:         "user-1",
		Name:       "Test User",
		Age:        30,
		Budget:     models.Budget{Min: 0, Max: 100000},
		Lifestyle:  uniformVector(pref),
		Priorities: priorities,
	}
}

func testNeighborhood(id string, score, dataQuality float64) models.Neighborhood {
	return models.Neighborhood{
		ID:           id,
		Name:         id,
		City:         "Testville",
		State:        "CA",
		Scores:       uniformVector(score),
		Demographics: models.Demographics{MedianAge: 35, MedianIncome: 60000, Population: 10000, Density: 5000},
		DataQuality:  dataQuality,
	}
}

// ==========================
// Calculators
// ==========================

func TestFactorCompatibility(t *testing.T) {
	assert.Equal(t, 1.0, FactorCompatibility(8, 8))
	assert.InDelta(t, 0.1, FactorCompatibility(1, 10), 1e-12)
	assert.InDelta(t, 0.7, FactorCompatibility(3, 6), 1e-12)
	assert.Equal(t, FactorCompatibility(2, 9), FactorCompatibility(9, 2))
}

func TestFactorEntry_SafetyMatch(t *testing.T) {
	user := testUser(5)
	user.Lifestyle[models.Safety] = 8
	n := testNeighborhood("n1", 5, 1)
	n.Scores[models.Safety] = 8

	entry := factorEntry(DefaultConfig(), user, n, models.Safety)
	assert.Equal(t, BreakdownEntry{Score: 1.0, Weight: 1.2, Impact: 1.2}, entry)
}

func TestFactorEntry_PriorityBoost(t *testing.T) {
	cfg := DefaultConfig()
	user := testUser(5, models.Cost)
	n := testNeighborhood("n1", 5, 1)

	boosted := factorEntry(cfg, user, n, models.Cost)
	plain := factorEntry(cfg, user, n, models.Transit)

	assert.InDelta(t, 1.3*1.3, boosted.Weight, 1e-12)
	assert.InDelta(t, 1.0, plain.Weight, 1e-12)
}

func TestEstimateRentAndBudget(t *testing.T) {
	n := testNeighborhood("pricey", 5, 1)
	n.Scores[models.Cost] = 2
	n.Demographics.MedianIncome = 120000

	rent := EstimateRent(n)
	assert.InDelta(t, 3600, rent, 1e-9)
	assert.InDelta(t, 0.6, BudgetCompatibility(models.Budget{Min: 1500, Max: 3000}, rent), 1e-9)
}

func TestBudgetCompatibility(t *testing.T) {
	budget := models.Budget{Min: 1500, Max: 3000}

	tests := []struct {
		name string
		rent float64
		want float64
	}{
		{"inside range", 2000, 1.0},
		{"at min", 1500, 1.0},
		{"at max", 3000, 1.0},
		{"just above max", 3000.0001, 1.0},
		{"below min", 1000, 0.8},
		{"half a range over", 3750, 0.5},
		{"far over", 10000, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BudgetCompatibility(budget, tt.rent), 1e-6)
		})
	}
}

func TestBudgetCompatibility_ZeroFlexibility(t *testing.T) {
	budget := models.Budget{Min: 2000, Max: 2000}

	assert.Equal(t, 1.0, BudgetCompatibility(budget, 2000))
	assert.Equal(t, 0.0, BudgetCompatibility(budget, 2000.01))
	assert.Equal(t, 0.8, BudgetCompatibility(budget, 1999))
}

func TestVariance(t *testing.T) {
	assert.Zero(t, Variance(nil))
	assert.InDelta(t, 0, Variance([]float64{0.4, 0.4, 0.4}), 1e-12)
	assert.InDelta(t, 0.25, Variance([]float64{0, 1}), 1e-12)
}

func TestConfidence(t *testing.T) {
	uniform := []float64{0.5, 0.5, 0.5}

	assert.InDelta(t, 0.7, Confidence(0.5, 0.5, uniform), 1e-12)
	assert.InDelta(t, 0.63, Confidence(0.5, 0.05, uniform), 1e-12, "low extreme discount")
	assert.InDelta(t, 0.63, Confidence(0.5, 0.96, uniform), 1e-12, "high extreme discount")
	assert.Equal(t, 1.0, Confidence(1.0, 0.5, uniform), "clamped")
	assert.InDelta(t, 0.5, Confidence(0.5, 0.5, []float64{0, 1}), 1e-12, "variance beyond ceiling adds nothing")
}

// ==========================
// CalculateMatch
// ==========================

func TestCalculateMatch_PerfectFit(t *testing.T) {
	result, err := CalculateMatch(DefaultConfig(), testUser(5), testNeighborhood("n1", 5, 0.9))
	require.NoError(t, err)

	assert.InDelta(t, 0.99, result.Score, 1e-9)
	assert.InDelta(t, 0.99, result.Confidence, 1e-9)
	assert.Equal(t, []string{
		"Housing costs align well with your budget range",
		"Affordable housing options within your budget",
		"Well-regarded safety record and community security",
	}, result.Reasons)
	assert.Empty(t, result.Concerns)
	assert.NotNil(t, result.Concerns)

	assert.Equal(t, BreakdownEntry{Score: 1, Weight: 1.5, Impact: 1.5}, result.Breakdown.Budget)
	assert.Equal(t, 0.8, result.Breakdown.Factor(models.Dining).Weight)
}

func TestCalculateMatch_ConfidenceClamped(t *testing.T) {
	result, err := CalculateMatch(DefaultConfig(), testUser(5), testNeighborhood("n1", 5, 1))
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestCalculateMatch_Concerns(t *testing.T) {
	user := testUser(5, models.Safety)
	user.Lifestyle[models.Safety] = 10
	user.Budget = models.Budget{Min: 1500, Max: 3000}

	n := testNeighborhood("rough", 5, 0.75)
	n.Scores[models.Safety] = 1
	n.Scores[models.Cost] = 2
	n.Demographics.MedianIncome = 150000

	result, err := CalculateMatch(DefaultConfig(), user, n)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Safety concerns based on available data",
		"Housing costs may exceed your budget range of $1,500-$3,000",
		"Limited data available for this neighborhood (75% complete)",
	}, result.Concerns)
	assert.NotContains(t, result.Reasons, "Housing costs align well with your budget range")
}

func TestCalculateMatch_LowScoreWithoutPriorityIsNoConcern(t *testing.T) {
	user := testUser(5)
	user.Lifestyle[models.Nightlife] = 10
	n := testNeighborhood("quiet", 5, 0.9)
	n.Scores[models.Nightlife] = 1

	result, err := CalculateMatch(DefaultConfig(), user, n)
	require.NoError(t, err)
	assert.Empty(t, result.Concerns)
}

func TestCalculateMatch_ZeroWeightFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights[models.Cost] = 0
	delete(cfg.Weights, models.Safety)

	result, err := CalculateMatch(cfg, testUser(5), testNeighborhood("n1", 5, 1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Breakdown.Factor(models.Cost).Weight)
	assert.Equal(t, 1.0, result.Breakdown.Factor(models.Safety).Weight)
}

func TestCalculateMatch_Idempotent(t *testing.T) {
	user := testUser(7, models.Transit, models.Dining)
	n := testNeighborhood("n1", 4, 0.83)
	n.Scores[models.Transit] = 9

	first, err := CalculateMatch(DefaultConfig(), user, n)
	require.NoError(t, err)
	second, err := CalculateMatch(DefaultConfig(), user, n)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculateMatch_ContractViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *models.UserProfile, n *models.Neighborhood)
	}{
		{"empty id", func(u *models.UserProfile, n *models.Neighborhood) { n.ID = "" }},
		{"NaN score", func(u *models.UserProfile, n *models.Neighborhood) { n.Scores[models.Culture] = math.NaN() }},
		{"infinite data quality", func(u *models.UserProfile, n *models.Neighborhood) { n.DataQuality = math.Inf(1) }},
		{"NaN preference", func(u *models.UserProfile, n *models.Neighborhood) { u.Lifestyle[models.Outdoors] = math.NaN() }},
		{"NaN budget", func(u *models.UserProfile, n *models.Neighborhood) { u.Budget.Max = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testUser(5)
			n := testNeighborhood("n1", 5, 0.9)
			tt.mutate(&user, &n)

			_, err := CalculateMatch(DefaultConfig(), user, n)
			assert.ErrorIs(t, err, ErrContractViolation)
		})
	}
}

func TestCalculateMatch_OutOfRangePassesThrough(t *testing.T) {
	n := testNeighborhood("n1", 5, 0.9)
	n.Scores[models.Walkability] = 14

	_, err := CalculateMatch(DefaultConfig(), testUser(5), n)
	assert.NoError(t, err)
}

func TestCalculateMatch_Ranges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := DefaultConfig()

	for i := 0; i < 500; i++ {
		user := testUser(1)
		n := testNeighborhood("n", 1, rng.Float64())
		for _, f := range models.AllFactors() {
			user.Lifestyle[f] = 1 + rng.Float64()*9
			n.Scores[f] = 1 + rng.Float64()*9
			if rng.Intn(4) == 0 {
				user.Priorities = append(user.Priorities, f)
			}
		}
		user.Budget.Min = rng.Float64() * 4000
		user.Budget.Max = user.Budget.Min + rng.Float64()*3000
		n.Demographics.MedianIncome = 20000 + rng.Float64()*180000

		result, err := CalculateMatch(cfg, user, n)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 1.0)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 1.0)
		assert.LessOrEqual(t, len(result.Reasons), 3)
	}
}

func TestBreakdown_JSONFlattens(t *testing.T) {
	result, err := CalculateMatch(DefaultConfig(), testUser(5), testNeighborhood("n1", 5, 1))
	require.NoError(t, err)

	raw, err := result.Breakdown.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"budget":{"score":1,"weight":1.5,"impact":1.5}`)
	assert.Contains(t, string(raw), `"familyFriendly":{`)

	var back Breakdown
	require.NoError(t, back.UnmarshalJSON(raw))
	assert.Equal(t, result.Breakdown, back)
}

func TestRankValue(t *testing.T) {
	assert.InDelta(t, 0.7*0.8+0.3*0.5, MatchResult{Score: 0.8, Confidence: 0.5}.RankValue(), 1e-12)
}
