package matching

import (
	"encoding/json"
	"fmt"

	"neighborhood-matcher/internal/models"
)

// BudgetKey is the reserved breakdown key for the budget factor in the
// flattened JSON form.
const BudgetKey = "budget"

// BreakdownEntry records how one factor contributed to a match.
type BreakdownEntry struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
	Impact float64 `json:"impact"`
}

// Breakdown keeps lifestyle factors and the budget factor apart so a future
// factor can never collide with the budget entry.
type Breakdown struct {
	Factors [models.NumFactors]BreakdownEntry
	Budget  BreakdownEntry
}

func (b Breakdown) Factor(f models.Factor) BreakdownEntry {
	return b.Factors[f]
}

// Scores returns every per-factor score, lifestyle factors first, budget last.
func (b Breakdown) Scores() []float64 {
	out := make([]float64, 0, models.NumFactors+1)
	for _, e := range b.Factors {
		out = append(out, e.Score)
	}
	return append(out, b.Budget.Score)
}

// MarshalJSON flattens the breakdown into {factor: entry, ..., "budget": entry}.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	flat := make(map[string]BreakdownEntry, models.NumFactors+1)
	for _, f := range models.AllFactors() {
		flat[f.String()] = b.Factors[f]
	}
	flat[BudgetKey] = b.Budget
	return json.Marshal(flat)
}

func (b *Breakdown) UnmarshalJSON(data []byte) error {
	var flat map[string]BreakdownEntry
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	var out Breakdown
	for key, entry := range flat {
		if key == BudgetKey {
			out.Budget = entry
			continue
		}
		f, err := models.ParseFactor(key)
		if err != nil {
			return fmt.Errorf("breakdown: %w", err)
		}
		out.Factors[f] = entry
	}
	*b = out
	return nil
}

// MatchResult is the explained, confidence-rated outcome for one
// (user, neighborhood) pair.
type MatchResult struct {
	Neighborhood models.Neighborhood `json:"neighborhood"`
	Score        float64             `json:"score"`
	Confidence   float64             `json:"confidence"`
	Reasons      []string            `json:"reasons"`
	Concerns     []string            `json:"concerns"`
	Breakdown    Breakdown           `json:"breakdown"`
}

// RankValue is the blended key used to order batch results.
func (m MatchResult) RankValue() float64 {
	return m.Score*0.7 + m.Confidence*0.3
}
