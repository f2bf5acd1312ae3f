// internal/matching/config.go
package matching

import (
	"fmt"
	"math"

	"neighborhood-matcher/internal/models"
)

// Weights maps each lifestyle factor to its base weight. A missing or zero
// weight is read as 1.0.
type Weights map[models.Factor]float64

// Thresholds gate and truncate batch results.
type Thresholds struct {
	MinScore      float64 `json:"minScore" validate:"gte=0,lte=1"`
	MinConfidence float64 `json:"minConfidence" validate:"gte=0,lte=1"`
	MaxResults    int     `json:"maxResults" validate:"gte=0"`
}

// Penalties are subtracted from raw scores. Only IncompleteData is applied;
// OutdatedData and LowReliability are carried for configuration parity.
type Penalties struct {
	IncompleteData float64 `json:"incompleteData" validate:"gte=0,lte=1"`
	OutdatedData   float64 `json:"outdatedData" validate:"gte=0,lte=1"`
	LowReliability float64 `json:"lowReliability" validate:"gte=0,lte=1"`
}

// Config is one immutable snapshot of the scoring configuration.
type Config struct {
	Weights    Weights    `json:"weights"`
	Thresholds Thresholds `json:"thresholds"`
	Penalties  Penalties  `json:"penalties"`
}

// ConfigUpdate is a partial configuration. Each non-nil section replaces the
// corresponding section of the current config as a whole.
type ConfigUpdate struct {
	Weights    *Weights    `json:"weights,omitempty"`
	Thresholds *Thresholds `json:"thresholds,omitempty"`
	Penalties  *Penalties  `json:"penalties,omitempty"`
}

const (
	defaultWeight = 1.0

	// priorityBonus is the flat weight boost for user priorities.
	priorityBonus = 0.3

	// budgetWeight is fixed; it is neither configurable nor priority-boostable.
	budgetWeight = 1.5
)

// DefaultConfig returns the stock weights, thresholds and penalties.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			models.Walkability:    1.0,
			models.Transit:        1.0,
			models.Safety:         1.2,
			models.Nightlife:      0.8,
			models.FamilyFriendly: 1.0,
			models.Culture:        0.9,
			models.Outdoors:       0.9,
			models.Dining:         0.8,
			models.Cost:           1.3,
		},
		Thresholds: Thresholds{
			MinScore:      0.4,
			MinConfidence: 0.6,
			MaxResults:    8,
		},
		Penalties: Penalties{
			IncompleteData: 0.1,
			OutdatedData:   0.05,
			LowReliability: 0.08,
		},
	}
}

// Weight returns the base weight for f.
func (c Config) Weight(f models.Factor) float64 {
	if w, ok := c.Weights[f]; ok && w != 0 {
		return w
	}
	return defaultWeight
}

// Clone returns a deep copy so callers cannot mutate a live snapshot.
func (c Config) Clone() Config {
	out := c
	if c.Weights != nil {
		out.Weights = make(Weights, len(c.Weights))
		for k, v := range c.Weights {
			out.Weights[k] = v
		}
	}
	return out
}

// Merge applies a shallow update: present sections are replaced wholesale,
// absent sections are kept.
func (c Config) Merge(u ConfigUpdate) Config {
	out := c.Clone()
	if u.Weights != nil {
		out.Weights = Config{Weights: *u.Weights}.Clone().Weights
	}
	if u.Thresholds != nil {
		out.Thresholds = *u.Thresholds
	}
	if u.Penalties != nil {
		out.Penalties = *u.Penalties
	}
	return out
}

func validateWeights(w Weights) error {
	for f, v := range w {
		if !f.Valid() {
			return fmt.Errorf("%w: weight for %s", ErrInvalidConfig, f)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: weight for %s must be a non-negative number, got %v", ErrInvalidConfig, f, v)
		}
	}
	return nil
}
