// internal/workers/matching/update-matching-config/models.go
package updatematchingconfig

import "neighborhood-matcher/internal/matching"

// Input is a partial matching configuration. Each present section replaces
// the live section as a whole; an empty input only reads the configuration.
type Input struct {
	Weights    *matching.Weights    `json:"weights,omitempty"`
	Thresholds *matching.Thresholds `json:"thresholds,omitempty"`
	Penalties  *matching.Penalties  `json:"penalties,omitempty"`
}

func (i Input) empty() bool {
	return i.Weights == nil && i.Thresholds == nil && i.Penalties == nil
}

type Output struct {
	MatchingConfig matching.Config `json:"matchingConfig"`
	Updated        bool            `json:"updated"`
}
