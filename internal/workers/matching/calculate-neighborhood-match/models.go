// internal/workers/matching/calculate-neighborhood-match/models.go
package calculateneighborhoodmatch

import (
	"encoding/json"

	"neighborhood-matcher/internal/matching"
)

// Input names the neighborhood either by id (looked up in the catalog) or
// inline as a full document.
type Input struct {
	UserID         string          `json:"userId"`
	UserProfile    json.RawMessage `json:"userProfile,omitempty"`
	NeighborhoodID string          `json:"neighborhoodId"`
	Neighborhood   json.RawMessage `json:"neighborhood,omitempty"`
}

type Output struct {
	Match matching.MatchResult `json:"match"`
	// Qualifies reports whether the match would survive FindMatches' thresholds.
	Qualifies bool `json:"qualifies"`
}
