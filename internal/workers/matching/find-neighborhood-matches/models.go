// internal/workers/matching/find-neighborhood-matches/models.go
package findneighborhoodmatches

import (
	"encoding/json"

	"neighborhood-matcher/internal/matching"
)

type Input struct {
	UserID          string          `json:"userId"`
	UserProfile     json.RawMessage `json:"userProfile,omitempty"`
	NeighborhoodIDs []string        `json:"neighborhoodIds,omitempty"`
}

type Output struct {
	BatchID   string                 `json:"batchId"`
	Matches   []matching.MatchResult `json:"matches"`
	Evaluated int                    `json:"evaluated"`
	Returned  int                    `json:"returned"`
}
