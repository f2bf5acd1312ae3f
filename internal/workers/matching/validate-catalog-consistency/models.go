// internal/workers/matching/validate-catalog-consistency/models.go
package validatecatalogconsistency

type Input struct {
	NeighborhoodIDs []string `json:"neighborhoodIds,omitempty"`
	Enrich          bool     `json:"enrich"`
}

type Output struct {
	Valid      bool     `json:"valid"`
	Issues     []string `json:"issues"`
	Confidence float64  `json:"confidence"`
	Checked    int      `json:"checked"`
	Source     string   `json:"source"`
}
