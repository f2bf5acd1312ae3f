// internal/workers/matching/validate-catalog-consistency/config.go
package validatecatalogconsistency

import (
	"time"

	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/models"
)

type Config struct {
	Timeout time.Duration
	Sources []models.DataSource
}

// LoadConfig defaults the enrichment sources to the stock feed list.
func LoadConfig(wcfg config.WorkerConfig, sources []models.DataSource) *Config {
	cfg := &Config{Timeout: 15 * time.Second, Sources: sources}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
