// internal/workers/matching/find-neighborhood-matches/config.go
package findneighborhoodmatches

import (
	"time"

	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

// LoadConfig reads the timeout from the worker section and the input schema
// from the activity registry entry, when there is one.
func LoadConfig(wcfg config.WorkerConfig, activity *registry.Activity) *Config {
	cfg := &Config{Timeout: 30 * time.Second}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if activity != nil {
		cfg.InputSchema = activity.InputSchema
	}
	return cfg
}
