// internal/workers/matching/calculate-neighborhood-match/config.go
package calculateneighborhoodmatch

import (
	"time"

	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

func LoadConfig(wcfg config.WorkerConfig, activity *registry.Activity) *Config {
	cfg := &Config{Timeout: 10 * time.Second}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if activity != nil {
		cfg.InputSchema = activity.InputSchema
	}
	return cfg
}
