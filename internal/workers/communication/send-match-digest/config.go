// internal/workers/communication/send-match-digest/config.go
package sendmatchdigest

import (
	"fmt"
	"time"

	"neighborhood-matcher/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	FromEmail    string
	SMSEnabled   bool
	SenderID     string
	MaxMatches   int
}

func LoadConfig(wcfg config.WorkerConfig, ncfg config.NotificationConfig) *Config {
	cfg := &Config{
		Timeout:      30 * time.Second,
		EmailEnabled: ncfg.Email.Enabled,
		FromEmail:    ncfg.Email.FromEmail,
		SMSEnabled:   ncfg.SMS.Enabled,
		SenderID:     ncfg.SMS.SenderID,
		MaxMatches:   ncfg.MaxMatches,
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if cfg.MaxMatches <= 0 {
		cfg.MaxMatches = 3
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !c.EmailEnabled && !c.SMSEnabled {
		return fmt.Errorf("at least one of email or sms must be enabled")
	}
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when email is enabled")
	}
	return nil
}
