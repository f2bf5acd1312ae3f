// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"neighborhood-matcher/internal/matching"
	"neighborhood-matcher/internal/models"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Profiles      ProfileConfig           `mapstructure:"profiles"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
	Registry      RegistryConfig          `mapstructure:"registry"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
	SQLite        SQLiteConfig        `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether a Postgres host is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the URL field or the first address.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// Catalog sources understood by CatalogConfig.Source.
const (
	CatalogSourceStatic        = "static"
	CatalogSourcePostgres      = "postgres"
	CatalogSourceSQLite        = "sqlite"
	CatalogSourceElasticsearch = "elasticsearch"
)

// CatalogConfig selects and tunes the neighborhood provider chain.
type CatalogConfig struct {
	Source   string        `mapstructure:"source"`
	File     string        `mapstructure:"file"`
	Index    string        `mapstructure:"index"`
	CacheTTL int           `mapstructure:"cache_ttl"` // seconds, 0 disables the cache
	Jitter   bool          `mapstructure:"jitter"`
	Breaker  BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the primary catalog.
type BreakerConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	MaxRequests         int  `mapstructure:"max_requests"`
	Interval            int  `mapstructure:"interval"` // milliseconds
	Timeout             int  `mapstructure:"timeout"`  // milliseconds
	ConsecutiveFailures int  `mapstructure:"consecutive_failures"`
}

// MatchingConfig is the YAML shape of the engine configuration. Weights are
// keyed by factor name in any case, with or without underscores.
type MatchingConfig struct {
	Weights     map[string]float64 `mapstructure:"weights"`
	Thresholds  ThresholdsConfig   `mapstructure:"thresholds"`
	Penalties   PenaltiesConfig    `mapstructure:"penalties"`
	Parallelism int                `mapstructure:"parallelism"`
}

type ThresholdsConfig struct {
	MinScore      *float64 `mapstructure:"min_score"`
	MinConfidence *float64 `mapstructure:"min_confidence"`
	MaxResults    *int     `mapstructure:"max_results"`
}

type PenaltiesConfig struct {
	IncompleteData *float64 `mapstructure:"incomplete_data"`
	OutdatedData   *float64 `mapstructure:"outdated_data"`
	LowReliability *float64 `mapstructure:"low_reliability"`
}

// ToEngine overlays the YAML values on matching.DefaultConfig. Unset values
// keep their defaults; unknown factor names are an error.
func (m MatchingConfig) ToEngine() (matching.Config, error) {
	cfg := matching.DefaultConfig()

	for key, weight := range m.Weights {
		f, err := parseFactorKey(key)
		if err != nil {
			return matching.Config{}, fmt.Errorf("matching.weights: %w", err)
		}
		cfg.Weights[f] = weight
	}

	if v := m.Thresholds.MinScore; v != nil {
		cfg.Thresholds.MinScore = *v
	}
	if v := m.Thresholds.MinConfidence; v != nil {
		cfg.Thresholds.MinConfidence = *v
	}
	if v := m.Thresholds.MaxResults; v != nil {
		cfg.Thresholds.MaxResults = *v
	}

	if v := m.Penalties.IncompleteData; v != nil {
		cfg.Penalties.IncompleteData = *v
	}
	if v := m.Penalties.OutdatedData; v != nil {
		cfg.Penalties.OutdatedData = *v
	}
	if v := m.Penalties.LowReliability; v != nil {
		cfg.Penalties.LowReliability = *v
	}

	return cfg, nil
}

// viper lower-cases map keys, so "familyFriendly" arrives as "familyfriendly".
func parseFactorKey(key string) (models.Factor, error) {
	normalized := strings.ReplaceAll(key, "_", "")
	for _, f := range models.AllFactors() {
		if strings.EqualFold(normalized, f.String()) {
			return f, nil
		}
	}
	return models.ParseFactor(key)
}

type ProfileConfig struct {
	CacheTTL int `mapstructure:"cache_ttl"` // seconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// NotificationConfig holds settings for the send-match-digest worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	MaxMatches int `mapstructure:"max_matches"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
