package catalog

import (
	"fmt"
	"math/rand"
	"time"

	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/models"
)

// Clients carries the storage clients the manager managed to open. Nil
// fields are simply unavailable.
type Clients struct {
	Postgres      *database.PostgresClient
	SQLite        *database.SQLiteClient
	Elasticsearch *database.ElasticsearchClient
	Redis         *database.RedisClient
}

// FromConfig assembles the provider chain: the configured source, guarded by
// a breaker with a static fallback when the source is remote, with the Redis
// cache outermost.
func FromConfig(cfg config.CatalogConfig, clients Clients, log logger.Logger) (Provider, error) {
	static, err := staticFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var provider Provider = static
	switch cfg.Source {
	case config.CatalogSourceStatic, "":
	case config.CatalogSourcePostgres:
		if clients.Postgres == nil {
			return nil, fmt.Errorf("catalog source postgres: no postgres client")
		}
		provider = NewPostgresProvider(clients.Postgres)
	case config.CatalogSourceSQLite:
		if clients.SQLite == nil {
			return nil, fmt.Errorf("catalog source sqlite: no sqlite client")
		}
		provider = NewSQLiteStore(clients.SQLite)
	case config.CatalogSourceElasticsearch:
		if clients.Elasticsearch == nil {
			return nil, fmt.Errorf("catalog source elasticsearch: no elasticsearch client")
		}
		provider = NewElasticsearchProvider(clients.Elasticsearch, cfg.Index)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}

	if provider != Provider(static) && cfg.Breaker.Enabled {
		provider = NewResilientProvider(provider, static, cfg.Breaker, log)
	}

	if cfg.CacheTTL > 0 && clients.Redis != nil {
		provider = NewCachedProvider(provider, clients.Redis, time.Duration(cfg.CacheTTL)*time.Second, log)
	}

	log.Info("catalog provider ready", map[string]interface{}{
		"source":   provider.Name(),
		"breaker":  cfg.Breaker.Enabled,
		"cacheTTL": cfg.CacheTTL,
	})
	return provider, nil
}

func staticFromConfig(cfg config.CatalogConfig) (*StaticProvider, error) {
	var neighborhoods []models.Neighborhood
	if cfg.File != "" {
		loaded, err := LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		neighborhoods = loaded
	}

	var opts []StaticOption
	if cfg.Jitter {
		opts = append(opts, WithJitter(rand.New(rand.NewSource(time.Now().UnixNano()))))
	}
	return NewStaticProvider(neighborhoods, opts...), nil
}
