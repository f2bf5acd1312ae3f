// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhood-matcher/internal/catalog"
	"neighborhood-matcher/internal/common/camunda"
	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/matching"
	"neighborhood-matcher/internal/models"
	"neighborhood-matcher/internal/profile"

	fnm "neighborhood-matcher/internal/workers/matching/find-neighborhood-matches"
	vcc "neighborhood-matcher/internal/workers/matching/validate-catalog-consistency"
)

// These tests need the docker-compose stack (PostgreSQL, Redis,
// Elasticsearch, Zeebe) on localhost. Set E2E=1 to run them.

type stack struct {
	cfg      *config.Config
	postgres *database.PostgresClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient
	log      logger.Logger
}

func setupStack(t *testing.T) *stack {
	t.Helper()
	if os.Getenv("E2E") == "" {
		t.Skip("set E2E=1 to run end-to-end tests")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Postgres.Host = "localhost"
	if cfg.Database.Postgres.Database == "" {
		cfg.Database.Postgres.Database = "neighborhoods"
	}
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"
	cfg.Catalog.Index = "neighborhoods-e2e-" + uuid.NewString()[:8]

	ctx := context.Background()
	s := &stack{cfg: cfg, log: logger.NewTestLogger(t)}

	s.postgres, err = database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, s.postgres.Ping(ctx), "PostgreSQL ping failed")
	require.NoError(t, s.postgres.Migrate(ctx))
	t.Cleanup(func() { s.postgres.Close() })

	s.redis, err = database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	require.NoError(t, s.redis.Ping(ctx), "Redis ping failed")
	t.Cleanup(func() { s.redis.Close() })

	s.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, s.es.Ping(ctx), "Elasticsearch ping failed")
	require.NoError(t, s.es.EnsureIndex(ctx, cfg.Catalog.Index, catalog.NeighborhoodMapping))
	t.Cleanup(func() {
		res, err := s.es.Client.Indices.Delete([]string{cfg.Catalog.Index})
		if err == nil {
			res.Body.Close()
		}
	})

	return s
}

func TestZeebeConnectivity(t *testing.T) {
	s := setupStack(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
		RetryConfig:            &camunda.RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 2 * time.Second},
	}, s.log)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(ctx))
}

// Every storage backend must serve the sample catalog in the same order with
// the same content, so matches do not depend on the configured source.
func TestCatalogSourcesAgree(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	sample := catalog.SampleNeighborhoods()

	pg := catalog.NewPostgresProvider(s.postgres)
	require.NoError(t, pg.Upsert(ctx, sample))

	es := catalog.NewElasticsearchProvider(s.es, s.cfg.Catalog.Index)
	require.NoError(t, es.IndexMany(ctx, sample))

	lite, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer lite.Close()
	sqliteStore := catalog.NewSQLiteStore(lite)
	require.NoError(t, sqliteStore.EnsureSchema(ctx))
	require.NoError(t, sqliteStore.UpsertMany(ctx, sample))

	for _, provider := range []catalog.Provider{pg, es, sqliteStore} {
		t.Run(provider.Name(), func(t *testing.T) {
			got, err := provider.GetNeighborhoods(ctx)
			require.NoError(t, err)
			require.Len(t, got, len(sample))
			for i := range sample {
				assert.Equal(t, sample[i], got[i])
			}

			one, err := provider.GetNeighborhood(ctx, sample[2].ID)
			require.NoError(t, err)
			assert.Equal(t, sample[2], *one)

			_, err = provider.GetNeighborhood(ctx, "nowhere")
			assert.ErrorIs(t, err, catalog.ErrNotFound)
		})
	}
}

func TestFindMatchesWithStoredProfile(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	pg := catalog.NewPostgresProvider(s.postgres)
	require.NoError(t, pg.Upsert(ctx, catalog.SampleNeighborhoods()))

	cached := catalog.NewCachedProvider(pg, s.redis, time.Minute, s.log)
	require.NoError(t, cached.Invalidate(ctx))

	store := profile.NewStore(s.postgres, s.redis, time.Minute, s.log)
	user := models.UserProfile{
		ID:         "e2e-" + uuid.NewString(),
		Name:       "E2E Renter",
		Age:        31,
		Budget:     models.Budget{Min: 1800, Max: 3200},
		Lifestyle:  models.FactorVector{8, 8, 7, 5, 4, 7, 6, 7, 6},
		Priorities: []models.Factor{models.Walkability, models.Transit},
	}
	require.NoError(t, store.Save(ctx, user))

	service, err := matching.NewService(matching.DefaultConfig(), s.log)
	require.NoError(t, err)

	handler := fnm.NewHandler(fnm.LoadConfig(config.WorkerConfig{}, nil), service, cached, store, nil, s.log)

	first, err := handler.Execute(ctx, &fnm.Input{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, len(catalog.SampleNeighborhoods()), first.Evaluated)

	// Second run is served from Redis and must rank identically.
	second, err := handler.Execute(ctx, &fnm.Input{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, first.Matches, second.Matches)

	// The inline profile path gives the same answer as the stored one.
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	inline, err := handler.Execute(ctx, &fnm.Input{UserProfile: raw})
	require.NoError(t, err)
	assert.Equal(t, first.Matches, inline.Matches)

	for i := 1; i < len(first.Matches); i++ {
		assert.GreaterOrEqual(t, first.Matches[i-1].RankValue(), first.Matches[i].RankValue())
	}
}

func TestValidateCatalogAgainstElasticsearch(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	es := catalog.NewElasticsearchProvider(s.es, s.cfg.Catalog.Index)
	require.NoError(t, es.IndexMany(ctx, catalog.SampleNeighborhoods()))

	handler := vcc.NewHandler(vcc.LoadConfig(config.WorkerConfig{}, nil), es, s.log)

	plain, err := handler.Execute(ctx, &vcc.Input{})
	require.NoError(t, err)
	assert.Equal(t, catalog.ValidateConsistency(catalog.SampleNeighborhoods()), catalog.ConsistencyReport{
		Valid: plain.Valid, Issues: plain.Issues, Confidence: plain.Confidence,
	})

	enriched, err := handler.Execute(ctx, &vcc.Input{Enrich: true})
	require.NoError(t, err)
	assert.False(t, enriched.Valid)
	assert.Equal(t, "elasticsearch", enriched.Source)
}
