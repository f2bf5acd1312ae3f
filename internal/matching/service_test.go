// internal/matching/service_test.go
package matching

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/models"
)

func newTestService(t *testing.T, cfg Config, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(cfg, logger.NewTestLogger(t), opts...)
	require.NoError(t, err)
	return s
}

// mixedCatalog is scored against testUser(2): "far" misses minScore,
// "sketchy" misses minConfidence, the rest rank exact > close > near.
func mixedCatalog() []models.Neighborhood {
	return []models.Neighborhood{
		testNeighborhood("far", 10, 0.95),
		testNeighborhood("close", 3, 0.9),
		testNeighborhood("exact", 2, 0.85),
		testNeighborhood("near", 4, 0.92),
		testNeighborhood("sketchy", 2, 0.2),
	}
}

func ids(results []MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Neighborhood.ID
	}
	return out
}

// ==========================
// FindMatches
// ==========================

func TestFindMatches_EmptyCatalog(t *testing.T) {
	s := newTestService(t, DefaultConfig())

	results, err := s.FindMatches(context.Background(), testUser(5), nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFindMatches_AllFilteredOut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.MinScore = 1.0

	results, err := newTestService(t, cfg).FindMatches(context.Background(), testUser(2), mixedCatalog())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindMatches_FiltersSortsAndTruncates(t *testing.T) {
	cfg := DefaultConfig()
	s := newTestService(t, cfg, WithParallelism(3))
	catalog := mixedCatalog()

	results, err := s.FindMatches(context.Background(), testUser(2), catalog)
	require.NoError(t, err)

	assert.Equal(t, []string{"exact", "close", "near"}, ids(results))

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].RankValue(), results[i].RankValue())
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, cfg.Thresholds.MinScore)
		assert.GreaterOrEqual(t, r.Confidence, cfg.Thresholds.MinConfidence)
	}

	_, err = s.UpdateConfig(ConfigUpdate{Thresholds: &Thresholds{MinScore: 0.4, MinConfidence: 0.6, MaxResults: 2}})
	require.NoError(t, err)

	truncated, err := s.FindMatches(context.Background(), testUser(2), catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "close"}, ids(truncated))
}

func TestFindMatches_TiesKeepCatalogOrder(t *testing.T) {
	s := newTestService(t, DefaultConfig(), WithParallelism(4))

	catalog := make([]models.Neighborhood, 0, 12)
	for _, id := range []string{"k", "c", "x", "a", "q", "m", "b", "z", "d", "y", "e", "f"} {
		catalog = append(catalog, testNeighborhood(id, 6, 0.9))
	}

	for round := 0; round < 5; round++ {
		results, err := s.FindMatches(context.Background(), testUser(5), catalog)
		require.NoError(t, err)
		assert.Equal(t, []string{"k", "c", "x", "a", "q", "m", "b", "z"}, ids(results))
	}
}

func TestFindMatches_Idempotent(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	user := testUser(6, models.Safety)

	first, err := s.FindMatches(context.Background(), user, mixedCatalog())
	require.NoError(t, err)
	second, err := s.FindMatches(context.Background(), user, mixedCatalog())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFindMatches_ContractViolationFailsBatch(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	catalog := mixedCatalog()
	catalog[2].Scores[models.Dining] = math.NaN()

	_, err := s.FindMatches(context.Background(), testUser(2), catalog)
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.NotErrorIs(t, err, ErrCancelled)
}

func TestFindMatches_Cancelled(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindMatches(ctx, testUser(5), mixedCatalog())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Configuration
// ==========================

func TestNewService_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.MinConfidence = 1.5

	_, err := NewService(cfg, logger.NewNoOpLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_ReturnsCopy(t *testing.T) {
	s := newTestService(t, DefaultConfig())

	cfg := s.Config()
	cfg.Weights[models.Safety] = 9
	cfg.Thresholds.MaxResults = 1

	assert.Equal(t, DefaultConfig(), s.Config())
}

func TestUpdateConfig_ShallowMerge(t *testing.T) {
	s := newTestService(t, DefaultConfig())

	updated, err := s.UpdateConfig(ConfigUpdate{Weights: &Weights{models.Safety: 2}})
	require.NoError(t, err)

	assert.Equal(t, Weights{models.Safety: 2}, updated.Weights)
	assert.Equal(t, 1.0, updated.Weight(models.Cost), "omitted weights fall back to 1.0")
	assert.Equal(t, DefaultConfig().Thresholds, updated.Thresholds)
	assert.Equal(t, DefaultConfig().Penalties, updated.Penalties)
	assert.Equal(t, updated, s.Config())
}

func TestUpdateConfig_EmptyUpdateIsNoop(t *testing.T) {
	s := newTestService(t, DefaultConfig())

	updated, err := s.UpdateConfig(ConfigUpdate{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), updated)
}

func TestUpdateConfig_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		update ConfigUpdate
	}{
		{"negative weight", ConfigUpdate{Weights: &Weights{models.Dining: -1}}},
		{"NaN weight", ConfigUpdate{Weights: &Weights{models.Dining: math.NaN()}}},
		{"unknown factor", ConfigUpdate{Weights: &Weights{models.Factor(42): 1}}},
		{"min score above one", ConfigUpdate{Thresholds: &Thresholds{MinScore: 1.2, MinConfidence: 0.5, MaxResults: 3}}},
		{"negative max results", ConfigUpdate{Thresholds: &Thresholds{MinScore: 0.2, MinConfidence: 0.5, MaxResults: -1}}},
		{"negative penalty", ConfigUpdate{Penalties: &Penalties{IncompleteData: -0.1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, DefaultConfig())

			_, err := s.UpdateConfig(tt.update)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Equal(t, DefaultConfig(), s.Config(), "rejected update leaves the snapshot untouched")
		})
	}
}

func TestUpdateConfig_ConcurrentWithMatching(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.MaxResults = 3
	s := newTestService(t, cfg)
	catalog := mixedCatalog()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateConfig(ConfigUpdate{Thresholds: &Thresholds{MinScore: 0.4, MinConfidence: 0.6, MaxResults: 1 + i%3}})
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			results, err := s.FindMatches(context.Background(), testUser(2), catalog)
			if err == nil && len(results) > 3 {
				err = errors.New("more results than any snapshot allows")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestService_CalculateMatchUsesSnapshot(t *testing.T) {
	s := newTestService(t, DefaultConfig())
	_, err := s.UpdateConfig(ConfigUpdate{Penalties: &Penalties{IncompleteData: 0.5}})
	require.NoError(t, err)

	result, err := s.CalculateMatch(testUser(5), testNeighborhood("n1", 5, 0.8))
	require.NoError(t, err)
	assert.InDelta(t, 0.9, result.Score, 1e-9)
}
