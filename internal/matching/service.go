// internal/matching/service.go
package matching

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/models"
)

// Service owns the current configuration snapshot and runs matches against it.
// Updates install a new snapshot; a running batch keeps the one it started with.
type Service struct {
	config      atomic.Pointer[Config]
	logger      logger.Logger
	validate    *validator.Validate
	parallelism int
}

type Option func(*Service)

// WithParallelism bounds how many neighborhoods are scored concurrently.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func NewService(cfg Config, log logger.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		logger:      log.WithFields(map[string]interface{}{"component": "matching"}),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.check(cfg); err != nil {
		return nil, err
	}
	snapshot := cfg.Clone()
	s.config.Store(&snapshot)
	return s, nil
}

// Config returns a copy of the current snapshot.
func (s *Service) Config() Config {
	return s.config.Load().Clone()
}

// UpdateConfig merges u into the current snapshot and installs the result.
func (s *Service) UpdateConfig(u ConfigUpdate) (Config, error) {
	for {
		current := s.config.Load()
		next := current.Merge(u)
		if err := s.check(next); err != nil {
			return Config{}, err
		}
		if s.config.CompareAndSwap(current, &next) {
			s.logger.Info("matching config updated", map[string]interface{}{
				"weights":    u.Weights != nil,
				"thresholds": u.Thresholds != nil,
				"penalties":  u.Penalties != nil,
			})
			return next.Clone(), nil
		}
	}
}

func (s *Service) check(cfg Config) error {
	if err := validateWeights(cfg.Weights); err != nil {
		return err
	}
	if err := s.validate.Struct(cfg.Thresholds); err != nil {
		return fmt.Errorf("%w: thresholds: %v", ErrInvalidConfig, err)
	}
	if err := s.validate.Struct(cfg.Penalties); err != nil {
		return fmt.Errorf("%w: penalties: %v", ErrInvalidConfig, err)
	}
	return nil
}

// CalculateMatch scores a single pair against the current snapshot.
func (s *Service) CalculateMatch(user models.UserProfile, n models.Neighborhood) (MatchResult, error) {
	return CalculateMatch(*s.config.Load(), user, n)
}

// FindMatches scores every neighborhood, keeps those that clear the
// thresholds, ranks them by 0.7*score + 0.3*confidence (catalog order breaks
// ties) and truncates to MaxResults. ctx is checked between neighborhoods.
func (s *Service) FindMatches(ctx context.Context, user models.UserProfile, catalog []models.Neighborhood) ([]MatchResult, error) {
	cfg := *s.config.Load()
	start := time.Now()

	results, err := s.scoreAll(ctx, cfg, user, catalog)
	if err != nil {
		return nil, err
	}

	kept := make([]MatchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= cfg.Thresholds.MinScore && r.Confidence >= cfg.Thresholds.MinConfidence {
			kept = append(kept, r)
		}
	}
	filtered := len(kept)

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RankValue() > kept[j].RankValue()
	})
	if len(kept) > cfg.Thresholds.MaxResults {
		kept = kept[:cfg.Thresholds.MaxResults]
	}

	s.logger.Info("matches ranked", map[string]interface{}{
		"userId":     user.ID,
		"evaluated":  len(catalog),
		"kept":       filtered,
		"returned":   len(kept),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return kept, nil
}

func (s *Service) scoreAll(ctx context.Context, cfg Config, user models.UserProfile, catalog []models.Neighborhood) ([]MatchResult, error) {
	results := make([]MatchResult, len(catalog))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, n := range catalog {
		i, n := i, n
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := CalculateMatch(cfg, user, n)
			if err != nil {
				s.logger.Warn("neighborhood rejected", map[string]interface{}{
					"neighborhoodId": n.ID,
					"error":          err.Error(),
				})
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return results, nil
}
