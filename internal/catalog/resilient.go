package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/models"
)

// ResilientProvider reads from primary through a circuit breaker and serves
// from fallback while the primary fails or the breaker is open.
type ResilientProvider struct {
	primary  Provider
	fallback Provider
	breaker  *gobreaker.CircuitBreaker[[]models.Neighborhood]
	logger   logger.Logger
}

// NewResilientProvider wraps primary. fallback may be nil, in which case
// primary errors and gobreaker.ErrOpenState are returned as-is.
func NewResilientProvider(primary, fallback Provider, cfg config.BreakerConfig, log logger.Logger) *ResilientProvider {
	r := &ResilientProvider{
		primary:  primary,
		fallback: fallback,
		logger: log.WithFields(map[string]interface{}{
			"component": "catalog-breaker",
			"source":    primary.Name(),
		}),
	}

	failures := uint32(cfg.ConsecutiveFailures)
	if failures == 0 {
		failures = 3
	}
	r.breaker = gobreaker.NewCircuitBreaker[[]models.Neighborhood](gobreaker.Settings{
		Name:        "catalog-" + primary.Name(),
		MaxRequests: uint32(cfg.MaxRequests),
		Interval:    config.GetDuration(cfg.Interval),
		Timeout:     config.GetDuration(cfg.Timeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("catalog breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return r
}

func (r *ResilientProvider) Name() string { return r.primary.Name() }

// State reports the breaker state for health endpoints.
func (r *ResilientProvider) State() string { return r.breaker.State().String() }

func (r *ResilientProvider) GetNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	result, err := r.breaker.Execute(func() ([]models.Neighborhood, error) {
		return r.primary.GetNeighborhoods(ctx)
	})
	if err == nil {
		return result, nil
	}
	if r.fallback == nil || ctx.Err() != nil {
		return nil, err
	}

	r.logger.Warn("serving catalog from fallback", map[string]interface{}{
		"fallback": r.fallback.Name(),
		"error":    err,
	})
	result, ferr := r.fallback.GetNeighborhoods(ctx)
	if ferr != nil {
		return nil, fmt.Errorf("primary: %v; fallback %s: %w", err, r.fallback.Name(), ferr)
	}
	return result, nil
}

func (r *ResilientProvider) GetNeighborhood(ctx context.Context, id string) (*models.Neighborhood, error) {
	start := time.Now()
	result, err := r.breaker.Execute(func() ([]models.Neighborhood, error) {
		n, err := r.primary.GetNeighborhood(ctx, id)
		if err != nil {
			return nil, err
		}
		return []models.Neighborhood{*n}, nil
	})
	if err == nil {
		return &result[0], nil
	}
	if errors.Is(err, ErrNotFound) || r.fallback == nil || ctx.Err() != nil {
		return nil, err
	}

	r.logger.Warn("serving neighborhood from fallback", map[string]interface{}{
		"neighborhoodId": id,
		"fallback":       r.fallback.Name(),
		"error":          err,
		"elapsedMs":      time.Since(start).Milliseconds(),
	})
	return r.fallback.GetNeighborhood(ctx, id)
}
