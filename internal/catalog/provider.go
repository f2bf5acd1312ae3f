// Package catalog supplies neighborhood records to the matching engine.
package catalog

import (
	"context"
	"errors"
	"time"

	"neighborhood-matcher/internal/common/metrics"
	"neighborhood-matcher/internal/models"
)

var (
	ErrNotFound      = errors.New("neighborhood not found")
	ErrIndexNotFound = errors.New("catalog index not found")
)

// Provider returns the neighborhood catalog in a stable order. The engine
// treats the result as a completed input.
type Provider interface {
	GetNeighborhoods(ctx context.Context) ([]models.Neighborhood, error)
	GetNeighborhood(ctx context.Context, id string) (*models.Neighborhood, error)
	Name() string
}

// FilterByIDs keeps the neighborhoods named in ids, in catalog order. An empty
// ids slice keeps everything.
func FilterByIDs(catalog []models.Neighborhood, ids []string) []models.Neighborhood {
	if len(ids) == 0 {
		return catalog
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	out := make([]models.Neighborhood, 0, len(ids))
	for _, n := range catalog {
		if _, ok := want[n.ID]; ok {
			out = append(out, n)
		}
	}
	return out
}

// findByID is the GetNeighborhood fallback for providers without a point lookup.
func findByID(ctx context.Context, p Provider, id string) (*models.Neighborhood, error) {
	all, err := p.GetNeighborhoods(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			n := all[i]
			return &n, nil
		}
	}
	return nil, ErrNotFound
}

func observeFetch(source string, start time.Time) {
	metrics.CatalogFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
