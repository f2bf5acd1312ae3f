package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"neighborhood-matcher/internal/models"
)

//go:embed sample_neighborhoods.json
var sampleJSON []byte

// SampleNeighborhoods returns a fresh copy of the built-in demo catalog.
func SampleNeighborhoods() []models.Neighborhood {
	var out []models.Neighborhood
	if err := json.Unmarshal(sampleJSON, &out); err != nil {
		panic(fmt.Sprintf("catalog: embedded sample is invalid: %v", err))
	}
	return out
}

// jitterSpan is the full width of the simulated live-data drift.
const jitterSpan = 0.5

// StaticProvider serves an in-memory catalog.
type StaticProvider struct {
	neighborhoods []models.Neighborhood

	mu  sync.Mutex
	rng *rand.Rand
}

type StaticOption func(*StaticProvider)

// WithJitter perturbs walkability, transit and safety by up to ±0.25 on every
// read, clamped to [1,10], to simulate live feeds.
func WithJitter(rng *rand.Rand) StaticOption {
	return func(p *StaticProvider) { p.rng = rng }
}

// NewStaticProvider serves neighborhoods, or the sample catalog when nil.
func NewStaticProvider(neighborhoods []models.Neighborhood, opts ...StaticOption) *StaticProvider {
	if neighborhoods == nil {
		neighborhoods = SampleNeighborhoods()
	}
	p := &StaticProvider{neighborhoods: neighborhoods}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) GetNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Neighborhood, len(p.neighborhoods))
	copy(out, p.neighborhoods)

	if p.rng != nil {
		p.mu.Lock()
		for i := range out {
			for _, f := range []models.Factor{models.Walkability, models.Transit, models.Safety} {
				drift := (p.rng.Float64() - 0.5) * jitterSpan
				out[i].Scores[f] = math.Min(10, math.Max(1, out[i].Scores[f]+drift))
			}
		}
		p.mu.Unlock()
	}
	return out, nil
}

func (p *StaticProvider) GetNeighborhood(ctx context.Context, id string) (*models.Neighborhood, error) {
	return findByID(ctx, p, id)
}
