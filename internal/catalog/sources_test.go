package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhood-matcher/internal/models"
)

func TestEnrich(t *testing.T) {
	n := SampleNeighborhoods()[0]

	enriched, err := Enrich(n, DefaultDataSources())
	require.NoError(t, err)
	// Census covers no score factor; the other three average 0.8167.
	assert.InDelta(t, (0.88+0.82+0.75)/3*0.95, enriched.DataQuality, 1e-9)
	assert.Equal(t, 0.92, n.DataQuality, "input is not modified")
}

func TestEnrich_CapsAtOne(t *testing.T) {
	sources := []models.DataSource{{Name: "perfect", Reliability: 1.2, Coverage: []string{"safety"}}}

	enriched, err := Enrich(SampleNeighborhoods()[0], sources)
	require.NoError(t, err)
	assert.Equal(t, 1.0, enriched.DataQuality)
}

func TestEnrich_NoCoveringSource(t *testing.T) {
	sources := []models.DataSource{{Name: "census", Reliability: 0.95, Coverage: []string{"demographics"}}}

	_, err := Enrich(SampleNeighborhoods()[0], sources)
	assert.ErrorIs(t, err, ErrNoCoveringSource)

	_, err = EnrichAll(SampleNeighborhoods(), sources)
	assert.ErrorIs(t, err, ErrNoCoveringSource)
}

func TestValidateConsistency_Sample(t *testing.T) {
	report := ValidateConsistency(SampleNeighborhoods())

	assert.True(t, report.Valid)
	assert.Empty(t, report.Issues)
	assert.NotNil(t, report.Issues)
	assert.InDelta(t, (0.92+0.89+0.87+0.85+0.83+0.81)/6, report.Confidence, 1e-9)
}

func TestValidateConsistency_Issues(t *testing.T) {
	n := SampleNeighborhoods()[0]
	n.Name = "Test Town"
	n.DataQuality = 0.7
	n.Scores[models.Cost] = 8
	n.Demographics.MedianIncome = 150000
	n.Scores[models.FamilyFriendly] = 9
	n.Demographics.MedianAge = 22

	report := ValidateConsistency([]models.Neighborhood{n})

	assert.False(t, report.Valid)
	assert.Equal(t, []string{
		"Test Town: Low data quality (70%)",
		"Test Town: High affordability score but high median income - potential data inconsistency",
		"Test Town: High family-friendly score but low median age - verify demographics",
	}, report.Issues)
	assert.InDelta(t, 0.7, report.Confidence, 1e-9)
}

func TestValidateConsistency_Empty(t *testing.T) {
	report := ValidateConsistency(nil)
	assert.True(t, report.Valid)
	assert.Zero(t, report.Confidence)
}
