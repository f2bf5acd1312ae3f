package matching

import "math"

const (
	consistencyCeiling = 0.2
	extremeHigh        = 0.95
	extremeLow         = 0.1
	extremeDiscount    = 0.9
)

// Variance is the population variance of values; zero for an empty slice.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var squared float64
	for _, v := range values {
		squared += math.Pow(v-mean, 2)
	}
	return squared / float64(len(values))
}

// Confidence starts from data quality, rewards a uniform fit across factors,
// and slightly distrusts extreme final scores. The result is clamped to [0,1].
func Confidence(dataQuality, score float64, factorScores []float64) float64 {
	confidence := dataQuality
	confidence += math.Max(0, consistencyCeiling-Variance(factorScores))

	if score > extremeHigh || score < extremeLow {
		confidence *= extremeDiscount
	}

	return math.Min(1, math.Max(0, confidence))
}
