package matching

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"neighborhood-matcher/internal/models"
)

const (
	topReasonCount     = 3
	reasonMinScore     = 0.8
	concernMaxScore    = 0.4
	budgetConcernScore = 0.6
	dataQualityFloor   = 0.8
)

var positiveInsights = [models.NumFactors]string{
	models.Walkability:    "Excellent walkability with easy access to daily amenities",
	models.Transit:        "Strong public transportation connections",
	models.Safety:         "Well-regarded safety record and community security",
	models.Nightlife:      "Vibrant nightlife and entertainment options",
	models.FamilyFriendly: "Family-oriented community with good schools and parks",
	models.Culture:        "Rich cultural scene with arts, museums, and events",
	models.Outdoors:       "Great outdoor recreation and green spaces",
	models.Dining:         "Diverse and high-quality dining options",
	models.Cost:           "Affordable housing options within your budget",
}

var negativeInsights = [models.NumFactors]string{
	models.Walkability:    "Limited walkability - may require car for daily errands",
	models.Transit:        "Public transportation options are limited",
	models.Safety:         "Safety concerns based on available data",
	models.Nightlife:      "Limited nightlife and entertainment options",
	models.FamilyFriendly: "May not be ideal for families with children",
	models.Culture:        "Limited cultural amenities and activities",
	models.Outdoors:       "Few outdoor recreation opportunities",
	models.Dining:         "Limited dining variety and quality",
	models.Cost:           "Higher cost of living than typical preferences",
}

const budgetPositiveInsight = "Housing costs align well with your budget range"

var amountPrinter = message.NewPrinter(language.AmericanEnglish)

func positiveInsight(f models.Factor) string {
	if f.Valid() && positiveInsights[f] != "" {
		return positiveInsights[f]
	}
	return fmt.Sprintf("Strong %s rating", f)
}

func negativeInsight(f models.Factor) string {
	if f.Valid() && negativeInsights[f] != "" {
		return negativeInsights[f]
	}
	return fmt.Sprintf("Concerns about %s rating", f)
}

// rankedEntry joins lifestyle and budget entries for impact ranking.
type rankedEntry struct {
	factor models.Factor
	budget bool
	entry  BreakdownEntry
}

func (r rankedEntry) reason() string {
	if r.budget {
		return budgetPositiveInsight
	}
	return positiveInsight(r.factor)
}

// Insights derives the reasons and concerns for one scored pair. Reasons come
// from the three highest-impact factors; concerns are appended in factor
// order, then budget, then data quality.
func Insights(user models.UserProfile, n models.Neighborhood, b Breakdown) (reasons, concerns []string) {
	reasons = []string{}
	concerns = []string{}

	ranked := make([]rankedEntry, 0, models.NumFactors+1)
	for _, f := range models.AllFactors() {
		ranked = append(ranked, rankedEntry{factor: f, entry: b.Factors[f]})
	}
	ranked = append(ranked, rankedEntry{budget: true, entry: b.Budget})

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].entry.Impact > ranked[j].entry.Impact
	})
	if len(ranked) > topReasonCount {
		ranked = ranked[:topReasonCount]
	}
	for _, r := range ranked {
		if r.entry.Score > reasonMinScore {
			reasons = append(reasons, r.reason())
		}
	}

	for _, f := range models.AllFactors() {
		if b.Factors[f].Score < concernMaxScore && user.HasPriority(f) {
			concerns = append(concerns, negativeInsight(f))
		}
	}

	if b.Budget.Score < budgetConcernScore {
		concerns = append(concerns, fmt.Sprintf("Housing costs may exceed your budget range of $%s-$%s",
			formatAmount(user.Budget.Min), formatAmount(user.Budget.Max)))
	}

	if n.DataQuality < dataQualityFloor {
		concerns = append(concerns, fmt.Sprintf("Limited data available for this neighborhood (%d%% complete)",
			roundPercent(n.DataQuality)))
	}

	return reasons, concerns
}

// formatAmount renders a budget bound with en-US grouping, e.g. 1500 -> "1,500".
func formatAmount(v float64) string {
	return amountPrinter.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}

// roundPercent converts a ratio to a whole percentage, rounding half up.
func roundPercent(ratio float64) int {
	return int(math.Floor(ratio*100 + 0.5))
}
