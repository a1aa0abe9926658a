// internal/lease/scoring/explain.go
package scoring

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"equireal-workers/internal/models"
)

// Explain lists the strengths and concerns a landlord sees next to a score.
// It reads the raw profile so that absent fields are reported as given.
func Explain(p models.BusinessProfile) []models.RiskFactor {
	var factors []models.RiskFactor
	strength := func(format string, args ...interface{}) {
		factors = append(factors, models.RiskFactor{Kind: models.FactorStrength, Message: fmt.Sprintf(format, args...)})
	}
	concern := func(msg string) {
		factors = append(factors, models.RiskFactor{Kind: models.FactorConcern, Message: msg})
	}

	if p.CurrentRevenue > 10000 {
		strength("Strong revenue traction ($%s/month)", dollars(p.CurrentRevenue))
	}
	if p.HasFunding {
		strength("Institutional funding secured ($%s)", dollars(p.FundingRaised))
	}
	if p.FounderExperience == models.FounderSerial || p.FounderExperience == models.FounderSuccessfulExit {
		strength("Experienced founder (%s)", p.FounderExperience)
	}
	if p.RunwayMonths > 12 {
		strength("Healthy cash runway (%s months)", trimFloat(p.RunwayMonths))
	}

	if p.BusinessType == models.BusinessTypeRestaurant {
		concern("High-risk industry (Restaurant sector)")
	}
	if p.CurrentRevenue <= 0 {
		concern("Pre-revenue stage")
	}
	if p.TeamSize < 3 {
		concern("Small team size")
	}
	if p.RunwayMonths < 6 {
		concern("Limited cash runway")
	}

	return factors
}

func dollars(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
