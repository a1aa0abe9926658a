// internal/models/assessment.go
package models

// RiskCategory buckets an overall risk score for reporting.
type RiskCategory string

const (
	RiskLow    RiskCategory = "Low"
	RiskMedium RiskCategory = "Medium"
	RiskHigh   RiskCategory = "High"
)

// CategoryFor maps a risk score onto Low (<40), Medium (<70) or High.
func CategoryFor(score float64) RiskCategory {
	switch {
	case score < 40:
		return RiskLow
	case score < 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// RiskFactor is one human-readable reason behind a score.
type RiskFactor struct {
	Kind    string `json:"kind"` // "strength" or "concern"
	Message string `json:"message"`
}

const (
	FactorStrength = "strength"
	FactorConcern  = "concern"
)

// RiskAssessment is computed once per profile and persisted verbatim.
type RiskAssessment struct {
	OverallRisk float64            `json:"overall_risk"`
	Strategy    string             `json:"strategy"`
	Breakdown   map[string]float64 `json:"breakdown,omitempty"`
	Category    RiskCategory       `json:"risk_category"`
	Confidence  float64            `json:"confidence"`
	Trend       string             `json:"risk_trend,omitempty"`
	Factors     []RiskFactor       `json:"factors,omitempty"`
}

// Strengths returns the messages of all strength factors.
func (r RiskAssessment) Strengths() []string {
	return r.messages(FactorStrength)
}

// Concerns returns the messages of all concern factors.
func (r RiskAssessment) Concerns() []string {
	return r.messages(FactorConcern)
}

func (r RiskAssessment) messages(kind string) []string {
	var out []string
	for _, f := range r.Factors {
		if f.Kind == kind {
			out = append(out, f.Message)
		}
	}
	return out
}

// DealTerms is the lease structure offered for a profile.
type DealTerms struct {
	RiskScore           float64 `json:"risk_score"`
	UpfrontRentPercent  float64 `json:"upfront_rent_percent"`
	EquityPercent       float64 `json:"equity_percent"`
	RevenueSharePercent float64 `json:"revenue_share_percent"`
	RevenueShareYears   int     `json:"revenue_share_years"`

	SpaceSize         int     `json:"space_size"`
	MarketRatePerSqft float64 `json:"market_rate_per_sqft"`
	AnnualMarketRent  float64 `json:"annual_market_rent"`
	MonthlyMarketRent float64 `json:"monthly_market_rent"`
	MonthlyRent       float64 `json:"monthly_rent"`
	DeferredAmount    float64 `json:"deferred_amount"`
	RevenueTrigger    float64 `json:"revenue_trigger"`

	// SavingsLabel names DeferredAmount in rendered documents.
	SavingsLabel string `json:"savings_label,omitempty"`
}
