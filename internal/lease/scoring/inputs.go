// internal/lease/scoring/inputs.go
package scoring

import "equireal-workers/internal/models"

// Input names a rule may read.
const (
	InputBusinessType      = "business_type"
	InputIndustry          = "industry"
	InputFounderExperience = "founder_experience"
	InputMarketValidation  = "market_validation"
	InputCurrentRevenue    = "current_revenue"
	InputGrowthMultiple    = "growth_multiple"
	InputTeamSize          = "team_size"
	InputFundingRaised     = "funding_raised"
	InputRunwayMonths      = "runway_months"
	InputIsProfitable      = "is_profitable"
	InputSpaceSize         = "space_size"
)

// Market validation categories.
const (
	ValidationCustomersAndRevenue = "customers_and_revenue"
	ValidationCustomersOnly       = "customers_only"
	ValidationRevenueOnly         = "revenue_only"
	ValidationNone                = "none"
)

var categoricalInputs = map[string]bool{
	InputBusinessType:      true,
	InputIndustry:          true,
	InputFounderExperience: true,
	InputMarketValidation:  true,
}

var numericInputs = map[string]bool{
	InputCurrentRevenue: true,
	InputGrowthMultiple: true,
	InputTeamSize:       true,
	InputFundingRaised:  true,
	InputRunwayMonths:   true,
	InputIsProfitable:   true,
	InputSpaceSize:      true,
}

func knownInput(name string) bool {
	return categoricalInputs[name] || numericInputs[name]
}

// Inputs is the flattened view of a profile that rules read from.
type Inputs struct {
	numbers    map[string]float64
	categories map[string]string
}

// InputsFrom applies profile defaults and derives the rule inputs.
// growth_multiple is only present when both revenue figures are positive.
func InputsFrom(p models.BusinessProfile) Inputs {
	p = p.WithDefaults()

	in := Inputs{
		numbers: map[string]float64{
			InputCurrentRevenue: p.CurrentRevenue,
			InputTeamSize:       float64(p.TeamSize),
			InputFundingRaised:  p.FundingRaised,
			InputRunwayMonths:   p.RunwayMonths,
			InputIsProfitable:   boolNumber(p.IsProfitable),
			InputSpaceSize:      float64(p.SpaceSize),
		},
		categories: map[string]string{
			InputBusinessType:      p.BusinessType,
			InputIndustry:          p.Industry,
			InputFounderExperience: p.FounderExperience,
			InputMarketValidation:  marketValidation(p.HasCustomers, p.HasRevenue),
		},
	}
	if p.CurrentRevenue > 0 && p.ProjectedRevenue12m > 0 {
		in.numbers[InputGrowthMultiple] = p.ProjectedRevenue12m / p.CurrentRevenue
	}
	return in
}

func (in Inputs) Number(name string) (float64, bool) {
	v, ok := in.numbers[name]
	return v, ok
}

func (in Inputs) Category(name string) (string, bool) {
	v, ok := in.categories[name]
	return v, ok
}

func marketValidation(customers, revenue bool) string {
	switch {
	case customers && revenue:
		return ValidationCustomersAndRevenue
	case customers:
		return ValidationCustomersOnly
	case revenue:
		return ValidationRevenueOnly
	default:
		return ValidationNone
	}
}

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
