// internal/lease/terms/policy.go
package terms

import (
	"fmt"

	"github.com/shopspring/decimal"

	"equireal-workers/internal/lease/scoring"
	"equireal-workers/internal/models"
)

var (
	fifty   = decimal.NewFromInt(50)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Term is one bounded percentage: Base + Slope*riskFactor, clamped.
type Term struct {
	Base  float64 `yaml:"base" json:"base"`
	Slope float64 `yaml:"slope" json:"slope"`
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
}

func (t Term) raw(riskFactor decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(t.Base).Add(decimal.NewFromFloat(t.Slope).Mul(riskFactor))
}

func (t Term) bound(v decimal.Decimal) decimal.Decimal {
	lo, hi := decimal.NewFromFloat(t.Min), decimal.NewFromFloat(t.Max)
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// Reduction lowers upfront rent and equity when a profile input matches
// Tier, independently of the blended risk score.
type Reduction struct {
	Name    string       `yaml:"name" json:"name"`
	Input   string       `yaml:"input" json:"input"`
	Tier    scoring.Tier `yaml:"tier" json:"tier"`
	Upfront float64      `yaml:"upfront" json:"upfront"`
	Equity  float64      `yaml:"equity" json:"equity"`
}

// Policy maps a risk score and a profile onto lease terms.
type Policy struct {
	Name         string      `yaml:"name" json:"name"`
	Upfront      Term        `yaml:"upfront" json:"upfront"`
	Equity       Term        `yaml:"equity" json:"equity"`
	RevenueShare Term        `yaml:"revenue_share" json:"revenue_share"`
	Reductions   []Reduction `yaml:"reductions,omitempty" json:"reductions,omitempty"`

	// RevenueShareYears is keyed by business type.
	RevenueShareYears        map[string]int `yaml:"revenue_share_years" json:"revenue_share_years"`
	DefaultRevenueShareYears int            `yaml:"default_revenue_share_years" json:"default_revenue_share_years"`

	RatePerSqft       float64 `yaml:"rate_per_sqft" json:"rate_per_sqft"`
	DefaultSpaceSize  int     `yaml:"default_space_size" json:"default_space_size"`
	TriggerMultiplier float64 `yaml:"trigger_multiplier" json:"trigger_multiplier"`
	TriggerFloor      float64 `yaml:"trigger_floor" json:"trigger_floor"`
	SavingsLabel      string  `yaml:"savings_label" json:"savings_label"`
}

// Validate checks term bounds and fills optional fields.
func (pol *Policy) Validate() error {
	if pol.Name == "" {
		return fmt.Errorf("terms policy name is required")
	}
	for name, t := range map[string]Term{"upfront": pol.Upfront, "equity": pol.Equity, "revenue_share": pol.RevenueShare} {
		if t.Min > t.Max {
			return fmt.Errorf("terms policy %s: %s min %.1f exceeds max %.1f", pol.Name, name, t.Min, t.Max)
		}
	}
	if pol.RatePerSqft <= 0 {
		return fmt.Errorf("terms policy %s: rate_per_sqft must be positive", pol.Name)
	}
	if pol.DefaultRevenueShareYears <= 0 {
		pol.DefaultRevenueShareYears = 3
	}
	if pol.DefaultSpaceSize <= 0 {
		pol.DefaultSpaceSize = models.DefaultSpaceSize
	}
	if pol.TriggerMultiplier <= 0 {
		pol.TriggerMultiplier = 1.5
	}
	if pol.SavingsLabel == "" {
		pol.SavingsLabel = "Deferred Amount"
	}
	for _, r := range pol.Reductions {
		if r.Input == "" {
			return fmt.Errorf("terms policy %s: reduction %q has no input", pol.Name, r.Name)
		}
	}
	return nil
}

// Generate derives deal terms from a profile and its assessment. It is pure:
// the same inputs always give the same terms.
func (pol *Policy) Generate(p models.BusinessProfile, risk models.RiskAssessment) models.DealTerms {
	space := p.SpaceSize
	if space <= 0 {
		space = pol.DefaultSpaceSize
	}
	p = p.WithDefaults()
	p.SpaceSize = space

	riskFactor := decimal.NewFromFloat(risk.OverallRisk).Sub(fifty).Div(fifty)

	upfront := pol.Upfront.raw(riskFactor)
	equity := pol.Equity.raw(riskFactor)
	revShare := pol.RevenueShare.raw(riskFactor)

	in := scoring.InputsFrom(p)
	for _, r := range pol.Reductions {
		v, ok := in.Number(r.Input)
		if ok && r.Tier.Matches(v) {
			upfront = upfront.Sub(decimal.NewFromFloat(r.Upfront))
			equity = equity.Sub(decimal.NewFromFloat(r.Equity))
		}
	}

	upfront = pol.Upfront.bound(upfront).Round(1)
	equity = pol.Equity.bound(equity).Round(1)
	revShare = pol.RevenueShare.bound(revShare).Round(1)

	annual := decimal.NewFromInt(int64(space)).Mul(decimal.NewFromFloat(pol.RatePerSqft))
	monthlyMarket := annual.Div(twelve)
	monthlyRent := monthlyMarket.Mul(upfront).Div(hundred)
	deferred := monthlyMarket.Sub(monthlyRent)

	trigger := decimal.NewFromFloat(p.CurrentRevenue).Mul(decimal.NewFromFloat(pol.TriggerMultiplier))
	if floor := decimal.NewFromFloat(pol.TriggerFloor); trigger.LessThan(floor) {
		trigger = floor
	}

	return models.DealTerms{
		RiskScore:           risk.OverallRisk,
		UpfrontRentPercent:  upfront.InexactFloat64(),
		EquityPercent:       equity.InexactFloat64(),
		RevenueSharePercent: revShare.InexactFloat64(),
		RevenueShareYears:   pol.revenueShareYears(p.BusinessType),
		SpaceSize:           space,
		MarketRatePerSqft:   pol.RatePerSqft,
		AnnualMarketRent:    annual.Round(0).InexactFloat64(),
		MonthlyMarketRent:   monthlyMarket.Round(0).InexactFloat64(),
		MonthlyRent:         monthlyRent.Round(0).InexactFloat64(),
		DeferredAmount:      deferred.Round(0).InexactFloat64(),
		RevenueTrigger:      trigger.Round(0).InexactFloat64(),
		SavingsLabel:        pol.SavingsLabel,
	}
}

func (pol *Policy) revenueShareYears(businessType string) int {
	if y, ok := pol.RevenueShareYears[businessType]; ok {
		return y
	}
	return pol.DefaultRevenueShareYears
}
