// internal/models/business.go
package models

import "math"

// Business types recognised by the additive risk strategy.
const (
	BusinessTypeSaaSStartup          = "SaaS Startup"
	BusinessTypeEcommerce            = "E-commerce"
	BusinessTypeProfessionalServices = "Professional Services"
	BusinessTypeManufacturing        = "Manufacturing"
	BusinessTypeRestaurant           = "Restaurant"
	BusinessTypeRetailStore          = "Retail Store"
	BusinessTypeFranchise            = "Franchise"
	BusinessTypeOther                = "Other"
)

// Industries recognised by the additive risk strategy.
const (
	IndustryTechnology    = "Technology"
	IndustryHealthcare    = "Healthcare"
	IndustryFinance       = "Finance"
	IndustryEducation     = "Education"
	IndustryFoodBeverage  = "Food & Beverage"
	IndustryRetail        = "Retail"
	IndustryRealEstate    = "Real Estate"
	IndustryOther         = "Other"
	IndustrySaaS          = "Software as a Service (SaaS)"
	IndustryFinTech       = "FinTech"
	IndustryHealthTech    = "HealthTech"
	IndustryEcommerce     = "E-commerce"
	IndustryRestaurants   = "Restaurants"
	IndustryProfessional  = "Professional Services"
	IndustryManufacturing = "Manufacturing"
	IndustryHealthcareSvc = "Healthcare Services"
	IndustryConsulting    = "Consulting"
)

// Founder experience levels, least to most senior.
const (
	FounderFirstTime      = "First-time founder"
	FounderIndustryVet    = "Industry veteran (10+ years)"
	FounderSerial         = "Serial entrepreneur"
	FounderSuccessfulExit = "Previous successful exit"
)

var FounderExperienceLevels = []string{
	FounderFirstTime,
	FounderIndustryVet,
	FounderSerial,
	FounderSuccessfulExit,
}

var BusinessTypes = []string{
	BusinessTypeSaaSStartup,
	BusinessTypeEcommerce,
	BusinessTypeProfessionalServices,
	BusinessTypeManufacturing,
	BusinessTypeRestaurant,
	BusinessTypeRetailStore,
	BusinessTypeFranchise,
	BusinessTypeOther,
}

var Industries = []string{
	IndustryTechnology,
	IndustryHealthcare,
	IndustryFinance,
	IndustryEducation,
	IndustryFoodBeverage,
	IndustryRetail,
	IndustryRealEstate,
	IndustryOther,
}

var BusinessModels = []string{
	"B2B SaaS", "B2C SaaS", "E-commerce", "Marketplace",
	"Brick & Mortar", "Franchise", "Service-based", "Other",
}

var LeaseDurations = []string{"1 year", "2 years", "3 years", "5 years"}

var Locations = []string{
	"San Francisco, CA", "New York, NY", "Austin, TX", "Seattle, WA",
	"Boston, MA", "Los Angeles, CA", "Chicago, IL", "Denver, CO", "Miami, FL",
}

const (
	DefaultSpaceSize = 1000
	DefaultTeamSize  = 1
)

// BusinessProfile is the tenant record a deal is computed from. It is
// immutable once submitted; WithDefaults is the only normalisation step.
type BusinessProfile struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id,omitempty" db:"user_id"`

	BusinessName     string `json:"business_name" db:"business_name"`
	BusinessType     string `json:"business_type" db:"business_type"`
	Industry         string `json:"industry" db:"industry"`
	Location         string `json:"location,omitempty" db:"location"`
	BusinessModel    string `json:"business_model,omitempty"`
	FoundingDate     string `json:"founding_date,omitempty"`
	MissionStatement string `json:"mission_statement,omitempty"`

	SpaceSize     int    `json:"space_size" db:"space_size"`
	TeamSize      int    `json:"team_size" db:"team_size"`
	LeaseDuration string `json:"lease_duration,omitempty"`

	CurrentRevenue      float64 `json:"current_revenue"`
	ProjectedRevenue12m float64 `json:"projected_revenue_12m"`
	ProjectedRevenue24m float64 `json:"projected_revenue_24m,omitempty"`
	BurnRate            float64 `json:"burn_rate"`
	RunwayMonths        float64 `json:"runway_months"`
	FundingRaised       float64 `json:"funding_raised"`
	MonthlyExpenses     float64 `json:"monthly_expenses,omitempty"`
	CashOnHand          float64 `json:"cash_on_hand,omitempty"`
	NumCustomers        int     `json:"num_customers,omitempty"`
	RevenueGrowthRate   float64 `json:"revenue_growth_rate,omitempty"`

	HasFunding          bool `json:"has_funding"`
	HasRevenue          bool `json:"has_revenue"`
	HasCustomers        bool `json:"has_customers"`
	IsProfitable        bool `json:"is_profitable"`
	HasRecurringRevenue bool `json:"has_recurring_revenue,omitempty"`

	FounderExperience    string `json:"founder_experience"`
	TargetMarket         string `json:"target_market,omitempty"`
	CompetitiveAdvantage string `json:"competitive_advantage,omitempty"`
	GrowthStrategy       string `json:"growth_strategy,omitempty"`

	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// WithDefaults returns a copy with the documented defaults applied to absent
// or out-of-range optional fields.
func (p BusinessProfile) WithDefaults() BusinessProfile {
	if p.SpaceSize <= 0 {
		p.SpaceSize = DefaultSpaceSize
	}
	if p.TeamSize <= 0 {
		p.TeamSize = DefaultTeamSize
	}
	if p.BusinessType == "" {
		p.BusinessType = BusinessTypeOther
	}
	if p.Industry == "" {
		p.Industry = IndustryOther
	}
	if p.FounderExperience == "" {
		p.FounderExperience = FounderFirstTime
	}
	p.CurrentRevenue = nonNegative(p.CurrentRevenue)
	p.ProjectedRevenue12m = nonNegative(p.ProjectedRevenue12m)
	p.ProjectedRevenue24m = nonNegative(p.ProjectedRevenue24m)
	p.BurnRate = nonNegative(p.BurnRate)
	p.RunwayMonths = nonNegative(p.RunwayMonths)
	p.FundingRaised = nonNegative(p.FundingRaised)
	p.MonthlyExpenses = nonNegative(p.MonthlyExpenses)
	p.CashOnHand = nonNegative(p.CashOnHand)
	if p.NumCustomers < 0 {
		p.NumCustomers = 0
	}
	return p
}

// Contains reports whether value is one of the listed options.
func Contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// nonNegative also zeroes NaN and infinities so money fields stay finite.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
