// internal/models/session.go
package models

import "time"

// WizardState is a step of the tenant application wizard.
type WizardState string

const (
	WizardBasics     WizardState = "basics"
	WizardFinancials WizardState = "financials"
	WizardReview     WizardState = "review"
	WizardSubmitted  WizardState = "submitted"
)

// BasicsStep holds the first wizard page.
type BasicsStep struct {
	BusinessName      string `json:"business_name"`
	BusinessType      string `json:"business_type"`
	Industry          string `json:"industry"`
	Location          string `json:"location"`
	SpaceSize         int    `json:"space_size"`
	TeamSize          int    `json:"team_size"`
	FoundingDate      string `json:"founding_date,omitempty"`
	MissionStatement  string `json:"mission_statement,omitempty"`
	FounderExperience string `json:"founder_experience,omitempty"`
	LeaseDuration     string `json:"lease_duration,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
	ContactPhone      string `json:"contact_phone,omitempty"`
}

// FinancialsStep holds the second wizard page.
type FinancialsStep struct {
	CurrentRevenue      float64 `json:"current_revenue"`
	ProjectedRevenue12m float64 `json:"projected_revenue_12m"`
	MonthlyExpenses     float64 `json:"monthly_expenses"`
	CashOnHand          float64 `json:"cash_on_hand"`
	RunwayMonths        float64 `json:"runway_months"`
	FundingRaised       float64 `json:"funding_raised"`
	IsProfitable        bool    `json:"is_profitable"`
	HasRecurringRevenue bool    `json:"has_recurring_revenue"`
	NumCustomers        int     `json:"num_customers"`
	RevenueGrowthRate   float64 `json:"revenue_growth_rate"`
}

// WizardSession is the per-tenant wizard state. It lives in the session
// store, never in process memory.
type WizardSession struct {
	ID         string          `json:"id"`
	State      WizardState     `json:"state"`
	Basics     *BasicsStep     `json:"basics,omitempty"`
	Financials *FinancialsStep `json:"financials,omitempty"`
	DealID     string          `json:"deal_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Profile assembles the captured steps into a BusinessProfile.
func (s *WizardSession) Profile() BusinessProfile {
	var p BusinessProfile
	if b := s.Basics; b != nil {
		p.BusinessName = b.BusinessName
		p.BusinessType = b.BusinessType
		p.Industry = b.Industry
		p.Location = b.Location
		p.SpaceSize = b.SpaceSize
		p.TeamSize = b.TeamSize
		p.FoundingDate = b.FoundingDate
		p.MissionStatement = b.MissionStatement
		p.FounderExperience = b.FounderExperience
		p.LeaseDuration = b.LeaseDuration
		p.ContactEmail = b.ContactEmail
		p.ContactPhone = b.ContactPhone
	}
	if f := s.Financials; f != nil {
		p.CurrentRevenue = f.CurrentRevenue
		p.ProjectedRevenue12m = f.ProjectedRevenue12m
		p.MonthlyExpenses = f.MonthlyExpenses
		p.BurnRate = f.MonthlyExpenses
		p.CashOnHand = f.CashOnHand
		p.RunwayMonths = f.RunwayMonths
		p.FundingRaised = f.FundingRaised
		p.HasFunding = f.FundingRaised > 0
		p.IsProfitable = f.IsProfitable
		p.HasRecurringRevenue = f.HasRecurringRevenue
		p.NumCustomers = f.NumCustomers
		p.HasCustomers = f.NumCustomers > 0
		p.HasRevenue = f.CurrentRevenue > 0
		p.RevenueGrowthRate = f.RevenueGrowthRate
	}
	return p
}
