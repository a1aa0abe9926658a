// internal/workers/deals/index-deal/models.go
package indexdeal

import (
	"time"

	"equireal-workers/internal/models"
)

type Input struct {
	Deal models.Deal `json:"deal"`
}

type Output struct {
	DealID  string `json:"dealId"`
	Index   string `json:"index"`
	Result  string `json:"result"`
	Version int64  `json:"version"`
}

// SearchDocument is the indexed view of a deal.
type SearchDocument struct {
	ID                  string    `json:"id"`
	ProposalID          string    `json:"proposal_id"`
	BusinessName        string    `json:"business_name"`
	BusinessType        string    `json:"business_type"`
	Industry            string    `json:"industry"`
	Location            string    `json:"location,omitempty"`
	Mission             string    `json:"mission,omitempty"`
	Status              string    `json:"status"`
	Strategy            string    `json:"strategy"`
	RiskCategory        string    `json:"risk_category"`
	OverallRisk         float64   `json:"overall_risk"`
	EquityPercent       float64   `json:"equity_percent"`
	UpfrontRentPercent  float64   `json:"upfront_rent_percent"`
	RevenueSharePercent float64   `json:"revenue_share_percent"`
	MonthlyRent         float64   `json:"monthly_rent"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DocumentFor flattens a deal into its search document.
func DocumentFor(d models.Deal) SearchDocument {
	return SearchDocument{
		ID:                  d.ID,
		ProposalID:          d.ProposalID,
		BusinessName:        d.Profile.BusinessName,
		BusinessType:        d.Profile.BusinessType,
		Industry:            d.Profile.Industry,
		Location:            d.Profile.Location,
		Mission:             d.Profile.MissionStatement,
		Status:              string(d.Status),
		Strategy:            d.Strategy,
		RiskCategory:        string(d.Risk.Category),
		OverallRisk:         d.Risk.OverallRisk,
		EquityPercent:       d.Terms.EquityPercent,
		UpfrontRentPercent:  d.Terms.UpfrontRentPercent,
		RevenueSharePercent: d.Terms.RevenueSharePercent,
		MonthlyRent:         d.Terms.MonthlyRent,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}
