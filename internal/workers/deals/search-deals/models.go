// internal/workers/deals/search-deals/models.go
package searchdeals

import (
	"time"

	"equireal-workers/internal/workers/deals/search-deals/queries"
)

type Input struct {
	Query   string          `json:"query"`
	Filters queries.Filters `json:"filters"`
	SortBy  string          `json:"sortBy,omitempty"`
	From    int             `json:"from"`
	Size    int             `json:"size"`
}

type Output struct {
	Deals     []DealSummary `json:"deals"`
	TotalHits int64         `json:"totalHits"`
	MaxScore  float64       `json:"maxScore"`
	Took      int64         `json:"took"`
	From      int           `json:"from"`
	Size      int           `json:"size"`
}

// DealSummary is a search hit as shown in landlord listings.
type DealSummary struct {
	ID                 string    `json:"id"`
	ProposalID         string    `json:"proposal_id"`
	BusinessName       string    `json:"business_name"`
	BusinessType       string    `json:"business_type"`
	Industry           string    `json:"industry"`
	Location           string    `json:"location,omitempty"`
	Status             string    `json:"status"`
	RiskCategory       string    `json:"risk_category"`
	OverallRisk        float64   `json:"overall_risk"`
	EquityPercent      float64   `json:"equity_percent"`
	UpfrontRentPercent float64   `json:"upfront_rent_percent"`
	MonthlyRent        float64   `json:"monthly_rent"`
	UpdatedAt          time.Time `json:"updated_at"`
	Score              float64   `json:"score,omitempty"`
}
