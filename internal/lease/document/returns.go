// internal/lease/document/returns.go
package document

import (
	"github.com/shopspring/decimal"

	"equireal-workers/internal/models"
)

// LandlordReturn compares year-one income of a traditional lease with the
// hybrid structure. Amounts are whole dollars.
type LandlordReturn struct {
	TraditionalAnnual    float64 `json:"traditional_annual"`
	HybridAnnualRent     float64 `json:"hybrid_annual_rent"`
	AnnualRevenueShare   float64 `json:"annual_revenue_share"`
	FullTermRevenueShare float64 `json:"full_term_revenue_share"`
	TotalReturn          float64 `json:"total_return"`
	ImprovementPercent   float64 `json:"improvement_percent"`
	ImprovementAmount    float64 `json:"improvement_amount"`
}

// LandlordReturnFor projects the revenue share from the 12-month revenue
// projection. ImprovementPercent is 0 when there is no market rent.
func LandlordReturnFor(p models.BusinessProfile, terms models.DealTerms) LandlordReturn {
	p = p.WithDefaults()
	twelve := decimal.NewFromInt(12)

	share := decimal.NewFromFloat(terms.RevenueSharePercent).Div(decimal.NewFromInt(100))
	annualShare := decimal.NewFromFloat(p.ProjectedRevenue12m).Mul(twelve).Mul(share)
	hybridRent := decimal.NewFromFloat(terms.MonthlyRent).Mul(twelve)
	total := hybridRent.Add(annualShare)
	market := decimal.NewFromFloat(terms.AnnualMarketRent)

	improvement := decimal.Zero
	if market.IsPositive() {
		improvement = total.Div(market).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	}

	return LandlordReturn{
		TraditionalAnnual:    market.Round(0).InexactFloat64(),
		HybridAnnualRent:     hybridRent.Round(0).InexactFloat64(),
		AnnualRevenueShare:   annualShare.Round(0).InexactFloat64(),
		FullTermRevenueShare: annualShare.Mul(decimal.NewFromInt(int64(terms.RevenueShareYears))).Round(0).InexactFloat64(),
		TotalReturn:          total.Round(0).InexactFloat64(),
		ImprovementPercent:   improvement.Round(1).InexactFloat64(),
		ImprovementAmount:    total.Sub(market).Round(0).InexactFloat64(),
	}
}
