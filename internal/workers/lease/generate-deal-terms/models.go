// internal/workers/lease/generate-deal-terms/models.go
package generatedealterms

import (
	"equireal-workers/internal/lease/document"
	"equireal-workers/internal/models"
)

type Input struct {
	Profile        models.BusinessProfile `json:"profile"`
	RiskAssessment models.RiskAssessment  `json:"riskAssessment"`
}

type Output struct {
	DealTerms      models.DealTerms        `json:"dealTerms"`
	LandlordReturn document.LandlordReturn `json:"landlordReturn"`
	// DiscountPercent is the share of market rent not paid up front.
	DiscountPercent float64 `json:"discountPercent"`
}
