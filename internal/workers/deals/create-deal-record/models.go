// internal/workers/deals/create-deal-record/models.go
package createdealrecord

import (
	"time"

	"equireal-workers/internal/models"
)

type Input struct {
	Profile        models.BusinessProfile `json:"profile"`
	RiskAssessment models.RiskAssessment  `json:"riskAssessment"`
	DealTerms      models.DealTerms       `json:"dealTerms"`
	ProposalID     string                 `json:"proposalId"`
	Proposal       string                 `json:"proposal"`
	ValidUntil     time.Time              `json:"validUntil"`
}

type Output struct {
	DealID     string            `json:"dealId"`
	ProposalID string            `json:"proposalId"`
	Status     models.DealStatus `json:"status"`
	CreatedAt  string            `json:"createdAt"`
}
