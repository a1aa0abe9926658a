// internal/workers/lease/render-documents/models.go
package renderdocuments

import (
	"time"

	"equireal-workers/internal/models"
)

type Input struct {
	Profile        models.BusinessProfile `json:"profile"`
	RiskAssessment models.RiskAssessment  `json:"riskAssessment"`
	DealTerms      models.DealTerms       `json:"dealTerms"`
	IncludeHTML    bool                   `json:"includeHtml"`
}

type Output struct {
	ProposalID   string    `json:"proposalId"`
	ContractID   string    `json:"contractId"`
	Proposal     string    `json:"proposal"`
	Contract     string    `json:"contract"`
	ProposalHTML string    `json:"proposalHtml,omitempty"`
	ContractHTML string    `json:"contractHtml,omitempty"`
	ValidUntil   time.Time `json:"validUntil"`
}
