// internal/workers/deals/update-deal-status/models.go
package updatedealstatus

import "equireal-workers/internal/models"

type Input struct {
	DealID string            `json:"dealId"`
	Status models.DealStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`
}

type Output struct {
	DealID         string            `json:"dealId"`
	ProposalID     string            `json:"proposalId"`
	BusinessName   string            `json:"businessName"`
	PreviousStatus models.DealStatus `json:"previousStatus"`
	Status         models.DealStatus `json:"status"`
	UpdatedAt      string            `json:"updatedAt"`
	ContactEmail   string            `json:"contactEmail,omitempty"`
	ContactPhone   string            `json:"contactPhone,omitempty"`
}
