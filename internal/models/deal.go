// internal/models/deal.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// DealStatus is the only field of a deal that changes after creation.
type DealStatus string

const (
	DealPending  DealStatus = "pending"
	DealApproved DealStatus = "approved"
	DealRejected DealStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s DealStatus) Valid() bool {
	switch s {
	case DealPending, DealApproved, DealRejected:
		return true
	}
	return false
}

// CanTransition reports whether a deal in status s may move to next.
func (s DealStatus) CanTransition(next DealStatus) bool {
	return s == DealPending && (next == DealApproved || next == DealRejected)
}

// Deal is the persisted record: profile, assessment, terms and proposal text.
type Deal struct {
	ID         string          `json:"id" db:"id"`
	Profile    BusinessProfile `json:"profile" db:"profile"`
	Risk       RiskAssessment  `json:"risk" db:"risk"`
	Terms      DealTerms       `json:"terms" db:"terms"`
	ProposalID string          `json:"proposal_id" db:"proposal_id"`
	Proposal   string          `json:"proposal,omitempty" db:"proposal"`
	Strategy   string          `json:"strategy" db:"strategy"`
	Status     DealStatus      `json:"status" db:"status"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	RejectedAt *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	ValidUntil time.Time  `json:"valid_until" db:"valid_until"`
}

// ProposalIDFor derives the public proposal reference from a profile id.
func ProposalIDFor(profileID string) string {
	short := profileID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("EQR-%s", strings.ToUpper(short))
}

// ContractIDFor derives the agreement reference from a profile id.
func ContractIDFor(profileID string) string {
	return ProposalIDFor(profileID) + "-CONTRACT"
}

// Feedback is a pilot-program response from a landlord or tenant.
type Feedback struct {
	ID            string    `json:"id" db:"id"`
	UserType      string    `json:"user_type" db:"user_type"`
	InterestLevel int       `json:"interest_level" db:"interest_level"`
	Location      string    `json:"location,omitempty" db:"location"`
	Email         string    `json:"email,omitempty" db:"email"`
	Feedback      string    `json:"feedback" db:"feedback"`
	PilotInterest bool      `json:"pilot_interest" db:"pilot_interest"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// DashboardStats summarises the deal book for landlords.
type DashboardStats struct {
	TotalDeals               int                  `json:"total_deals"`
	PendingDeals             int                  `json:"pending_deals"`
	ApprovedDeals            int                  `json:"approved_deals"`
	RejectedDeals            int                  `json:"rejected_deals"`
	ApprovalRate             float64              `json:"approval_rate"`
	AverageRisk              float64              `json:"average_risk"`
	RiskDistribution         map[RiskCategory]int `json:"risk_distribution"`
	BusinessTypeDistribution map[string]int       `json:"business_type_distribution"`
	GeneratedAt              time.Time            `json:"generated_at"`
}
