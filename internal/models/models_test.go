// internal/models/models_test.go
package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessProfile_WithDefaults(t *testing.T) {
	p := BusinessProfile{
		TeamSize:       0,
		CurrentRevenue: -100,
		RunwayMonths:   -3,
		NumCustomers:   -1,
	}.WithDefaults()

	assert.Equal(t, DefaultSpaceSize, p.SpaceSize)
	assert.Equal(t, 1, p.TeamSize)
	assert.Equal(t, BusinessTypeOther, p.BusinessType)
	assert.Equal(t, IndustryOther, p.Industry)
	assert.Equal(t, FounderFirstTime, p.FounderExperience)
	assert.Zero(t, p.CurrentRevenue)
	assert.Zero(t, p.RunwayMonths)
	assert.Zero(t, p.NumCustomers)
}

func TestBusinessProfile_WithDefaults_KeepsProvidedValues(t *testing.T) {
	in := BusinessProfile{
		BusinessType:      BusinessTypeRestaurant,
		Industry:          IndustryFoodBeverage,
		SpaceSize:         2500,
		TeamSize:          4,
		FounderExperience: FounderSerial,
		CurrentRevenue:    12000,
	}
	assert.Equal(t, in, in.WithDefaults())
}

func TestBusinessProfile_WithDefaults_NonFiniteAmounts(t *testing.T) {
	p := BusinessProfile{
		CurrentRevenue:      math.Inf(1),
		ProjectedRevenue12m: math.NaN(),
		ProjectedRevenue24m: math.Inf(-1),
		BurnRate:            math.NaN(),
		FundingRaised:       math.Inf(1),
		CashOnHand:          math.NaN(),
	}.WithDefaults()

	assert.Zero(t, p.CurrentRevenue)
	assert.Zero(t, p.ProjectedRevenue12m)
	assert.Zero(t, p.ProjectedRevenue24m)
	assert.Zero(t, p.BurnRate)
	assert.Zero(t, p.FundingRaised)
	assert.Zero(t, p.CashOnHand)
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		score    float64
		expected RiskCategory
	}{
		{10, RiskLow},
		{39.9, RiskLow},
		{40, RiskMedium},
		{69.9, RiskMedium},
		{70, RiskHigh},
		{90, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategoryFor(tt.score), "score %v", tt.score)
	}
}

func TestDealStatus_CanTransition(t *testing.T) {
	assert.True(t, DealPending.CanTransition(DealApproved))
	assert.True(t, DealPending.CanTransition(DealRejected))
	assert.False(t, DealPending.CanTransition(DealPending))
	assert.False(t, DealApproved.CanTransition(DealRejected))
	assert.False(t, DealRejected.CanTransition(DealApproved))
	assert.False(t, DealStatus("archived").Valid())
}

func TestProposalIDFor(t *testing.T) {
	assert.Equal(t, "EQR-3F2A9C1B", ProposalIDFor("3f2a9c1b-7d4e-4f00-9a6b-0123456789ab"))
	assert.Equal(t, "EQR-AB", ProposalIDFor("ab"))
	assert.Equal(t, "EQR-3F2A9C1B-CONTRACT", ContractIDFor("3f2a9c1b-7d4e"))
}

func TestWizardSession_Profile(t *testing.T) {
	s := &WizardSession{
		Basics: &BasicsStep{
			BusinessName: "Blue Fern Cafe",
			BusinessType: BusinessTypeRestaurant,
			Industry:     IndustryFoodBeverage,
			Location:     "Austin, TX",
			SpaceSize:    1800,
			TeamSize:     6,
		},
		Financials: &FinancialsStep{
			CurrentRevenue:  22000,
			FundingRaised:   150000,
			NumCustomers:    400,
			MonthlyExpenses: 18000,
		},
	}

	p := s.Profile()
	assert.Equal(t, "Blue Fern Cafe", p.BusinessName)
	assert.Equal(t, 1800, p.SpaceSize)
	assert.True(t, p.HasFunding)
	assert.True(t, p.HasCustomers)
	assert.True(t, p.HasRevenue)
	assert.Equal(t, 18000.0, p.BurnRate)
}
