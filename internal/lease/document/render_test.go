// internal/lease/document/render_test.go
package document

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equireal-workers/internal/models"
)

// ==========================
// Test Helpers
// ==========================

var fixedNow = time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)

func createTestProfile() models.BusinessProfile {
	return models.BusinessProfile{
		ID:                  "7f3a9c21-5b4e-4d2a-9f10-8e6b5c4d3a21",
		BusinessName:        "Brightside Analytics",
		BusinessType:        models.BusinessTypeSaaSStartup,
		Industry:            models.IndustryTechnology,
		Location:            "Austin, TX",
		SpaceSize:           2000,
		TeamSize:            9,
		LeaseDuration:       "3 years",
		CurrentRevenue:      18000,
		ProjectedRevenue12m: 30000,
		ProjectedRevenue24m: 55000,
		BurnRate:            22000,
		RunwayMonths:        14,
		FundingRaised:       750000,
		HasFunding:          true,
		HasRevenue:          true,
		HasCustomers:        true,
		FounderExperience:   models.FounderSerial,
		BusinessModel:       "B2B SaaS",
	}
}

func createTestRisk() models.RiskAssessment {
	return models.RiskAssessment{
		OverallRisk: 32.5,
		Strategy:    "additive",
		Category:    models.RiskLow,
		Confidence:  85.3,
		Factors: []models.RiskFactor{
			{Kind: models.FactorStrength, Message: "Strong revenue traction ($18,000/month)"},
			{Kind: models.FactorConcern, Message: "Limited cash runway"},
		},
	}
}

func createTestTerms() models.DealTerms {
	return models.DealTerms{
		RiskScore:           32.5,
		UpfrontRentPercent:  24.8,
		EquityPercent:       3.6,
		RevenueSharePercent: 2.3,
		RevenueShareYears:   4,
		SpaceSize:           2000,
		MarketRatePerSqft:   25,
		AnnualMarketRent:    50000,
		MonthlyMarketRent:   4167,
		MonthlyRent:         1033,
		DeferredAmount:      3133,
		RevenueTrigger:      27000,
		SavingsLabel:        "Deferred Amount",
	}
}

// ==========================
// Proposal
// ==========================

func TestRenderProposal_Labels(t *testing.T) {
	doc, err := RenderProposal(createTestProfile(), createTestRisk(), createTestTerms(), fixedNow, DefaultOptions())
	require.NoError(t, err)

	expected := []string{
		"# EQUIREAL DEAL PROPOSAL",
		"**Generated:** March 05, 2026 at 02:30 PM",
		"**Proposal ID:** EQR-7F3A9C21",
		"**Profile ID:** 7f3a9c21-5b4e-4d2a-9f10-8e6b5c4d3a21",
		"**Valid Until:** April 04, 2026",
		"**Status:** Pending landlord review",
		"| Business Name | Brightside Analytics |",
		"| Business Type | SaaS Startup |",
		"| Industry | Technology |",
		"| Space Requirements | 2,000 square feet |",
		"| Lease Duration | 3 years |",
		"| Team Size | 9 employees |",
		"| Founder Experience | Serial entrepreneur |",
		"| Current Monthly Revenue | $18,000 |",
		"| 12-Month Projection | $30,000 |",
		"| Current Burn Rate | $22,000/month |",
		"| Cash Runway | 14 months |",
		"| Total Funding Raised | $750,000 |",
		"| Funding Status | Funded |",
		"| Revenue Status | Revenue Generating |",
		"| Customer Base | Has Customers |",
		"| Profitability | Not yet profitable |",
		"| Overall Risk Score | 32.5/100 |",
		"| Risk Category | LOW RISK |",
		"| Confidence Level | 85.3% |",
		"- Strong revenue traction ($18,000/month)",
		"- Limited cash runway",
		"| Standard Market Rent | $4,167 | 100.0% | $50,000 |",
		"| Upfront Rent | $1,033 | 24.8% | $12,396 |",
		"| Deferred Amount | $3,133 | 75.2% | $37,596 |",
		"**Equity Stake:** 3.6% of business",
		"**Revenue Share Percentage:** 2.3% of gross monthly revenue",
		"**Duration:** 4 years from lease commencement",
		"**Revenue Threshold:** Activated when monthly revenue exceeds $27,000",
		"Contact: hello@equireal.com / (555) 123-REAL",
	}
	for _, want := range expected {
		assert.Contains(t, doc, want)
	}
}

func TestRenderProposal_Deterministic(t *testing.T) {
	first, err := RenderProposal(createTestProfile(), createTestRisk(), createTestTerms(), fixedNow, DefaultOptions())
	require.NoError(t, err)
	second, err := RenderProposal(createTestProfile(), createTestRisk(), createTestTerms(), fixedNow, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	later, err := RenderProposal(createTestProfile(), createTestRisk(), createTestTerms(), fixedNow.Add(time.Hour), DefaultOptions())
	require.NoError(t, err)
	assert.NotEqual(t, first, later)
}

func TestRenderProposal_Fallbacks(t *testing.T) {
	p := models.BusinessProfile{ID: "short"}
	risk := models.RiskAssessment{OverallRisk: 75, Category: models.RiskHigh}

	doc, err := RenderProposal(p, risk, models.DealTerms{SpaceSize: 1000, SavingsLabel: "Monthly Savings"}, fixedNow, Options{ValidityDays: 7})
	require.NoError(t, err)

	assert.Contains(t, doc, "**Proposal ID:** EQR-SHORT")
	assert.Contains(t, doc, "**Valid Until:** March 12, 2026")
	assert.Contains(t, doc, "| Lease Duration | To be negotiated |")
	assert.Contains(t, doc, "| Business Model | Not specified |")
	assert.Contains(t, doc, "| Funding Status | Bootstrapped |")
	assert.Contains(t, doc, "| Risk Category | HIGH RISK |")
	assert.Contains(t, doc, "| Monthly Savings | $0 | 100.0% | $0 |")
	assert.Contains(t, doc, "**Improvement Over Market:** +0.0% (+$0)")
	assert.NotContains(t, doc, "Strengths:")
	assert.NotContains(t, doc, "Concerns:")
}

func TestRenderProposal_CustomContact(t *testing.T) {
	opts := Options{Contact: Contact{Email: "leasing@example.com"}}
	doc, err := RenderProposal(createTestProfile(), createTestRisk(), createTestTerms(), fixedNow, opts)
	require.NoError(t, err)
	assert.Contains(t, doc, "Contact: leasing@example.com / (555) 123-REAL")
}

// ==========================
// Contract
// ==========================

func TestRenderContract(t *testing.T) {
	doc, err := RenderContract(createTestProfile(), createTestTerms(), fixedNow)
	require.NoError(t, err)

	expected := []string{
		"# EQUIREAL HYBRID LEASE AGREEMENT",
		"This Agreement is entered into on March 05, 2026 between:",
		"**TENANT:** Brightside Analytics",
		"**PREMISES:** Austin, TX",
		"**SPACE:** 2,000 square feet",
		"1.1 Base Rent: $1,033 per month",
		"1.2 Market Rate: $4,167 per month",
		"1.3 Upfront Percentage: 24.8% of market rate",
		"1.4 Deferred Amount: $3,133 per month",
		"2.1 Equity Percentage: 3.6% of Tenant's business",
		"3.1 Revenue Share: 2.3% of gross monthly revenue",
		"3.2 Duration: 4 years from lease commencement",
		"3.3 Threshold: Activated when monthly revenue exceeds $27,000",
		"**Agreement ID:** EQR-7F3A9C21-CONTRACT",
	}
	for _, want := range expected {
		assert.Contains(t, doc, want)
	}
}

// ==========================
// Landlord Return
// ==========================

func TestLandlordReturnFor(t *testing.T) {
	r := LandlordReturnFor(createTestProfile(), createTestTerms())

	// 30000 * 12 * 0.023
	assert.Equal(t, 8280.0, r.AnnualRevenueShare)
	assert.Equal(t, 33120.0, r.FullTermRevenueShare)
	assert.Equal(t, 12396.0, r.HybridAnnualRent)
	assert.Equal(t, 20676.0, r.TotalReturn)
	assert.Equal(t, 50000.0, r.TraditionalAnnual)
	assert.Equal(t, -29324.0, r.ImprovementAmount)
	assert.Equal(t, -58.6, r.ImprovementPercent)
}

func TestLandlordReturnFor_ZeroMarketRent(t *testing.T) {
	r := LandlordReturnFor(models.BusinessProfile{ProjectedRevenue12m: 10000}, models.DealTerms{RevenueSharePercent: 3, RevenueShareYears: 3})
	assert.Equal(t, 0.0, r.ImprovementPercent)
	assert.Equal(t, 3600.0, r.AnnualRevenueShare)
	assert.Equal(t, 3600.0, r.ImprovementAmount)
}

func TestLandlordReturnFor_NonFiniteProjection(t *testing.T) {
	for _, proj := range []float64{math.Inf(1), math.NaN()} {
		p := createTestProfile()
		p.ProjectedRevenue12m = proj

		var r LandlordReturn
		require.NotPanics(t, func() { r = LandlordReturnFor(p, createTestTerms()) })
		assert.Zero(t, r.AnnualRevenueShare)
		assert.Equal(t, r.HybridAnnualRent, r.TotalReturn)
	}
}

// ==========================
// HTML
// ==========================

func TestToHTML(t *testing.T) {
	doc, err := RenderProposal(createTestProfile(), createTestRisk(), createTestTerms(), fixedNow, DefaultOptions())
	require.NoError(t, err)

	out, err := ToHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>EQUIREAL DEAL PROPOSAL</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>Brightside Analytics</td>")

	page, err := ToHTMLPage("Proposal <EQR-7F3A9C21>", doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(page, "<!doctype html>"))
	assert.Contains(t, page, "<title>Proposal &lt;EQR-7F3A9C21&gt;</title>")
}
