// internal/workers/lease/render-documents/handler_test.go
package renderdocuments

import (
	"context"
	"errors"
	"testing"
	"time"

	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/lease"
	"equireal-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func createTestHandler(t *testing.T) (*Handler, *lease.Engine) {
	s, err := lease.Builtin("additive")
	require.NoError(t, err)
	engine := lease.NewEngine(s, lease.WithClock(func() time.Time { return fixedNow }))
	return NewHandler(LoadConfig(), engine, logger.NewTestLogger(t)), engine
}

func createTestInput(engine *lease.Engine) *Input {
	profile := models.BusinessProfile{
		ID:           "ab12cd34-0000-4000-8000-000000000000",
		BusinessName: "Harbor Dental Lab",
		BusinessType: models.BusinessTypeProfessionalServices,
		Industry:     models.IndustryHealthcare,
		Location:     "Boston, MA",
		SpaceSize:    1800,
		TeamSize:     5,
	}
	risk := engine.ScoreRisk(profile)
	return &Input{
		Profile:        profile,
		RiskAssessment: risk,
		DealTerms:      engine.GenerateTerms(profile, risk),
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	handler, engine := createTestHandler(t)
	input := createTestInput(engine)

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "EQR-AB12CD34", output.ProposalID)
	assert.Equal(t, "EQR-AB12CD34-CONTRACT", output.ContractID)
	assert.Contains(t, output.Proposal, "Harbor Dental Lab")
	assert.Contains(t, output.Contract, "Harbor Dental Lab")
	assert.Equal(t, fixedNow.AddDate(0, 0, 30), output.ValidUntil)
	assert.Empty(t, output.ProposalHTML)
	assert.Empty(t, output.ContractHTML)

	proposal, err := engine.RenderProposal(input.Profile, input.RiskAssessment, input.DealTerms)
	require.NoError(t, err)
	assert.Equal(t, proposal, output.Proposal)
}

func TestHandler_Execute_IncludesHTML(t *testing.T) {
	handler, engine := createTestHandler(t)
	input := createTestInput(engine)
	input.IncludeHTML = true

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, output.ProposalHTML, "<h1")
	assert.Contains(t, output.ContractHTML, "Harbor Dental Lab")
}

func TestHandler_Execute_MissingTerms(t *testing.T) {
	handler, engine := createTestHandler(t)
	input := createTestInput(engine)
	input.DealTerms = models.DealTerms{}

	output, err := handler.Execute(context.Background(), input)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, ErrMissingDealTerms))
}
