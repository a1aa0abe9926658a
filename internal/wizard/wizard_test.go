// internal/wizard/wizard_test.go
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "equireal-workers/internal/common/errors"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

const basicsJSON = `{
	"business_name": "Corner Bistro",
	"business_type": "Restaurant",
	"industry": "Food & Beverage",
	"location": "Chicago, IL",
	"space_size": 2200,
	"team_size": 6,
	"contact_email": "owner@cornerbistro.example"
}`

const financialsJSON = `{
	"current_revenue": 42000,
	"projected_revenue_12m": 55000,
	"cash_on_hand": 80000,
	"runway_months": 9,
	"num_customers": 1200,
	"is_profitable": true
}`

func createTestWizard(t *testing.T, submit SubmitFunc) (*Wizard, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	if submit == nil {
		submit = func(context.Context, models.BusinessProfile) (string, error) { return "deal-1", nil }
	}
	w := New(NewRedisStore(rdb, time.Hour), submit, logger.NewTestLogger(t))
	w.now = func() time.Time { return fixedNow }
	return w, mr
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.Normalize(err).Code)
}

// ==========================
// State Machine Tests
// ==========================

func TestNext(t *testing.T) {
	tests := []struct {
		state models.WizardState
		event Event
		want  models.WizardState
		ok    bool
	}{
		{models.WizardBasics, EventSubmitBasics, models.WizardFinancials, true},
		{models.WizardFinancials, EventSubmitFinancials, models.WizardReview, true},
		{models.WizardFinancials, EventBack, models.WizardBasics, true},
		{models.WizardReview, EventBack, models.WizardFinancials, true},
		{models.WizardReview, EventSubmit, models.WizardSubmitted, true},
		{models.WizardBasics, EventBack, "", false},
		{models.WizardBasics, EventSubmit, "", false},
		{models.WizardFinancials, EventSubmitBasics, "", false},
		{models.WizardSubmitted, EventBack, "", false},
		{models.WizardSubmitted, EventSubmit, "", false},
		{models.WizardReview, "skip", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state)+"/"+string(tt.event), func(t *testing.T) {
			got, ok := Next(tt.state, tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Session Flow Tests
// ==========================

func TestWizard_FullFlow(t *testing.T) {
	var submitted models.BusinessProfile
	w, mr := createTestWizard(t, func(_ context.Context, p models.BusinessProfile) (string, error) {
		submitted = p
		return "5e1d7a90-aaaa-4bbb-8ccc-000000000000", nil
	})
	ctx := context.Background()

	session, err := w.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.WizardBasics, session.State)
	assert.True(t, mr.Exists("wizard:"+session.ID))
	assert.Equal(t, time.Hour, mr.TTL("wizard:"+session.ID))

	session, err = w.Fire(ctx, session.ID, EventSubmitBasics, json.RawMessage(basicsJSON))
	require.NoError(t, err)
	assert.Equal(t, models.WizardFinancials, session.State)
	require.NotNil(t, session.Basics)
	assert.Equal(t, "Corner Bistro", session.Basics.BusinessName)

	session, err = w.Fire(ctx, session.ID, EventSubmitFinancials, json.RawMessage(financialsJSON))
	require.NoError(t, err)
	assert.Equal(t, models.WizardReview, session.State)

	session, err = w.Fire(ctx, session.ID, EventSubmit, nil)
	require.NoError(t, err)
	assert.Equal(t, models.WizardSubmitted, session.State)
	assert.Equal(t, "5e1d7a90-aaaa-4bbb-8ccc-000000000000", session.DealID)

	assert.Equal(t, "Corner Bistro", submitted.BusinessName)
	assert.Equal(t, 2200, submitted.SpaceSize)
	assert.Equal(t, 42000.0, submitted.CurrentRevenue)
	assert.True(t, submitted.HasRevenue)
	assert.True(t, submitted.HasCustomers)

	stored, err := w.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WizardSubmitted, stored.State)
}

func TestWizard_BackKeepsCapturedSteps(t *testing.T) {
	w, _ := createTestWizard(t, nil)
	ctx := context.Background()

	session, err := w.Start(ctx)
	require.NoError(t, err)
	_, err = w.Fire(ctx, session.ID, EventSubmitBasics, json.RawMessage(basicsJSON))
	require.NoError(t, err)

	session, err = w.Fire(ctx, session.ID, EventBack, nil)
	require.NoError(t, err)
	assert.Equal(t, models.WizardBasics, session.State)
	assert.NotNil(t, session.Basics)
}

// ==========================
// Error Handling Tests
// ==========================

func TestWizard_InvalidTransition(t *testing.T) {
	w, _ := createTestWizard(t, nil)
	ctx := context.Background()
	session, err := w.Start(ctx)
	require.NoError(t, err)

	_, err = w.Fire(ctx, session.ID, EventSubmit, nil)
	assertCode(t, err, apperrors.ErrCodeInvalidWizardTransition)

	stored, err := w.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WizardBasics, stored.State)
}

func TestWizard_StepValidation(t *testing.T) {
	w, _ := createTestWizard(t, nil)
	ctx := context.Background()
	session, err := w.Start(ctx)
	require.NoError(t, err)

	_, err = w.Fire(ctx, session.ID, EventSubmitBasics, json.RawMessage(`{"business_name":"X","space_size":50}`))
	assertCode(t, err, apperrors.ErrCodeWizardStepInvalid)
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Contains(t, stdErr.Metadata, "validationErrors")

	_, err = w.Fire(ctx, session.ID, EventSubmitBasics, nil)
	assertCode(t, err, apperrors.ErrCodeWizardStepInvalid)

	_, err = w.Fire(ctx, session.ID, EventSubmitBasics, json.RawMessage(basicsJSON))
	require.NoError(t, err)
	_, err = w.Fire(ctx, session.ID, EventSubmitFinancials, json.RawMessage(`{"cash_on_hand": -1}`))
	assertCode(t, err, apperrors.ErrCodeWizardStepInvalid)
}

func TestWizard_SessionNotFound(t *testing.T) {
	w, mr := createTestWizard(t, nil)
	ctx := context.Background()

	_, err := w.Get(ctx, "missing")
	assertCode(t, err, apperrors.ErrCodeWizardSessionNotFound)

	session, err := w.Start(ctx)
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)
	_, err = w.Fire(ctx, session.ID, EventSubmitBasics, json.RawMessage(basicsJSON))
	assertCode(t, err, apperrors.ErrCodeWizardSessionNotFound)
}

func TestWizard_SubmitFailureKeepsReview(t *testing.T) {
	w, _ := createTestWizard(t, func(context.Context, models.BusinessProfile) (string, error) {
		return "", apperrors.NewDatabaseInsertFailedError(errors.New("connection reset"))
	})
	ctx := context.Background()
	session, err := w.Start(ctx)
	require.NoError(t, err)
	_, err = w.Fire(ctx, session.ID, EventSubmitBasics, json.RawMessage(basicsJSON))
	require.NoError(t, err)
	_, err = w.Fire(ctx, session.ID, EventSubmitFinancials, json.RawMessage(financialsJSON))
	require.NoError(t, err)

	_, err = w.Fire(ctx, session.ID, EventSubmit, nil)
	assertCode(t, err, apperrors.ErrCodeDatabaseInsertFailed)

	stored, err := w.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WizardReview, stored.State)
	assert.Empty(t, stored.DealID)
}
