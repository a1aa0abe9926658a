// internal/workers/deals/update-deal-status/handler_test.go
package updatedealstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	"equireal-workers/internal/common/database"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDealID = "5e1d7a90-aaaa-4bbb-8ccc-000000000000"

var fixedNow = time.Date(2026, 5, 6, 15, 0, 0, 0, time.UTC)

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, redismock.ClientMock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	redisClient, redisMock := redismock.NewClientMock()
	handler := NewHandler(LoadConfig(), db, redisClient, logger.NewTestLogger(t))
	handler.now = func() time.Time { return fixedNow }
	return handler, mock, redisMock
}

// ==========================
// Decision Tests
// ==========================

func TestHandler_Execute_Decisions(t *testing.T) {
	for _, status := range []models.DealStatus{models.DealApproved, models.DealRejected} {
		t.Run(string(status), func(t *testing.T) {
			handler, mock, redisMock := createTestHandler(t)

			mock.ExpectQuery("UPDATE deals").
				WithArgs(testDealID, string(status), fixedNow).
				WillReturnRows(sqlmock.NewRows([]string{"proposal_id", "business_name", "contact_email", "contact_phone"}).
					AddRow("EQR-5E1D7A90", "Northwind Analytics", "founder@northwind.io", nil))
			mock.ExpectExec("INSERT INTO audit_log").
				WithArgs("deal_"+string(status), "deal", testDealID, sqlmock.AnyArg(), fixedNow).
				WillReturnResult(sqlmock.NewResult(1, 1))
			redisMock.ExpectDel(database.DealKey(testDealID), database.DashboardStatsKey).SetVal(2)

			output, err := handler.Execute(context.Background(), &Input{DealID: testDealID, Status: status})
			require.NoError(t, err)

			assert.Equal(t, status, output.Status)
			assert.Equal(t, models.DealPending, output.PreviousStatus)
			assert.Equal(t, "EQR-5E1D7A90", output.ProposalID)
			assert.Equal(t, "founder@northwind.io", output.ContactEmail)
			assert.Empty(t, output.ContactPhone)
			assert.Equal(t, fixedNow.Format(time.RFC3339), output.UpdatedAt)

			assert.NoError(t, mock.ExpectationsWereMet())
			assert.NoError(t, redisMock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Transition Guard Tests
// ==========================

func TestHandler_Execute_RejectsNonDecisionStatus(t *testing.T) {
	handler, mock, _ := createTestHandler(t)

	for _, status := range []models.DealStatus{models.DealPending, "archived", ""} {
		_, err := handler.Execute(context.Background(), &Input{DealID: testDealID, Status: status})
		assert.True(t, errors.Is(err, ErrInvalidStatusTransition), string(status))
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AlreadyDecided(t *testing.T) {
	handler, mock, _ := createTestHandler(t)

	mock.ExpectQuery("UPDATE deals").
		WillReturnRows(sqlmock.NewRows([]string{"proposal_id", "business_name", "contact_email", "contact_phone"}))
	mock.ExpectQuery("SELECT status FROM deals").
		WithArgs(testDealID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))

	_, err := handler.Execute(context.Background(), &Input{DealID: testDealID, Status: models.DealRejected})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStatusTransition))
	assert.Contains(t, err.Error(), "is approved")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DealNotFound(t *testing.T) {
	handler, mock, _ := createTestHandler(t)

	mock.ExpectQuery("UPDATE deals").
		WillReturnRows(sqlmock.NewRows([]string{"proposal_id", "business_name", "contact_email", "contact_phone"}))
	mock.ExpectQuery("SELECT status FROM deals").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	_, err := handler.Execute(context.Background(), &Input{DealID: "nope", Status: models.DealApproved})
	assert.True(t, errors.Is(err, ErrDealNotFound))
}

func TestHandler_Execute_UpdateFails(t *testing.T) {
	handler, mock, _ := createTestHandler(t)

	mock.ExpectQuery("UPDATE deals").WillReturnError(errors.New("connection reset"))

	_, err := handler.Execute(context.Background(), &Input{DealID: testDealID, Status: models.DealApproved})
	assert.True(t, errors.Is(err, ErrQueryExecutionFailed))
}
