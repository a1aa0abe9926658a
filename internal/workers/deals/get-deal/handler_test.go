// internal/workers/deals/get-deal/handler_test.go
package getdeal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"equireal-workers/internal/common/database"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const testDealID = "5e1d7a90-aaaa-4bbb-8ccc-000000000000"

var createdAt = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func dealColumns() []string {
	return []string{
		"id", "proposal_id", "strategy", "status", "profile", "risk", "terms", "proposal",
		"created_at", "updated_at", "approved_at", "rejected_at", "valid_until",
	}
}

func addDealRow(t *testing.T, rows *sqlmock.Rows, id, status string, approvedAt interface{}) *sqlmock.Rows {
	profile, err := json.Marshal(models.BusinessProfile{ID: id, BusinessName: "Northwind Analytics", SpaceSize: 1500})
	require.NoError(t, err)
	risk, err := json.Marshal(models.RiskAssessment{OverallRisk: 42.5, Strategy: "additive", Category: models.RiskMedium})
	require.NoError(t, err)
	terms, err := json.Marshal(models.DealTerms{RiskScore: 42.5, MonthlyRent: 1564})
	require.NoError(t, err)

	return rows.AddRow(id, models.ProposalIDFor(id), "additive", status, profile, risk, terms, "# proposal",
		createdAt, createdAt, approvedAt, nil, createdAt.AddDate(0, 0, 30))
}

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return NewHandler(LoadConfig(), db, rdb, logger.NewTestLogger(t)), mock, mr
}

// ==========================
// Cache-Aside Tests
// ==========================

func TestHandler_Execute_MissThenHit(t *testing.T) {
	handler, mock, mr := createTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM deals WHERE id").
		WithArgs(testDealID).
		WillReturnRows(addDealRow(t, sqlmock.NewRows(dealColumns()), testDealID, "pending", nil))

	first, err := handler.Execute(context.Background(), &Input{DealID: testDealID})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, models.DealPending, first.Deal.Status)
	assert.Equal(t, "Northwind Analytics", first.Deal.Profile.BusinessName)
	assert.Equal(t, 42.5, first.Deal.Risk.OverallRisk)
	assert.Nil(t, first.Deal.ApprovedAt)

	assert.True(t, mr.Exists(database.DealKey(testDealID)))
	assert.Equal(t, 5*time.Minute, mr.TTL(database.DealKey(testDealID)))

	second, err := handler.Execute(context.Background(), &Input{DealID: testDealID})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Deal.ProposalID, second.Deal.ProposalID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_SkipCache(t *testing.T) {
	handler, mock, mr := createTestHandler(t)
	require.NoError(t, mr.Set(database.DealKey(testDealID), `{"id":"stale","status":"pending"}`))

	approved := createdAt.Add(time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM deals WHERE id").
		WithArgs(testDealID).
		WillReturnRows(addDealRow(t, sqlmock.NewRows(dealColumns()), testDealID, "approved", approved))

	output, err := handler.Execute(context.Background(), &Input{DealID: testDealID, SkipCache: true})
	require.NoError(t, err)
	assert.False(t, output.CacheHit)
	assert.Equal(t, models.DealApproved, output.Deal.Status)
	require.NotNil(t, output.Deal.ApprovedAt)
	assert.True(t, approved.Equal(*output.Deal.ApprovedAt))
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_NotFound(t *testing.T) {
	handler, mock, _ := createTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM deals WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(dealColumns()))

	_, err := handler.Execute(context.Background(), &Input{DealID: "missing"})
	assert.True(t, errors.Is(err, ErrDealNotFound))
}

func TestHandler_Execute_QueryFails(t *testing.T) {
	handler, mock, _ := createTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM deals WHERE id").
		WillReturnError(errors.New("connection refused"))

	_, err := handler.Execute(context.Background(), &Input{DealID: testDealID})
	assert.True(t, errors.Is(err, ErrQueryExecutionFailed))
}

func TestHandler_Execute_RequiresID(t *testing.T) {
	handler, _, _ := createTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestHandler_ListUpdatedSince(t *testing.T) {
	handler, mock, _ := createTestHandler(t)
	since := createdAt.Add(-2 * time.Hour)

	rows := sqlmock.NewRows(dealColumns())
	addDealRow(t, rows, "deal-1", "pending", nil)
	addDealRow(t, rows, "deal-2", "approved", createdAt)
	mock.ExpectQuery("SELECT (.+) FROM deals WHERE updated_at").
		WithArgs(since, 500).
		WillReturnRows(rows)

	deals, err := handler.ListUpdatedSince(context.Background(), since, 500)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "deal-1", deals[0].ID)
	assert.Equal(t, models.DealApproved, deals[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
