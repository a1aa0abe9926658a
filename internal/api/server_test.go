// internal/api/server_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/lease"
	"equireal-workers/internal/models"
	"equireal-workers/internal/pipeline"
	"equireal-workers/internal/wizard"
	computedashboardstats "equireal-workers/internal/workers/deals/compute-dashboard-stats"
	createdealrecord "equireal-workers/internal/workers/deals/create-deal-record"
	getdeal "equireal-workers/internal/workers/deals/get-deal"
	indexdeal "equireal-workers/internal/workers/deals/index-deal"
	recordfeedback "equireal-workers/internal/workers/deals/record-feedback"
	searchdeals "equireal-workers/internal/workers/deals/search-deals"
	updatedealstatus "equireal-workers/internal/workers/deals/update-deal-status"
	generatedealterms "equireal-workers/internal/workers/lease/generate-deal-terms"
	renderdocuments "equireal-workers/internal/workers/lease/render-documents"
	scorerisk "equireal-workers/internal/workers/lease/score-risk"
	validatebusinessprofile "equireal-workers/internal/workers/lease/validate-business-profile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const testDealID = "5e1d7a90-aaaa-4bbb-8ccc-000000000000"

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

const searchResponse = `{
	"took": 4,
	"hits": {
		"total": {"value": 1, "relation": "eq"},
		"max_score": 2.1,
		"hits": [{
			"_id": "` + testDealID + `",
			"_score": 2.1,
			"_source": {
				"id": "` + testDealID + `",
				"proposal_id": "EQR-5E1D7A90",
				"business_name": "Northwind Analytics",
				"business_type": "SaaS Startup",
				"status": "pending",
				"risk_category": "Medium",
				"overall_risk": 42.5
			}
		}]
	}
}`

type testServer struct {
	handler http.Handler
	sql     sqlmock.Sqlmock
	esQuery string
}

func newTestServer(t *testing.T) *testServer {
	log := logger.NewTestLogger(t)
	ts := &testServer{}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ts.sql = mock

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	esSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_search") {
			var body bytes.Buffer
			body.ReadFrom(r.Body)
			ts.esQuery = body.String()
			w.Write([]byte(searchResponse))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_index":"lease-deals","_id":"` + testDealID + `","_version":1,"result":"created"}`))
	}))
	t.Cleanup(esSrv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esSrv.URL}})
	require.NoError(t, err)

	strategy, err := lease.Builtin("weighted")
	require.NoError(t, err)
	engine := lease.NewEngine(strategy, lease.WithClock(func() time.Time { return fixedNow }))

	deals := getdeal.NewHandler(getdeal.LoadConfig(), db, rdb, log)
	pl := pipeline.New(pipeline.Stages{
		Validate: validatebusinessprofile.NewHandler(validatebusinessprofile.LoadConfig(), log),
		Score:    scorerisk.NewHandler(scorerisk.LoadConfig(), engine, nil, log),
		Terms:    generatedealterms.NewHandler(generatedealterms.LoadConfig(), engine, log),
		Render:   renderdocuments.NewHandler(renderdocuments.LoadConfig(), engine, log),
		Create:   createdealrecord.NewHandler(createdealrecord.LoadConfig(), db, rdb, log),
		Get:      deals,
		Update:   updatedealstatus.NewHandler(updatedealstatus.LoadConfig(), db, rdb, log),
		Index:    indexdeal.NewHandler(indexdeal.LoadConfig(), es, log),
	}, nil, log)

	srv := NewServer(Services{
		Pipeline:  pl,
		Deals:     deals,
		Search:    searchdeals.NewHandler(searchdeals.LoadConfig(), es, log),
		Dashboard: computedashboardstats.NewHandler(computedashboardstats.LoadConfig(), db, rdb, log),
		Feedback:  recordfeedback.NewHandler(recordfeedback.LoadConfig(), db, log),
		Wizard:    wizard.New(wizard.NewRedisStore(rdb, time.Hour), pl.SubmitProfile, log),
	}, log)
	ts.handler = srv.Handler()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func profileJSON() string {
	return `{
		"id": "` + testDealID + `",
		"business_name": "Northwind Analytics",
		"business_type": "SaaS Startup",
		"industry": "SaaS",
		"location": "Austin, TX",
		"space_size": 1500,
		"team_size": 8,
		"current_revenue": 120000,
		"projected_revenue_12m": 150000,
		"is_profitable": true,
		"contact_email": "founder@northwind.io"
	}`
}

func dealRow(t *testing.T, status string) *sqlmock.Rows {
	profile, err := json.Marshal(models.BusinessProfile{
		ID: testDealID, BusinessName: "Northwind Analytics", Location: "Austin, TX", SpaceSize: 1500,
	})
	require.NoError(t, err)
	risk, err := json.Marshal(models.RiskAssessment{OverallRisk: 42.5, Strategy: "weighted", Category: models.RiskMedium})
	require.NoError(t, err)
	terms, err := json.Marshal(models.DealTerms{
		RiskScore: 42.5, UpfrontRentPercent: 38.5, EquityPercent: 7.1, RevenueSharePercent: 3.9,
		RevenueShareYears: 3, SpaceSize: 1500, MonthlyMarketRent: 4375, MonthlyRent: 1684, DeferredAmount: 2691,
	})
	require.NoError(t, err)

	return sqlmock.NewRows([]string{
		"id", "proposal_id", "strategy", "status", "profile", "risk", "terms", "proposal",
		"created_at", "updated_at", "approved_at", "rejected_at", "valid_until",
	}).AddRow(testDealID, "EQR-5E1D7A90", "weighted", status, profile, risk, terms, "# EQUIREAL DEAL PROPOSAL\n\n**Proposal ID:** EQR-5E1D7A90\n",
		fixedNow, fixedNow, nil, nil, fixedNow.AddDate(0, 0, 30))
}

// ==========================
// Quote and Deal Tests
// ==========================

func TestCreateQuote(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/quotes", profileJSON())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var quote pipeline.QuoteResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&quote))
	assert.Equal(t, "weighted", quote.RiskAssessment.Strategy)
	assert.Equal(t, "EQR-5E1D7A90", quote.ProposalID)
	assert.NotZero(t, quote.DealTerms.MonthlyRent)
	assert.NoError(t, ts.sql.ExpectationsWereMet())
}

func TestCreateQuote_Invalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/quotes", `{"business_name": "", "space_size": 20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "PROFILE_VALIDATION_FAILED", body.Code)
	assert.NotEmpty(t, body.ValidationErrors)

	rec = ts.do(t, http.MethodPost, "/api/v1/quotes", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, rec).Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/quotes", `null`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitDeal(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectQuery("SELECT EXISTS").
		WithArgs(testDealID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	ts.sql.ExpectExec("INSERT INTO deals").WillReturnResult(sqlmock.NewResult(1, 1))
	ts.sql.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	rec := ts.do(t, http.MethodPost, "/api/v1/deals", profileJSON())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/v1/deals/"+testDealID, rec.Header().Get("Location"))

	var result pipeline.SubmitResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, models.DealPending, result.Deal.Status)
	assert.True(t, result.Indexed)
	assert.NoError(t, ts.sql.ExpectationsWereMet())
}

func TestSubmitDeal_Duplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	rec := ts.do(t, http.MethodPost, "/api/v1/deals", profileJSON())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_DEAL", decodeError(t, rec).Code)
}

func TestGetDeal(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectQuery("SELECT (.+) FROM deals WHERE id").
		WithArgs(testDealID).
		WillReturnRows(dealRow(t, "pending"))

	rec := ts.do(t, http.MethodGet, "/api/v1/deals/"+testDealID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var deal models.Deal
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&deal))
	assert.Equal(t, testDealID, deal.ID)
	assert.Equal(t, models.DealPending, deal.Status)
}

func TestGetDeal_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectQuery("SELECT (.+) FROM deals WHERE id").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := ts.do(t, http.MethodGet, "/api/v1/deals/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DEAL_NOT_FOUND", decodeError(t, rec).Code)
}

func TestGetProposalAndContract(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectQuery("SELECT (.+) FROM deals WHERE id").
		WillReturnRows(dealRow(t, "pending"))

	rec := ts.do(t, http.MethodGet, "/api/v1/deals/"+testDealID+"/proposal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# EQUIREAL DEAL PROPOSAL"))

	// served from cache from here on
	rec = ts.do(t, http.MethodGet, "/api/v1/deals/"+testDealID+"/proposal?format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), "<strong>Proposal ID:</strong>")

	rec = ts.do(t, http.MethodGet, "/api/v1/deals/"+testDealID+"/contract", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EQR-5E1D7A90-CONTRACT")
	assert.NoError(t, ts.sql.ExpectationsWereMet())
}

func TestSearchDeals(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/deals?q=analytics&status=pending&risk_category=Medium&size=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out searchdeals.Output
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, int64(1), out.TotalHits)
	require.Len(t, out.Deals, 1)
	assert.Equal(t, "Northwind Analytics", out.Deals[0].BusinessName)
	assert.Equal(t, 5, out.Size)
	assert.Contains(t, ts.esQuery, "analytics")
	assert.Contains(t, ts.esQuery, "Medium")
}

func TestSearchDeals_BadParams(t *testing.T) {
	ts := newTestServer(t)

	for _, query := range []string{"size=ten", "min_risk=low", "min_risk=80&max_risk=20"} {
		rec := ts.do(t, http.MethodGet, "/api/v1/deals?"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		assert.Equal(t, "INVALID_FILTER_FORMAT", decodeError(t, rec).Code, query)
	}
}

func TestDecideDeal(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectQuery("UPDATE deals").
		WillReturnRows(sqlmock.NewRows([]string{"proposal_id", "business_name", "contact_email", "contact_phone"}).
			AddRow("EQR-5E1D7A90", "Northwind Analytics", "founder@northwind.io", nil))
	ts.sql.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
	ts.sql.ExpectQuery("SELECT (.+) FROM deals WHERE id").WillReturnRows(dealRow(t, "rejected"))

	rec := ts.do(t, http.MethodPost, "/api/v1/deals/"+testDealID+"/reject", `{"reason": "space committed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result pipeline.DecideResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, models.DealRejected, result.Status)
	assert.Equal(t, models.DealPending, result.PreviousStatus)
}

func TestDecideDeal_AlreadyDecided(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectQuery("UPDATE deals").WillReturnRows(sqlmock.NewRows([]string{"proposal_id"}))
	ts.sql.ExpectQuery("SELECT status FROM deals").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))

	rec := ts.do(t, http.MethodPost, "/api/v1/deals/"+testDealID+"/approve", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", decodeError(t, rec).Code)
}

// ==========================
// Dashboard and Feedback Tests
// ==========================

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectQuery("SELECT (.+) FROM deals").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "approved", "rejected", "avg"}).
			AddRow(4, 2, 1, 1, 51.25))
	ts.sql.ExpectQuery("SELECT risk_category").
		WillReturnRows(sqlmock.NewRows([]string{"risk_category", "count"}).AddRow("Medium", 3).AddRow("High", 1))
	ts.sql.ExpectQuery("SELECT business_type").
		WillReturnRows(sqlmock.NewRows([]string{"business_type", "count"}).AddRow("SaaS Startup", 4))

	rec := ts.do(t, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats models.DashboardStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 4, stats.TotalDeals)
	assert.Equal(t, 25.0, stats.ApprovalRate)
	assert.Equal(t, 3, stats.RiskDistribution[models.RiskMedium])
}

func TestRecordFeedback_Invalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/feedback", `{"user_type": "investor", "interest_level": 12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "FEEDBACK_VALIDATION_FAILED", body.Code)
	assert.Len(t, body.ValidationErrors, 2)
}

func TestRecordFeedback(t *testing.T) {
	ts := newTestServer(t)
	ts.sql.ExpectExec("INSERT INTO feedback").WillReturnResult(sqlmock.NewResult(1, 1))

	rec := ts.do(t, http.MethodPost, "/api/v1/feedback", `{"user_type": "landlord", "interest_level": 9, "pilot_interest": true}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// ==========================
// Wizard Tests
// ==========================

func TestWizardRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/wizard", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var session models.WizardSession
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	assert.Equal(t, models.WizardBasics, session.State)

	rec = ts.do(t, http.MethodPost, "/api/v1/wizard/"+session.ID+"/submit", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_WIZARD_TRANSITION", decodeError(t, rec).Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/wizard/"+session.ID+"/submit_basics", `{"business_name": "Corner Bistro"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "WIZARD_STEP_INVALID", body.Code)
	assert.NotEmpty(t, body.ValidationErrors)

	rec = ts.do(t, http.MethodPost, "/api/v1/wizard/"+session.ID+"/submit_basics", `{
		"business_name": "Corner Bistro", "business_type": "Restaurant", "industry": "Food & Beverage",
		"location": "Chicago, IL", "space_size": 2200, "team_size": 6
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/wizard/"+session.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	assert.Equal(t, models.WizardFinancials, session.State)

	rec = ts.do(t, http.MethodGet, "/api/v1/wizard/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodDelete, "/api/v1/deals/"+testDealID, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
