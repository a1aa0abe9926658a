// internal/api/server.go
package api

import (
	"net/http"
	"time"

	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/pipeline"
	"equireal-workers/internal/wizard"
	computedashboardstats "equireal-workers/internal/workers/deals/compute-dashboard-stats"
	getdeal "equireal-workers/internal/workers/deals/get-deal"
	recordfeedback "equireal-workers/internal/workers/deals/record-feedback"
	searchdeals "equireal-workers/internal/workers/deals/search-deals"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Services are the components the API drives.
type Services struct {
	Pipeline  *pipeline.Pipeline
	Deals     *getdeal.Handler
	Search    *searchdeals.Handler
	Dashboard *computedashboardstats.Handler
	Feedback  *recordfeedback.Handler
	Wizard    *wizard.Wizard
}

// Server exposes the lease pipeline over JSON HTTP.
type Server struct {
	svc    Services
	logger logger.Logger
}

func NewServer(svc Services, log logger.Logger) *Server {
	return &Server{
		svc:    svc,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// RegisterRoutes registers all REST API routes on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Quotes and deals
	mux.HandleFunc("POST /api/v1/quotes", s.createQuote)
	mux.HandleFunc("POST /api/v1/deals", s.submitDeal)
	mux.HandleFunc("GET /api/v1/deals", s.searchDeals)
	mux.HandleFunc("GET /api/v1/deals/{id}", s.getDeal)
	mux.HandleFunc("GET /api/v1/deals/{id}/proposal", s.getProposal)
	mux.HandleFunc("GET /api/v1/deals/{id}/contract", s.getContract)
	mux.HandleFunc("POST /api/v1/deals/{id}/approve", s.approveDeal)
	mux.HandleFunc("POST /api/v1/deals/{id}/reject", s.rejectDeal)

	// Landlord dashboard and feedback
	mux.HandleFunc("GET /api/v1/dashboard", s.getDashboard)
	mux.HandleFunc("POST /api/v1/feedback", s.recordFeedback)

	// Application wizard
	mux.HandleFunc("POST /api/v1/wizard", s.startWizard)
	mux.HandleFunc("GET /api/v1/wizard/{id}", s.getWizard)
	mux.HandleFunc("POST /api/v1/wizard/{id}/{event}", s.fireWizard)
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r.Body = http.MaxBytesReader(rec, r.Body, maxBodyBytes)

		next.ServeHTTP(rec, r)

		fields := map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Error("request failed", fields)
			return
		}
		s.logger.Debug("request served", fields)
	})
}
