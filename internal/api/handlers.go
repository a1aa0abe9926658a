// internal/api/handlers.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	apperrors "equireal-workers/internal/common/errors"
	"equireal-workers/internal/lease/document"
	"equireal-workers/internal/models"
	"equireal-workers/internal/wizard"
	computedashboardstats "equireal-workers/internal/workers/deals/compute-dashboard-stats"
	getdeal "equireal-workers/internal/workers/deals/get-deal"
	recordfeedback "equireal-workers/internal/workers/deals/record-feedback"
	searchdeals "equireal-workers/internal/workers/deals/search-deals"
	"equireal-workers/internal/workers/deals/search-deals/queries"
)

// ==========================
// Quotes and Deals
// ==========================

func (s *Server) createQuote(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.decodeProfile(w, r)
	if !ok {
		return
	}
	result, err := s.svc.Pipeline.Quote(r.Context(), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) submitDeal(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.decodeProfile(w, r)
	if !ok {
		return
	}
	result, err := s.svc.Pipeline.Submit(r.Context(), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/deals/"+result.Deal.ID)
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) decodeProfile(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var raw map[string]interface{}
	if err := decodeBody(r, &raw, false); err != nil {
		s.writeError(w, apperrors.NewInvalidRequestError(err.Error()))
		return nil, false
	}
	if raw == nil {
		s.writeError(w, apperrors.NewInvalidRequestError("profile object is required"))
		return nil, false
	}
	return raw, true
}

func (s *Server) searchDeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := &searchdeals.Input{
		Query: q.Get("q"),
		Filters: queries.Filters{
			Status:       q.Get("status"),
			BusinessType: q.Get("business_type"),
			Industry:     q.Get("industry"),
			RiskCategory: q.Get("risk_category"),
		},
		SortBy: q.Get("sort"),
	}

	var err error
	if input.From, err = intParam(q.Get("from")); err != nil {
		s.writeError(w, apperrors.NewInvalidFilterFormatError("from: "+err.Error()))
		return
	}
	if input.Size, err = intParam(q.Get("size")); err != nil {
		s.writeError(w, apperrors.NewInvalidFilterFormatError("size: "+err.Error()))
		return
	}
	if input.Filters.MinRisk, err = floatParam(q.Get("min_risk")); err != nil {
		s.writeError(w, apperrors.NewInvalidFilterFormatError("min_risk: "+err.Error()))
		return
	}
	if input.Filters.MaxRisk, err = floatParam(q.Get("max_risk")); err != nil {
		s.writeError(w, apperrors.NewInvalidFilterFormatError("max_risk: "+err.Error()))
		return
	}

	out, err := s.svc.Search.Execute(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func floatParam(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Server) loadDeal(w http.ResponseWriter, r *http.Request) (*models.Deal, bool) {
	out, err := s.svc.Deals.Execute(r.Context(), &getdeal.Input{DealID: r.PathValue("id")})
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return &out.Deal, true
}

func (s *Server) getDeal(w http.ResponseWriter, r *http.Request) {
	deal, ok := s.loadDeal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (s *Server) getProposal(w http.ResponseWriter, r *http.Request) {
	deal, ok := s.loadDeal(w, r)
	if !ok {
		return
	}
	s.writeDocument(w, r, "Deal Proposal "+deal.ProposalID, deal.Proposal)
}

// getContract renders the agreement as of the deal's creation, so repeated
// reads return the same text.
func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	deal, ok := s.loadDeal(w, r)
	if !ok {
		return
	}
	contract, err := document.RenderContract(deal.Profile, deal.Terms, deal.CreatedAt)
	if err != nil {
		s.writeError(w, apperrors.NewDocumentRenderFailedError("contract", err))
		return
	}
	s.writeDocument(w, r, "Lease Agreement "+models.ContractIDFor(deal.ID), contract)
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, title, markdown string) {
	if r.URL.Query().Get("format") == "html" {
		page, err := document.ToHTMLPage(title, markdown)
		if err != nil {
			s.writeError(w, apperrors.NewDocumentRenderFailedError(title, err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, page)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, markdown)
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) approveDeal(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, models.DealApproved)
}

func (s *Server) rejectDeal(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, models.DealRejected)
}

func (s *Server) decide(w http.ResponseWriter, r *http.Request, status models.DealStatus) {
	var req decisionRequest
	if err := decodeBody(r, &req, true); err != nil {
		s.writeError(w, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	result, err := s.svc.Pipeline.Decide(r.Context(), r.PathValue("id"), status, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ==========================
// Dashboard and Feedback
// ==========================

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	out, err := s.svc.Dashboard.Execute(r.Context(), &computedashboardstats.Input{Refresh: refresh})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Stats)
}

func (s *Server) recordFeedback(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := decodeBody(r, &raw, false); err != nil {
		s.writeError(w, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	out, err := s.svc.Feedback.Execute(r.Context(), &recordfeedback.Input{Feedback: raw})
	if err != nil {
		if out != nil {
			s.writeError(w, err, out.ValidationErrors...)
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// ==========================
// Wizard
// ==========================

func (s *Server) startWizard(w http.ResponseWriter, r *http.Request) {
	session, err := s.svc.Wizard.Start(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/wizard/"+session.ID)
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) getWizard(w http.ResponseWriter, r *http.Request) {
	session, err := s.svc.Wizard.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) fireWizard(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := decodeBody(r, &payload, true); err != nil {
		s.writeError(w, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	session, err := s.svc.Wizard.Fire(r.Context(), r.PathValue("id"), wizard.Event(r.PathValue("event")), payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
