// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/observability"
	"equireal-workers/internal/common/validation"
	"equireal-workers/internal/lease/document"
	"equireal-workers/internal/models"
	sendnotification "equireal-workers/internal/workers/communication/send-notification"
	createdealrecord "equireal-workers/internal/workers/deals/create-deal-record"
	getdeal "equireal-workers/internal/workers/deals/get-deal"
	indexdeal "equireal-workers/internal/workers/deals/index-deal"
	updatedealstatus "equireal-workers/internal/workers/deals/update-deal-status"
	generatedealterms "equireal-workers/internal/workers/lease/generate-deal-terms"
	renderdocuments "equireal-workers/internal/workers/lease/render-documents"
	scorerisk "equireal-workers/internal/workers/lease/score-risk"
	validatebusinessprofile "equireal-workers/internal/workers/lease/validate-business-profile"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stages are the worker handlers the pipeline drives in process. Index and
// Notify are optional; Get is only needed by Decide.
type Stages struct {
	Validate *validatebusinessprofile.Handler
	Score    *scorerisk.Handler
	Terms    *generatedealterms.Handler
	Render   *renderdocuments.Handler
	Create   *createdealrecord.Handler
	Get      *getdeal.Handler
	Update   *updatedealstatus.Handler
	Index    *indexdeal.Handler
	Notify   *sendnotification.Handler
}

type Pipeline struct {
	stages Stages
	obs    *observability.Observability
	logger logger.Logger
}

func New(stages Stages, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		stages: stages,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// ProfileError carries the field errors of a rejected profile.
type ProfileError struct {
	Errors []validation.ValidationError
	err    error
}

func (e *ProfileError) Error() string { return e.err.Error() }
func (e *ProfileError) Unwrap() error { return e.err }

type QuoteResult struct {
	Profile         models.BusinessProfile  `json:"profile"`
	Warnings        []string                `json:"warnings,omitempty"`
	RiskAssessment  models.RiskAssessment   `json:"risk_assessment"`
	DealTerms       models.DealTerms        `json:"deal_terms"`
	LandlordReturn  document.LandlordReturn `json:"landlord_return"`
	DiscountPercent float64                 `json:"discount_percent"`
	ProposalID      string                  `json:"proposal_id"`
	ContractID      string                  `json:"contract_id"`
	Proposal        string                  `json:"proposal"`
	Contract        string                  `json:"contract"`
	ValidUntil      time.Time               `json:"valid_until"`
}

type SubmitResult struct {
	Deal          models.Deal  `json:"deal"`
	Quote         *QuoteResult `json:"quote"`
	Indexed       bool         `json:"indexed"`
	Notifications []string     `json:"notifications,omitempty"`
}

type DecideResult struct {
	DealID         string            `json:"deal_id"`
	ProposalID     string            `json:"proposal_id"`
	PreviousStatus models.DealStatus `json:"previous_status"`
	Status         models.DealStatus `json:"status"`
	UpdatedAt      string            `json:"updated_at"`
	Indexed        bool              `json:"indexed"`
	Notifications  []string          `json:"notifications,omitempty"`
}

// stage runs fn inside a span named pipeline.<name>.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := p.obs.StartSpan(ctx, "pipeline."+name, attrs...)
	defer span.End()

	if err := fn(ctx); err != nil {
		markFailed(span, err)
		return err
	}
	return nil
}

func markFailed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Quote validates, scores, prices and renders a raw profile. Nothing is stored.
func (p *Pipeline) Quote(ctx context.Context, raw map[string]interface{}) (*QuoteResult, error) {
	ctx, span := p.obs.StartSpan(ctx, "pipeline.quote")
	defer span.End()

	result, err := p.quote(ctx, raw)
	if err != nil {
		markFailed(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("proposal.id", result.ProposalID),
		attribute.Float64("risk.overall", result.RiskAssessment.OverallRisk),
	)
	return result, nil
}

func (p *Pipeline) quote(ctx context.Context, raw map[string]interface{}) (*QuoteResult, error) {
	var validated *validatebusinessprofile.Output
	err := p.stage(ctx, "validate", func(ctx context.Context) error {
		out, err := p.stages.Validate.Execute(ctx, &validatebusinessprofile.Input{Profile: raw})
		if err != nil {
			if out != nil && !out.IsValid {
				return &ProfileError{Errors: out.ValidationErrors, err: err}
			}
			return err
		}
		validated = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	profile := validated.Profile

	var scored *scorerisk.Output
	err = p.stage(ctx, "score", func(ctx context.Context) error {
		var err error
		scored, err = p.stages.Score.Execute(ctx, &scorerisk.Input{Profile: profile})
		return err
	}, attribute.String("business.type", profile.BusinessType))
	if err != nil {
		return nil, err
	}

	var priced *generatedealterms.Output
	err = p.stage(ctx, "terms", func(ctx context.Context) error {
		var err error
		priced, err = p.stages.Terms.Execute(ctx, &generatedealterms.Input{
			Profile:        profile,
			RiskAssessment: scored.RiskAssessment,
		})
		return err
	}, attribute.Float64("risk.overall", scored.OverallRisk))
	if err != nil {
		return nil, err
	}

	var docs *renderdocuments.Output
	err = p.stage(ctx, "render", func(ctx context.Context) error {
		var err error
		docs, err = p.stages.Render.Execute(ctx, &renderdocuments.Input{
			Profile:        profile,
			RiskAssessment: scored.RiskAssessment,
			DealTerms:      priced.DealTerms,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		Profile:         profile,
		Warnings:        validated.Warnings,
		RiskAssessment:  scored.RiskAssessment,
		DealTerms:       priced.DealTerms,
		LandlordReturn:  priced.LandlordReturn,
		DiscountPercent: priced.DiscountPercent,
		ProposalID:      docs.ProposalID,
		ContractID:      docs.ContractID,
		Proposal:        docs.Proposal,
		Contract:        docs.Contract,
		ValidUntil:      docs.ValidUntil,
	}, nil
}

// Submit quotes the profile and stores it as a pending deal. Indexing and
// notifications are best effort; a failure there is logged and the deal
// still counts as submitted.
func (p *Pipeline) Submit(ctx context.Context, raw map[string]interface{}) (*SubmitResult, error) {
	ctx, span := p.obs.StartSpan(ctx, "pipeline.submit")
	defer span.End()

	q, err := p.quote(ctx, raw)
	if err != nil {
		markFailed(span, err)
		return nil, err
	}

	var created *createdealrecord.Output
	err = p.stage(ctx, "create", func(ctx context.Context) error {
		var err error
		created, err = p.stages.Create.Execute(ctx, &createdealrecord.Input{
			Profile:        q.Profile,
			RiskAssessment: q.RiskAssessment,
			DealTerms:      q.DealTerms,
			ProposalID:     q.ProposalID,
			Proposal:       q.Proposal,
			ValidUntil:     q.ValidUntil,
		})
		return err
	}, attribute.String("proposal.id", q.ProposalID))
	if err != nil {
		markFailed(span, err)
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339, created.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}
	deal := models.Deal{
		ID:         created.DealID,
		Profile:    q.Profile,
		Risk:       q.RiskAssessment,
		Terms:      q.DealTerms,
		ProposalID: created.ProposalID,
		Proposal:   q.Proposal,
		Strategy:   q.RiskAssessment.Strategy,
		Status:     created.Status,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		ValidUntil: q.ValidUntil,
	}
	span.SetAttributes(attribute.String("deal.id", deal.ID))

	result := &SubmitResult{Deal: deal, Quote: q}
	result.Indexed = p.index(ctx, deal)

	metadata := map[string]interface{}{
		"overallRisk": decimal.NewFromFloat(q.RiskAssessment.OverallRisk).StringFixed(1),
		"monthlyRent": decimal.NewFromFloat(q.DealTerms.MonthlyRent).StringFixed(0),
	}
	for _, recipient := range []string{sendnotification.RecipientTypeTenant, sendnotification.RecipientTypeLandlord} {
		if status, ok := p.notify(ctx, &sendnotification.Input{
			RecipientType:    recipient,
			NotificationType: sendnotification.TypeDealSubmitted,
			DealID:           deal.ID,
			ProposalID:       deal.ProposalID,
			BusinessName:     q.Profile.BusinessName,
			ContactEmail:     q.Profile.ContactEmail,
			ContactPhone:     q.Profile.ContactPhone,
			Metadata:         metadata,
		}); ok {
			result.Notifications = append(result.Notifications, recipient+":"+status)
		}
	}

	p.logger.Info("deal submitted", map[string]interface{}{
		"dealId":      deal.ID,
		"proposalId":  deal.ProposalID,
		"overallRisk": q.RiskAssessment.OverallRisk,
		"indexed":     result.Indexed,
	})
	return result, nil
}

// SubmitProfile submits an assembled profile, as the wizard produces, and
// returns the new deal id.
func (p *Pipeline) SubmitProfile(ctx context.Context, profile models.BusinessProfile) (string, error) {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return "", fmt.Errorf("decode profile: %w", err)
	}
	result, err := p.Submit(ctx, raw)
	if err != nil {
		return "", err
	}
	return result.Deal.ID, nil
}

// Decide moves a pending deal to approved or rejected, then refreshes its
// search document and tells the tenant.
func (p *Pipeline) Decide(ctx context.Context, dealID string, status models.DealStatus, reason string) (*DecideResult, error) {
	ctx, span := p.obs.StartSpan(ctx, "pipeline.decide",
		attribute.String("deal.id", dealID),
		attribute.String("deal.status", string(status)),
	)
	defer span.End()

	var updated *updatedealstatus.Output
	err := p.stage(ctx, "update", func(ctx context.Context) error {
		var err error
		updated, err = p.stages.Update.Execute(ctx, &updatedealstatus.Input{
			DealID: dealID,
			Status: status,
			Reason: reason,
		})
		return err
	})
	if err != nil {
		markFailed(span, err)
		return nil, err
	}

	result := &DecideResult{
		DealID:         updated.DealID,
		ProposalID:     updated.ProposalID,
		PreviousStatus: updated.PreviousStatus,
		Status:         updated.Status,
		UpdatedAt:      updated.UpdatedAt,
	}

	if p.stages.Get != nil {
		var fresh *getdeal.Output
		err := p.stage(ctx, "reload", func(ctx context.Context) error {
			var err error
			fresh, err = p.stages.Get.Execute(ctx, &getdeal.Input{DealID: dealID, SkipCache: true})
			return err
		})
		if err != nil {
			p.logger.Warn("reload after decision failed, search index not refreshed", map[string]interface{}{
				"dealId": dealID,
				"error":  err.Error(),
			})
		} else {
			result.Indexed = p.index(ctx, fresh.Deal)
		}
	}

	notificationType := sendnotification.TypeDealApproved
	if status == models.DealRejected {
		notificationType = sendnotification.TypeDealRejected
	}
	if st, ok := p.notify(ctx, &sendnotification.Input{
		RecipientType:    sendnotification.RecipientTypeTenant,
		NotificationType: notificationType,
		DealID:           updated.DealID,
		ProposalID:       updated.ProposalID,
		BusinessName:     updated.BusinessName,
		ContactEmail:     updated.ContactEmail,
		ContactPhone:     updated.ContactPhone,
		Priority:         "high",
		Reason:           reason,
	}); ok {
		result.Notifications = append(result.Notifications, sendnotification.RecipientTypeTenant+":"+st)
	}

	p.logger.Info("deal decided", map[string]interface{}{
		"dealId": dealID,
		"status": status,
	})
	return result, nil
}

func (p *Pipeline) index(ctx context.Context, deal models.Deal) bool {
	if p.stages.Index == nil {
		return false
	}
	err := p.stage(ctx, "index", func(ctx context.Context) error {
		_, err := p.stages.Index.Execute(ctx, &indexdeal.Input{Deal: deal})
		return err
	}, attribute.String("deal.id", deal.ID))
	if err != nil {
		p.logger.Warn("indexing failed", map[string]interface{}{
			"dealId": deal.ID,
			"error":  err.Error(),
		})
		return false
	}
	return true
}

func (p *Pipeline) notify(ctx context.Context, input *sendnotification.Input) (string, bool) {
	if p.stages.Notify == nil {
		return "", false
	}
	var out *sendnotification.Output
	err := p.stage(ctx, "notify", func(ctx context.Context) error {
		var err error
		out, err = p.stages.Notify.Execute(ctx, input)
		return err
	}, attribute.String("notification.type", input.NotificationType), attribute.String("notification.recipient", input.RecipientType))
	if err != nil {
		p.logger.Warn("notification failed", map[string]interface{}{
			"dealId":        input.DealID,
			"recipientType": input.RecipientType,
			"error":         err.Error(),
		})
		return "", false
	}
	return out.Status, true
}

// IsProfileError reports whether err is a rejected profile and returns its field errors.
func IsProfileError(err error) ([]validation.ValidationError, bool) {
	var pe *ProfileError
	if errors.As(err, &pe) {
		return pe.Errors, true
	}
	return nil, false
}
