// internal/wizard/wizard.go
package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "equireal-workers/internal/common/errors"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/validation"
	"equireal-workers/internal/models"

	"github.com/google/uuid"
)

// SubmitFunc turns a finished wizard into a deal and returns its id.
type SubmitFunc func(ctx context.Context, profile models.BusinessProfile) (string, error)

// Wizard drives application sessions through basics, financials and review.
type Wizard struct {
	store  Store
	submit SubmitFunc
	logger logger.Logger
	now    func() time.Time
}

func New(store Store, submit SubmitFunc, log logger.Logger) *Wizard {
	return &Wizard{
		store:  store,
		submit: submit,
		logger: log.WithFields(map[string]interface{}{"component": "wizard"}),
		now:    time.Now,
	}
}

// Start opens a session at the basics step.
func (w *Wizard) Start(ctx context.Context) (*models.WizardSession, error) {
	now := w.now().UTC()
	session := &models.WizardSession{
		ID:        uuid.New().String(),
		State:     models.WizardBasics,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.store.Save(ctx, session); err != nil {
		return nil, apperrors.NewCacheOperationFailedError("wizard start", err)
	}
	w.logger.Info("wizard started", map[string]interface{}{"sessionId": session.ID})
	return session, nil
}

func (w *Wizard) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	session, found, err := w.store.Load(ctx, id)
	if err != nil {
		return nil, apperrors.NewCacheOperationFailedError("wizard load", err)
	}
	if !found {
		return nil, apperrors.NewWizardSessionNotFoundError(id)
	}
	return session, nil
}

// Fire applies event to the session. payload carries the step fields for
// submit_basics and submit_financials and is ignored otherwise. The session
// is only saved when the event succeeds.
func (w *Wizard) Fire(ctx context.Context, id string, event Event, payload json.RawMessage) (*models.WizardSession, error) {
	session, err := w.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := Next(session.State, event)
	if !ok {
		return nil, apperrors.NewInvalidWizardTransitionError(string(session.State), string(event))
	}

	switch event {
	case EventSubmitBasics:
		var step models.BasicsStep
		if err := decodeStep(validation.SchemaBasics, payload, &step); err != nil {
			return nil, err
		}
		session.Basics = &step
	case EventSubmitFinancials:
		var step models.FinancialsStep
		if err := decodeStep(validation.SchemaFinancials, payload, &step); err != nil {
			return nil, err
		}
		session.Financials = &step
	case EventSubmit:
		dealID, err := w.submit(ctx, session.Profile())
		if err != nil {
			return nil, err
		}
		session.DealID = dealID
	}

	previous := session.State
	session.State = next
	session.UpdatedAt = w.now().UTC()
	if err := w.store.Save(ctx, session); err != nil {
		return nil, apperrors.NewCacheOperationFailedError("wizard save", err)
	}

	w.logger.Info("wizard transition", map[string]interface{}{
		"sessionId": session.ID,
		"event":     string(event),
		"from":      string(previous),
		"to":        string(next),
	})
	return session, nil
}

// decodeStep validates the raw step against schema, then decodes it into dst.
func decodeStep(schema string, payload json.RawMessage, dst interface{}) error {
	if len(payload) == 0 {
		return apperrors.NewWizardStepInvalidError(schema, "missing step payload")
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return apperrors.NewWizardStepInvalidError(schema, fmt.Sprintf("invalid JSON: %v", err))
	}

	result, err := validation.Validate(schema, doc)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return apperrors.NewWizardStepInvalidError(schema, strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("validationErrors", result.Errors)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return apperrors.NewWizardStepInvalidError(schema, err.Error())
	}
	return nil
}
