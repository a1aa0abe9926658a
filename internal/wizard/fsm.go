// internal/wizard/fsm.go
package wizard

import "equireal-workers/internal/models"

// Event moves a session between wizard states.
type Event string

const (
	EventSubmitBasics     Event = "submit_basics"
	EventSubmitFinancials Event = "submit_financials"
	EventBack             Event = "back"
	EventSubmit           Event = "submit"
)

var transitions = map[models.WizardState]map[Event]models.WizardState{
	models.WizardBasics: {
		EventSubmitBasics: models.WizardFinancials,
	},
	models.WizardFinancials: {
		EventSubmitFinancials: models.WizardReview,
		EventBack:             models.WizardBasics,
	},
	models.WizardReview: {
		EventBack:   models.WizardFinancials,
		EventSubmit: models.WizardSubmitted,
	},
}

// Next returns the state event leads to from state, or false when the
// event is not allowed there.
func Next(state models.WizardState, event Event) (models.WizardState, bool) {
	next, ok := transitions[state][event]
	return next, ok
}
