// internal/lease/engine.go
package lease

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"equireal-workers/internal/lease/document"
	"equireal-workers/internal/lease/scoring"
	"equireal-workers/internal/lease/terms"
	"equireal-workers/internal/models"
)

var ErrUnknownStrategy = errors.New("UNKNOWN_STRATEGY")

// Strategy pairs a scoring strategy with the terms policy it was calibrated for.
type Strategy struct {
	Name    string
	Scoring *scoring.Strategy
	Terms   *terms.Policy
}

// Builtin resolves one of the built-in strategies by name.
func Builtin(name string) (Strategy, error) {
	s, ok := scoring.Builtin(name)
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	pol, ok := terms.Builtin(name)
	if !ok {
		return Strategy{}, fmt.Errorf("%w: no terms policy for %s", ErrUnknownStrategy, name)
	}
	return Strategy{Name: name, Scoring: s, Terms: pol}, nil
}

// strategyFile is the YAML layout of a custom strategy. The scoring fields
// sit at the top level; terms either embeds a policy or names a built-in one.
type strategyFile struct {
	TermsPolicy string        `yaml:"terms_policy"`
	Terms       *terms.Policy `yaml:"terms"`
}

// Load returns the strategy named by name, or the one described in file when
// file is set.
func Load(name, file string) (Strategy, error) {
	if file == "" {
		return Builtin(name)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return Strategy{}, fmt.Errorf("read strategy file %s: %w", file, err)
	}
	return Parse(data)
}

// Parse decodes a YAML strategy document.
func Parse(data []byte) (Strategy, error) {
	s, err := scoring.ParseStrategy(data)
	if err != nil {
		return Strategy{}, err
	}

	var doc strategyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Strategy{}, fmt.Errorf("decode strategy terms: %w", err)
	}

	pol := doc.Terms
	if pol == nil {
		base := doc.TermsPolicy
		if base == "" {
			base = terms.PolicyAdditive
		}
		var ok bool
		if pol, ok = terms.Builtin(base); !ok {
			return Strategy{}, fmt.Errorf("%w: terms policy %s", ErrUnknownStrategy, base)
		}
	} else {
		if pol.Name == "" {
			pol.Name = s.Name
		}
		if err := pol.Validate(); err != nil {
			return Strategy{}, err
		}
	}

	return Strategy{Name: s.Name, Scoring: s, Terms: pol}, nil
}

// Engine exposes the four deal operations over one strategy.
type Engine struct {
	strategy Strategy
	options  document.Options
	now      func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDocumentOptions sets proposal validity and contact details.
func WithDocumentOptions(opts document.Options) Option {
	return func(e *Engine) { e.options = opts }
}

func NewEngine(strategy Strategy, opts ...Option) *Engine {
	e := &Engine{
		strategy: strategy,
		options:  document.DefaultOptions(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) StrategyName() string { return e.strategy.Name }

func (e *Engine) Now() time.Time { return e.now() }

// ScoreRisk never fails; absent fields take their documented defaults.
func (e *Engine) ScoreRisk(p models.BusinessProfile) models.RiskAssessment {
	return e.strategy.Scoring.Evaluate(p)
}

func (e *Engine) GenerateTerms(p models.BusinessProfile, risk models.RiskAssessment) models.DealTerms {
	return e.strategy.Terms.Generate(p, risk)
}

func (e *Engine) RenderProposal(p models.BusinessProfile, risk models.RiskAssessment, t models.DealTerms) (string, error) {
	return document.RenderProposal(p.WithDefaults(), risk, t, e.now(), e.options)
}

func (e *Engine) RenderContract(p models.BusinessProfile, t models.DealTerms) (string, error) {
	return document.RenderContract(p.WithDefaults(), t, e.now())
}

// Documents are the rendered texts for one deal, stamped with a single clock
// read so proposal and contract agree.
type Documents struct {
	ProposalID string    `json:"proposal_id"`
	ContractID string    `json:"contract_id"`
	Proposal   string    `json:"proposal"`
	Contract   string    `json:"contract"`
	ValidUntil time.Time `json:"valid_until"`
}

// RenderDocuments renders the proposal and the contract together. Absent
// profile fields print as their defaults.
func (e *Engine) RenderDocuments(p models.BusinessProfile, risk models.RiskAssessment, t models.DealTerms) (*Documents, error) {
	p = p.WithDefaults()
	now := e.now()
	proposal, err := document.RenderProposal(p, risk, t, now, e.options)
	if err != nil {
		return nil, err
	}
	contract, err := document.RenderContract(p, t, now)
	if err != nil {
		return nil, err
	}
	return &Documents{
		ProposalID: models.ProposalIDFor(p.ID),
		ContractID: models.ContractIDFor(p.ID),
		Proposal:   proposal,
		Contract:   contract,
		ValidUntil: document.ValidUntil(now, e.options),
	}, nil
}

// QuoteResult is the outcome of running every stage for one profile.
type QuoteResult struct {
	Profile    models.BusinessProfile  `json:"profile"`
	Risk       models.RiskAssessment   `json:"risk"`
	Terms      models.DealTerms        `json:"terms"`
	ProposalID string                  `json:"proposal_id"`
	Proposal   string                  `json:"proposal"`
	Contract   string                  `json:"contract"`
	Return     document.LandlordReturn `json:"landlord_return"`
	ValidUntil time.Time               `json:"valid_until"`
}

// Quote scores, prices and renders a profile in one pass.
func (e *Engine) Quote(p models.BusinessProfile) (*QuoteResult, error) {
	risk := e.ScoreRisk(p)
	t := e.GenerateTerms(p, risk)

	docs, err := e.RenderDocuments(p, risk, t)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		Profile:    p.WithDefaults(),
		Risk:       risk,
		Terms:      t,
		ProposalID: docs.ProposalID,
		Proposal:   docs.Proposal,
		Contract:   docs.Contract,
		Return:     document.LandlordReturnFor(p, t),
		ValidUntil: docs.ValidUntil,
	}, nil
}
