// internal/lease/scoring/strategy.go
package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"

	"equireal-workers/internal/models"
)

// Tier matches a numeric input when every bound that is set holds.
type Tier struct {
	GTE    *float64 `yaml:"gte,omitempty" json:"gte,omitempty"`
	GT     *float64 `yaml:"gt,omitempty" json:"gt,omitempty"`
	LTE    *float64 `yaml:"lte,omitempty" json:"lte,omitempty"`
	LT     *float64 `yaml:"lt,omitempty" json:"lt,omitempty"`
	EQ     *float64 `yaml:"eq,omitempty" json:"eq,omitempty"`
	Adjust float64  `yaml:"adjust" json:"adjust"`
}

// Matches reports whether v satisfies the tier bounds.
func (t Tier) Matches(v float64) bool {
	if t.GTE != nil && !(v >= *t.GTE) {
		return false
	}
	if t.GT != nil && !(v > *t.GT) {
		return false
	}
	if t.LTE != nil && !(v <= *t.LTE) {
		return false
	}
	if t.LT != nil && !(v < *t.LT) {
		return false
	}
	if t.EQ != nil && v != *t.EQ {
		return false
	}
	return true
}

// Rule turns one input into an adjustment. A rule with Lookup set reads a
// categorical input; otherwise it walks Tiers in order and the first match
// wins. Default applies when nothing matches.
type Rule struct {
	Input   string             `yaml:"input" json:"input"`
	Tiers   []Tier             `yaml:"tiers,omitempty" json:"tiers,omitempty"`
	Lookup  map[string]float64 `yaml:"lookup,omitempty" json:"lookup,omitempty"`
	Default float64            `yaml:"default" json:"default"`
}

// Apply returns the rule's adjustment. ok is false when the input is absent
// and the rule contributes nothing.
func (r Rule) Apply(in Inputs) (adjust float64, ok bool) {
	if r.Lookup != nil {
		key, present := in.Category(r.Input)
		if !present {
			return 0, false
		}
		if v, found := r.Lookup[key]; found {
			return v, true
		}
		return r.Default, true
	}

	v, present := in.Number(r.Input)
	if !present {
		return 0, false
	}
	for _, t := range r.Tiers {
		if t.Matches(v) {
			return t.Adjust, true
		}
	}
	return r.Default, true
}

// Factor is a named sub-score: Base plus the adjustments of its rules.
type Factor struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
	Base   float64 `yaml:"base" json:"base"`
	Rules  []Rule  `yaml:"rules" json:"rules"`
}

// Line is y = Base + Slope*x.
type Line struct {
	Base  float64 `yaml:"base" json:"base"`
	Slope float64 `yaml:"slope" json:"slope"`
}

func (l Line) At(x float64) float64 {
	return l.Base + l.Slope*x
}

// Strategy is a complete risk weighting scheme expressed as data.
type Strategy struct {
	Name       string   `yaml:"name" json:"name"`
	Base       float64  `yaml:"base" json:"base"`
	Min        float64  `yaml:"min" json:"min"`
	Max        float64  `yaml:"max" json:"max"`
	Factors    []Factor `yaml:"factors" json:"factors"`
	Confidence Line     `yaml:"confidence" json:"confidence"`
	Trend      string   `yaml:"trend,omitempty" json:"trend,omitempty"`
}

// Validate checks the structural invariants of a strategy and fills zero
// weights with 1.
func (s *Strategy) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("strategy name is required")
	}
	if s.Min == 0 && s.Max == 0 {
		s.Min, s.Max = 10, 90
	}
	if s.Min > s.Max {
		return fmt.Errorf("strategy %s: min %.1f exceeds max %.1f", s.Name, s.Min, s.Max)
	}
	if len(s.Factors) == 0 {
		return fmt.Errorf("strategy %s: at least one factor is required", s.Name)
	}
	for i := range s.Factors {
		f := &s.Factors[i]
		if f.Name == "" {
			return fmt.Errorf("strategy %s: factor %d has no name", s.Name, i)
		}
		if f.Weight == 0 {
			f.Weight = 1
		}
		for _, r := range f.Rules {
			if !knownInput(r.Input) {
				return fmt.Errorf("strategy %s: factor %s reads unknown input %q", s.Name, f.Name, r.Input)
			}
		}
	}
	return nil
}

// Evaluate scores a profile. It never fails: absent inputs are skipped and
// the result is clamped once, after every factor has been summed.
func (s *Strategy) Evaluate(p models.BusinessProfile) models.RiskAssessment {
	in := InputsFrom(p)

	total := s.Base
	breakdown := make(map[string]float64, len(s.Factors))
	for _, f := range s.Factors {
		value := f.Base
		for _, r := range f.Rules {
			if adj, ok := r.Apply(in); ok {
				value += adj
			}
		}
		breakdown[f.Name] = round1(value)
		total += f.Weight * value
	}

	overall := round1(clamp(total, s.Min, s.Max))

	return models.RiskAssessment{
		OverallRisk: overall,
		Strategy:    s.Name,
		Breakdown:   breakdown,
		Category:    models.CategoryFor(overall),
		Confidence:  round1(s.Confidence.At(overall)),
		Trend:       s.Trend,
		Factors:     Explain(p),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
