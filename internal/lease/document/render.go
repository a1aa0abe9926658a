// internal/lease/document/render.go
package document

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"equireal-workers/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	DefaultValidityDays = 30
	DefaultContactEmail = "hello@equireal.com"
	DefaultContactPhone = "(555) 123-REAL"
)

var funcs = template.FuncMap{
	"date":        func(t time.Time) string { return t.Format("January 02, 2006") },
	"datetime":    func(t time.Time) string { return t.Format("January 02, 2006 at 03:04 PM") },
	"money":       func(v float64) string { return "$" + wholeDollars(v) },
	"count":       func(n int) string { return wholeDollars(float64(n)) },
	"pct":         func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"number":      trimNumber,
	"upper":       func(v interface{}) string { return strings.ToUpper(fmt.Sprint(v)) },
	"signed":      func(v float64) string { return fmt.Sprintf("%+.1f", v) },
	"signedMoney": signedMoney,
}

var templates = template.Must(template.New("documents").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))

// Contact is printed in the next-steps section of a proposal.
type Contact struct {
	Email string
	Phone string
}

// Options controls the parts of a document that are not derived from the deal.
type Options struct {
	ValidityDays int
	Contact      Contact
}

// DefaultOptions returns the standard 30 day validity and platform contact.
func DefaultOptions() Options {
	return Options{
		ValidityDays: DefaultValidityDays,
		Contact:      Contact{Email: DefaultContactEmail, Phone: DefaultContactPhone},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ValidityDays <= 0 {
		o.ValidityDays = d.ValidityDays
	}
	if o.Contact.Email == "" {
		o.Contact.Email = d.Contact.Email
	}
	if o.Contact.Phone == "" {
		o.Contact.Phone = d.Contact.Phone
	}
	return o
}

type proposalView struct {
	Profile    models.BusinessProfile
	Risk       models.RiskAssessment
	Terms      models.DealTerms
	Return     LandlordReturn
	ProposalID string
	Generated  time.Time
	ValidUntil time.Time
	Contact    Contact

	AnnualRent      float64
	AnnualDeferred  float64
	DeferredPercent float64
}

type contractView struct {
	Profile    models.BusinessProfile
	Terms      models.DealTerms
	ContractID string
	Generated  time.Time
}

// ValidUntil is the last day a proposal generated at now may be accepted.
func ValidUntil(now time.Time, opts Options) time.Time {
	return now.AddDate(0, 0, opts.withDefaults().ValidityDays)
}

// RenderProposal renders the full deal proposal as Markdown. The output is
// byte-identical for identical inputs; now is the only time dependency.
func RenderProposal(p models.BusinessProfile, risk models.RiskAssessment, terms models.DealTerms, now time.Time, opts Options) (string, error) {
	opts = opts.withDefaults()
	view := proposalView{
		Profile:         p,
		Risk:            risk,
		Terms:           terms,
		Return:          LandlordReturnFor(p, terms),
		ProposalID:      models.ProposalIDFor(p.ID),
		Generated:       now,
		ValidUntil:      ValidUntil(now, opts),
		Contact:         opts.Contact,
		AnnualRent:      terms.MonthlyRent * 12,
		AnnualDeferred:  terms.DeferredAmount * 12,
		DeferredPercent: 100 - terms.UpfrontRentPercent,
	}
	return execute("proposal.md.tmpl", view)
}

// RenderContract renders the hybrid lease agreement as Markdown.
func RenderContract(p models.BusinessProfile, terms models.DealTerms, now time.Time) (string, error) {
	view := contractView{
		Profile:    p,
		Terms:      terms,
		ContractID: models.ContractIDFor(p.ID),
		Generated:  now,
	}
	return execute("contract.md.tmpl", view)
}

func execute(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
