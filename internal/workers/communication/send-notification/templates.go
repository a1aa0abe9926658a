// internal/workers/communication/send-notification/templates.go
package sendnotification

import (
	"bytes"
	"fmt"
	"text/template"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

// templateData is what subject and body templates can reference.
type templateData struct {
	DealID       string
	ProposalID   string
	BusinessName string
	Reason       string
	Metadata     map[string]interface{}
}

func mustTemplate(name, subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(name + ".subject").Option("missingkey=zero").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Option("missingkey=zero").Parse(body)),
	}
}

// Bodies are markdown; emails carry them as text and as rendered HTML.
var templates = map[string]messageTemplate{
	RecipientTypeTenant + "/" + TypeDealSubmitted: mustTemplate("tenant-submitted",
		"Your EquiReal proposal {{.ProposalID}} is ready",
		`# Thanks for applying, {{.BusinessName}}

Your lease proposal **{{.ProposalID}}** has been generated and sent to the landlord for review.
{{with .Metadata.monthlyRent}}
Proposed monthly rent: **${{.}}**
{{end}}
We will let you know as soon as a decision is made.
`),
	RecipientTypeLandlord + "/" + TypeDealSubmitted: mustTemplate("landlord-submitted",
		"New deal application: {{.BusinessName}}",
		`# New deal application

**{{.BusinessName}}** has applied for space. Proposal **{{.ProposalID}}** is waiting for your review.
{{with .Metadata.overallRisk}}
Risk score: **{{.}}/100**
{{end}}`),
	RecipientTypeTenant + "/" + TypeDealApproved: mustTemplate("tenant-approved",
		"Proposal {{.ProposalID}} approved",
		`# Congratulations, {{.BusinessName}}

The landlord approved proposal **{{.ProposalID}}**. The lease agreement is ready for signature.
`),
	RecipientTypeTenant + "/" + TypeDealRejected: mustTemplate("tenant-rejected",
		"Update on proposal {{.ProposalID}}",
		`# Proposal update

The landlord has decided not to proceed with proposal **{{.ProposalID}}** for {{.BusinessName}}.
{{with .Reason}}
Reason given: {{.}}
{{end}}`),
	RecipientTypeLandlord + "/" + TypeDealApproved: mustTemplate("landlord-approved",
		"You approved {{.BusinessName}}",
		"Proposal **{{.ProposalID}}** for {{.BusinessName}} is approved.\n"),
	RecipientTypeLandlord + "/" + TypeDealRejected: mustTemplate("landlord-rejected",
		"You rejected {{.BusinessName}}",
		"Proposal **{{.ProposalID}}** for {{.BusinessName}} is rejected.\n"),
}

func renderMessage(recipientType, notificationType string, data templateData) (string, string, error) {
	tmpl, ok := templates[recipientType+"/"+notificationType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s for %s", ErrTemplateNotFound, notificationType, recipientType)
	}
	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject.String(), body.String(), nil
}
