package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/furtivegod/becomeyou/models"
)

// templateData is the single shape every email template renders from.
// Plan is nil when no report exists yet; drip templates degrade to
// their generic copy in that case.
type templateData struct {
	Name string
	Link string
	Plan *models.PlanDocument
}

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "greeting"}}{{if .Name}}Hi {{.Name}},{{else}}Hi,{{end}}{{end}}

{{define "magic_link"}}<p>{{template "greeting" .}}</p>
<p>Your assessment is ready. This private link is valid for 24 hours:</p>
<p><a href="{{.Link}}">Start your assessment</a></p>
<p>Take it somewhere quiet. It runs about twenty minutes.</p>{{end}}

{{define "report_ready"}}<p>{{template "greeting" .}}</p>
<p>Your personalized plan is ready.</p>
{{if .Plan}}<p><strong>{{.Plan.Title}}</strong> &mdash; {{.Plan.Summary}}</p>{{end}}
<p><a href="{{.Link}}">Download your plan (PDF)</a></p>{{end}}

{{define "pattern_recognition"}}<p>{{template "greeting" .}}</p>
<p>Two days in. The first thing to do with a pattern is simply to see it firing.</p>
{{if and .Plan .Plan.CorePatterns}}{{with index .Plan.CorePatterns 0}}<p>For you that starts with <strong>{{.Name}}</strong>: {{.Description}}</p>{{end}}
{{else}}<p>Go back to your plan and pick the one pattern that costs you the most. Just watch for it this week.</p>{{end}}
<p>No fixing yet. Noticing is the work.</p>{{end}}

{{define "evidence_7day"}}<p>{{template "greeting" .}}</p>
<p>One week. By now you have real evidence: moments you caught the pattern, moments it caught you.</p>
{{if .Plan}}<p>Check it against your plan's root cause: {{.Plan.RootCause}}</p>{{end}}
<p>Write down the three clearest examples from this week. Evidence beats intention.</p>{{end}}

{{define "integration_threshold"}}<p>{{template "greeting" .}}</p>
<p>Day 14 is where most people quietly stop. The novelty is gone and the habit isn't automatic yet.</p>
{{if .Plan}}{{if gt (len .Plan.Protocol) 1}}{{with index .Plan.Protocol 1}}<p>You're in the <strong>{{.Phase}}</strong> phase now: {{.Focus}}</p>{{end}}{{end}}{{end}}
<p>Shrink the practice if you must. Don't skip it.</p>{{end}}

{{define "compound_effect"}}<p>{{template "greeting" .}}</p>
<p>Three weeks of small shifts compound into something visible. Compare this week to the week before you started.</p>
{{if and .Plan .Plan.QuickWins}}<p>One quick win worth repeating: {{index .Plan.QuickWins 0}}</p>{{end}}
<p>What changed? Name it specifically &mdash; that's what makes it stick.</p>{{end}}

{{define "direct_invitation"}}<p>{{template "greeting" .}}</p>
<p>Thirty days. However the month went, you now know more about your own patterns than most people ever learn.</p>
{{if .Plan}}<p>{{.Plan.Invitation}}</p>{{else}}<p>If you want to go further, reply to this email and we'll map the next phase together.</p>{{end}}{{end}}
`))

var dripSubjects = map[models.EmailType]string{
	models.EmailTypePatternRecognition:   "Day 2: see the pattern before you fight it",
	models.EmailTypeEvidence7Day:         "One week in: what does the evidence say?",
	models.EmailTypeIntegrationThreshold: "Day 14 is where most people stop",
	models.EmailTypeCompoundEffect:       "Three weeks of small shifts, compounding",
	models.EmailTypeDirectInvitation:     "Thirty days later: an invitation",
}

func renderTemplate(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render email template %q: %w", name, err)
	}
	return buf.String(), nil
}

// MagicLinkMessage builds the access email sent right after purchase.
func MagicLinkMessage(to, name, link string) (OutboundMessage, error) {
	html, err := renderTemplate("magic_link", templateData{Name: name, Link: link})
	if err != nil {
		return OutboundMessage{}, err
	}
	return OutboundMessage{
		To:      to,
		ToName:  name,
		Subject: "Your assessment access link",
		HTML:    html,
	}, nil
}

// ReportReadyMessage builds the email sent once the plan PDF exists.
func ReportReadyMessage(to, name, reportURL string, doc *models.PlanDocument) (OutboundMessage, error) {
	html, err := renderTemplate("report_ready", templateData{Name: name, Link: reportURL, Plan: doc})
	if err != nil {
		return OutboundMessage{}, err
	}
	return OutboundMessage{
		To:      to,
		ToName:  name,
		Subject: "Your personalized plan is ready",
		HTML:    html,
	}, nil
}

// DripMessage builds one stage of the drip sequence. A nil plan is
// fine: each template carries generic copy for that case.
func DripMessage(emailType models.EmailType, to, name string, doc *models.PlanDocument) (OutboundMessage, error) {
	subject, ok := dripSubjects[emailType]
	if !ok {
		return OutboundMessage{}, fmt.Errorf("unknown email type %q", emailType)
	}
	html, err := renderTemplate(string(emailType), templateData{Name: name, Plan: doc})
	if err != nil {
		return OutboundMessage{}, err
	}
	return OutboundMessage{
		To:      to,
		ToName:  name,
		Subject: subject,
		HTML:    html,
	}, nil
}
