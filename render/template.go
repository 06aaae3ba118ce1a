package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/furtivegod/becomeyou/models"
)

var planTemplate = template.Must(template.New("plan").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Georgia, serif; color: #1f2430; margin: 48px; }
  h1 { font-size: 28px; border-bottom: 2px solid #1f2430; padding-bottom: 8px; }
  h2 { font-size: 20px; margin-top: 32px; }
  .pattern { margin-bottom: 16px; }
  .pattern .cost { color: #7a2d2d; font-style: italic; }
  .phase { margin-bottom: 20px; }
  .days { color: #666; font-size: 14px; }
  .invitation { margin-top: 40px; padding: 16px; background: #f4f1ea; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Summary}}</p>

<h2>Core Patterns</h2>
{{range .CorePatterns}}
<div class="pattern">
  <strong>{{.Name}}</strong>
  <p>{{.Description}}</p>
  <p class="cost">{{.Cost}}</p>
</div>
{{end}}

<h2>Root Cause</h2>
<p>{{.RootCause}}</p>

<h2>The 30-Day Protocol</h2>
{{range .Protocol}}
<div class="phase">
  <strong>{{.Phase}}</strong> <span class="days">Days {{.Days}}</span>
  <p>{{.Focus}}</p>
  <ul>
  {{range .Practices}}<li>{{.}}</li>{{end}}
  </ul>
</div>
{{end}}

<h2>Quick Wins</h2>
<ul>
{{range .QuickWins}}<li>{{.}}</li>{{end}}
</ul>

<div class="invitation">{{.Invitation}}</div>
</body>
</html>`))

// ExpandTemplate renders the plan document into the HTML handed to the
// PDF conversion service.
func ExpandTemplate(doc *models.PlanDocument) (string, error) {
	var buf bytes.Buffer
	if err := planTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("plan template execution failed: %w", err)
	}
	return buf.String(), nil
}
