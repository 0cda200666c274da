package credential

import (
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("credential").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.LearnerName}}: {{.ModuleTitle}} | Excellere</title>
<meta property="og:title" content="{{.LearnerName}} completed {{.ModuleTitle}}">
<meta property="og:description" content="{{.Archetype}}. Overall score {{.OverallScore}}.">
<meta property="og:image" content="{{.URL}}/card.png">
<meta property="og:url" content="{{.URL}}">
</head>
<body>
<main>
<h1>{{.LearnerName}}</h1>
<p>Completed <strong>{{.ModuleTitle}}</strong> on {{.ValidatedAt.Format "2 January 2006"}}</p>
<h2>{{.Archetype}}</h2>
{{- if .Summary}}
<p>{{.Summary}}</p>
{{- end}}
<dl>
<dt>Overall score</dt><dd>{{.OverallScore}}</dd>
{{- if .ArtefactTitle}}
<dt>Artefact</dt><dd>{{.ArtefactTitle}} (board readiness {{.BoardReadiness}})</dd>
{{- end}}
</dl>
{{- if .Strengths}}
<h3>Strengths</h3>
<ul>
{{- range .Strengths}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Badges}}
<h3>Badges</h3>
<ul>
{{- range .Badges}}
<li>{{.Icon}} <strong>{{.Name}}</strong>: {{.Description}}</li>
{{- end}}
</ul>
{{- end}}
<p><img src="{{.URL}}/card.png" alt="Credential card" width="600"></p>
</main>
</body>
</html>
`))

// RenderHTML writes the credential page.
func RenderHTML(w io.Writer, v *View) error {
	return pageTemplate.Execute(w, v)
}
