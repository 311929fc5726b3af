package httpapi

import "html/template"

// Served on GET requests to the webhook endpoint so the URL can be
// copied into the Zepp app from a phone browser.
var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.DeviceName}} - Zepp Bridge</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2em auto; padding: 0 1em; color: #222; }
h1 { font-size: 1.4em; }
code { background: #f0f0f0; padding: 0.3em 0.5em; border-radius: 4px; word-break: break-all; display: inline-block; }
.meta { color: #666; font-size: 0.9em; }
table { border-collapse: collapse; margin-top: 1em; }
td, th { border: 1px solid #ddd; padding: 0.3em 0.6em; text-align: left; font-size: 0.9em; }
</style>
</head>
<body>
<h1>{{.DeviceName}}</h1>
<p>Send watch telemetry as a JSON POST to:</p>
<p><code>{{.WebhookURL}}</code></p>
<p class="meta">Last payload: {{if .HasSnapshot}}received{{else}}none yet{{end}} &middot; Entities: {{.EntityCount}} &middot; Errors: {{.ErrorCount}} (<a href="{{.LogURL}}">log</a>)</p>
{{if .States}}
<table>
<tr><th>Entity</th><th>State</th></tr>
{{range .States}}<tr><td>{{.Name}}</td><td>{{.Value}}{{if .Unit}} {{.Unit}}{{end}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))

var errorLogTmpl = template.Must(template.New("errorlog").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.DeviceName}} - Error Log</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2em auto; padding: 0 1em; color: #222; }
h1 { font-size: 1.4em; }
li { margin-bottom: 0.4em; font-size: 0.9em; }
time { color: #666; }
</style>
</head>
<body>
<h1>{{.DeviceName}} error log</h1>
{{if .Entries}}
<ol>
{{range .Entries}}<li><time>{{.At.Format "2006-01-02 15:04:05"}}</time> {{.Message}}</li>
{{end}}
</ol>
{{else}}
<p>No errors recorded.</p>
{{end}}
</body>
</html>
`))
