// Package render presents index reports as HTML and plain text tables.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/matsen/bix/internal/report"
)

// compiledTemplates are parsed at init time to fail fast on template errors.
var (
	reportTemplate *template.Template
	uploadTemplate *template.Template
)

func init() {
	funcs := template.FuncMap{"value": FormatValue}
	reportTemplate = template.Must(template.New("report").Funcs(funcs).Parse(reportHTML))
	uploadTemplate = template.Must(template.New("upload").Parse(uploadHTML))
}

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Title   string // Page heading
	Source  string // Name of the uploaded or imported file
	Yearly  bool   // Include the per-year table
	Dropped int    // Rows dropped by normalization, shown when non-zero
}

type reportData struct {
	Opts    HTMLOptions
	Entries []report.Entry
	Report  report.Report
}

// GenerateHTML renders r as a self-contained HTML page.
func GenerateHTML(r report.Report, opts HTMLOptions) (string, error) {
	if opts.Title == "" {
		opts.Title = "Bibliometric indices"
	}

	var buf bytes.Buffer
	data := reportData{Opts: opts, Entries: r.Entries(), Report: r}
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}

// UploadForm renders the CSV upload page. message is shown above the form
// when non-empty.
func UploadForm(message string) (string, error) {
	var buf bytes.Buffer
	if err := uploadTemplate.Execute(&buf, struct{ Message string }{message}); err != nil {
		return "", fmt.Errorf("rendering upload form: %w", err)
	}
	return buf.String(), nil
}

// FormatValue prints whole numbers without decimals and everything else
// with two decimals.
func FormatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Opts.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.6em; text-align: right; }
th { background: #f3f3f3; }
</style>
</head>
<body>
<h1>{{.Opts.Title}}</h1>
{{- if .Opts.Source}}
<p>Source: {{.Opts.Source}}</p>
{{- end}}
{{- if .Opts.Dropped}}
<p>{{.Opts.Dropped}} rows with a missing or invalid Year or Cited by value were skipped.</p>
{{- end}}
<table class="report">
<tr>{{range .Entries}}<th>{{.Key}}</th>{{end}}</tr>
<tr>{{range .Entries}}<td>{{value .Value}}</td>{{end}}</tr>
</table>
{{- if and .Opts.Yearly .Report.Yearly}}
<table class="yearly">
<tr><th>Year</th><th>Papers</th><th>Citations</th><th>h index</th></tr>
{{- range .Report.Yearly}}
<tr><td>{{.Year}}</td><td>{{.Papers}}</td><td>{{.Citations}}</td><td>{{.HIndex}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`

const uploadHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Upload publications</title>
</head>
<body>
<h1>Upload a Scopus CSV export</h1>
{{- if .Message}}
<p class="message">{{.Message}}</p>
{{- end}}
<form method="post" action="/report" enctype="multipart/form-data">
<input type="file" name="file" accept=".csv" required>
<input type="number" name="year" placeholder="Reference year">
<button type="submit">Compute indices</button>
</form>
</body>
</html>
`
