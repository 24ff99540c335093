package reporter

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rushi1222/job-applier-amazon/internal/model"
)

// Subject is the subject line of the job digest.
func Subject(groups []SiteJobs) string {
	sites := 0
	for _, g := range groups {
		if len(g.Jobs) > 0 {
			sites++
		}
	}
	return fmt.Sprintf("New Job Postings Found - %d positions across %d companies", Total(groups), sites)
}

func FailureSubject(site string) string {
	return "❌ Job Scraper Failed - " + strings.ToUpper(site)
}

// RenderText is the plain-text digest, grouped by site.
func RenderText(groups []SiteJobs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d new job(s):\n\n", Total(groups))
	for _, g := range groups {
		if len(g.Jobs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d jobs):\n\n", strings.ToUpper(g.Site), len(g.Jobs))
		for _, j := range g.Jobs {
			fmt.Fprintf(&b, "• %s\n", j.Title)
			fmt.Fprintf(&b, "  %s\n", j.URL)
			if j.JobID != "" {
				fmt.Fprintf(&b, "  🆔 Job ID: %s\n", j.JobID)
			}
			if present(j.Location) {
				fmt.Fprintf(&b, "  📍 %s\n", j.Location)
			}
			if present(j.PostedDate) {
				fmt.Fprintf(&b, "  📅 Posted: %s\n", j.PostedDate)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

var htmlFuncs = template.FuncMap{
	"upper":   strings.ToUpper,
	"present": present,
}

var digestTmpl = template.Must(template.New("digest").Funcs(htmlFuncs).Parse(`<html>
  <body style="font-family: Arial, sans-serif;">
    <h3>Found {{.Total}} new job(s)</h3>
{{- range .Groups}}{{if .Jobs}}
    <h4>{{upper .Site}} ({{len .Jobs}} jobs)</h4>
    <ul>
{{- range .Jobs}}
      <li><a href="{{.URL}}">{{.Title}}</a>
        {{- if .JobID}}<br><span style="color: #666;">🆔 Job ID: {{.JobID}}</span>{{end}}
        {{- if present .Location}}<br><span style="color: #666;">📍 {{.Location}}</span>{{end}}
        {{- if present .PostedDate}}<br><span style="color: #666;">📅 {{.PostedDate}}</span>{{end}}</li>
{{- end}}
    </ul>
{{- end}}{{end}}
  </body>
</html>
`))

var failureTmpl = template.Must(template.New("failure").Funcs(htmlFuncs).Parse(`<html>
  <body style="font-family: Arial, sans-serif;">
    <h3 style="color: #e74c3c;">❌ Job Scraper Failed - {{upper .Site}}</h3>
    <p><strong>Error:</strong></p>
    <pre style="background: #f4f4f4; padding: 10px; border-left: 3px solid #e74c3c;">{{.Detail}}</pre>
    <p style="color: #7f8c8d;"><em>Time: {{.Time}}</em></p>
  </body>
</html>
`))

// RenderHTML is the HTML alternative of RenderText.
func RenderHTML(groups []SiteJobs) (string, error) {
	var buf bytes.Buffer
	err := digestTmpl.Execute(&buf, struct {
		Total  int
		Groups []SiteJobs
	}{Total(groups), groups})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func RenderFailureText(site, detail string, at time.Time) string {
	return fmt.Sprintf("\nJob scraper FAILED for %s\n\nError:\n%s\n\nPlease check and fix the code.\n\nTime: %s\n",
		strings.ToUpper(site), detail, at.Format(model.ObservedAtLayout))
}

func RenderFailureHTML(site, detail string, at time.Time) (string, error) {
	var buf bytes.Buffer
	err := failureTmpl.Execute(&buf, struct {
		Site, Detail, Time string
	}{site, detail, at.Format(model.ObservedAtLayout)})
	if err != nil {
		return "", fmt.Errorf("render failure: %w", err)
	}
	return buf.String(), nil
}

func present(field string) bool {
	return field != "" && field != model.NotAvailable
}
