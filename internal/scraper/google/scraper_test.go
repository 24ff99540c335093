package google

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rushi1222/job-applier-amazon/internal/browser/browsertest"
	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
)

func newTestScraper(t *testing.T) *GoogleScraper {
	return NewGoogleScraper(scraper.Options{}, zaptest.NewLogger(t))
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/about/careers/applications/jobs/results?q=software%20engineer&location=Mountain%20View&sort_by=date",
		SearchURL("software engineer", "Mountain View"))
	assert.Equal(t,
		"https://www.google.com/about/careers/applications/jobs/results?q=C%2B%2B%20%26%20Go&location=S%C3%A3o%20Paulo&sort_by=date",
		SearchURL("C++ & Go", "São Paulo"))
}

func TestJobIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"primary", "https://www.google.com/about/careers/applications/jobs/results/123456789-software-engineer", "123456789"},
		{"with query", "jobs/results/98765-sre?loc=US", "98765"},
		{"fallback long digits", "https://careers.google.com/x/12345678901/view", "12345678901"},
		{"no id", "https://www.google.com/about/careers/applications/jobs/results", model.NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JobIDFromURL(tt.url))
		})
	}
}

func TestExtractPage(t *testing.T) {
	html := `<html><head><title>Search Jobs - Google Careers</title></head><body>
<a href="jobs/results/111-software-engineer-iii-cloud?q=swe">Learn more</a>
<a href="/about/careers/applications/jobs/results/222-site-reliability-engineer">Learn more</a>
<a href="https://www.google.com/about/careers/applications/jobs/results">All results</a>
<a href="https://www.google.com/about">About</a>
</body></html>`
	page := browsertest.New(nil)
	page.Load(resultsURL, html)

	jobs, err := newTestScraper(t).ExtractPage(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, model.JobRecord{
		JobID:      "111",
		Title:      "Software Engineer Iii Cloud",
		URL:        "https://www.google.com/about/careers/applications/jobs/results/111-software-engineer-iii-cloud?q=swe",
		Location:   model.NotAvailable,
		PostedDate: model.NotAvailable,
	}, jobs[0])
	assert.Equal(t, "222", jobs[1].JobID)
	assert.Equal(t, "Site Reliability Engineer", jobs[1].Title)
	assert.Equal(t, "https://www.google.com/about/careers/applications/jobs/results/222-site-reliability-engineer", jobs[1].URL)
}

func TestExtractPage_LimitsLinks(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, `<a href="jobs/results/%d-engineer">x</a>`, 1000+i)
	}
	b.WriteString("</body></html>")
	page := browsertest.New(nil)
	page.Load(resultsURL, b.String())

	jobs, err := newTestScraper(t).ExtractPage(context.Background(), page)
	require.NoError(t, err)
	assert.Len(t, jobs, maxLinks)
}

func TestExtractPage_BlockedPage(t *testing.T) {
	page := browsertest.New(nil)
	page.Load(resultsURL, `<html><head><title>Access Denied</title></head><body>
<a href="jobs/results/111-software-engineer">x</a></body></html>`)

	jobs, err := newTestScraper(t).ExtractPage(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestBuildSearch(t *testing.T) {
	u := SearchURL("swe", "London")
	page := browsertest.New(map[string]string{u: "<html></html>"})

	require.NoError(t, newTestScraper(t).BuildSearch(context.Background(), page, "swe", "London"))
	assert.Equal(t, []string{u}, page.Visited)
}
