package google

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
)

const (
	Name       = "google"
	baseURL    = "https://www.google.com/about/careers/applications/"
	resultsURL = baseURL + "jobs/results"
	maxLinks   = 20
)

var (
	idPattern         = regexp.MustCompile(`jobs/results/(\d+)-`)
	fallbackIDPattern = regexp.MustCompile(`/(\d{10,})[-/]`)
	slugPattern       = regexp.MustCompile(`jobs/results/\d+-([^/?#]+)`)

	blockedMarkers = []string{"blocked", "error", "access denied"}
)

type GoogleScraper struct {
	opts   scraper.Options
	logger *zap.Logger
	title  cases.Caser
}

func NewGoogleScraper(opts scraper.Options, logger *zap.Logger) *GoogleScraper {
	return &GoogleScraper{
		opts:   opts,
		logger: logger,
		title:  cases.Title(language.English),
	}
}

func (s *GoogleScraper) Name() string {
	return Name
}

// SearchURL keeps the q, location, sort_by order and encodes spaces as %20.
func SearchURL(position, location string) string {
	return resultsURL + "?q=" + queryEscape(position) + "&location=" + queryEscape(location) + "&sort_by=date"
}

func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (s *GoogleScraper) BuildSearch(_ context.Context, page browser.Page, position, location string) error {
	u := SearchURL(position, location)
	s.logger.Info("🔍 Searching", zap.String("position", position), zap.String("location", location), zap.String("url", u))
	if err := page.Goto(u); err != nil {
		return err
	}
	browser.RandomDelay(s.opts.Settle, s.opts.Settle)
	return nil
}

func (s *GoogleScraper) ExtractPage(ctx context.Context, page browser.Page) ([]model.JobRecord, error) {
	title, err := page.Title()
	if err == nil && isBlocked(title) {
		s.logger.Warn("🚫 Page looks blocked", zap.String("title", title))
		return nil, nil
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page content: %w", err)
	}

	var hrefs []string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, "jobs/results/") {
			hrefs = append(hrefs, href)
		}
		return len(hrefs) < maxLinks
	})
	s.logger.Info("📦 Found job links", zap.Int("count", len(hrefs)))

	jobs := make([]model.JobRecord, 0, len(hrefs))
	for _, href := range hrefs {
		if ctx.Err() != nil {
			break
		}
		job := s.recordFromHref(href)
		if !job.HasID() || job.Title == model.NotAvailable {
			s.logger.Debug("skipping link without id or title", zap.String("href", href))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *GoogleScraper) NoMoreJobs() bool {
	return false
}

func (s *GoogleScraper) recordFromHref(href string) model.JobRecord {
	full := absoluteURL(href)
	return model.JobRecord{
		JobID:      JobIDFromURL(full),
		Title:      s.titleFromURL(full),
		URL:        full,
		Location:   model.NotAvailable,
		PostedDate: model.NotAvailable,
	}
}

// JobIDFromURL extracts the numeric id from
// .../jobs/results/123456789-software-engineer?... with a fallback to any
// run of ten or more digits bounded by a path separator or dash.
func JobIDFromURL(u string) string {
	if m := idPattern.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	if m := fallbackIDPattern.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return model.NotAvailable
}

func (s *GoogleScraper) titleFromURL(u string) string {
	m := slugPattern.FindStringSubmatch(u)
	if m == nil {
		return model.NotAvailable
	}
	slug := strings.ReplaceAll(m[1], "-", " ")
	return model.OrNA(s.title.String(slug))
}

func absoluteURL(href string) string {
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "/"):
		return "https://www.google.com" + href
	default:
		return baseURL + href
	}
}

func isBlocked(title string) bool {
	t := strings.ToLower(title)
	for _, m := range blockedMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}
