package linkedin

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
)

const (
	Name       = "linkedin"
	searchURL  = "https://www.linkedin.com/jobs/search"
	cardsQuery = "ul.jobs-search__results-list > li"
)

var trailingID = regexp.MustCompile(`-(\d+)$`)

type LinkedInScraper struct {
	opts   scraper.Options
	logger *zap.Logger
}

func NewLinkedInScraper(opts scraper.Options, logger *zap.Logger) *LinkedInScraper {
	return &LinkedInScraper{opts: opts, logger: logger}
}

func (s *LinkedInScraper) Name() string {
	return Name
}

// SearchURL targets the public guest listing, newest first (sortBy=DD).
func SearchURL(position, location string) string {
	q := url.Values{}
	q.Set("keywords", position)
	q.Set("location", location)
	q.Set("sortBy", "DD")
	return searchURL + "?" + q.Encode()
}

func (s *LinkedInScraper) BuildSearch(_ context.Context, page browser.Page, position, location string) error {
	u := SearchURL(position, location)
	s.logger.Info("💼 Searching LinkedIn guest jobs", zap.String("position", position), zap.String("location", location))
	if err := page.Goto(u); err != nil {
		return fmt.Errorf("load job search page: %w", err)
	}
	browser.RandomDelay(s.opts.Settle, s.opts.Settle)
	if err := browser.HumanScroll(page, s.opts.Settle/3); err != nil {
		s.logger.Debug("scroll failed", zap.Error(err))
	}
	return nil
}

func (s *LinkedInScraper) ExtractPage(ctx context.Context, page browser.Page) ([]model.JobRecord, error) {
	if err := page.WaitFor(cardsQuery, s.opts.Wait); err != nil {
		s.logger.Info("⚠️ Job list not found or empty", zap.Error(err))
		return nil, nil
	}
	cards, err := page.QueryAll(cardsQuery)
	if err != nil {
		return nil, err
	}
	s.logger.Info("📄 Found potential jobs", zap.Int("count", len(cards)))

	jobs := make([]model.JobRecord, 0, len(cards))
	for i, card := range cards {
		if ctx.Err() != nil {
			break
		}
		job, err := processCard(card)
		if err != nil {
			s.logger.Debug("skipping job card", zap.Int("index", i), zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *LinkedInScraper) NoMoreJobs() bool {
	return false
}

func processCard(card browser.Element) (model.JobRecord, error) {
	title, err := browser.TextOf(card, ".base-search-card__title")
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("title: %w", err)
	}
	link, err := card.Query("a.base-card__full-link")
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("link: %w", err)
	}
	href, _ := link.Attr("href")
	if href == "" {
		return model.JobRecord{}, fmt.Errorf("link: missing href")
	}
	u := CanonicalURL(href)

	location := model.NotAvailable
	if text, err := browser.TextOf(card, ".job-search-card__location"); err == nil {
		location = model.OrNA(text)
	}

	return model.JobRecord{
		JobID:      JobIDFromURL(u),
		Title:      title,
		URL:        u,
		Location:   location,
		PostedDate: postedDate(card),
	}, nil
}

func postedDate(card browser.Element) string {
	t, err := card.Query("time")
	if err != nil {
		return model.NotAvailable
	}
	if v, _ := t.Attr("datetime"); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	text, err := t.Text()
	if err != nil {
		return model.NotAvailable
	}
	return model.OrNA(text)
}

// CanonicalURL drops tracking parameters (refId, trackingId, ...) so the same
// posting always maps to the same URL.
func CanonicalURL(href string) string {
	if !strings.HasPrefix(href, "http") {
		href = "https://www.linkedin.com" + href
	}
	u, _, _ := strings.Cut(href, "?")
	return u
}

// JobIDFromURL reads the trailing digits of /jobs/view/<slug>-<id>.
func JobIDFromURL(u string) string {
	_, rest, found := strings.Cut(u, "/jobs/view/")
	if !found {
		return model.NotAvailable
	}
	rest = strings.TrimSuffix(rest, "/")
	if m := trailingID.FindStringSubmatch(rest); m != nil {
		return m[1]
	}
	if isDigits(rest) {
		return rest
	}
	return model.NotAvailable
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
