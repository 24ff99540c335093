package amazon

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
)

const (
	Name          = "amazon"
	searchBaseURL = "https://www.amazon.jobs/en/search"
)

type AmazonScraper struct {
	opts   scraper.Options
	logger *zap.Logger
}

func NewAmazonScraper(opts scraper.Options, logger *zap.Logger) *AmazonScraper {
	return &AmazonScraper{opts: opts, logger: logger}
}

func (s *AmazonScraper) Name() string {
	return Name
}

// SearchURL builds the results URL the way the site's own search box does:
// spaces become '+', the location doubles as the country filter.
func SearchURL(position, location string) string {
	pos := strings.ReplaceAll(strings.TrimSpace(position), " ", "+")
	loc := strings.ReplaceAll(strings.TrimSpace(location), " ", "+")
	return fmt.Sprintf("%s?base_query=%s&loc_query=%s&country=%s&invalid_location=false&city=&region=&county=",
		searchBaseURL, pos, loc, loc)
}

func (s *AmazonScraper) BuildSearch(ctx context.Context, page browser.Page, position, location string) error {
	url := SearchURL(position, location)
	s.logger.Info("🔍 Searching", zap.String("position", position), zap.String("location", location), zap.String("url", url))
	if err := page.Goto(url); err != nil {
		return err
	}
	browser.RandomDelay(s.opts.Settle, s.opts.Settle)

	//the search button is only present when the query was not auto-executed
	if btn, err := page.Query(`button[aria-label="Search jobs"]`); err == nil {
		if err := btn.Click(); err != nil {
			s.logger.Debug("search button not clickable", zap.Error(err))
		} else {
			browser.RandomDelay(s.opts.Settle, s.opts.Settle)
		}
	} else {
		s.logger.Debug("search button not found or search already executed")
	}

	s.sortByRecent(ctx, page)
	return nil
}

// sortByRecent is best effort: when nothing works the default order is kept.
func (s *AmazonScraper) sortByRecent(ctx context.Context, page browser.Page) {
	name, err := scraper.RunStrategies(ctx, page, s.sortStrategies(), s.logger)
	if err != nil {
		s.logger.Info("ℹ️ Could not sort by most recent, keeping default order", zap.Error(err))
		return
	}
	s.logger.Info("↕️ Sorted by most recent", zap.String("strategy", name))
}

func (s *AmazonScraper) sortStrategies() []scraper.Strategy {
	return []scraper.Strategy{
		{Name: "url_param", Run: sortViaURL},
		{Name: "select_dropdown", Run: sortViaSelect},
		{Name: "sort_button", Run: sortViaButton},
	}
}

func sortViaURL(_ context.Context, page browser.Page) error {
	current := page.URL()
	if strings.Contains(current, "sort=") {
		return fmt.Errorf("url already carries a sort parameter")
	}
	sep := "?"
	if strings.Contains(current, "?") {
		sep = "&"
	}
	return page.Goto(current + sep + "sort=recent")
}

func sortViaSelect(_ context.Context, page browser.Page) error {
	selects, err := page.QueryAll("select")
	if err != nil {
		return err
	}
	for _, sel := range selects {
		options, err := sel.QueryAll("option")
		if err != nil {
			continue
		}
		opt, ok := browser.FindContaining(options, "most recent")
		if !ok {
			continue
		}
		label, err := opt.Text()
		if err != nil {
			continue
		}
		if err := sel.SelectOption(strings.TrimSpace(label)); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: select with a most recent option", browser.ErrNotFound)
}

func sortViaButton(_ context.Context, page browser.Page) error {
	buttons, err := page.QueryAll(`button[aria-label*="Sort"], [class*="sort"] button`)
	if err != nil {
		return err
	}
	if all, err := page.QueryAll("button"); err == nil {
		if b, ok := browser.FindContaining(all, "sort by"); ok {
			buttons = append([]browser.Element{b}, buttons...)
		}
	}
	for _, b := range buttons {
		if err := b.Click(); err != nil {
			continue
		}
		options, err := page.QueryAll("a, button, li, [role=option]")
		if err != nil {
			continue
		}
		if opt, ok := browser.FindByText(options, "Most recent"); ok {
			if err := opt.Click(); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: sort button", browser.ErrNotFound)
}

func (s *AmazonScraper) ExtractPage(ctx context.Context, page browser.Page) ([]model.JobRecord, error) {
	if err := page.WaitFor(".job-tile", s.opts.Wait); err != nil {
		s.logger.Info("ℹ️ No job tiles on page", zap.Error(err))
		return nil, nil
	}
	tiles, err := page.QueryAll(".job-tile")
	if err != nil {
		return nil, err
	}
	s.logger.Info("📦 Found job tiles", zap.Int("count", len(tiles)))

	jobs := make([]model.JobRecord, 0, len(tiles))
	for i, tile := range tiles {
		if ctx.Err() != nil {
			break
		}
		job, err := s.processJobTile(tile)
		if err != nil {
			s.logger.Warn("⚠️ Skipping malformed job tile", zap.Int("index", i), zap.Error(err))
			continue
		}
		s.logger.Debug("job extracted",
			zap.String("title", job.Title), zap.String("job_id", job.JobID),
			zap.String("location", job.Location), zap.String("posted", job.PostedDate))
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *AmazonScraper) NoMoreJobs() bool {
	return false
}

// processJobTile requires a title and a link; every other field falls back
// to the sentinel on its own.
func (s *AmazonScraper) processJobTile(tile browser.Element) (model.JobRecord, error) {
	title, err := browser.TextOf(tile, ".job-title")
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("title: %w", err)
	}
	linkEl, err := tile.Query(".job-link")
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("link: %w", err)
	}
	href, err := linkEl.Attr("href")
	if err != nil || href == "" {
		return model.JobRecord{}, fmt.Errorf("link: missing href")
	}
	url := absoluteURL(href)

	return model.JobRecord{
		JobID:      JobIDFromURL(url),
		Title:      title,
		URL:        url,
		Location:   extractLocation(tile),
		PostedDate: extractPostedDate(tile),
	}, nil
}

func extractLocation(tile browser.Element) string {
	if text, err := browser.TextOf(tile, ".location-and-id"); err == nil {
		if before, _, found := strings.Cut(text, "|"); found {
			return model.OrNA(before)
		}
		return model.OrNA(text)
	}
	if text, err := browser.TextOf(tile, ".location"); err == nil {
		return model.OrNA(text)
	}
	return model.NotAvailable
}

func extractPostedDate(tile browser.Element) string {
	if text, err := browser.TextOf(tile, ".posting-date"); err == nil {
		return model.OrNA(text)
	}
	if v, err := tile.Attr("data-posted-date"); err == nil {
		return model.OrNA(v)
	}
	return model.NotAvailable
}

// JobIDFromURL reads the segment after /jobs/, e.g.
// https://www.amazon.jobs/en/jobs/2712345/software-engineer -> 2712345.
func JobIDFromURL(url string) string {
	_, rest, found := strings.Cut(url, "/jobs/")
	if !found {
		return model.NotAvailable
	}
	id, _, _ := strings.Cut(rest, "/")
	id, _, _ = strings.Cut(id, "?")
	return model.OrNA(id)
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return "https://www.amazon.jobs" + href
}
