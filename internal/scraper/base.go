// Define the capability set every site adapter implements
// and the search loop that drives it

package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/model"
)

// Adapter is implemented once per job site.
type Adapter interface {
	// Name is the site id (amazon, google, ...)
	Name() string

	// BuildSearch navigates page to the results listing for one query.
	BuildSearch(ctx context.Context, page browser.Page, position, location string) error

	// ExtractPage reads the listing currently shown by page. A missing listing
	// container yields an empty slice; malformed items are skipped.
	ExtractPage(ctx context.Context, page browser.Page) ([]model.JobRecord, error)

	// NoMoreJobs is reserved for pagination; only the first page is scraped.
	NoMoreJobs() bool
}

// Options are the timing knobs shared by every adapter.
type Options struct {
	// Wait bounds every wait-for-element.
	Wait time.Duration
	// Settle is the pause after a navigation before reading the page.
	Settle time.Duration
}

// DefaultOptions mirror the waits used against the live sites.
func DefaultOptions() Options {
	return Options{Wait: 10 * time.Second, Settle: 3 * time.Second}
}

// Tasks returns the cross product of positions and locations, position-major.
func Tasks(positions, locations []string) []model.SearchTask {
	tasks := make([]model.SearchTask, 0, len(positions)*len(locations))
	for _, p := range positions {
		for _, l := range locations {
			tasks = append(tasks, model.SearchTask{Position: p, Location: l})
		}
	}
	return tasks
}

// Search runs BuildSearch + ExtractPage for every task and accumulates the
// records of the whole pass. A failed task contributes nothing. logger is
// expected to already carry the site field.
func Search(ctx context.Context, page browser.Page, a Adapter, tasks []model.SearchTask, logger *zap.Logger) []model.JobRecord {
	logger.Info("🔍 Starting job search", zap.Int("combinations", len(tasks)))

	var all []model.JobRecord
	for _, t := range tasks {
		if ctx.Err() != nil {
			logger.Warn("⏹️ Search interrupted", zap.Error(ctx.Err()))
			break
		}

		l := logger.With(zap.String("position", t.Position), zap.String("location", t.Location))
		if err := a.BuildSearch(ctx, page, t.Position, t.Location); err != nil {
			l.Warn("⚠️ Search navigation failed", zap.Error(err))
			continue
		}

		jobs, err := a.ExtractPage(ctx, page)
		if err != nil {
			l.Warn("⚠️ Extraction failed", zap.Error(err))
			continue
		}
		for i := range jobs {
			jobs[i].Site = a.Name()
		}
		l.Info("📦 Extracted jobs", zap.Int("count", len(jobs)))
		all = append(all, jobs...)
	}
	return all
}
