package amazon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/model"
)

// DefaultMaxApplications bounds how many new jobs are applied to per run.
const DefaultMaxApplications = 5

// FormDriver runs the application form for one job.
type FormDriver interface {
	Apply(ctx context.Context, page browser.Page, job model.JobRecord) (model.ApplicationOutcome, error)
}

// ApplyAll applies to at most limit jobs with a resolvable id. record is called
// with every outcome; the page is sent back to listingURL after each attempt
// whatever the outcome.
func ApplyAll(ctx context.Context, page browser.Page, driver FormDriver, jobs []model.JobRecord,
	limit int, listingURL string, record func(model.Application), logger *zap.Logger) []model.Application {
	if limit <= 0 {
		limit = DefaultMaxApplications
	}

	var apps []model.Application
	for _, job := range jobs {
		if len(apps) >= limit {
			logger.Info("🛑 Application limit reached", zap.Int("max", limit))
			break
		}
		if ctx.Err() != nil {
			break
		}
		if !job.HasID() || job.URL == "" {
			continue
		}

		outcome, err := driver.Apply(ctx, page, job)
		app := model.Application{Job: job, Outcome: outcome, AttemptedAt: time.Now()}
		if err != nil {
			app.Reason = err.Error()
		}
		apps = append(apps, app)
		record(app)

		if listingURL != "" {
			if err := page.Goto(listingURL); err != nil {
				logger.Warn("⚠️ Could not return to listing", zap.String("url", listingURL), zap.Error(err))
			}
		}
	}
	return apps
}
