// Drive one pipeline pass over every enabled site:
// search -> blacklist -> dedup -> persist -> apply,
// then send one consolidated digest

package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/config"
	"github.com/rushi1222/job-applier-amazon/internal/dedup"
	"github.com/rushi1222/job-applier-amazon/internal/filter"
	"github.com/rushi1222/job-applier-amazon/internal/metrics"
	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/reporter"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
	"github.com/rushi1222/job-applier-amazon/internal/scraper/amazon"
	"github.com/rushi1222/job-applier-amazon/internal/store"
)

// notifyTimeout bounds delivery once the run context is already spent.
const notifyTimeout = 30 * time.Second

var errUnknownSite = errors.New("site not registered")

// SiteFailure is a site whose search or apply loop was aborted.
type SiteFailure struct {
	Site   string
	Detail string
}

// Result is the state of one run. NewJobs keeps the configured site order.
type Result struct {
	RunID        string
	NewJobs      []reporter.SiteJobs
	Failures     []SiteFailure
	Applications []model.Application
	Notified     bool
}

// Total is the number of new jobs across sites.
func (r *Result) Total() int {
	return reporter.Total(r.NewJobs)
}

type Runner struct {
	cfg      *config.Config
	registry Registry
	page     browser.Page
	stores   store.Provider
	notifier reporter.Notifier
	driver   amazon.FormDriver
	logger   *zap.Logger
}

// New wires a runner. driver may be nil, in which case no site applies.
func New(cfg *config.Config, registry Registry, page browser.Page, stores store.Provider,
	notifier reporter.Notifier, driver amazon.FormDriver, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		registry: registry,
		page:     page,
		stores:   stores,
		notifier: notifier,
		driver:   driver,
		logger:   logger,
	}
}

// Run executes one pass. Site failures are reported and recorded in the
// result; they never stop the remaining sites.
func (r *Runner) Run(ctx context.Context) *Result {
	res := &Result{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("run_id", res.RunID))

	tasks := scraper.Tasks(r.cfg.JobSearch.Positions, r.cfg.JobSearch.Locations)
	blacklist := filter.NewBlacklist(r.cfg.JobSearch.TitleBlacklist)
	logger.Info("🚀 Starting run", zap.Int("tasks", len(tasks)), zap.Int("sites", len(r.cfg.Sites.Enabled())))

	for _, sc := range r.cfg.Sites.Enabled() {
		if ctx.Err() != nil {
			logger.Warn("⏹️ Run interrupted", zap.Error(ctx.Err()))
			break
		}
		siteLog := logger.With(zap.String("site", sc.Name))

		site, st, jobs, err := r.runSite(ctx, sc, tasks, blacklist, siteLog)
		if err != nil {
			r.fail(ctx, res, sc.Name, err, siteLog)
			continue
		}
		// jobs are already persisted, so they join the digest whatever apply does
		res.NewJobs = append(res.NewJobs, reporter.SiteJobs{Site: sc.Name, Jobs: jobs})

		if sc.Apply && site.CanApply && r.driver != nil && len(jobs) > 0 {
			apps, err := r.applySite(ctx, sc, st, jobs, siteLog)
			res.Applications = append(res.Applications, apps...)
			if err != nil {
				r.fail(ctx, res, sc.Name, fmt.Errorf("apply: %w", err), siteLog)
			}
		}
	}

	if res.Total() > 0 {
		nctx, cancel := notifyContext(ctx)
		res.Notified = r.notifier.SendJobs(nctx, res.NewJobs)
		cancel()
	} else {
		logger.Info("📭 No new jobs found")
	}

	logger.Info("🏁 Run finished",
		zap.Int("new_jobs", res.Total()),
		zap.Int("failures", len(res.Failures)),
		zap.Int("applications", len(res.Applications)))
	return res
}

// fail records a site failure and reports it right away.
func (r *Runner) fail(ctx context.Context, res *Result, site string, err error, logger *zap.Logger) {
	logger.Error("❌ Site failed", zap.Error(err))
	metrics.SiteFailures.WithLabelValues(site).Inc()
	res.Failures = append(res.Failures, SiteFailure{Site: site, Detail: err.Error()})
	nctx, cancel := notifyContext(ctx)
	r.notifier.SendFailure(nctx, site, err.Error())
	cancel()
}

// runSite searches one site and persists what is new. A panic anywhere below
// it becomes an error carrying the stack.
func (r *Runner) runSite(ctx context.Context, sc config.SiteConfig, tasks []model.SearchTask,
	blacklist *filter.Blacklist, logger *zap.Logger) (site Site, st store.Store, jobs []model.JobRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n\n%s", p, debug.Stack())
		}
	}()

	site, ok := r.registry[sc.Name]
	if !ok {
		return site, nil, nil, fmt.Errorf("%w: %s", errUnknownSite, sc.Name)
	}
	st, err = r.stores(sc.Name)
	if err != nil {
		return site, nil, nil, fmt.Errorf("open record store: %w", err)
	}

	opts := scraper.Options{Wait: r.cfg.Browser.WaitTimeout, Settle: r.cfg.Browser.SettleDelay}
	adapter := site.New(opts, logger)

	extracted := scraper.Search(ctx, r.page, adapter, tasks, logger)
	metrics.JobsExtracted.WithLabelValues(sc.Name).Add(float64(len(extracted)))

	kept, dropped := blacklist.Apply(extracted)
	if len(dropped) > 0 {
		logger.Info("🚫 Dropped blacklisted titles", zap.Int("count", len(dropped)))
	}

	d := dedup.New(st, logger)
	fresh, err := d.Filter(ctx, kept)
	if err != nil {
		return site, st, nil, err
	}
	// the same posting often shows up under several search tasks
	if collapsed := dedup.CollapseRepeats(fresh); len(collapsed) < len(fresh) {
		logger.Info("🔁 Collapsed repeated postings", zap.Int("count", len(fresh)-len(collapsed)))
		fresh = collapsed
	}
	if err := d.Persist(ctx, fresh); err != nil {
		return site, st, nil, err
	}
	metrics.JobsNew.WithLabelValues(sc.Name).Add(float64(len(fresh)))
	logger.Info("✅ Site finished", zap.Int("extracted", len(extracted)), zap.Int("new", len(fresh)))
	return site, st, fresh, nil
}

// applySite submits applications for new jobs. Applications recorded before
// a panic are still returned.
func (r *Runner) applySite(ctx context.Context, sc config.SiteConfig, st store.Store,
	jobs []model.JobRecord, logger *zap.Logger) (apps []model.Application, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n\n%s", p, debug.Stack())
		}
	}()

	record := func(app model.Application) {
		apps = append(apps, app)
		metrics.Applications.WithLabelValues(sc.Name, string(app.Outcome)).Inc()
		if err := st.RecordApplication(ctx, app); err != nil {
			logger.Warn("⚠️ Could not record application", zap.String("job_id", app.Job.JobID), zap.Error(err))
		}
	}
	amazon.ApplyAll(ctx, r.page, r.driver, jobs, sc.MaxApplications, r.page.URL(), record, logger)
	return apps, nil
}

// notifyContext drops the run deadline so reports still go out after a timeout.
func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
}
