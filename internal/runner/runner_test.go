package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/browser/browsertest"
	"github.com/rushi1222/job-applier-amazon/internal/config"
	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/reporter"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
	"github.com/rushi1222/job-applier-amazon/internal/scraper/amazon"
	"github.com/rushi1222/job-applier-amazon/internal/store"
)

type fakeAdapter struct {
	name  string
	jobs  []model.JobRecord
	panic string
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) BuildSearch(context.Context, browser.Page, string, string) error {
	if a.panic != "" {
		panic(a.panic)
	}
	return nil
}

func (a *fakeAdapter) ExtractPage(context.Context, browser.Page) ([]model.JobRecord, error) {
	return append([]model.JobRecord(nil), a.jobs...), nil
}

func (a *fakeAdapter) NoMoreJobs() bool { return true }

type memStore struct {
	known    map[string]struct{}
	appended []model.JobRecord
	apps     []model.Application
	err      error
}

func (s *memStore) KnownIDs(context.Context) (map[string]struct{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.known, nil
}

func (s *memStore) Append(_ context.Context, jobs []model.JobRecord, _ time.Time) error {
	s.appended = append(s.appended, jobs...)
	return nil
}

func (s *memStore) RecordApplication(_ context.Context, app model.Application) error {
	s.apps = append(s.apps, app)
	return nil
}

type recordingNotifier struct {
	digests  [][]reporter.SiteJobs
	failures []string
	details  []string
}

func (n *recordingNotifier) SendJobs(_ context.Context, groups []reporter.SiteJobs) bool {
	n.digests = append(n.digests, groups)
	return true
}

func (n *recordingNotifier) SendFailure(_ context.Context, site, detail string) bool {
	n.failures = append(n.failures, site)
	n.details = append(n.details, detail)
	return true
}

type submitDriver struct{ applied []string }

func (d *submitDriver) Apply(_ context.Context, _ browser.Page, job model.JobRecord) (model.ApplicationOutcome, error) {
	d.applied = append(d.applied, job.JobID)
	return model.OutcomeSubmitted, nil
}

// panicDriver submits the first job and panics on the second.
type panicDriver struct{ applied []string }

func (d *panicDriver) Apply(_ context.Context, _ browser.Page, job model.JobRecord) (model.ApplicationOutcome, error) {
	if len(d.applied) > 0 {
		panic("form vanished")
	}
	d.applied = append(d.applied, job.JobID)
	return model.OutcomeSubmitted, nil
}

// loggingAdapter logs through the logger its factory was given.
type loggingAdapter struct {
	fakeAdapter
	logger *zap.Logger
}

func (a *loggingAdapter) BuildSearch(context.Context, browser.Page, string, string) error {
	a.logger.Info("building search")
	return nil
}

func rec(id, title string) model.JobRecord {
	return model.JobRecord{JobID: id, Title: title, URL: "https://example.com/jobs/" + id,
		Location: model.NotAvailable, PostedDate: model.NotAvailable}
}

type fixture struct {
	cfg      *config.Config
	registry Registry
	stores   map[string]*memStore
	notifier *recordingNotifier
	driver   amazon.FormDriver
	logger   *zap.Logger
}

func newFixture() *fixture {
	f := &fixture{
		cfg: &config.Config{
			JobSearch: config.JobSearch{
				Positions:      []string{"SDE"},
				Locations:      []string{"USA"},
				TitleBlacklist: []string{"senior"},
			},
			Sites: config.Sites{
				{Name: "amazon", Enabled: true, Apply: true, MaxApplications: 1},
				{Name: "google", Enabled: true},
				{Name: "linkedin", Enabled: false},
			},
		},
		stores: map[string]*memStore{
			"amazon":   {known: map[string]struct{}{"1": {}}},
			"google":   {known: map[string]struct{}{}},
			"linkedin": {known: map[string]struct{}{}},
		},
		notifier: &recordingNotifier{},
		driver:   &submitDriver{},
	}
	f.registry = Registry{
		"amazon": {New: adapterFor(&fakeAdapter{name: "amazon", jobs: []model.JobRecord{
			rec("1", "SDE I"), rec("2", "SDE II"), rec("3", "Sénior SDE"), rec("4", "SDE III"),
		}}), CanApply: true},
		"google":   {New: adapterFor(&fakeAdapter{name: "google", jobs: []model.JobRecord{rec("10", "Software Engineer")}})},
		"linkedin": {New: adapterFor(&fakeAdapter{name: "linkedin", panic: "must not run"})},
	}
	return f
}

func adapterFor(a scraper.Adapter) func(scraper.Options, *zap.Logger) scraper.Adapter {
	return func(scraper.Options, *zap.Logger) scraper.Adapter { return a }
}

func (f *fixture) run(t *testing.T) *Result {
	provider := func(site string) (store.Store, error) {
		s, ok := f.stores[site]
		if !ok {
			return nil, errors.New("no store")
		}
		return s, nil
	}
	logger := f.logger
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}
	r := New(f.cfg, f.registry, browsertest.New(nil), provider, f.notifier, f.driver, logger)
	return r.Run(context.Background())
}

func ids(jobs []model.JobRecord) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.JobID)
	}
	return out
}

func TestRun_FullPass(t *testing.T) {
	f := newFixture()
	res := f.run(t)

	_, err := uuid.Parse(res.RunID)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)

	require.Len(t, res.NewJobs, 2, "disabled sites are skipped")
	assert.Equal(t, "amazon", res.NewJobs[0].Site)
	assert.Equal(t, []string{"2", "4"}, ids(res.NewJobs[0].Jobs), "known and blacklisted jobs are dropped")
	assert.Equal(t, "google", res.NewJobs[1].Site)
	assert.Equal(t, []string{"10"}, ids(res.NewJobs[1].Jobs))
	assert.Equal(t, 3, res.Total())

	assert.Equal(t, []string{"2", "4"}, ids(f.stores["amazon"].appended))
	assert.Equal(t, "amazon", f.stores["amazon"].appended[0].Site)

	assert.Equal(t, []string{"2"}, f.driver.(*submitDriver).applied, "max_applications bounds the apply loop")
	require.Len(t, res.Applications, 1)
	require.Len(t, f.stores["amazon"].apps, 1)
	assert.Equal(t, model.OutcomeSubmitted, f.stores["amazon"].apps[0].Outcome)
	assert.Empty(t, f.stores["google"].apps, "google has no form driver")

	require.Len(t, f.notifier.digests, 1, "one consolidated digest")
	assert.Equal(t, res.NewJobs, f.notifier.digests[0])
	assert.True(t, res.Notified)
	assert.Empty(t, f.notifier.failures)
}

func TestRun_PanicIsIsolatedToItsSite(t *testing.T) {
	f := newFixture()
	f.cfg.Sites = config.Sites{
		{Name: "google", Enabled: true},
		{Name: "amazon", Enabled: true},
	}
	f.registry["google"] = Site{New: adapterFor(&fakeAdapter{name: "google", panic: "boom"})}

	res := f.run(t)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "google", res.Failures[0].Site)
	assert.Contains(t, res.Failures[0].Detail, "panic: boom")
	assert.Contains(t, res.Failures[0].Detail, "goroutine", "detail carries the stack")

	assert.Equal(t, []string{"google"}, f.notifier.failures)
	require.Len(t, res.NewJobs, 1, "the next site still runs")
	assert.Equal(t, "amazon", res.NewJobs[0].Site)
	assert.Len(t, f.notifier.digests, 1)
	assert.Empty(t, res.Applications, "apply is off for this site")
}

func TestRun_ApplyPanicKeepsNewJobs(t *testing.T) {
	f := newFixture()
	f.cfg.Sites[0].MaxApplications = 5
	driver := &panicDriver{}
	f.driver = driver

	res := f.run(t)

	require.Len(t, res.NewJobs, 2)
	assert.Equal(t, "amazon", res.NewJobs[0].Site)
	assert.Equal(t, []string{"2", "4"}, ids(res.NewJobs[0].Jobs), "persisted jobs still reach the digest")
	assert.Equal(t, []string{"2", "4"}, ids(f.stores["amazon"].appended))
	require.Len(t, f.notifier.digests, 1)
	assert.Equal(t, res.NewJobs, f.notifier.digests[0])

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "amazon", res.Failures[0].Site)
	assert.Contains(t, res.Failures[0].Detail, "panic: form vanished")
	assert.Equal(t, []string{"amazon"}, f.notifier.failures)

	assert.Equal(t, []string{"2"}, driver.applied)
	require.Len(t, res.Applications, 1, "applications before the panic are kept")
	assert.Len(t, f.stores["amazon"].apps, 1)
}

func TestRun_RepeatedPostingsCollapse(t *testing.T) {
	f := newFixture()
	f.registry["google"] = Site{New: adapterFor(&fakeAdapter{name: "google", jobs: []model.JobRecord{
		rec("10", "Software Engineer"), rec("11", "SRE"), rec("10", "Software Engineer"),
	}})}

	res := f.run(t)

	require.Len(t, res.NewJobs, 2)
	assert.Equal(t, []string{"10", "11"}, ids(res.NewJobs[1].Jobs))
	assert.Equal(t, []string{"10", "11"}, ids(f.stores["google"].appended))
}

func TestRun_AdapterLogsAreScopedToRunAndSite(t *testing.T) {
	f := newFixture()
	core, logs := observer.New(zap.InfoLevel)
	f.logger = zap.New(core)
	f.registry["google"] = Site{New: func(_ scraper.Options, logger *zap.Logger) scraper.Adapter {
		return &loggingAdapter{fakeAdapter: fakeAdapter{name: "google"}, logger: logger}
	}}

	res := f.run(t)

	built := logs.FilterMessage("building search").All()
	require.Len(t, built, 1)
	fields := built[0].ContextMap()
	assert.Equal(t, res.RunID, fields["run_id"])
	assert.Equal(t, "google", fields["site"])

	for _, entry := range logs.All() {
		n := 0
		for _, field := range entry.Context {
			if field.Key == "site" {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1, "duplicate site field on %q", entry.Message)
	}
}

func TestRun_StoreErrorFailsSite(t *testing.T) {
	f := newFixture()
	f.stores["google"].err = errors.New("connection refused")

	res := f.run(t)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "google", res.Failures[0].Site)
	assert.Contains(t, res.Failures[0].Detail, "connection refused")
	require.Len(t, res.NewJobs, 1)
	assert.Equal(t, "amazon", res.NewJobs[0].Site)
}

func TestRun_UnknownSiteFails(t *testing.T) {
	f := newFixture()
	f.cfg.Sites = config.Sites{{Name: "indeed", Enabled: true}}

	res := f.run(t)

	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Detail, "site not registered")
	assert.Empty(t, f.notifier.digests)
}

func TestRun_NothingNewSendsNoDigest(t *testing.T) {
	f := newFixture()
	f.stores["amazon"].known = map[string]struct{}{"1": {}, "2": {}, "4": {}}
	f.stores["google"].known = map[string]struct{}{"10": {}}

	res := f.run(t)

	assert.Zero(t, res.Total())
	assert.Empty(t, f.notifier.digests)
	assert.False(t, res.Notified)
	assert.Empty(t, f.driver.(*submitDriver).applied)
}

func TestRun_CancelledContextStopsBeforeSites(t *testing.T) {
	f := newFixture()
	provider := func(site string) (store.Store, error) { return f.stores[site], nil }
	r := New(f.cfg, f.registry, browsertest.New(nil), provider, f.notifier, f.driver, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := r.Run(ctx)

	assert.Empty(t, res.NewJobs)
	assert.Empty(t, f.notifier.digests)
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{"amazon", "google", "linkedin"}, reg.Names())
	assert.True(t, reg["amazon"].CanApply)
	assert.False(t, reg["google"].CanApply)

	for name, site := range reg {
		a := site.New(scraper.DefaultOptions(), zaptest.NewLogger(t))
		assert.Equal(t, name, a.Name())
	}

	assert.NoError(t, reg.Check(config.Sites{{Name: "amazon"}, {Name: "google"}}))
	err := reg.Check(config.Sites{{Name: "amazon"}, {Name: "indeed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"indeed"`)
}
