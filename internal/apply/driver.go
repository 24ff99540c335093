package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
)

// ErrSectionMissing is returned when a section's navigation item or anchor
// does not show up within the wait.
var ErrSectionMissing = errors.New("form section missing")

type Driver struct {
	layout  Layout
	contact map[string]string
	wait    time.Duration
	shots   *browser.ScreenshotDebugger
	logger  *zap.Logger
}

func NewDriver(layout Layout, contact map[string]string, wait time.Duration, logger *zap.Logger) *Driver {
	return &Driver{layout: layout, contact: contact, wait: wait, logger: logger}
}

// WithScreenshots makes the driver capture the page whenever a form fails.
func (d *Driver) WithScreenshots(shots *browser.ScreenshotDebugger) *Driver {
	d.shots = shots
	return d
}

type step struct {
	section  Section
	optional bool
	fill     func(ctx context.Context, page browser.Page, anchor browser.Element) error
}

// Apply runs the whole form for job. The error is non-nil only for
// OutcomeFailed and says which step gave up.
func (d *Driver) Apply(ctx context.Context, page browser.Page, job model.JobRecord) (model.ApplicationOutcome, error) {
	log := d.logger.With(zap.String("job_id", job.JobID), zap.String("title", job.Title))
	log.Info("📝 Starting application")

	s := newSession(job)
	if err := d.run(ctx, page, s, log); err != nil {
		log.Warn("❌ Application failed", zap.String("section", string(s.current)), zap.Error(err))
		if d.shots != nil {
			d.shots.Capture(page, "apply_"+job.JobID, "Application failed at "+string(s.current))
		}
		s.fail()
		return s.current.Outcome(), err
	}
	log.Info("✅ Application finished", zap.String("outcome", string(s.current.Outcome())))
	return s.current.Outcome(), nil
}

func (d *Driver) run(ctx context.Context, page browser.Page, s *session, log *zap.Logger) error {
	if err := page.Goto(s.job.URL); err != nil {
		return fmt.Errorf("open job page: %w", err)
	}
	name, err := scraper.RunStrategies(ctx, page, d.applyStrategies(), log)
	if err != nil {
		return fmt.Errorf("open apply form: %w", err)
	}
	log.Debug("apply control clicked", zap.String("strategy", name))

	first := d.layout.Nav[SectionContactInfo]
	if err := page.WaitFor(d.layout.AlreadyApplied+", "+first, d.wait); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSectionMissing, SectionContactInfo, err)
	}
	if browser.Exists(page, d.layout.AlreadyApplied) {
		log.Info("ℹ️ Already applied to this job")
		return s.advance(SectionAlreadyApplied)
	}

	steps := []step{
		{section: SectionContactInfo, fill: d.fillContactInfo},
		{section: SectionWorkEligibility, fill: d.answerEligibility},
		{section: SectionJobSpecific, optional: true, fill: d.answerJobSpecific},
		{section: SectionReviewSubmit, fill: d.submit},
	}
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if st.optional && !browser.Exists(page, d.layout.Nav[st.section]) {
			log.Debug("optional section absent", zap.String("section", string(st.section)))
			continue
		}
		if err := s.advance(st.section); err != nil {
			return err
		}
		anchor, err := d.openSection(page, st.section)
		if err != nil {
			return err
		}
		if err := st.fill(ctx, page, anchor); err != nil {
			return fmt.Errorf("%s: %w", st.section, err)
		}
	}
	return s.advance(SectionSubmitted)
}

func (d *Driver) applyStrategies() []scraper.Strategy {
	strategies := make([]scraper.Strategy, 0, len(d.layout.ApplyControls)+1)
	for _, sel := range d.layout.ApplyControls {
		strategies = append(strategies, scraper.Strategy{
			Name: sel,
			Run: func(_ context.Context, page browser.Page) error {
				el, err := page.Query(sel)
				if err != nil {
					return err
				}
				return el.Click()
			},
		})
	}
	if d.layout.ApplyText != "" {
		strategies = append(strategies, scraper.Strategy{
			Name: "text:" + d.layout.ApplyText,
			Run: func(_ context.Context, page browser.Page) error {
				els, err := page.QueryAll("button, a")
				if err != nil {
					return err
				}
				el, ok := browser.FindByText(els, d.layout.ApplyText)
				if !ok {
					return fmt.Errorf("%w: %q control", browser.ErrNotFound, d.layout.ApplyText)
				}
				return el.Click()
			},
		})
	}
	return strategies
}

// openSection clicks the section's side-navigation item and waits for its anchor.
func (d *Driver) openSection(page browser.Page, section Section) (browser.Element, error) {
	nav, err := page.Query(d.layout.Nav[section])
	if err != nil {
		return nil, fmt.Errorf("%w: %s nav: %w", ErrSectionMissing, section, err)
	}
	if err := nav.Click(); err != nil {
		return nil, fmt.Errorf("%w: %s nav: %w", ErrSectionMissing, section, err)
	}
	if err := page.WaitFor(d.layout.Anchor[section], d.wait); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSectionMissing, section, err)
	}
	anchor, err := page.Query(d.layout.Anchor[section])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSectionMissing, section, err)
	}
	d.logger.Debug("section opened", zap.String("section", string(section)))
	return anchor, nil
}

func (d *Driver) fillContactInfo(_ context.Context, page browser.Page, anchor browser.Element) error {
	inputs, err := anchor.QueryAll(d.layout.ContactInputs)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		name, _ := in.Attr("name")
		value, ok := d.contact[name]
		if !ok || value == "" {
			continue
		}
		if current, _ := in.Attr("value"); strings.TrimSpace(current) != "" {
			continue
		}
		if err := in.Fill(value); err != nil {
			d.logger.Warn("⚠️ Could not fill contact field", zap.String("field", name), zap.Error(err))
		}
	}
	return d.clickContinue(page, anchor)
}

func (d *Driver) answerEligibility(_ context.Context, page browser.Page, anchor browser.Element) error {
	groups, err := anchor.QueryAll(d.layout.QuestionGroup)
	if err != nil {
		return err
	}
	for _, g := range groups {
		label, err := browser.TextOf(g, d.layout.QuestionLabel)
		if err != nil {
			continue
		}
		answer, ok := eligibilityAnswer(label)
		if !ok {
			d.logger.Debug("eligibility question left at default", zap.String("question", label))
			continue
		}
		if err := d.pickRadio(g, answer); err != nil {
			d.logger.Warn("⚠️ Could not answer eligibility question",
				zap.String("question", label), zap.String("answer", answer), zap.Error(err))
		}
	}
	return d.clickContinue(page, anchor)
}

func (d *Driver) pickRadio(group browser.Element, answer string) error {
	options, err := group.QueryAll(d.layout.RadioOption)
	if err != nil {
		return err
	}
	for _, o := range options {
		v, _ := o.Attr("value")
		if strings.EqualFold(strings.TrimSpace(v), answer) {
			return o.Click()
		}
	}
	// some groups carry coded values and put the answer in the label
	for _, o := range options {
		id, err := o.Attr("id")
		if err != nil || id == "" {
			continue
		}
		text, err := browser.TextOf(group, fmt.Sprintf(`label[for=%q]`, id))
		if err == nil && strings.EqualFold(strings.TrimSpace(text), answer) {
			return o.Click()
		}
	}
	return fmt.Errorf("%w: radio %q", browser.ErrNotFound, answer)
}

func (d *Driver) answerJobSpecific(_ context.Context, page browser.Page, anchor browser.Element) error {
	groups, err := anchor.QueryAll(d.layout.QuestionGroup)
	if err != nil {
		return err
	}
	for i, g := range groups {
		if err := d.pickDropdown(page, g); err != nil {
			d.logger.Warn("⚠️ Could not answer job specific question", zap.Int("index", i), zap.Error(err))
		}
	}
	return d.clickContinue(page, anchor)
}

func (d *Driver) pickDropdown(page browser.Page, group browser.Element) error {
	toggle, err := group.Query(d.layout.DropdownToggle)
	if err != nil {
		return err
	}
	if err := toggle.Click(); err != nil {
		return err
	}

	options, _ := group.QueryAll(d.layout.DropdownOption)
	if len(options) == 0 {
		// some portals render the listbox outside the question group
		options, _ = page.QueryAll(d.layout.DropdownOption)
	}
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i], _ = o.Text()
	}
	idx := chooseOption(labels)
	if idx < 0 {
		return fmt.Errorf("%w: dropdown options", browser.ErrNotFound)
	}
	return options[idx].Click()
}

// submit clicks the submit control. Reaching it and clicking it without an
// error counts as submitted; no confirmation page is checked.
func (d *Driver) submit(_ context.Context, page browser.Page, anchor browser.Element) error {
	btn, err := findIn(page, anchor, d.layout.Submit)
	if err != nil {
		return fmt.Errorf("submit control: %w", err)
	}
	return btn.Click()
}

func (d *Driver) clickContinue(page browser.Page, anchor browser.Element) error {
	btn, err := findIn(page, anchor, d.layout.Continue)
	if err != nil {
		return fmt.Errorf("continue control: %w", err)
	}
	return btn.Click()
}

// findIn prefers a match inside the section and falls back to the whole page.
func findIn(page browser.Page, anchor browser.Element, selector string) (browser.Element, error) {
	if el, err := anchor.Query(selector); err == nil {
		return el, nil
	}
	return page.Query(selector)
}
