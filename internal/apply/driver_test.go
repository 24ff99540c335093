package apply

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/browser/browsertest"
	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/scraper"
)

const jobURL = "https://www.amazon.jobs/en/jobs/123/software-engineer"

var testJob = model.JobRecord{Site: "amazon", JobID: "123", Title: "Software Engineer", URL: jobURL}

type formOpts struct {
	alreadyApplied  bool
	jobSpecific     bool
	dropEligibility bool
	codedRadios     bool
	applyControl    string
}

func formHTML(o formOpts) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(o.applyControl)
	if o.alreadyApplied {
		b.WriteString(`<div id="already-applied-banner">You have already applied</div>`)
	}
	b.WriteString(`<nav>
<div id="sideNavContactInformation">Contact information</div>
<div id="sideNavWorkEligibility">Work eligibility</div>`)
	if o.jobSpecific {
		b.WriteString(`<div id="sideNavJobSpecificQuestions">Job-specific questions</div>`)
	}
	b.WriteString(`<div id="sideNavReviewSubmit">Review and submit</div></nav>
<section id="contactInformationSection">
  <input name="firstName" value="">
  <input name="email" value="existing@example.com">
  <input name="phone">
  <input name="middleName">
  <button data-action="continue" id="contact-continue">Continue</button>
</section>`)
	if !o.dropEligibility {
		b.WriteString(`<section id="workEligibilitySection">
  <fieldset class="question-group">
    <legend>Will you now or in the future require SPONSORSHIP for employment visa status?</legend>`)
		if o.codedRadios {
			b.WriteString(`
    <input type="radio" id="sponsorship-yes" value="1"><label for="sponsorship-yes">Yes</label>
    <input type="radio" id="sponsorship-no" value="0"><label for="sponsorship-no"> No </label>`)
		} else {
			b.WriteString(`
    <input type="radio" id="sponsorship-yes" value="YES"><input type="radio" id="sponsorship-no" value="NO">`)
		}
		b.WriteString(`
  </fieldset>
  <fieldset class="question-group">
    <legend>Have you ever been employed by a government agency?</legend>
    <input type="radio" id="gov-past" value="PAST"><input type="radio" id="gov-never" value="NEVER">
  </fieldset>
  <fieldset class="question-group">
    <legend>Are you at least 18 years of age?</legend>
    <input type="radio" id="age-yes" value="YES"><input type="radio" id="age-no" value="NO">
  </fieldset>
  <button data-action="continue" id="eligibility-continue">Continue</button>
</section>`)
	}
	if o.jobSpecific {
		b.WriteString(`<section id="jobSpecificQuestionsSection">
  <div class="question-group">
    <div role="combobox" id="relocate-toggle">Select</div>
    <div role="option" id="relocate-no">No</div><div role="option" id="relocate-yes">YES</div>
  </div>
  <div class="question-group">
    <div role="combobox" id="years-toggle">Select</div>
    <div role="option" id="years-1">1-2 years</div><div role="option" id="years-3">3+ years</div>
  </div>
  <button data-action="continue" id="jsq-continue">Continue</button>
</section>`)
	}
	b.WriteString(`<section id="reviewSubmitSection">
  <button data-action="submit" id="submit-application">Submit application</button>
</section></body></html>`)
	return b.String()
}

func newTestDriver(t *testing.T) *Driver {
	contact := map[string]string{"firstName": "Ada", "email": "ada@example.com", "phone": "555-0100"}
	return NewDriver(AmazonLayout(), contact, time.Second, zaptest.NewLogger(t))
}

func TestApply_Submitted(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: formHTML(formOpts{jobSpecific: true, applyControl: `<a id="apply-button">Apply now</a>`}),
	})

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSubmitted, outcome)

	// contact: only empty inputs with a configured value are filled
	assert.Equal(t, "Ada", page.Value(`input[name="firstName"]`))
	assert.Equal(t, "existing@example.com", page.Value(`input[name="email"]`))
	assert.Equal(t, "555-0100", page.Value(`input[name="phone"]`))
	assert.Empty(t, page.Value(`input[name="middleName"]`))

	assert.True(t, page.Clicked("sponsorship-no"))
	assert.True(t, page.Clicked("gov-never"))
	assert.False(t, page.Clicked("age-yes"), "unmatched question stays at default")
	assert.False(t, page.Clicked("age-no"), "unmatched question stays at default")

	assert.True(t, page.Clicked("relocate-yes"))
	assert.True(t, page.Clicked("years-3"), "falls back to the last option")

	assert.True(t, page.Clicked("submit-application"))
	assert.Equal(t, []string{
		"apply-button",
		"sideNavContactInformation", "contact-continue",
		"sideNavWorkEligibility", "sponsorship-no", "gov-never", "eligibility-continue",
		"sideNavJobSpecificQuestions", "relocate-toggle", "relocate-yes", "years-toggle", "years-3", "jsq-continue",
		"sideNavReviewSubmit", "submit-application",
	}, page.Clicks)
}

func TestApply_RadioMatchedByLabel(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: formHTML(formOpts{codedRadios: true, applyControl: `<a id="apply-button">Apply now</a>`}),
	})

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSubmitted, outcome)
	assert.True(t, page.Clicked("sponsorship-no"))
	assert.False(t, page.Clicked("sponsorship-yes"))
	assert.True(t, page.Clicked("gov-never"), "value match still applies to other groups")
}

func TestApply_AlreadyAppliedVisitsNoSection(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: formHTML(formOpts{alreadyApplied: true, applyControl: `<a id="apply-button">Apply now</a>`}),
	})

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAlreadyApplied, outcome)
	assert.Equal(t, []string{"apply-button"}, page.Clicks)
}

func TestApply_MissingSectionAnchorFails(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: formHTML(formOpts{dropEligibility: true, applyControl: `<a id="apply-button">Apply now</a>`}),
	})

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	assert.Equal(t, model.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, ErrSectionMissing)
	assert.False(t, page.Clicked("sideNavReviewSubmit"))
	assert.False(t, page.Clicked("submit-application"))
}

func TestApply_FailureScreenshot(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: formHTML(formOpts{dropEligibility: true, applyControl: `<a id="apply-button">Apply now</a>`}),
	})
	dir := t.TempDir()
	d := newTestDriver(t).WithScreenshots(browser.NewScreenshotDebugger(dir, zaptest.NewLogger(t)))

	outcome, _ := d.Apply(context.Background(), page, testJob)
	assert.Equal(t, model.OutcomeFailed, outcome)
	require.Len(t, page.Screenshots, 1)
	assert.Equal(t, dir, filepath.Dir(page.Screenshots[0]))
	assert.True(t, strings.HasPrefix(filepath.Base(page.Screenshots[0]), "apply_123_"))
}

func TestApply_NoScreenshotOnSuccess(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: formHTML(formOpts{alreadyApplied: true, applyControl: `<a id="apply-button">Apply now</a>`}),
	})
	d := newTestDriver(t).WithScreenshots(browser.NewScreenshotDebugger(t.TempDir(), zaptest.NewLogger(t)))

	_, err := d.Apply(context.Background(), page, testJob)
	require.NoError(t, err)
	assert.Empty(t, page.Screenshots)
}

func TestApply_OptionalSectionSkipped(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: formHTML(formOpts{applyControl: `<a id="apply-button">Apply now</a>`}),
	})

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSubmitted, outcome)
	assert.False(t, page.Clicked("sideNavJobSpecificQuestions"))
}

func TestApply_ApplyControlStrategies(t *testing.T) {
	tests := []struct {
		name    string
		control string
	}{
		{"apply button id", `<button id="apply-button">Apply</button>`},
		{"applicant link", `<a id="applicant-link" href="/applicant/jobs/123/apply">Start</a>`},
		{"apply now text", `<button id="cta"> Apply Now </button>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.New(map[string]string{
				jobURL: formHTML(formOpts{applyControl: tt.control}),
			})

			outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
			require.NoError(t, err)
			assert.Equal(t, model.OutcomeSubmitted, outcome)
		})
	}
}

func TestApply_FormLoadedAfterApplyClick(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: `<html><body><h1>Software Engineer</h1><a id="apply-button">Apply now</a></body></html>`,
	})
	page.OnClick("#apply-button", func(p *browsertest.Page) error {
		p.Load("https://www.amazon.jobs/applicant/jobs/123/apply", formHTML(formOpts{}))
		return nil
	})

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSubmitted, outcome)
}

func TestApply_NoApplyControlFails(t *testing.T) {
	page := browsertest.New(map[string]string{
		jobURL: `<html><body><h1>Software Engineer</h1><p>This job is closed.</p></body></html>`,
	})

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	assert.Equal(t, model.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, scraper.ErrStrategiesExhausted)
}

func TestApply_NavigationFailureFails(t *testing.T) {
	page := browsertest.New(nil)

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	assert.Equal(t, model.OutcomeFailed, outcome)
	assert.Error(t, err)
}

func TestApply_DisabledSubmitFails(t *testing.T) {
	html := strings.Replace(formHTML(formOpts{applyControl: `<a id="apply-button">Apply now</a>`}),
		`id="submit-application"`, `id="submit-application" disabled`, 1)
	page := browsertest.New(map[string]string{jobURL: html})

	outcome, err := newTestDriver(t).Apply(context.Background(), page, testJob)
	assert.Equal(t, model.OutcomeFailed, outcome)
	assert.Error(t, err)
}
