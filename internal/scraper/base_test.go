package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/browser/browsertest"
	"github.com/rushi1222/job-applier-amazon/internal/model"
)

type recordingAdapter struct {
	searched []model.SearchTask
	failOn   string
}

func (a *recordingAdapter) Name() string { return "fake" }

func (a *recordingAdapter) BuildSearch(_ context.Context, _ browser.Page, position, location string) error {
	if position == a.failOn {
		return errors.New("navigation failed")
	}
	a.searched = append(a.searched, model.SearchTask{Position: position, Location: location})
	return nil
}

func (a *recordingAdapter) ExtractPage(_ context.Context, _ browser.Page) ([]model.JobRecord, error) {
	last := a.searched[len(a.searched)-1]
	return []model.JobRecord{{JobID: last.Position + "@" + last.Location}}, nil
}

func (a *recordingAdapter) NoMoreJobs() bool { return false }

func TestTasks_CrossProduct(t *testing.T) {
	tasks := Tasks([]string{"SDE", "PM"}, []string{"USA", "UK"})

	assert.Equal(t, []model.SearchTask{
		{Position: "SDE", Location: "USA"},
		{Position: "SDE", Location: "UK"},
		{Position: "PM", Location: "USA"},
		{Position: "PM", Location: "UK"},
	}, tasks)
}

func TestTasks_EmptyInput(t *testing.T) {
	assert.Empty(t, Tasks(nil, []string{"USA"}))
	assert.Empty(t, Tasks([]string{"SDE"}, nil))
}

func TestSearch_IssuesOneSearchPerTask(t *testing.T) {
	a := &recordingAdapter{}
	tasks := Tasks([]string{"SDE", "PM"}, []string{"USA", "UK"})

	jobs := Search(context.Background(), browsertest.New(nil), a, tasks, zaptest.NewLogger(t))

	assert.Equal(t, tasks, a.searched)
	require.Len(t, jobs, 4)
	for _, j := range jobs {
		assert.Equal(t, "fake", j.Site)
	}
}

func TestSearch_NavigationFailureSkipsTask(t *testing.T) {
	a := &recordingAdapter{failOn: "PM"}
	tasks := Tasks([]string{"SDE", "PM"}, []string{"USA", "UK"})

	jobs := Search(context.Background(), browsertest.New(nil), a, tasks, zaptest.NewLogger(t))

	require.Len(t, jobs, 2)
	assert.Equal(t, "SDE@USA", jobs[0].JobID)
	assert.Equal(t, "SDE@UK", jobs[1].JobID)
}

func TestSearch_StopsWhenContextCancelled(t *testing.T) {
	a := &recordingAdapter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := Search(ctx, browsertest.New(nil), a, Tasks([]string{"SDE"}, []string{"USA"}), zaptest.NewLogger(t))

	assert.Empty(t, jobs)
	assert.Empty(t, a.searched)
}

func TestRunStrategies_FirstSuccessWins(t *testing.T) {
	var tried []string
	strategy := func(name string, err error) Strategy {
		return Strategy{Name: name, Run: func(context.Context, browser.Page) error {
			tried = append(tried, name)
			return err
		}}
	}

	name, err := RunStrategies(context.Background(), browsertest.New(nil), []Strategy{
		strategy("first", errors.New("nope")),
		strategy("second", nil),
		strategy("third", nil),
	}, zaptest.NewLogger(t))

	require.NoError(t, err)
	assert.Equal(t, "second", name)
	assert.Equal(t, []string{"first", "second"}, tried)
}

func TestRunStrategies_Exhausted(t *testing.T) {
	fail := Strategy{Name: "only", Run: func(context.Context, browser.Page) error {
		return browser.ErrNotFound
	}}

	_, err := RunStrategies(context.Background(), browsertest.New(nil), []Strategy{fail}, zaptest.NewLogger(t))

	assert.ErrorIs(t, err, ErrStrategiesExhausted)
	assert.ErrorIs(t, err, browser.ErrNotFound)
}
