// Package store is the append-only ledger of jobs already seen per site.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rushi1222/job-applier-amazon/internal/model"
)

// Store is scoped to one site. Implementations never rewrite past entries.
type Store interface {
	// KnownIDs returns every job id recorded so far.
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
	// Append records jobs as seen at observedAt.
	Append(ctx context.Context, jobs []model.JobRecord, observedAt time.Time) error
	// RecordApplication appends the outcome of one apply attempt.
	RecordApplication(ctx context.Context, app model.Application) error
}

// Provider opens the store of one site.
type Provider func(site string) (Store, error)

// FormatLine renders one ledger line. Fields are not escaped: a comma inside
// a field shifts the fields after it, but the id stays first.
func FormatLine(job model.JobRecord, observedAt time.Time) string {
	return strings.Join([]string{
		job.JobID,
		job.Title,
		job.URL,
		job.Location,
		job.PostedDate,
		observedAt.Format(model.ObservedAtLayout),
	}, ",")
}

// FormatApplicationLine renders one line of the applied/failed ledgers.
func FormatApplicationLine(app model.Application) string {
	return strings.Join([]string{
		app.Job.JobID,
		app.Job.Title,
		app.Job.URL,
		string(app.Outcome),
		app.AttemptedAt.Format(model.ObservedAtLayout),
	}, ",")
}

// ParseID returns the id of a ledger line: everything before the first comma.
func ParseID(line string) string {
	id, _, _ := strings.Cut(strings.TrimSpace(line), ",")
	return id
}

// ParseLine reads a ledger line back field by field. Only the id is reliable
// when a field contained a comma.
func ParseLine(line string) (model.JobRecord, time.Time, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 6 {
		return model.JobRecord{}, time.Time{}, fmt.Errorf("ledger line has %d fields, want 6", len(fields))
	}
	observedAt, err := time.ParseInLocation(model.ObservedAtLayout, fields[len(fields)-1], time.Local)
	if err != nil {
		return model.JobRecord{}, time.Time{}, fmt.Errorf("parse observed_at: %w", err)
	}
	return model.JobRecord{
		JobID:      fields[0],
		Title:      fields[1],
		URL:        fields[2],
		Location:   fields[3],
		PostedDate: fields[4],
	}, observedAt, nil
}
