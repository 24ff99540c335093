package reporter

import (
	"context"

	"github.com/rushi1222/job-applier-amazon/internal/model"
)

// SiteJobs is the new jobs of one site, kept in run order.
type SiteJobs struct {
	Site string
	Jobs []model.JobRecord
}

// Notifier delivers run results. Delivery failures are logged and reported
// as false, never returned.
type Notifier interface {
	SendJobs(ctx context.Context, groups []SiteJobs) bool
	SendFailure(ctx context.Context, site, detail string) bool
}

// Total counts jobs across groups.
func Total(groups []SiteJobs) int {
	n := 0
	for _, g := range groups {
		n += len(g.Jobs)
	}
	return n
}

// Multi fans out to every channel.
type Multi []Notifier

func (m Multi) SendJobs(ctx context.Context, groups []SiteJobs) bool {
	delivered := false
	for _, n := range m {
		if n.SendJobs(ctx, groups) {
			delivered = true
		}
	}
	return delivered
}

func (m Multi) SendFailure(ctx context.Context, site, detail string) bool {
	delivered := false
	for _, n := range m {
		if n.SendFailure(ctx, site, detail) {
			delivered = true
		}
	}
	return delivered
}
