package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsExtracted counts records extracted per site before filtering.
	JobsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobwatch_jobs_extracted_total",
			Help: "Total number of job records extracted from listings",
		},
		[]string{"site"},
	)

	// JobsNew counts records that survived blacklist and dedup.
	JobsNew = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobwatch_jobs_new_total",
			Help: "Total number of previously unseen job records",
		},
		[]string{"site"},
	)

	// Applications counts apply attempts by outcome.
	Applications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobwatch_applications_total",
			Help: "Total number of application attempts",
		},
		[]string{"site", "outcome"},
	)

	// SiteFailures counts sites aborted by an error or panic.
	SiteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobwatch_site_failures_total",
			Help: "Total number of site runs that failed",
		},
		[]string{"site"},
	)

	// RunDuration tracks one pipeline pass.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobwatch_run_duration_seconds",
			Help:    "Duration of one pipeline pass in seconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8), // 5s to ~10min
		},
	)

	// ScheduledRuns counts subprocess runs started by the scheduler.
	ScheduledRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobwatch_scheduled_runs_total",
			Help: "Total number of scheduled pipeline runs by status",
		},
		[]string{"status"},
	)
)

// WriteTextfile dumps every registered metric for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
