package model

import (
	"strings"
	"time"
)

// NotAvailable stands in for any field that could not be determined.
const NotAvailable = "N/A"

// ObservedAtLayout is how observation timestamps are written to the record store.
const ObservedAtLayout = "2006-01-02 15:04:05"

// JobRecord is one extracted listing. JobID is only unique within Site.
type JobRecord struct {
	Site       string `json:"site"`
	JobID      string `json:"job_id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Location   string `json:"location"`
	PostedDate string `json:"posted_date"`
}

// HasID reports whether the job ID was resolved during extraction.
func (j JobRecord) HasID() bool {
	return j.JobID != "" && j.JobID != NotAvailable
}

// SearchTask is one (position, location) pair of a search pass.
type SearchTask struct {
	Position string
	Location string
}

type ApplicationOutcome string

const (
	OutcomeSubmitted      ApplicationOutcome = "SUBMITTED"
	OutcomeAlreadyApplied ApplicationOutcome = "ALREADY_APPLIED"
	OutcomeFailed         ApplicationOutcome = "FAILED"
)

// Succeeded is true for every outcome the caller records as applied.
func (o ApplicationOutcome) Succeeded() bool {
	return o == OutcomeSubmitted || o == OutcomeAlreadyApplied
}

// Application is the result of one apply attempt.
type Application struct {
	Job         JobRecord          `json:"job"`
	Outcome     ApplicationOutcome `json:"outcome"`
	Reason      string             `json:"reason,omitempty"`
	AttemptedAt time.Time          `json:"attempted_at"`
}

// OrNA returns s trimmed, or the sentinel when it is empty.
func OrNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	return s
}
