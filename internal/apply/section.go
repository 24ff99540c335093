// Package apply drives the multi-step application form section by section.
//
// Section graph:
//
//	Start ──► ContactInfo ──► WorkEligibility ──► JobSpecificQuestions ──► ReviewSubmit ──► Submitted
//	  │            │                 │  └───────────────────────────────────────►│
//	  ├──► AlreadyApplied            │                                             │
//	  └────────────┴─────────────────┴──────────────── Failed ◄────────────────────┘
//
// Submitted, AlreadyApplied and Failed are terminal.
package apply

import (
	"fmt"

	"github.com/rushi1222/job-applier-amazon/internal/model"
)

type Section string

const (
	SectionStart           Section = "START"
	SectionContactInfo     Section = "CONTACT_INFO"
	SectionWorkEligibility Section = "WORK_ELIGIBILITY"
	SectionJobSpecific     Section = "JOB_SPECIFIC_QUESTIONS"
	SectionReviewSubmit    Section = "REVIEW_SUBMIT"
	SectionSubmitted       Section = "SUBMITTED"
	SectionAlreadyApplied  Section = "ALREADY_APPLIED"
	SectionFailed          Section = "FAILED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Section][]Section{
	SectionStart:           {SectionContactInfo, SectionAlreadyApplied, SectionFailed},
	SectionContactInfo:     {SectionWorkEligibility, SectionFailed},
	SectionWorkEligibility: {SectionJobSpecific, SectionReviewSubmit, SectionFailed},
	SectionJobSpecific:     {SectionReviewSubmit, SectionFailed},
	SectionReviewSubmit:    {SectionSubmitted, SectionFailed},
}

// CanTransition reports whether the form may move from → to.
func CanTransition(from, to Section) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal is true once the session has an outcome.
func (s Section) IsTerminal() bool {
	_, ok := validTransitions[s]
	return !ok
}

// Outcome maps a terminal section to the outcome reported to the caller.
func (s Section) Outcome() model.ApplicationOutcome {
	switch s {
	case SectionSubmitted:
		return model.OutcomeSubmitted
	case SectionAlreadyApplied:
		return model.OutcomeAlreadyApplied
	default:
		return model.OutcomeFailed
	}
}

// session is the state of one job's apply flow.
type session struct {
	job     model.JobRecord
	current Section
	visited []Section
}

func newSession(job model.JobRecord) *session {
	return &session{job: job, current: SectionStart}
}

func (s *session) advance(to Section) error {
	if !CanTransition(s.current, to) {
		return fmt.Errorf("illegal section transition %s -> %s", s.current, to)
	}
	s.current = to
	if !to.IsTerminal() {
		s.visited = append(s.visited, to)
	}
	return nil
}

// fail moves any non-terminal session to Failed.
func (s *session) fail() {
	if !s.current.IsTerminal() {
		s.current = SectionFailed
	}
}
