// Package scheduler re-runs the one-shot binary on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/metrics"
)

// outputTail is how much of the subprocess output is kept and logged.
const outputTail = 500

const waitDelay = 5 * time.Second

const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
	StatusSkipped = "skipped"
)

// RunStatus describes the last finished subprocess run.
type RunStatus struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Status    string        `json:"status"`
	ExitCode  int           `json:"exit_code"`
	Output    string        `json:"output,omitempty"`
}

// Scheduler wraps robfig/cron around a subprocess command.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	command []string
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	last    *RunStatus
}

// New creates a Scheduler that runs command every interval, each run bounded by timeout.
func New(command []string, interval, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if len(command) == 0 {
		return nil, errors.New("scheduler: empty command")
	}
	return &Scheduler{
		cron:    cron.New(),
		spec:    fmt.Sprintf("@every %s", interval),
		command: command,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "scheduler")),
	}, nil
}

// Start registers the job, starts cron and runs once immediately without blocking.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Info("🕐 Scheduler started", zap.String("spec", s.spec), zap.Strings("command", s.command))

	go s.RunOnce(ctx)
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Last returns the status of the last finished run, or nil before the first one.
func (s *Scheduler) Last() *RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce executes the command once. A tick that arrives while the previous
// run is still going is skipped.
func (s *Scheduler) RunOnce(ctx context.Context) RunStatus {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("⏭️ Previous run still in progress, skipping tick")
		metrics.ScheduledRuns.WithLabelValues(StatusSkipped).Inc()
		return RunStatus{StartedAt: time.Now(), Status: StatusSkipped}
	}
	s.running = true
	s.mu.Unlock()

	st := s.exec(ctx)

	s.mu.Lock()
	s.running = false
	s.last = &st
	s.mu.Unlock()

	metrics.ScheduledRuns.WithLabelValues(st.Status).Inc()
	return st
}

func (s *Scheduler) exec(ctx context.Context) RunStatus {
	st := RunStatus{StartedAt: time.Now()}
	s.logger.Info("🚀 Running job scraper", zap.Time("at", st.StartedAt))

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.command[0], s.command[1:]...)
	// grandchildren may hold the output pipe open after the kill
	cmd.WaitDelay = waitDelay
	out, err := cmd.CombinedOutput()
	st.Duration = time.Since(st.StartedAt)
	st.Output = tail(string(out), outputTail)
	if cmd.ProcessState != nil {
		st.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		st.Status = StatusTimeout
		s.logger.Error("⏰ Job scraper timed out", zap.Duration("timeout", s.timeout))
	case err != nil:
		st.Status = StatusFailed
		s.logger.Error("❌ Job scraper failed", zap.Error(err), zap.Int("exit_code", st.ExitCode), zap.String("output", st.Output))
	default:
		st.Status = StatusOK
		s.logger.Info("✅ Job scraper completed successfully", zap.Duration("took", st.Duration), zap.String("output", st.Output))
	}
	return st
}

// tail keeps the last n bytes of s, cut on a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
