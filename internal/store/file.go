package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/model"
)

// FileStore keeps data/<site>/<site>datastore.txt plus the applied_jobs.txt
// and failed_jobs.txt outcome ledgers next to it.
type FileStore struct {
	dir    string
	site   string
	logger *zap.Logger
}

func NewFileStore(dataDir, site string, logger *zap.Logger) *FileStore {
	return &FileStore{dir: filepath.Join(dataDir, site), site: site, logger: logger}
}

// FileProvider opens file stores under dataDir.
func FileProvider(dataDir string, logger *zap.Logger) Provider {
	return func(site string) (Store, error) {
		return NewFileStore(dataDir, site, logger), nil
	}
}

func (s *FileStore) Path() string {
	return filepath.Join(s.dir, s.site+"datastore.txt")
}

func (s *FileStore) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	known := make(map[string]struct{})

	f, err := os.Open(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return known, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if id := ParseID(sc.Text()); id != "" {
			known[id] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read datastore: %w", err)
	}
	s.logger.Info("📋 Loaded previously seen jobs", zap.String("site", s.site), zap.Int("count", len(known)))
	return known, nil
}

func (s *FileStore) Append(ctx context.Context, jobs []model.JobRecord, observedAt time.Time) error {
	if len(jobs) == 0 {
		return nil
	}
	lines := make([]string, len(jobs))
	for i, j := range jobs {
		lines[i] = FormatLine(j, observedAt)
	}
	if err := s.appendLines(s.Path(), lines); err != nil {
		return err
	}
	s.logger.Info("💾 Saved jobs to datastore", zap.String("site", s.site), zap.Int("count", len(jobs)))
	return nil
}

func (s *FileStore) RecordApplication(ctx context.Context, app model.Application) error {
	name := "applied_jobs.txt"
	if !app.Outcome.Succeeded() {
		name = "failed_jobs.txt"
	}
	return s.appendLines(filepath.Join(s.dir, name), []string{FormatApplicationLine(app)})
}

func (s *FileStore) appendLines(path string, lines []string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		w.WriteString(l)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
