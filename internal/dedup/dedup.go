package dedup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/store"
)

// FilterNew keeps, in order, every record whose id is not in known. Records
// without a resolved id are always kept.
func FilterNew(records []model.JobRecord, known map[string]struct{}) []model.JobRecord {
	fresh := make([]model.JobRecord, 0, len(records))
	for _, r := range records {
		if r.HasID() {
			if _, ok := known[r.JobID]; ok {
				continue
			}
		}
		fresh = append(fresh, r)
	}
	return fresh
}

// CollapseRepeats drops every record whose resolved id already appeared
// earlier in records. Records without a resolved id are never collapsed.
func CollapseRepeats(records []model.JobRecord) []model.JobRecord {
	out := make([]model.JobRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.HasID() {
			if _, ok := seen[r.JobID]; ok {
				continue
			}
			seen[r.JobID] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// Deduplicator filters one site's records against its store.
type Deduplicator struct {
	store  store.Store
	now    func() time.Time
	logger *zap.Logger
}

func New(s store.Store, logger *zap.Logger) *Deduplicator {
	return &Deduplicator{store: s, now: time.Now, logger: logger}
}

// Filter loads the known ids once and returns the unseen records.
func (d *Deduplicator) Filter(ctx context.Context, records []model.JobRecord) ([]model.JobRecord, error) {
	known, err := d.store.KnownIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load known ids: %w", err)
	}
	fresh := FilterNew(records, known)
	d.logger.Info("🧹 Deduplicated jobs",
		zap.Int("extracted", len(records)), zap.Int("known", len(known)), zap.Int("new", len(fresh)))
	return fresh, nil
}

// Persist appends records stamped with the current wall-clock time.
func (d *Deduplicator) Persist(ctx context.Context, records []model.JobRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := d.store.Append(ctx, records, d.now()); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}
	return nil
}
