package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/model"
)

// RedisStore keeps the id set in jobwatch:<site>:known and the ledger lines
// in the list jobwatch:<site>:records.
type RedisStore struct {
	rdb    *redis.Client
	site   string
	logger *zap.Logger
}

func NewRedisStore(rdb *redis.Client, site string, logger *zap.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, site: site, logger: logger}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func RedisProvider(rdb *redis.Client, logger *zap.Logger) Provider {
	return func(site string) (Store, error) {
		return NewRedisStore(rdb, site, logger), nil
	}
}

func (s *RedisStore) key(suffix string) string {
	return "jobwatch:" + s.site + ":" + suffix
}

func (s *RedisStore) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := s.rdb.SMembers(ctx, s.key("known")).Result()
	if err != nil {
		return nil, fmt.Errorf("load known ids: %w", err)
	}
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	s.logger.Info("📋 Loaded previously seen jobs", zap.String("site", s.site), zap.Int("count", len(known)))
	return known, nil
}

func (s *RedisStore) Append(ctx context.Context, jobs []model.JobRecord, observedAt time.Time) error {
	if len(jobs) == 0 {
		return nil
	}
	ids := make([]any, 0, len(jobs))
	lines := make([]any, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.JobID)
		lines = append(lines, FormatLine(j, observedAt))
	}
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, s.key("known"), ids...)
		p.RPush(ctx, s.key("records"), lines...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append records: %w", err)
	}
	return nil
}

func (s *RedisStore) RecordApplication(ctx context.Context, app model.Application) error {
	key := s.key("applied")
	if !app.Outcome.Succeeded() {
		key = s.key("failed")
	}
	if err := s.rdb.RPush(ctx, key, FormatApplicationLine(app)).Err(); err != nil {
		return fmt.Errorf("record application: %w", err)
	}
	return nil
}
