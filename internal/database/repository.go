package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rushi1222/job-applier-amazon/internal/model"
	"github.com/rushi1222/job-applier-amazon/internal/store"
)

// Rows without a resolved id (model.NotAvailable or empty) are never unique,
// so uniqueness is a partial index rather than the primary key.
const schema = `
CREATE TABLE IF NOT EXISTS job_records (
	id          BIGSERIAL   PRIMARY KEY,
	site        TEXT        NOT NULL,
	job_id      TEXT        NOT NULL,
	title       TEXT        NOT NULL,
	url         TEXT        NOT NULL,
	location    TEXT        NOT NULL,
	posted_date TEXT        NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS job_records_site_job_id
	ON job_records (site, job_id) WHERE job_id NOT IN ('', 'N/A');
CREATE TABLE IF NOT EXISTS job_applications (
	id           BIGSERIAL   PRIMARY KEY,
	site         TEXT        NOT NULL,
	job_id       TEXT        NOT NULL,
	title        TEXT        NOT NULL,
	url          TEXT        NOT NULL,
	outcome      TEXT        NOT NULL,
	reason       TEXT        NOT NULL DEFAULT '',
	attempted_at TIMESTAMPTZ NOT NULL
);`

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// PgBouncer in transaction mode does not support prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return &Repository{db: pool}, nil
}

// Migrate creates the tables if they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema, pgx.QueryExecModeSimpleProtocol); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Provider hands out per-site views of the repository.
func (r *Repository) Provider() store.Provider {
	return func(site string) (store.Store, error) {
		return r.ForSite(site), nil
	}
}

func (r *Repository) ForSite(site string) *SiteRepository {
	return &SiteRepository{db: r.db, site: site}
}

var _ store.Store = (*SiteRepository)(nil)

// SiteRepository is the record store of one site.
type SiteRepository struct {
	db   *pgxpool.Pool
	site string
}

func (r *SiteRepository) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, "SELECT DISTINCT job_id FROM job_records WHERE site = $1 AND job_id NOT IN ('', 'N/A')", r.site)
	if err != nil {
		return nil, fmt.Errorf("failed to load known ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan known ids: %w", err)
	}
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}

// Append inserts jobs, leaving rows that already exist untouched. Every
// unresolved-id record becomes a row of its own.
func (r *SiteRepository) Append(ctx context.Context, jobs []model.JobRecord, observedAt time.Time) error {
	if len(jobs) == 0 {
		return nil
	}
	query := `
		INSERT INTO job_records (site, job_id, title, url, location, posted_date, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (site, job_id) WHERE job_id NOT IN ('', 'N/A') DO NOTHING`

	batch := &pgx.Batch{}
	for _, j := range jobs {
		batch.Queue(query, r.site, j.JobID, j.Title, j.URL, j.Location, j.PostedDate, observedAt)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save jobs: %w", err)
	}
	return nil
}

func (r *SiteRepository) RecordApplication(ctx context.Context, app model.Application) error {
	query := `
		INSERT INTO job_applications (site, job_id, title, url, outcome, reason, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		r.site, app.Job.JobID, app.Job.Title, app.Job.URL, string(app.Outcome), app.Reason, app.AttemptedAt)
	if err != nil {
		return fmt.Errorf("failed to record application: %w", err)
	}
	return nil
}
