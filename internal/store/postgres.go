package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jobintel/jobintel-cli/internal/db"
	"github.com/jobintel/jobintel-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	recordRunSQL = `INSERT INTO runs (id, run_date, kind, companies, companies_failed, jobs_fetched, jobs_accepted, jobs_rejected, started_at, finished_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	listRejectsSQL = `SELECT company_name, source, source_job_id, reason, raw_location FROM rejects
	 WHERE run_date = $1 ORDER BY company_name ASC, source_job_id ASC`
	deleteRejectsSQL = `DELETE FROM rejects WHERE run_date = $1`
	listRunDatesSQL  = `SELECT DISTINCT run_date FROM jobs ORDER BY run_date ASC`
)

var listLatestSQL = `SELECT ` + jobColumnList + ` FROM latest_jobs ORDER BY company_name ASC, job_key ASC`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"record_run":     recordRunSQL,
	"list_rejects":   listRejectsSQL,
	"delete_rejects": deleteRejectsSQL,
	"list_run_dates": listRunDatesSQL,
	"list_latest":    listLatestSQL,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	job_key             TEXT NOT NULL,
	run_date            DATE NOT NULL,
	company_id          TEXT NOT NULL,
	company_name        TEXT NOT NULL,
	source              TEXT NOT NULL,
	source_job_id       TEXT NOT NULL,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	url                 TEXT NOT NULL DEFAULT '',
	department          TEXT NOT NULL DEFAULT '',
	employment_type     TEXT NOT NULL DEFAULT '',
	raw_location        TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	state               TEXT NOT NULL DEFAULT '',
	postal_code         TEXT NOT NULL DEFAULT '',
	is_remote           BOOLEAN NOT NULL DEFAULT false,
	is_us               BOOLEAN NOT NULL DEFAULT true,
	location_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	date_posted         DATE,
	extracted_at        TIMESTAMPTZ NOT NULL,
	role_family         TEXT NOT NULL DEFAULT '',
	skills              JSONB,
	industry_tag        TEXT NOT NULL DEFAULT '',
	industry_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (job_key, run_date)
);

CREATE TABLE IF NOT EXISTS latest_jobs (
	job_key             TEXT PRIMARY KEY,
	run_date            DATE NOT NULL,
	company_id          TEXT NOT NULL,
	company_name        TEXT NOT NULL,
	source              TEXT NOT NULL,
	source_job_id       TEXT NOT NULL,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	url                 TEXT NOT NULL DEFAULT '',
	department          TEXT NOT NULL DEFAULT '',
	employment_type     TEXT NOT NULL DEFAULT '',
	raw_location        TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	state               TEXT NOT NULL DEFAULT '',
	postal_code         TEXT NOT NULL DEFAULT '',
	is_remote           BOOLEAN NOT NULL DEFAULT false,
	is_us               BOOLEAN NOT NULL DEFAULT true,
	location_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	date_posted         DATE,
	extracted_at        TIMESTAMPTZ NOT NULL,
	role_family         TEXT NOT NULL DEFAULT '',
	skills              JSONB,
	industry_tag        TEXT NOT NULL DEFAULT '',
	industry_confidence DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS rejects (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_date      DATE NOT NULL,
	company_name  TEXT NOT NULL,
	source        TEXT NOT NULL,
	source_job_id TEXT NOT NULL,
	reason        TEXT NOT NULL,
	raw_location  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_date         DATE NOT NULL,
	kind             TEXT NOT NULL,
	companies        INTEGER NOT NULL DEFAULT 0,
	companies_failed INTEGER NOT NULL DEFAULT 0,
	jobs_fetched     INTEGER NOT NULL DEFAULT 0,
	jobs_accepted    INTEGER NOT NULL DEFAULT 0,
	jobs_rejected    INTEGER NOT NULL DEFAULT 0,
	started_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_run_date ON jobs(run_date);
CREATE INDEX IF NOT EXISTS idx_jobs_source ON jobs(source);
CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(state);
CREATE INDEX IF NOT EXISTS idx_latest_jobs_company ON latest_jobs(company_name);
CREATE INDEX IF NOT EXISTS idx_rejects_run_date ON rejects(run_date);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) InsertJobs(ctx context.Context, jobs []model.CanonicalJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(jobs))
	for _, j := range jobs {
		row, err := postgresJobRow(j)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "jobs",
		Columns:      jobColumns,
		ConflictKeys: []string{"job_key", "run_date"},
	}, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) InsertRejects(ctx context.Context, runDate time.Time, rejects []model.RejectRecord) (int, error) {
	if _, err := s.pool.Exec(ctx, deleteRejectsSQL, runDate); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear rejects for %s", model.FormatRunDate(runDate))
	}
	if len(rejects) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(rejects))
	for _, r := range rejects {
		rows = append(rows, []any{
			uuid.New().String(), runDate, r.CompanyName, string(r.Source), r.SourceJobID, r.Reason, r.RawLocation,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "rejects", rejectColumns, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.CanonicalJob, error) {
	query := `SELECT ` + jobColumnList + ` FROM jobs WHERE true`
	args := []any{}
	argIdx := 1

	if !filter.RunDate.IsZero() {
		query += fmt.Sprintf(` AND run_date = $%d`, argIdx)
		args = append(args, filter.RunDate)
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, string(filter.Source))
		argIdx++
	}
	query += ` ORDER BY run_date ASC, job_key ASC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.CanonicalJob
	for rows.Next() {
		j, err := pgScanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) ListRejects(ctx context.Context, runDate time.Time) ([]model.RejectRecord, error) {
	rows, err := s.pool.Query(ctx, listRejectsSQL, runDate)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rejects")
	}
	defer rows.Close()

	var rejects []model.RejectRecord
	for rows.Next() {
		var r model.RejectRecord
		if err := rows.Scan(&r.CompanyName, &r.Source, &r.SourceJobID, &r.Reason, &r.RawLocation); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reject")
		}
		rejects = append(rejects, r)
	}
	return rejects, eris.Wrap(rows.Err(), "postgres: list rejects iterate")
}

func (s *PostgresStore) ListRunDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, listRunDatesSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list run dates")
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run date")
		}
		dates = append(dates, d)
	}
	return dates, eris.Wrap(rows.Err(), "postgres: list run dates iterate")
}

func (s *PostgresStore) ReplaceLatest(ctx context.Context, jobs []model.CanonicalJob) (int, error) {
	rows := make([][]any, 0, len(jobs))
	for _, j := range jobs {
		row, err := postgresJobRow(j)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin replace latest")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM latest_jobs`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear latest jobs")
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, pgx.Identifier{"latest_jobs"}, jobColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrap(err, "postgres: copy latest jobs")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit replace latest")
	}
	return int(n), nil
}

func (s *PostgresStore) ListLatest(ctx context.Context) ([]model.CanonicalJob, error) {
	rows, err := s.pool.Query(ctx, listLatestSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list latest")
	}
	defer rows.Close()

	var jobs []model.CanonicalJob
	for rows.Next() {
		j, err := pgScanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list latest iterate")
}

func (s *PostgresStore) RecordRun(ctx context.Context, summary model.RunSummary) (*model.RunSummary, error) {
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}

	_, err := s.pool.Exec(ctx, recordRunSQL,
		summary.ID, summary.RunDate, string(summary.Kind),
		summary.Companies, summary.CompaniesFailed,
		summary.JobsFetched, summary.JobsAccepted, summary.JobsRejected,
		summary.StartedAt.UTC(), summary.FinishedAt.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: record run")
	}
	return &summary, nil
}

func (s *PostgresStore) ListRunSummaries(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, run_date, kind, companies, companies_failed, jobs_fetched, jobs_accepted, jobs_rejected, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list run summaries")
	}
	defer rows.Close()

	var summaries []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		err := rows.Scan(&r.ID, &r.RunDate, &r.Kind, &r.Companies, &r.CompaniesFailed,
			&r.JobsFetched, &r.JobsAccepted, &r.JobsRejected, &r.StartedAt, &r.FinishedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run summary")
		}
		summaries = append(summaries, r)
	}
	return summaries, eris.Wrap(rows.Err(), "postgres: list run summaries iterate")
}

// postgresJobRow renders a job as a COPY row in jobColumns order.
func postgresJobRow(j model.CanonicalJob) ([]any, error) {
	var skills []byte
	if len(j.Skills) > 0 {
		b, err := json.Marshal(j.Skills)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: marshal skills for %s", j.JobKey)
		}
		skills = b
	}

	return []any{
		j.JobKey, j.RunDate, j.CompanyID, j.CompanyName, string(j.Source), j.SourceJobID,
		j.Title, j.Description, j.URL, j.Department, j.EmploymentType,
		j.RawLocation, j.City, j.State, j.PostalCode,
		j.IsRemote, j.IsUS, j.LocationConfidence,
		j.DatePosted, j.ExtractedAt.UTC(),
		j.RoleFamily, skills, j.IndustryTag, j.IndustryConfidence,
	}, nil
}

func pgScanJob(row scannable) (*model.CanonicalJob, error) {
	var j model.CanonicalJob
	var datePosted *time.Time
	var skillsJSON *[]byte

	err := row.Scan(
		&j.JobKey, &j.RunDate, &j.CompanyID, &j.CompanyName, &j.Source, &j.SourceJobID,
		&j.Title, &j.Description, &j.URL, &j.Department, &j.EmploymentType,
		&j.RawLocation, &j.City, &j.State, &j.PostalCode,
		&j.IsRemote, &j.IsUS, &j.LocationConfidence,
		&datePosted, &j.ExtractedAt,
		&j.RoleFamily, &skillsJSON, &j.IndustryTag, &j.IndustryConfidence,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan job")
	}

	j.DatePosted = datePosted
	if skillsJSON != nil && len(*skillsJSON) > 0 {
		if err := json.Unmarshal(*skillsJSON, &j.Skills); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal skills for %s", j.JobKey)
		}
	}
	return &j, nil
}
