package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	job_key             TEXT NOT NULL,
	run_date            TEXT NOT NULL,
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
	is_remote           INTEGER NOT NULL DEFAULT 0,
	is_us               INTEGER NOT NULL DEFAULT 1,
	location_confidence REAL NOT NULL DEFAULT 0,
	date_posted         TEXT,
	extracted_at        DATETIME NOT NULL,
	role_family         TEXT NOT NULL DEFAULT '',
	skills              TEXT,
	industry_tag        TEXT NOT NULL DEFAULT '',
	industry_confidence REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (job_key, run_date)
);

CREATE TABLE IF NOT EXISTS latest_jobs (
	job_key             TEXT PRIMARY KEY,
	run_date            TEXT NOT NULL,
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
	is_remote           INTEGER NOT NULL DEFAULT 0,
	is_us               INTEGER NOT NULL DEFAULT 1,
	location_confidence REAL NOT NULL DEFAULT 0,
	date_posted         TEXT,
	extracted_at        DATETIME NOT NULL,
	role_family         TEXT NOT NULL DEFAULT '',
	skills              TEXT,
	industry_tag        TEXT NOT NULL DEFAULT '',
	industry_confidence REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS rejects (
	id            TEXT PRIMARY KEY,
	run_date      TEXT NOT NULL,
	company_name  TEXT NOT NULL,
	source        TEXT NOT NULL,
	source_job_id TEXT NOT NULL,
	reason        TEXT NOT NULL,
	raw_location  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	run_date         TEXT NOT NULL,
	kind             TEXT NOT NULL,
	companies        INTEGER NOT NULL DEFAULT 0,
	companies_failed INTEGER NOT NULL DEFAULT 0,
	jobs_fetched     INTEGER NOT NULL DEFAULT 0,
	jobs_accepted    INTEGER NOT NULL DEFAULT 0,
	jobs_rejected    INTEGER NOT NULL DEFAULT 0,
	started_at       DATETIME NOT NULL,
	finished_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_run_date ON jobs(run_date);
CREATE INDEX IF NOT EXISTS idx_jobs_source ON jobs(source);
CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(state);
CREATE INDEX IF NOT EXISTS idx_latest_jobs_company ON latest_jobs(company_name);
CREATE INDEX IF NOT EXISTS idx_rejects_run_date ON rejects(run_date);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	insertJobSQL    = `INSERT OR REPLACE INTO jobs (` + jobColumnList + `) VALUES (` + placeholders(len(jobColumns)) + `)`
	insertLatestSQL = `INSERT INTO latest_jobs (` + jobColumnList + `) VALUES (` + placeholders(len(jobColumns)) + `)`
)

func (s *SQLiteStore) InsertJobs(ctx context.Context, jobs []model.CanonicalJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert jobs")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertJobSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert job")
	}
	defer stmt.Close()

	var n int
	for _, j := range jobs {
		args, err := sqliteJobArgs(j)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert job %s", j.JobKey)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert jobs")
	}
	return n, nil
}

func (s *SQLiteStore) InsertRejects(ctx context.Context, runDate time.Time, rejects []model.RejectRecord) (int, error) {
	date := model.FormatRunDate(runDate)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert rejects")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM rejects WHERE run_date = ?`, date); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear rejects for %s", date)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rejects (id, run_date, company_name, source, source_job_id, reason, raw_location) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert reject")
	}
	defer stmt.Close()

	for _, r := range rejects {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), date, r.CompanyName, string(r.Source), r.SourceJobID, r.Reason, r.RawLocation,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert reject for %s", r.CompanyName)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert rejects")
	}
	return len(rejects), nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.CanonicalJob, error) {
	query := `SELECT ` + jobColumnList + ` FROM jobs WHERE 1=1`
	var args []any

	if !filter.RunDate.IsZero() {
		query += ` AND run_date = ?`
		args = append(args, model.FormatRunDate(filter.RunDate))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	query += ` ORDER BY run_date ASC, job_key ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.CanonicalJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) ListRejects(ctx context.Context, runDate time.Time) ([]model.RejectRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_name, source, source_job_id, reason, raw_location FROM rejects
		 WHERE run_date = ? ORDER BY company_name ASC, source_job_id ASC`,
		model.FormatRunDate(runDate),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rejects")
	}
	defer rows.Close()

	var rejects []model.RejectRecord
	for rows.Next() {
		var r model.RejectRecord
		if err := rows.Scan(&r.CompanyName, &r.Source, &r.SourceJobID, &r.Reason, &r.RawLocation); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reject")
		}
		rejects = append(rejects, r)
	}
	return rejects, eris.Wrap(rows.Err(), "sqlite: list rejects iterate")
}

func (s *SQLiteStore) ListRunDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_date FROM jobs ORDER BY run_date ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list run dates")
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run date")
		}
		d, err := model.ParseRunDate(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse run date %q", raw)
		}
		dates = append(dates, d)
	}
	return dates, eris.Wrap(rows.Err(), "sqlite: list run dates iterate")
}

func (s *SQLiteStore) ReplaceLatest(ctx context.Context, jobs []model.CanonicalJob) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace latest")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM latest_jobs`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear latest jobs")
	}

	stmt, err := tx.PrepareContext(ctx, insertLatestSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert latest")
	}
	defer stmt.Close()

	for _, j := range jobs {
		args, err := sqliteJobArgs(j)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert latest job %s", j.JobKey)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace latest")
	}
	return len(jobs), nil
}

func (s *SQLiteStore) ListLatest(ctx context.Context) ([]model.CanonicalJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumnList+` FROM latest_jobs ORDER BY company_name ASC, job_key ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list latest")
	}
	defer rows.Close()

	var jobs []model.CanonicalJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list latest iterate")
}

func (s *SQLiteStore) RecordRun(ctx context.Context, summary model.RunSummary) (*model.RunSummary, error) {
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, run_date, kind, companies, companies_failed, jobs_fetched, jobs_accepted, jobs_rejected, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, model.FormatRunDate(summary.RunDate), string(summary.Kind),
		summary.Companies, summary.CompaniesFailed,
		summary.JobsFetched, summary.JobsAccepted, summary.JobsRejected,
		summary.StartedAt.UTC(), summary.FinishedAt.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: record run")
	}
	return &summary, nil
}

func (s *SQLiteStore) ListRunSummaries(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_date, kind, companies, companies_failed, jobs_fetched, jobs_accepted, jobs_rejected, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list run summaries")
	}
	defer rows.Close()

	var summaries []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		var runDate string
		err := rows.Scan(&r.ID, &runDate, &r.Kind, &r.Companies, &r.CompaniesFailed,
			&r.JobsFetched, &r.JobsAccepted, &r.JobsRejected, &r.StartedAt, &r.FinishedAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run summary")
		}
		d, err := model.ParseRunDate(runDate)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse run date %q", runDate)
		}
		r.RunDate = d
		summaries = append(summaries, r)
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: list run summaries iterate")
}

// helpers

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// sqliteJobArgs renders a job as bind arguments in jobColumns order. Dates
// are stored as YYYY-MM-DD text and skills as a JSON array.
func sqliteJobArgs(j model.CanonicalJob) ([]any, error) {
	var skills any
	if len(j.Skills) > 0 {
		b, err := json.Marshal(j.Skills)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: marshal skills for %s", j.JobKey)
		}
		skills = string(b)
	}

	var datePosted any
	if j.DatePosted != nil {
		datePosted = model.FormatRunDate(*j.DatePosted)
	}

	return []any{
		j.JobKey, model.FormatRunDate(j.RunDate), j.CompanyID, j.CompanyName, string(j.Source), j.SourceJobID,
		j.Title, j.Description, j.URL, j.Department, j.EmploymentType,
		j.RawLocation, j.City, j.State, j.PostalCode,
		j.IsRemote, j.IsUS, j.LocationConfidence,
		datePosted, j.ExtractedAt.UTC(),
		j.RoleFamily, skills, j.IndustryTag, j.IndustryConfidence,
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*model.CanonicalJob, error) {
	var j model.CanonicalJob
	var runDate string
	var datePosted, skills sql.NullString

	err := row.Scan(
		&j.JobKey, &runDate, &j.CompanyID, &j.CompanyName, &j.Source, &j.SourceJobID,
		&j.Title, &j.Description, &j.URL, &j.Department, &j.EmploymentType,
		&j.RawLocation, &j.City, &j.State, &j.PostalCode,
		&j.IsRemote, &j.IsUS, &j.LocationConfidence,
		&datePosted, &j.ExtractedAt,
		&j.RoleFamily, &skills, &j.IndustryTag, &j.IndustryConfidence,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}

	d, err := model.ParseRunDate(runDate)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse run date %q", runDate)
	}
	j.RunDate = d

	if datePosted.Valid && datePosted.String != "" {
		dp, err := model.ParseRunDate(datePosted.String)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse date posted %q", datePosted.String)
		}
		j.DatePosted = &dp
	}
	if skills.Valid && skills.String != "" {
		if err := json.Unmarshal([]byte(skills.String), &j.Skills); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal skills for %s", j.JobKey)
		}
	}
	return &j, nil
}
