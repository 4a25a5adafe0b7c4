// Package store persists the canonical job dataset, the latest-postings
// snapshot, per-run reject records, and run summaries. Two implementations
// exist: SQLite for single-machine runs and Postgres for shared deployments.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// JobFilter narrows ListJobs queries. The zero value returns the full corpus.
type JobFilter struct {
	RunDate time.Time
	Source  model.Source
	Limit   int
}

// Store is the persistence interface shared by the SQLite and Postgres
// implementations.
type Store interface {
	// InsertJobs upserts canonical jobs keyed by (job_key, run_date), so
	// rebuilding a run date is idempotent. Returns the number of rows written.
	InsertJobs(ctx context.Context, jobs []model.CanonicalJob) (int, error)

	// InsertRejects replaces the reject records for a run date. Passing an
	// empty slice clears the date, which is what a clean rebuild wants.
	InsertRejects(ctx context.Context, runDate time.Time, rejects []model.RejectRecord) (int, error)

	// ListJobs returns jobs matching the filter, ordered by run date then
	// job key for reproducible downstream merging.
	ListJobs(ctx context.Context, filter JobFilter) ([]model.CanonicalJob, error)

	// ListRejects returns the reject records for a run date.
	ListRejects(ctx context.Context, runDate time.Time) ([]model.RejectRecord, error)

	// ListRunDates returns the distinct run dates present in the jobs table,
	// ascending.
	ListRunDates(ctx context.Context) ([]time.Time, error)

	// ReplaceLatest swaps the latest-postings snapshot for the given jobs.
	// An empty slice leaves the snapshot empty.
	ReplaceLatest(ctx context.Context, jobs []model.CanonicalJob) (int, error)

	// ListLatest returns the persisted latest-postings snapshot.
	ListLatest(ctx context.Context) ([]model.CanonicalJob, error)

	// RecordRun persists a run summary, assigning an ID when the caller did
	// not set one.
	RecordRun(ctx context.Context, summary model.RunSummary) (*model.RunSummary, error)

	// ListRunSummaries returns run summaries, most recent first.
	ListRunSummaries(ctx context.Context, limit int) ([]model.RunSummary, error)

	Migrate(ctx context.Context) error
	Close() error
}

// jobColumns is the canonical column order for the jobs and latest_jobs
// tables, shared by both drivers and the bulk-copy paths.
var jobColumns = []string{
	"job_key", "run_date", "company_id", "company_name", "source", "source_job_id",
	"title", "description", "url", "department", "employment_type",
	"raw_location", "city", "state", "postal_code",
	"is_remote", "is_us", "location_confidence",
	"date_posted", "extracted_at",
	"role_family", "skills", "industry_tag", "industry_confidence",
}

var jobColumnList = strings.Join(jobColumns, ", ")

// rejectColumns is the column order for the rejects table bulk-copy path.
var rejectColumns = []string{
	"id", "run_date", "company_name", "source", "source_job_id", "reason", "raw_location",
}
