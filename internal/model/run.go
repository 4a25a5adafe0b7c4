package model

import "time"

// RunKind identifies which pipeline stage a summary row describes.
type RunKind string

const (
	RunKindIngest RunKind = "ingest"
	RunKindBuild  RunKind = "build"
	RunKindFull   RunKind = "full"
)

// RunSummary is the persisted outcome of a pipeline invocation, keyed by a
// generated ID and queryable by run date.
type RunSummary struct {
	ID              string    `json:"id"`
	RunDate         time.Time `json:"run_date"`
	Kind            RunKind   `json:"kind"`
	Companies       int       `json:"companies"`
	CompaniesFailed int       `json:"companies_failed"`
	JobsFetched     int       `json:"jobs_fetched"`
	JobsAccepted    int       `json:"jobs_accepted"`
	JobsRejected    int       `json:"jobs_rejected"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// Duration returns the wall-clock time the run took.
func (r RunSummary) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
