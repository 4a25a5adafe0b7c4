package model

import "time"

// Source identifies the applicant tracking system a posting came from.
type Source string

const (
	SourceGreenhouse Source = "greenhouse"
	SourceLever      Source = "lever"
)

// Valid reports whether the source is one of the supported ATS platforms.
func (s Source) Valid() bool {
	return s == SourceGreenhouse || s == SourceLever
}

// RunDateLayout is the civil-date format used for run partitioning.
const RunDateLayout = "2006-01-02"

// ParseRunDate parses a YYYY-MM-DD run date into a UTC midnight timestamp.
func ParseRunDate(s string) (time.Time, error) {
	return time.ParseInLocation(RunDateLayout, s, time.UTC)
}

// FormatRunDate renders a run date as YYYY-MM-DD.
func FormatRunDate(t time.Time) string {
	return t.UTC().Format(RunDateLayout)
}

// CanonicalJob is the normalized posting record shared by every pipeline
// stage after extraction. JobKey is the stable identity used for dedup and
// snapshot merging; rows with equal JobKey describe the same posting.
type CanonicalJob struct {
	JobKey      string `json:"job_key"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Source      Source `json:"source"`
	SourceJobID string `json:"source_job_id"`

	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	URL            string `json:"url,omitempty"`
	Department     string `json:"department,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`

	RawLocation        string  `json:"raw_location,omitempty"`
	City               string  `json:"city,omitempty"`
	State              string  `json:"state,omitempty"`
	PostalCode         string  `json:"postal_code,omitempty"`
	IsRemote           bool    `json:"is_remote"`
	IsUS               bool    `json:"is_us"`
	LocationConfidence float64 `json:"location_confidence"`

	DatePosted  *time.Time `json:"date_posted,omitempty"`
	RunDate     time.Time  `json:"run_date"`
	ExtractedAt time.Time  `json:"extracted_at"`

	RoleFamily         string   `json:"role_family,omitempty"`
	Skills             []string `json:"skills,omitempty"`
	IndustryTag        string   `json:"industry_tag,omitempty"`
	IndustryConfidence float64  `json:"industry_confidence,omitempty"`
}

// RejectRecord captures a posting that was fetched but excluded from the
// canonical dataset, with enough provenance to audit the decision.
type RejectRecord struct {
	CompanyName string `json:"company_name"`
	Source      Source `json:"source"`
	SourceJobID string `json:"source_job_id"`
	Reason      string `json:"reason"`
	RawLocation string `json:"raw_location,omitempty"`
}
