// Package canonical maps raw ATS postings into the normalized job schema.
//
// Each raw posting is handled independently: a posting that fails US
// validation or cannot be parsed becomes a RejectRecord, never an error for
// the batch. The only hard failure is an unrecognized source, which is a
// caller bug rather than bad input data.
package canonical

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/identity"
	"github.com/jobintel/jobintel-cli/internal/location"
	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/internal/textutil"
)

// ReasonNonUS is the reject reason for postings outside the US filter. The
// string is part of the reject stream contract; downstream reports group on
// it verbatim.
const ReasonNonUS = "Failed US location validation"

// Canonicalizer converts raw postings from a single run into CanonicalJob
// records. It is immutable after construction and safe for concurrent use.
type Canonicalizer struct {
	classifier *location.Classifier
	strictUS   bool
	now        func() time.Time
}

// New returns a Canonicalizer. With strictUS set, postings whose location
// cannot be positively identified as US are rejected rather than kept at low
// confidence.
func New(strictUS bool) *Canonicalizer {
	return &Canonicalizer{
		classifier: location.NewClassifier(),
		strictUS:   strictUS,
		now:        time.Now,
	}
}

// Canonicalize maps one raw posting. Exactly one of job and reject is
// non-nil on a nil error. A non-nil error means the source discriminator is
// unknown and the whole batch should stop.
func (c *Canonicalizer) Canonicalize(raw json.RawMessage, companyName string, source model.Source, runDate time.Time) (*model.CanonicalJob, *model.RejectRecord, error) {
	switch source {
	case model.SourceGreenhouse:
		return c.canonicalizeGreenhouse(raw, companyName, runDate)
	case model.SourceLever:
		return c.canonicalizeLever(raw, companyName, runDate)
	default:
		return nil, nil, eris.Errorf("canonical: unknown source %q", source)
	}
}

// CanonicalizeAll maps a batch of raw postings from one company. Per-posting
// failures are contained as rejects; the returned error is reserved for an
// unknown source.
func (c *Canonicalizer) CanonicalizeAll(raws []json.RawMessage, companyName string, source model.Source, runDate time.Time) ([]model.CanonicalJob, []model.RejectRecord, error) {
	if !source.Valid() {
		return nil, nil, eris.Errorf("canonical: unknown source %q", source)
	}

	zap.L().Debug("canonicalizing postings",
		zap.String("company", companyName),
		zap.String("source", string(source)),
		zap.Int("count", len(raws)))

	var (
		jobs    []model.CanonicalJob
		rejects []model.RejectRecord
	)
	for _, raw := range raws {
		job, reject, err := c.Canonicalize(raw, companyName, source, runDate)
		if err != nil {
			return nil, nil, err
		}
		if job != nil {
			jobs = append(jobs, *job)
		}
		if reject != nil {
			rejects = append(rejects, *reject)
		}
	}

	zap.L().Info("canonicalized postings",
		zap.String("company", companyName),
		zap.String("source", string(source)),
		zap.Int("accepted", len(jobs)),
		zap.Int("rejected", len(rejects)))
	return jobs, rejects, nil
}

// greenhouseJob is the subset of the Greenhouse board API payload the
// canonicalizer reads.
type greenhouseJob struct {
	ID          sourceID `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	AbsoluteURL string   `json:"absolute_url"`
	UpdatedAt   string   `json:"updated_at"`
	Location    *struct {
		Name string `json:"name"`
	} `json:"location"`
	Metadata []greenhouseMetadata `json:"metadata"`
}

// greenhouseMetadata is one entry of the board API's custom field array.
// Values are free-form; only string values are used.
type greenhouseMetadata struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func (c *Canonicalizer) canonicalizeGreenhouse(raw json.RawMessage, companyName string, runDate time.Time) (*model.CanonicalJob, *model.RejectRecord, error) {
	var gj greenhouseJob
	if err := json.Unmarshal(raw, &gj); err != nil {
		return nil, c.transformReject(raw, companyName, model.SourceGreenhouse, err), nil
	}
	if gj.ID == "" {
		return nil, c.transformReject(raw, companyName, model.SourceGreenhouse, eris.New("missing id")), nil
	}

	rawLocation := ""
	if gj.Location != nil {
		rawLocation = gj.Location.Name
	}

	loc := c.classifier.Classify(rawLocation, c.strictUS)
	if !loc.IsUS {
		return nil, &model.RejectRecord{
			CompanyName: companyName,
			Source:      model.SourceGreenhouse,
			SourceJobID: string(gj.ID),
			Reason:      ReasonNonUS,
			RawLocation: rawLocation,
		}, nil
	}

	content := gj.Content
	if content == "" {
		content = gj.Description
	}
	url := gj.AbsoluteURL
	if url == "" {
		url = fmt.Sprintf("https://boards.greenhouse.io/jobs/%s", gj.ID)
	}

	job := c.newJob(companyName, model.SourceGreenhouse, string(gj.ID), gj.Title, runDate, loc, rawLocation)
	job.Description = textutil.Clean(content)
	job.URL = url
	job.Department = metadataValue(gj.Metadata, "department")
	job.EmploymentType = metadataValue(gj.Metadata, "employment_type")
	job.DatePosted = parsePostedDate(gj.UpdatedAt)
	return job, nil, nil
}

// leverPosting is the subset of the Lever postings API payload the
// canonicalizer reads.
type leverPosting struct {
	ID               sourceID  `json:"id"`
	Text             string    `json:"text"`
	Description      string    `json:"description"`
	DescriptionPlain string    `json:"descriptionPlain"`
	HostedURL        string    `json:"hostedUrl"`
	CreatedAt        leverTime `json:"createdAt"`
	Categories       struct {
		Location   string `json:"location"`
		Department string `json:"department"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
}

func (c *Canonicalizer) canonicalizeLever(raw json.RawMessage, companyName string, runDate time.Time) (*model.CanonicalJob, *model.RejectRecord, error) {
	var lp leverPosting
	if err := json.Unmarshal(raw, &lp); err != nil {
		return nil, c.transformReject(raw, companyName, model.SourceLever, err), nil
	}
	if lp.ID == "" {
		return nil, c.transformReject(raw, companyName, model.SourceLever, eris.New("missing id")), nil
	}

	rawLocation := lp.Categories.Location

	loc := c.classifier.Classify(rawLocation, c.strictUS)
	if !loc.IsUS {
		return nil, &model.RejectRecord{
			CompanyName: companyName,
			Source:      model.SourceLever,
			SourceJobID: string(lp.ID),
			Reason:      ReasonNonUS,
			RawLocation: rawLocation,
		}, nil
	}

	description := lp.Description
	if description == "" {
		description = lp.DescriptionPlain
	}
	url := lp.HostedURL
	if url == "" {
		url = fmt.Sprintf("https://jobs.lever.co/%s", lp.ID)
	}

	job := c.newJob(companyName, model.SourceLever, string(lp.ID), lp.Text, runDate, loc, rawLocation)
	job.Description = textutil.Clean(description)
	job.URL = url
	job.Department = lp.Categories.Department
	job.EmploymentType = lp.Categories.Commitment
	job.DatePosted = lp.CreatedAt.date()
	return job, nil, nil
}

// newJob fills the identity, location, and run fields common to both
// source schemas.
func (c *Canonicalizer) newJob(companyName string, source model.Source, id, title string, runDate time.Time, loc location.Parse, rawLocation string) *model.CanonicalJob {
	return &model.CanonicalJob{
		JobKey:             identity.JobKey(string(source), companyName, id, title),
		CompanyID:          identity.CompanyID(companyName, ""),
		CompanyName:        companyName,
		Source:             source,
		SourceJobID:        id,
		Title:              title,
		RawLocation:        rawLocation,
		City:               loc.City,
		State:              loc.State,
		PostalCode:         loc.PostalCode,
		IsRemote:           loc.IsRemote,
		IsUS:               loc.IsUS,
		LocationConfidence: loc.Confidence,
		RunDate:            runDate,
		ExtractedAt:        c.now(),
	}
}

// transformReject records a posting that could not be parsed. The source id
// is recovered from the raw payload when possible so the reject stays
// attributable.
func (c *Canonicalizer) transformReject(raw json.RawMessage, companyName string, source model.Source, cause error) *model.RejectRecord {
	zap.L().Error("failed to transform posting",
		zap.String("company", companyName),
		zap.String("source", string(source)),
		zap.Error(cause))
	return &model.RejectRecord{
		CompanyName: companyName,
		Source:      source,
		SourceJobID: recoverID(raw),
		Reason:      "Transform error: " + cause.Error(),
	}
}

// recoverID best-effort extracts the id field from an otherwise unusable
// payload, falling back to "unknown".
func recoverID(raw json.RawMessage) string {
	var probe struct {
		ID sourceID `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.ID != "" {
		return string(probe.ID)
	}
	return "unknown"
}

func metadataValue(metadata []greenhouseMetadata, name string) string {
	for _, m := range metadata {
		if m.Name == name {
			if s, ok := m.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// sourceID decodes a source-local job id that may arrive as either a JSON
// number (Greenhouse) or a string (Lever).
type sourceID string

func (s *sourceID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = sourceID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return eris.Wrap(err, "canonical: decode id")
	}
	*s = sourceID(n.String())
	return nil
}

// leverTime decodes Lever's createdAt, which the API emits as epoch
// milliseconds but older exports carry as ISO-8601 strings.
type leverTime struct {
	t *time.Time
}

func (lt *leverTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		lt.t = parseTimestamp(v)
		return nil
	}
	var millis int64
	if err := json.Unmarshal(b, &millis); err != nil {
		// Unparseable timestamps degrade to "no posting date known".
		return nil
	}
	t := time.UnixMilli(millis).UTC()
	lt.t = &t
	return nil
}

func (lt leverTime) date() *time.Time {
	if lt.t == nil {
		return nil
	}
	d := time.Date(lt.t.Year(), lt.t.Month(), lt.t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// parsePostedDate truncates a source timestamp to a UTC civil date.
// Unparseable input yields nil rather than an error.
func parsePostedDate(s string) *time.Time {
	t := parseTimestamp(s)
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
