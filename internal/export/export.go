// Package export writes the canonical dataset to analyst-facing files:
// CSV for BI ingestion and XLSX for hand inspection. Column order is part
// of the downstream contract and must stay stable.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// skillSep joins the skills list into a single CSV cell.
const skillSep = "|"

// jobRow is the flat export schema for one canonical job. Field order
// matches the store's column order.
type jobRow struct {
	JobKey             string  `csv:"job_key"`
	RunDate            string  `csv:"run_date"`
	CompanyID          string  `csv:"company_id"`
	CompanyName        string  `csv:"company_name"`
	Source             string  `csv:"source"`
	SourceJobID        string  `csv:"source_job_id"`
	Title              string  `csv:"title"`
	Description        string  `csv:"description"`
	URL                string  `csv:"url"`
	Department         string  `csv:"department"`
	EmploymentType     string  `csv:"employment_type"`
	RawLocation        string  `csv:"raw_location"`
	City               string  `csv:"city"`
	State              string  `csv:"state"`
	PostalCode         string  `csv:"postal_code"`
	IsRemote           bool    `csv:"is_remote"`
	IsUS               bool    `csv:"is_us"`
	LocationConfidence float64 `csv:"location_confidence"`
	DatePosted         string  `csv:"date_posted"`
	ExtractedAt        string  `csv:"extracted_at"`
	RoleFamily         string  `csv:"role_family"`
	Skills             string  `csv:"skills"`
	IndustryTag        string  `csv:"industry_tag"`
	IndustryConfidence float64 `csv:"industry_confidence"`
}

func newJobRow(j model.CanonicalJob) jobRow {
	return jobRow{
		JobKey:             j.JobKey,
		RunDate:            model.FormatRunDate(j.RunDate),
		CompanyID:          j.CompanyID,
		CompanyName:        j.CompanyName,
		Source:             string(j.Source),
		SourceJobID:        j.SourceJobID,
		Title:              j.Title,
		Description:        j.Description,
		URL:                j.URL,
		Department:         j.Department,
		EmploymentType:     j.EmploymentType,
		RawLocation:        j.RawLocation,
		City:               j.City,
		State:              j.State,
		PostalCode:         j.PostalCode,
		IsRemote:           j.IsRemote,
		IsUS:               j.IsUS,
		LocationConfidence: j.LocationConfidence,
		DatePosted:         formatDate(j.DatePosted),
		ExtractedAt:        j.ExtractedAt.UTC().Format(time.RFC3339),
		RoleFamily:         j.RoleFamily,
		Skills:             strings.Join(j.Skills, skillSep),
		IndustryTag:        j.IndustryTag,
		IndustryConfidence: j.IndustryConfidence,
	}
}

// rejectRow is the flat export schema for one reject record.
type rejectRow struct {
	RunDate     string `csv:"run_date"`
	CompanyName string `csv:"company_name"`
	Source      string `csv:"source"`
	SourceJobID string `csv:"source_job_id"`
	Reason      string `csv:"reason"`
	RawLocation string `csv:"raw_location"`
}

// WriteJobsCSV writes jobs to a CSV file, creating parent directories as
// needed.
func WriteJobsCSV(path string, jobs []model.CanonicalJob) error {
	rows := make([]jobRow, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, newJobRow(j))
	}
	if err := writeCSV(path, rows); err != nil {
		return err
	}

	zap.L().Info("wrote jobs csv", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

// WriteRejectsCSV writes a run date's reject records to a CSV file.
func WriteRejectsCSV(path string, runDate time.Time, rejects []model.RejectRecord) error {
	rows := make([]rejectRow, 0, len(rejects))
	for _, r := range rejects {
		rows = append(rows, rejectRow{
			RunDate:     model.FormatRunDate(runDate),
			CompanyName: r.CompanyName,
			Source:      string(r.Source),
			SourceJobID: r.SourceJobID,
			Reason:      r.Reason,
			RawLocation: r.RawLocation,
		})
	}
	if err := writeCSV(path, rows); err != nil {
		return err
	}

	zap.L().Info("wrote rejects csv", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

// WriteDiscoveredCSV writes discovery results to a CSV file.
func WriteDiscoveredCSV(path string, companies []model.DiscoveredCompany) error {
	if err := writeCSV(path, companies); err != nil {
		return err
	}

	zap.L().Info("wrote discovered companies csv", zap.String("path", path), zap.Int("rows", len(companies)))
	return nil
}

// writeCSV encodes a slice of csv-tagged rows, header included, even when
// the slice is empty.
func writeCSV[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create directory for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return eris.Wrapf(err, "export: write header %s", path)
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "export: write row %s", path)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "export: flush %s", path)
	}

	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(model.RunDateLayout)
}
