package export

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// jobsSheetName is the single worksheet holding the dataset.
const jobsSheetName = "jobs"

// xlsxHeaders mirrors the jobRow csv tags; the workbook and the CSV must
// present identical columns.
var xlsxHeaders = []string{
	"job_key", "run_date", "company_id", "company_name", "source", "source_job_id",
	"title", "description", "url", "department", "employment_type",
	"raw_location", "city", "state", "postal_code",
	"is_remote", "is_us", "location_confidence",
	"date_posted", "extracted_at",
	"role_family", "skills", "industry_tag", "industry_confidence",
}

// WriteJobsXLSX writes jobs to a single-sheet XLSX workbook with typed
// boolean and numeric cells.
func WriteJobsXLSX(path string, jobs []model.CanonicalJob) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create directory for %s", path)
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(jobsSheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeaders {
		header.AddCell().SetString(h)
	}

	for _, j := range jobs {
		row := sheet.AddRow()
		row.AddCell().SetString(j.JobKey)
		row.AddCell().SetString(model.FormatRunDate(j.RunDate))
		row.AddCell().SetString(j.CompanyID)
		row.AddCell().SetString(j.CompanyName)
		row.AddCell().SetString(string(j.Source))
		row.AddCell().SetString(j.SourceJobID)
		row.AddCell().SetString(j.Title)
		row.AddCell().SetString(j.Description)
		row.AddCell().SetString(j.URL)
		row.AddCell().SetString(j.Department)
		row.AddCell().SetString(j.EmploymentType)
		row.AddCell().SetString(j.RawLocation)
		row.AddCell().SetString(j.City)
		row.AddCell().SetString(j.State)
		row.AddCell().SetString(j.PostalCode)
		row.AddCell().SetBool(j.IsRemote)
		row.AddCell().SetBool(j.IsUS)
		row.AddCell().SetFloat(j.LocationConfidence)
		row.AddCell().SetString(formatDate(j.DatePosted))
		row.AddCell().SetString(j.ExtractedAt.UTC().Format(time.RFC3339))
		row.AddCell().SetString(j.RoleFamily)
		row.AddCell().SetString(strings.Join(j.Skills, skillSep))
		row.AddCell().SetString(j.IndustryTag)
		row.AddCell().SetFloat(j.IndustryConfidence)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}

	zap.L().Info("wrote jobs xlsx", zap.String("path", path), zap.Int("rows", len(jobs)))
	return nil
}
