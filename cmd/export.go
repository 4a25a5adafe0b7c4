package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/export"
	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/internal/store"
)

var (
	exportRunDate string
	exportFormat  string
	exportLatest  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dataset to CSV or XLSX",
	Long:  "Writes one run date's jobs (or the latest snapshot with --latest) to the export directory. Per-run exports also write the run date's reject records.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		var jobs []model.CanonicalJob
		var base, label string
		var runDate time.Time

		if exportLatest {
			jobs, err = st.ListLatest(ctx)
			base, label = "jobs_latest", "latest snapshot"
		} else {
			runDate, err = parseRunDate(exportRunDate)
			if err != nil {
				return err
			}
			label = model.FormatRunDate(runDate)
			base = "jobs_" + label
			jobs, err = st.ListJobs(ctx, store.JobFilter{RunDate: runDate})
		}
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return eris.Errorf("export: no jobs found for %s", label)
		}

		path, err := resolveExportPath(cfg.Data.ExportDir, base, exportFormat)
		if err != nil {
			return err
		}

		switch exportFormat {
		case "csv":
			err = export.WriteJobsCSV(path, jobs)
		case "xlsx":
			err = export.WriteJobsXLSX(path, jobs)
		}
		if err != nil {
			return err
		}

		if !exportLatest {
			rejects, err := st.ListRejects(ctx, runDate)
			if err != nil {
				return err
			}
			if len(rejects) > 0 {
				rejectPath := filepath.Join(cfg.Data.ExportDir, "rejects_"+label+".csv")
				if err := export.WriteRejectsCSV(rejectPath, runDate, rejects); err != nil {
					return err
				}
			}
		}

		zap.L().Info("export complete",
			zap.Int("jobs", len(jobs)),
			zap.String("path", path))
		fmt.Println(path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunDate, "run-date", "", "run date YYYY-MM-DD (default today)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format: csv or xlsx")
	exportCmd.Flags().BoolVar(&exportLatest, "latest", false, "export the latest snapshot instead of one run date")
	rootCmd.AddCommand(exportCmd)
}

// resolveExportPath joins the export path for a dataset base name, rejecting
// unknown formats before any file is touched.
func resolveExportPath(dir, base, format string) (string, error) {
	switch format {
	case "csv", "xlsx":
		return filepath.Join(dir, base+"."+format), nil
	default:
		return "", eris.Errorf("unsupported export format %q (want csv or xlsx)", format)
	}
}
