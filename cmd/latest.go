package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/dedupe"
	"github.com/jobintel/jobintel-cli/internal/export"
	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/internal/store"
)

var latestRunDate string

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Rebuild the latest-postings snapshot",
	Long:  "Merges the full job history down to one row per job key, keeping the most recently observed version, then swaps the stored snapshot and exports it to CSV.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		runDate, err := parseRunDate(latestRunDate)
		if err != nil {
			return err
		}
		zap.L().Info("building latest snapshot",
			zap.String("run_date", model.FormatRunDate(runDate)))

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		count, csvPath, err := runLatest(ctx, st)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		zap.L().Info("latest snapshot rebuilt",
			zap.Int("jobs", count),
			zap.String("csv", csvPath))
		return nil
	},
}

func init() {
	latestCmd.Flags().StringVar(&latestRunDate, "run-date", "", "run date being folded in, for logging (default today)")
	rootCmd.AddCommand(latestCmd)
}

// runLatest merges the job history into the latest snapshot, persists it,
// and writes the snapshot CSV. Returns the snapshot size and CSV path; an
// empty history leaves the stored snapshot untouched.
func runLatest(ctx context.Context, st store.Store) (int, string, error) {
	history, err := st.ListJobs(ctx, store.JobFilter{})
	if err != nil {
		return 0, "", err
	}
	if len(history) == 0 {
		zap.L().Warn("no jobs in store, snapshot left unchanged")
		return 0, "", nil
	}

	snapshot := dedupe.Latest(history)
	if _, err := st.ReplaceLatest(ctx, snapshot); err != nil {
		return 0, "", err
	}

	csvPath := filepath.Join(cfg.Data.ExportDir, "jobs_latest.csv")
	if err := export.WriteJobsCSV(csvPath, snapshot); err != nil {
		return 0, "", err
	}

	return len(snapshot), csvPath, nil
}
