package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/ingest"
	"github.com/jobintel/jobintel-cli/internal/model"
)

var (
	runRunDate      string
	runMaxCompanies int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: ingest, build, latest, metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		runDate, err := parseRunDate(runRunDate)
		if err != nil {
			return err
		}

		seeds, err := ingest.LoadSeeds(cfg.Data.SeedFile)
		if err != nil {
			return err
		}
		seeds = limitSeeds(seeds, runMaxCompanies)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		started := time.Now().UTC()

		stats, err := runIngest(ctx, seeds, runDate)
		if err != nil {
			return err
		}

		res, err := runBuild(ctx, st, runDate, cfg.Ingest.StrictUS)
		if err != nil {
			return err
		}

		latestCount, _, err := runLatest(ctx, st)
		if err != nil {
			return err
		}

		outputs, err := runMetrics(ctx, st, runDate)
		if err != nil {
			return err
		}

		finished := time.Now().UTC()

		summary := model.RunSummary{
			RunDate:         runDate,
			Kind:            model.RunKindFull,
			Companies:       stats.CompaniesProcessed,
			CompaniesFailed: stats.CompaniesFailed,
			JobsFetched:     stats.TotalJobs,
			JobsAccepted:    res.Accepted,
			JobsRejected:    res.Rejected,
			StartedAt:       started,
			FinishedAt:      finished,
		}
		recorded, err := st.RecordRun(ctx, summary)
		if err != nil {
			return eris.Wrap(err, "record full run")
		}

		zap.L().Info("full pipeline complete",
			zap.String("run_id", recorded.ID),
			zap.Int("accepted", res.Accepted),
			zap.Int("rejected", res.Rejected),
			zap.Int("latest", latestCount),
			zap.Int("metric_files", len(outputs)))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recorded)
	},
}

func init() {
	runCmd.Flags().StringVar(&runRunDate, "run-date", "", "run date YYYY-MM-DD (default today)")
	runCmd.Flags().IntVar(&runMaxCompanies, "max-companies", 0, "cap the number of companies fetched (0 = no cap)")
	rootCmd.AddCommand(runCmd)
}
