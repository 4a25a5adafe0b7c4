package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/canonical"
	"github.com/jobintel/jobintel-cli/internal/dedupe"
	"github.com/jobintel/jobintel-cli/internal/ingest"
	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/internal/store"
)

var (
	buildRunDate  string
	buildStrictUS bool
)

// buildResult summarizes one build of the canonical dataset.
type buildResult struct {
	RunDate    string `json:"run_date"`
	Companies  int    `json:"companies"`
	RawCount   int    `json:"raw_postings"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
	Duplicates int    `json:"duplicates"`
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the canonical dataset from raw snapshots",
	Long:  "Replays the raw envelopes for a run date through canonicalization, enrichment, and dedup, then persists the accepted jobs and reject records.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		runDate, err := parseRunDate(buildRunDate)
		if err != nil {
			return err
		}

		strict := buildStrictUS
		if !cmd.Flags().Changed("strict-us") {
			strict = cfg.Ingest.StrictUS
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		started := time.Now().UTC()
		res, err := runBuild(ctx, st, runDate, strict)
		if err != nil {
			return err
		}
		finished := time.Now().UTC()

		summary := model.RunSummary{
			RunDate:      runDate,
			Kind:         model.RunKindBuild,
			Companies:    res.Companies,
			JobsFetched:  res.RawCount,
			JobsAccepted: res.Accepted,
			JobsRejected: res.Rejected,
			StartedAt:    started,
			FinishedAt:   finished,
		}
		if _, err := st.RecordRun(ctx, summary); err != nil {
			return eris.Wrap(err, "record build run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildRunDate, "run-date", "", "run date YYYY-MM-DD (default today)")
	buildCmd.Flags().BoolVar(&buildStrictUS, "strict-us", true, "reject postings without a confident US location")
	rootCmd.AddCommand(buildCmd)
}

// runBuild replays a run date's raw envelopes into canonical jobs and
// rejects, enriches and dedups the jobs, and persists both.
func runBuild(ctx context.Context, st store.Store, runDate time.Time, strictUS bool) (*buildResult, error) {
	raw := ingest.NewRawStore(cfg.Data.RawDir)
	envelopes, err := raw.ReadRun(runDate)
	if err != nil {
		return nil, err
	}

	enricher, err := initEnricher()
	if err != nil {
		return nil, err
	}

	canon := canonical.New(strictUS)

	var jobs []model.CanonicalJob
	var rejects []model.RejectRecord
	var rawCount int
	for _, env := range envelopes {
		rawCount += len(env.Jobs)
		js, rs, err := canon.CanonicalizeAll(env.Jobs, env.CompanyName, env.Source, runDate)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, js...)
		rejects = append(rejects, rs...)
	}

	enricher.Apply(jobs)

	before := len(jobs)
	jobs = dedupe.Dedupe(jobs)

	if _, err := st.InsertJobs(ctx, jobs); err != nil {
		return nil, err
	}
	if _, err := st.InsertRejects(ctx, runDate, rejects); err != nil {
		return nil, err
	}

	zap.L().Info("dataset built",
		zap.String("run_date", model.FormatRunDate(runDate)),
		zap.Int("companies", len(envelopes)),
		zap.Int("accepted", len(jobs)),
		zap.Int("rejected", len(rejects)))

	return &buildResult{
		RunDate:    model.FormatRunDate(runDate),
		Companies:  len(envelopes),
		RawCount:   rawCount,
		Accepted:   len(jobs),
		Rejected:   len(rejects),
		Duplicates: before - len(jobs),
	}, nil
}
