package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jobintel/jobintel-cli/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline run history",
	Long:  "Commands for listing and summarizing ingestion and build runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")

		summaries, err := st.ListRunSummaries(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if kind != "" {
			summaries = filterRunKind(summaries, model.RunKind(kind))
		}

		if len(summaries) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		formatRunSummaries(os.Stdout, summaries)
		return nil
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		summaries, err := st.ListRunSummaries(ctx, 10000)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		totals := computeRunTotals(summaries)
		formatRunTotals(os.Stdout, totals)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("kind", "", "filter by run kind (ingest, build, full)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// filterRunKind keeps the summaries matching kind, preserving order.
func filterRunKind(summaries []model.RunSummary, kind model.RunKind) []model.RunSummary {
	out := make([]model.RunSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// runTotals holds aggregate statistics computed from a set of runs.
type runTotals struct {
	Total           int
	Ingest          int
	Build           int
	Full            int
	Companies       int
	CompaniesFailed int
	JobsFetched     int
	JobsAccepted    int
	JobsRejected    int
	AvgDurSecs      float64
}

// computeRunTotals aggregates a list of run summaries.
func computeRunTotals(summaries []model.RunSummary) runTotals {
	var t runTotals
	t.Total = len(summaries)

	var totalDur time.Duration
	for _, s := range summaries {
		switch s.Kind {
		case model.RunKindIngest:
			t.Ingest++
		case model.RunKindBuild:
			t.Build++
		case model.RunKindFull:
			t.Full++
		}
		t.Companies += s.Companies
		t.CompaniesFailed += s.CompaniesFailed
		t.JobsFetched += s.JobsFetched
		t.JobsAccepted += s.JobsAccepted
		t.JobsRejected += s.JobsRejected
		totalDur += s.Duration()
	}

	if t.Total > 0 {
		t.AvgDurSecs = totalDur.Seconds() / float64(t.Total)
	}
	return t
}

// formatRunSummaries writes a tabular run list to w.
func formatRunSummaries(out io.Writer, summaries []model.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATE\tKIND\tCOMPANIES\tFETCHED\tACCEPTED\tREJECTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t---------\t-------\t--------\t--------\t--------")

	for _, s := range summaries {
		companies := fmt.Sprintf("%d", s.Companies)
		if s.CompaniesFailed > 0 {
			companies = fmt.Sprintf("%d (%d failed)", s.Companies, s.CompaniesFailed)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			truncateID(s.ID),
			model.FormatRunDate(s.RunDate),
			s.Kind,
			companies,
			s.JobsFetched,
			s.JobsAccepted,
			s.JobsRejected,
			s.Duration().Round(time.Second),
		)
	}
	_ = w.Flush()
}

// formatRunTotals writes aggregate stats to w.
func formatRunTotals(out io.Writer, t runTotals) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", t.Total)
	_, _ = fmt.Fprintf(w, "  Ingest:\t%d\n", t.Ingest)
	_, _ = fmt.Fprintf(w, "  Build:\t%d\n", t.Build)
	_, _ = fmt.Fprintf(w, "  Full:\t%d\n", t.Full)
	_, _ = fmt.Fprintf(w, "Companies processed:\t%d\n", t.Companies)
	_, _ = fmt.Fprintf(w, "Companies failed:\t%d\n", t.CompaniesFailed)
	_, _ = fmt.Fprintf(w, "Jobs fetched:\t%d\n", t.JobsFetched)
	_, _ = fmt.Fprintf(w, "Jobs accepted:\t%d\n", t.JobsAccepted)
	_, _ = fmt.Fprintf(w, "Jobs rejected:\t%d\n", t.JobsRejected)
	if t.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", t.AvgDurSecs)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
