package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobintel/jobintel-cli/internal/metrics"
	"github.com/jobintel/jobintel-cli/internal/store"
)

var metricsRunDate string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Generate metric CSVs for a run date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		runDate, err := parseRunDate(metricsRunDate)
		if err != nil {
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

		outputs, err := runMetrics(ctx, st, runDate)
		if err != nil {
			return err
		}

		if len(outputs) == 0 {
			fmt.Fprintln(os.Stderr, "No metrics generated.")
			return nil
		}

		formatMetricsOutputs(os.Stdout, outputs)
		return nil
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsRunDate, "run-date", "", "run date YYYY-MM-DD (default today)")
	rootCmd.AddCommand(metricsCmd)
}

// runMetrics aggregates one run date's jobs into metric CSVs under the
// export directory.
func runMetrics(ctx context.Context, st store.Store, runDate time.Time) (map[string]string, error) {
	jobs, err := st.ListJobs(ctx, store.JobFilter{RunDate: runDate})
	if err != nil {
		return nil, err
	}
	return metrics.WriteAll(cfg.Data.ExportDir, runDate, jobs)
}

// formatMetricsOutputs writes a metric -> file table to w, sorted by metric
// name for stable output.
func formatMetricsOutputs(out io.Writer, outputs map[string]string) {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "METRIC\tFILE")
	_, _ = fmt.Fprintln(w, "------\t----")
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, filepath.Base(outputs[name]))
	}
	_ = w.Flush()
}
