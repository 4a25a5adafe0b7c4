//go:build !integration

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobintel/jobintel-cli/internal/config"
	"github.com/jobintel/jobintel-cli/internal/model"
)

func TestRunLatest(t *testing.T) {
	tmp := t.TempDir()
	cfg = &config.Config{
		Data: config.DataConfig{ExportDir: filepath.Join(tmp, "exports")},
	}

	st := newTestStore(t)
	ctx := context.Background()

	day1, err := model.ParseRunDate("2025-06-01")
	require.NoError(t, err)
	day2, err := model.ParseRunDate("2025-06-02")
	require.NoError(t, err)

	// Day 1: two postings. Day 2: the Acme posting reappears with an
	// updated department; the Beta posting is gone from the board.
	_, err = st.InsertJobs(ctx, []model.CanonicalJob{
		{
			JobKey:      "greenhouse_aaaa1111_bbbb2222",
			CompanyID:   "acme",
			CompanyName: "Acme",
			Source:      model.SourceGreenhouse,
			SourceJobID: "4567",
			Title:       "Platform Engineer",
			Department:  "Infrastructure",
			RunDate:     day1,
			ExtractedAt: day1.Add(6 * time.Hour),
		},
		{
			JobKey:      "lever_cccc3333_dddd4444",
			CompanyID:   "beta",
			CompanyName: "Beta",
			Source:      model.SourceLever,
			SourceJobID: "a1b2c3d4",
			Title:       "Growth Marketer",
			RunDate:     day1,
			ExtractedAt: day1.Add(6 * time.Hour),
		},
	})
	require.NoError(t, err)

	_, err = st.InsertJobs(ctx, []model.CanonicalJob{
		{
			JobKey:      "greenhouse_aaaa1111_bbbb2222",
			CompanyID:   "acme",
			CompanyName: "Acme",
			Source:      model.SourceGreenhouse,
			SourceJobID: "4567",
			Title:       "Platform Engineer",
			Department:  "Platform Engineering",
			RunDate:     day2,
			ExtractedAt: day2.Add(6 * time.Hour),
		},
	})
	require.NoError(t, err)

	count, csvPath, err := runLatest(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, filepath.Join(cfg.Data.ExportDir, "jobs_latest.csv"), csvPath)
	assert.FileExists(t, csvPath)

	snapshot, err := st.ListLatest(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	byKey := make(map[string]model.CanonicalJob)
	for _, j := range snapshot {
		byKey[j.JobKey] = j
	}

	// The Acme posting keeps its most recent observation.
	acme := byKey["greenhouse_aaaa1111_bbbb2222"]
	assert.Equal(t, "2025-06-02", model.FormatRunDate(acme.RunDate))
	assert.Equal(t, "Platform Engineering", acme.Department)

	// The Beta posting survives from day 1 even though day 2 dropped it.
	beta := byKey["lever_cccc3333_dddd4444"]
	assert.Equal(t, "2025-06-01", model.FormatRunDate(beta.RunDate))
}

func TestRunLatest_EmptyStore(t *testing.T) {
	tmp := t.TempDir()
	cfg = &config.Config{
		Data: config.DataConfig{ExportDir: filepath.Join(tmp, "exports")},
	}

	st := newTestStore(t)

	count, csvPath, err := runLatest(context.Background(), st)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, csvPath)
	assert.NoFileExists(t, filepath.Join(cfg.Data.ExportDir, "jobs_latest.csv"))
}

func TestRunMetrics(t *testing.T) {
	tmp := t.TempDir()
	cfg = &config.Config{
		Data: config.DataConfig{ExportDir: filepath.Join(tmp, "exports")},
	}

	st := newTestStore(t)
	ctx := context.Background()

	runDate, err := model.ParseRunDate("2025-06-02")
	require.NoError(t, err)

	_, err = st.InsertJobs(ctx, []model.CanonicalJob{
		{
			JobKey:      "greenhouse_aaaa1111_bbbb2222",
			CompanyID:   "acme",
			CompanyName: "Acme",
			Source:      model.SourceGreenhouse,
			SourceJobID: "4567",
			Title:       "Platform Engineer",
			State:       "TX",
			RoleFamily:  "Tech/Engineering",
			Skills:      []string{"Kubernetes", "Go"},
			RunDate:     runDate,
			ExtractedAt: runDate.Add(6 * time.Hour),
		},
		{
			JobKey:      "lever_cccc3333_dddd4444",
			CompanyID:   "beta",
			CompanyName: "Beta",
			Source:      model.SourceLever,
			SourceJobID: "a1b2c3d4",
			Title:       "Growth Marketer",
			State:       "NY",
			RoleFamily:  "Marketing",
			Skills:      []string{"SEO"},
			RunDate:     runDate,
			ExtractedAt: runDate.Add(6 * time.Hour),
		},
	})
	require.NoError(t, err)

	outputs, err := runMetrics(ctx, st, runDate)
	require.NoError(t, err)
	assert.Len(t, outputs, 5)
	assert.Contains(t, outputs, "summary_stats")
	assert.Contains(t, outputs, "top_skills_overall")

	for metric, path := range outputs {
		assert.FileExists(t, path, "metric %s", metric)
		assert.Contains(t, filepath.Base(path), "2025-06-02")
	}
}

func TestRunMetrics_NoJobs(t *testing.T) {
	tmp := t.TempDir()
	cfg = &config.Config{
		Data: config.DataConfig{ExportDir: filepath.Join(tmp, "exports")},
	}

	st := newTestStore(t)

	runDate, err := model.ParseRunDate("2025-06-02")
	require.NoError(t, err)

	outputs, err := runMetrics(context.Background(), st, runDate)
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestFormatMetricsOutputs(t *testing.T) {
	var buf bytes.Buffer
	formatMetricsOutputs(&buf, map[string]string{
		"summary_stats":      "/tmp/exports/summary_stats_2025-06-02.csv",
		"top_skills_overall": "/tmp/exports/top_skills_overall_2025-06-02.csv",
	})

	output := buf.String()
	assert.Contains(t, output, "METRIC")
	assert.Contains(t, output, "FILE")
	assert.Contains(t, output, "summary_stats_2025-06-02.csv")
	assert.Contains(t, output, "top_skills_overall_2025-06-02.csv")

	// Sorted by metric name.
	assert.Less(t, strings.Index(output, "summary_stats"), strings.Index(output, "top_skills_overall"))
}
