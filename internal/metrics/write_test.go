package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobintel/jobintel-cli/internal/model"
)

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	runDate := time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC)

	jobs := []model.CanonicalJob{
		job("c1", "greenhouse", "TX", "Data/AI", "fintech", false, "python"),
		job("c2", "lever", "CA", "Tech/Engineering", "fintech", true, "go"),
	}

	outputs, err := WriteAll(dir, runDate, jobs)
	require.NoError(t, err)
	require.Len(t, outputs, 5)

	for _, name := range []string{
		"skills_by_role_family",
		"skills_by_state",
		"top_skills_overall",
		"role_mix_by_industry",
		"summary_stats",
	} {
		path, ok := outputs[name]
		require.True(t, ok, "missing metric %s", name)
		assert.Equal(t, filepath.Join(dir, name+"_2025-11-05.csv"), path)
		_, err := os.Stat(path)
		require.NoError(t, err, "metric file %s not written", name)
	}

	f, err := os.Open(outputs["summary_stats"])
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"run_date", "total_jobs", "greenhouse_jobs", "lever_jobs",
		"unique_companies", "remote_jobs", "states_covered",
		"jobs_with_skills", "jobs_with_industry",
	}, records[0])
	assert.Equal(t, []string{"2025-11-05", "2", "1", "1", "2", "1", "2", "2", "2"}, records[1])
}

func TestWriteAll_NoJobs(t *testing.T) {
	dir := t.TempDir()

	outputs, err := WriteAll(dir, time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Empty(t, outputs)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
