//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobintel/jobintel-cli/internal/canonical"
	"github.com/jobintel/jobintel-cli/internal/config"
	"github.com/jobintel/jobintel-cli/internal/ingest"
	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/internal/store"
)

// Raw board payloads in the shapes the two ATS APIs return. The duplicate
// Austin posting mimics a Greenhouse board listing the same job under two
// departments, which is what within-run dedup exists for.
const (
	rawAustin    = `{"id": 4567, "title": "Platform Engineer", "content": "<p>Build the platform.</p>", "absolute_url": "https://boards.greenhouse.io/acme/jobs/4567", "updated_at": "2025-05-20T10:30:00-04:00", "location": {"name": "Austin, TX 78701"}, "metadata": [{"name": "department", "value": "Infrastructure"}, {"name": "employment_type", "value": "Full-time"}]}`
	rawAustinDup = `{"id": 4567, "title": "Platform Engineer", "content": "<p>Build the platform.</p>", "absolute_url": "https://boards.greenhouse.io/acme/jobs/4567", "updated_at": "2025-05-20T10:30:00-04:00", "location": {"name": "Austin, TX 78701"}, "metadata": [{"name": "department", "value": "Platform"}]}`
	rawLondon    = `{"id": 7, "title": "Site Reliability Engineer", "location": {"name": "London, UK"}}`
	rawNewYork   = `{"id": "a1b2c3d4-e5f6", "text": "Growth Marketer", "description": "<div>Own the funnel.</div>", "hostedUrl": "https://jobs.lever.co/beta/a1b2c3d4-e5f6", "createdAt": 1705276800000, "categories": {"location": "New York, NY", "department": "Marketing", "commitment": "Full-time"}}`
)

// seedRawRun writes one Greenhouse and one Lever envelope into the raw dir.
func seedRawRun(t *testing.T, rawDir string, runDate time.Time) {
	t.Helper()

	raw := ingest.NewRawStore(rawDir)

	_, err := raw.Write(ingest.Envelope{
		CompanyName: "Acme",
		Source:      model.SourceGreenhouse,
		Identifier:  "acme",
		ExtractedAt: time.Now().UTC(),
		JobCount:    3,
		Jobs: []json.RawMessage{
			json.RawMessage(rawAustin),
			json.RawMessage(rawAustinDup),
			json.RawMessage(rawLondon),
		},
	}, runDate)
	require.NoError(t, err)

	_, err = raw.Write(ingest.Envelope{
		CompanyName: "Beta",
		Source:      model.SourceLever,
		Identifier:  "beta",
		ExtractedAt: time.Now().UTC(),
		JobCount:    1,
		Jobs:        []json.RawMessage{json.RawMessage(rawNewYork)},
	}, runDate)
	require.NoError(t, err)
}

// newTestStore opens a migrated SQLite store in a temp dir.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestRunBuild(t *testing.T) {
	tmp := t.TempDir()
	cfg = &config.Config{
		Data: config.DataConfig{
			RawDir:    filepath.Join(tmp, "raw"),
			ExportDir: filepath.Join(tmp, "exports"),
		},
	}

	runDate, err := model.ParseRunDate("2025-06-02")
	require.NoError(t, err)
	seedRawRun(t, cfg.Data.RawDir, runDate)

	st := newTestStore(t)
	ctx := context.Background()

	res, err := runBuild(ctx, st, runDate, true)
	require.NoError(t, err)

	assert.Equal(t, "2025-06-02", res.RunDate)
	assert.Equal(t, 2, res.Companies)
	assert.Equal(t, 4, res.RawCount)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, res.Duplicates)

	jobs, err := st.ListJobs(ctx, store.JobFilter{RunDate: runDate})
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	byCompany := make(map[string]model.CanonicalJob)
	for _, j := range jobs {
		byCompany[j.CompanyName] = j
	}

	austin := byCompany["Acme"]
	assert.Equal(t, "Platform Engineer", austin.Title)
	assert.Equal(t, "Austin", austin.City)
	assert.Equal(t, "TX", austin.State)
	assert.True(t, austin.IsUS)
	assert.Equal(t, "Tech/Engineering", austin.RoleFamily)

	ny := byCompany["Beta"]
	assert.Equal(t, "Growth Marketer", ny.Title)
	assert.Equal(t, model.SourceLever, ny.Source)
	assert.Equal(t, "NY", ny.State)
	assert.Equal(t, "Marketing", ny.RoleFamily)

	rejects, err := st.ListRejects(ctx, runDate)
	require.NoError(t, err)
	require.Len(t, rejects, 1)
	assert.Equal(t, "Acme", rejects[0].CompanyName)
	assert.Equal(t, canonical.ReasonNonUS, rejects[0].Reason)
	assert.Equal(t, "London, UK", rejects[0].RawLocation)
}

func TestRunBuild_NonStrict(t *testing.T) {
	tmp := t.TempDir()
	cfg = &config.Config{
		Data: config.DataConfig{
			RawDir:    filepath.Join(tmp, "raw"),
			ExportDir: filepath.Join(tmp, "exports"),
		},
	}

	runDate, err := model.ParseRunDate("2025-06-02")
	require.NoError(t, err)
	seedRawRun(t, cfg.Data.RawDir, runDate)

	st := newTestStore(t)

	res, err := runBuild(context.Background(), st, runDate, false)
	require.NoError(t, err)

	// Non-strict keeps the London posting at low confidence.
	assert.Equal(t, 3, res.Accepted)
	assert.Equal(t, 0, res.Rejected)
	assert.Equal(t, 1, res.Duplicates)
}

func TestRunBuild_NoSnapshots(t *testing.T) {
	tmp := t.TempDir()
	cfg = &config.Config{
		Data: config.DataConfig{
			RawDir:    filepath.Join(tmp, "raw"),
			ExportDir: filepath.Join(tmp, "exports"),
		},
	}

	st := newTestStore(t)

	runDate, err := model.ParseRunDate("2025-06-02")
	require.NoError(t, err)

	_, err = runBuild(context.Background(), st, runDate, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no raw snapshots")
}
