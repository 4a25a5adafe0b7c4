package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/pkg/greenhouse"
)

type fakeGreenhouse struct {
	boards map[string][]json.RawMessage
	err    error
}

func (f *fakeGreenhouse) ListJobs(_ context.Context, boardToken string) (*greenhouse.JobsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &greenhouse.JobsResponse{Jobs: f.boards[boardToken]}, nil
}

func (f *fakeGreenhouse) GetJob(context.Context, string, string) (json.RawMessage, error) {
	return nil, nil
}

type fakeLever struct {
	sites map[string][]json.RawMessage
	err   error
}

func (f *fakeLever) ListPostings(_ context.Context, site string) ([]json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sites[site], nil
}

func TestRunner_Run(t *testing.T) {
	gh := &fakeGreenhouse{boards: map[string][]json.RawMessage{
		"acme": {
			json.RawMessage(`{"id": 1, "title": "Engineer"}`),
			json.RawMessage(`{"id": 2, "title": "Designer"}`),
		},
	}}
	lv := &fakeLever{sites: map[string][]json.RawMessage{
		"globex": {
			json.RawMessage(`{"id": "abc", "text": "Analyst"}`),
		},
	}}

	raw := NewRawStore(t.TempDir())
	runner := NewRunner(gh, lv, raw, 2)

	runDate, err := model.ParseRunDate("2025-11-05")
	require.NoError(t, err)

	seeds := []model.CompanySeed{
		{CompanyName: "Acme", ATSType: model.SourceGreenhouse, Identifier: "acme"},
		{CompanyName: "Globex", ATSType: model.SourceLever, Identifier: "globex"},
	}

	stats, err := runner.Run(context.Background(), seeds, runDate)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.CompaniesProcessed)
	assert.Equal(t, 0, stats.CompaniesFailed)
	assert.Equal(t, 3, stats.TotalJobs)
	assert.Equal(t, 2, stats.GreenhouseJobs)
	assert.Equal(t, 1, stats.LeverJobs)

	envelopes, err := raw.ReadRun(runDate)
	require.NoError(t, err)
	require.Len(t, envelopes, 2)
	assert.Equal(t, "Acme", envelopes[0].CompanyName)
	assert.Equal(t, 2, envelopes[0].JobCount)
	assert.Equal(t, "Globex", envelopes[1].CompanyName)
}

func TestRunner_Run_FailureContained(t *testing.T) {
	gh := &fakeGreenhouse{err: eris.New("board down")}
	lv := &fakeLever{sites: map[string][]json.RawMessage{
		"globex": {json.RawMessage(`{"id": "abc"}`)},
	}}

	raw := NewRawStore(t.TempDir())
	runner := NewRunner(gh, lv, raw, 2)

	runDate, err := model.ParseRunDate("2025-11-05")
	require.NoError(t, err)

	seeds := []model.CompanySeed{
		{CompanyName: "Acme", ATSType: model.SourceGreenhouse, Identifier: "acme"},
		{CompanyName: "Globex", ATSType: model.SourceLever, Identifier: "globex"},
	}

	stats, err := runner.Run(context.Background(), seeds, runDate)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.CompaniesProcessed)
	assert.Equal(t, 1, stats.CompaniesFailed)
	assert.Equal(t, 1, stats.TotalJobs)
}

func TestRunner_Run_EmptyBoardNotPersisted(t *testing.T) {
	gh := &fakeGreenhouse{boards: map[string][]json.RawMessage{}}
	lv := &fakeLever{}

	raw := NewRawStore(t.TempDir())
	runner := NewRunner(gh, lv, raw, 1)

	runDate, err := model.ParseRunDate("2025-11-05")
	require.NoError(t, err)

	seeds := []model.CompanySeed{
		{CompanyName: "Empty Co", ATSType: model.SourceGreenhouse, Identifier: "empty"},
	}

	stats, err := runner.Run(context.Background(), seeds, runDate)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompaniesProcessed)
	assert.Equal(t, 0, stats.TotalJobs)

	_, err = raw.ReadRun(runDate)
	assert.Error(t, err)
}

func TestResolveIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		seed    model.CompanySeed
		want    string
		wantErr bool
	}{
		{
			name: "explicit identifier wins",
			seed: model.CompanySeed{
				CompanyName: "Acme",
				ATSType:     model.SourceGreenhouse,
				Identifier:  "acmeinc",
				CareersURL:  "https://boards.greenhouse.io/other",
			},
			want: "acmeinc",
		},
		{
			name: "greenhouse url detection",
			seed: model.CompanySeed{
				CompanyName: "Acme",
				ATSType:     model.SourceGreenhouse,
				CareersURL:  "https://boards.greenhouse.io/acme/jobs/123",
			},
			want: "acme",
		},
		{
			name: "lever url detection",
			seed: model.CompanySeed{
				CompanyName: "Globex",
				ATSType:     model.SourceLever,
				CareersURL:  "https://jobs.lever.co/globex",
			},
			want: "globex",
		},
		{
			name: "undetectable url",
			seed: model.CompanySeed{
				CompanyName: "Initech",
				ATSType:     model.SourceGreenhouse,
				CareersURL:  "https://initech.example.com/careers",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveIdentifier(tt.seed)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
