package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobintel/jobintel-cli/internal/model"
)

func job(key, title, runDate string) model.CanonicalJob {
	rd, err := model.ParseRunDate(runDate)
	if err != nil {
		panic(err)
	}
	return model.CanonicalJob{JobKey: key, Title: title, RunDate: rd}
}

func TestDedupeKeepsFirst(t *testing.T) {
	in := []model.CanonicalJob{
		job("k1", "first copy", "2025-06-02"),
		job("k2", "other", "2025-06-02"),
		job("k1", "second copy", "2025-06-02"),
		job("k1", "third copy", "2025-06-02"),
	}

	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "first copy", out[0].Title)
	assert.Equal(t, "k2", out[1].JobKey)

	// Input untouched.
	assert.Len(t, in, 4)
}

func TestDedupeNoDuplicates(t *testing.T) {
	in := []model.CanonicalJob{
		job("k1", "a", "2025-06-02"),
		job("k2", "b", "2025-06-02"),
	}
	assert.Equal(t, in, Dedupe(in))
}

func TestDedupeIdempotent(t *testing.T) {
	in := []model.CanonicalJob{
		job("k1", "a", "2025-06-02"),
		job("k2", "b", "2025-06-02"),
		job("k1", "dup", "2025-06-02"),
	}

	once := Dedupe(in)
	assert.Equal(t, once, Dedupe(once))
}

func TestDedupeEmpty(t *testing.T) {
	assert.Nil(t, Dedupe(nil))
	assert.Nil(t, Dedupe([]model.CanonicalJob{}))
}

func TestSplitNew(t *testing.T) {
	current := []model.CanonicalJob{
		job("k1", "known", "2025-06-02"),
		job("k2", "fresh", "2025-06-02"),
		job("k3", "fresh too", "2025-06-02"),
	}
	known := map[string]struct{}{"k1": {}}

	newJobs, existing := SplitNew(current, known)
	require.Len(t, newJobs, 2)
	assert.Equal(t, "k2", newJobs[0].JobKey)
	assert.Equal(t, "k3", newJobs[1].JobKey)
	require.Len(t, existing, 1)
	assert.Equal(t, "k1", existing[0].JobKey)
}

func TestSplitNewNoHistory(t *testing.T) {
	current := []model.CanonicalJob{job("k1", "a", "2025-06-02")}

	newJobs, existing := SplitNew(current, nil)
	assert.Equal(t, current, newJobs)
	assert.Empty(t, existing)

	newJobs, existing = SplitNew(nil, map[string]struct{}{"k1": {}})
	assert.Empty(t, newJobs)
	assert.Empty(t, existing)
}

func TestLatestPicksMostRecentRun(t *testing.T) {
	history := []model.CanonicalJob{
		job("k1", "v1", "2025-06-01"),
		job("k2", "only version", "2025-06-01"),
		job("k1", "v2", "2025-06-02"),
	}

	out := Latest(history)
	require.Len(t, out, 2)
	assert.Equal(t, "k1", out[0].JobKey)
	assert.Equal(t, "v2", out[0].Title)
	assert.Equal(t, "k2", out[1].JobKey)
}

func TestLatestTieKeepsFirstSeen(t *testing.T) {
	history := []model.CanonicalJob{
		job("k1", "first ingest", "2025-06-02"),
		job("k1", "re-ingest same run", "2025-06-02"),
	}

	out := Latest(history)
	require.Len(t, out, 1)
	assert.Equal(t, "first ingest", out[0].Title)
}

func TestLatestThreeRunsOneRecord(t *testing.T) {
	history := []model.CanonicalJob{
		job("k1", "run one", "2025-06-01"),
		job("k1", "run two", "2025-06-02"),
		job("k1", "run three", "2025-06-03"),
	}

	out := Latest(history)
	require.Len(t, out, 1)
	assert.Equal(t, "run three", out[0].Title)
	assert.Equal(t, "2025-06-03", model.FormatRunDate(out[0].RunDate))
}

func TestLatestOutOfOrderHistory(t *testing.T) {
	// Storage returns history in no particular order; recency must win
	// regardless.
	history := []model.CanonicalJob{
		job("k1", "newest", "2025-06-03"),
		job("k1", "oldest", "2025-06-01"),
		job("k1", "middle", "2025-06-02"),
	}

	out := Latest(history)
	require.Len(t, out, 1)
	assert.Equal(t, "newest", out[0].Title)
}

func TestLatestEmpty(t *testing.T) {
	assert.Nil(t, Latest(nil))
}
