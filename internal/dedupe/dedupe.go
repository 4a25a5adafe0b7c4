// Package dedupe collapses duplicate postings within a run and projects the
// latest-version snapshot across runs. Both operations key strictly on
// JobKey; no field-level reconciliation is attempted.
package dedupe

import (
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// Dedupe removes records sharing a JobKey, keeping the first occurrence in
// input order and discarding the rest. The input slice is not modified.
func Dedupe(jobs []model.CanonicalJob) []model.CanonicalJob {
	if len(jobs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(jobs))
	out := make([]model.CanonicalJob, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.JobKey]; ok {
			continue
		}
		seen[j.JobKey] = struct{}{}
		out = append(out, j)
	}

	if dropped := len(jobs) - len(out); dropped > 0 {
		zap.L().Info("removed duplicate postings",
			zap.Int("duplicates", dropped),
			zap.Int("unique", len(out)))
	}
	return out
}

// SplitNew partitions the current run's jobs into those whose JobKey has
// never been seen before and those already present in the historical key
// set. Order within each partition follows input order.
func SplitNew(current []model.CanonicalJob, knownKeys map[string]struct{}) (newJobs, existing []model.CanonicalJob) {
	if len(current) == 0 {
		return nil, nil
	}
	if len(knownKeys) == 0 {
		return current, nil
	}

	for _, j := range current {
		if _, ok := knownKeys[j.JobKey]; ok {
			existing = append(existing, j)
		} else {
			newJobs = append(newJobs, j)
		}
	}

	zap.L().Info("split postings against history",
		zap.Int("new", len(newJobs)),
		zap.Int("existing", len(existing)))
	return newJobs, existing
}

// Latest projects one record per JobKey out of the full history, choosing
// the record with the most recent RunDate. Records sharing both key and run
// date resolve to the earlier input occurrence, mirroring Dedupe. Output
// preserves the order in which keys first appeared.
func Latest(history []model.CanonicalJob) []model.CanonicalJob {
	if len(history) == 0 {
		return nil
	}

	index := make(map[string]int, len(history))
	out := make([]model.CanonicalJob, 0, len(history))
	for _, j := range history {
		if i, ok := index[j.JobKey]; ok {
			if j.RunDate.After(out[i].RunDate) {
				out[i] = j
			}
			continue
		}
		index[j.JobKey] = len(out)
		out = append(out, j)
	}

	zap.L().Info("built latest snapshot",
		zap.Int("history", len(history)),
		zap.Int("unique", len(out)))
	return out
}
