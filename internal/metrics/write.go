package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// WriteAll computes every metric over the job slice and writes one CSV per
// metric into dir, named {metric}_{run_date}.csv. Returns metric name to
// file path. An empty job slice produces no files.
func WriteAll(dir string, runDate time.Time, jobs []model.CanonicalJob) (map[string]string, error) {
	if len(jobs) == 0 {
		zap.L().Warn("no jobs for metrics", zap.String("run_date", model.FormatRunDate(runDate)))
		return map[string]string{}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "metrics: create %s", dir)
	}

	outputs := map[string]string{}

	write := func(name string, rows any) error {
		path := metricPath(dir, name, runDate)
		data, err := csvutil.Marshal(rows)
		if err != nil {
			return eris.Wrapf(err, "metrics: encode %s", name)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrapf(err, "metrics: write %s", path)
		}
		outputs[name] = path
		return nil
	}

	if err := write("skills_by_role_family", SkillsByRoleFamily(jobs)); err != nil {
		return nil, err
	}
	if err := write("skills_by_state", SkillsByState(jobs)); err != nil {
		return nil, err
	}
	if err := write("top_skills_overall", TopSkills(jobs, topSkillsLimit)); err != nil {
		return nil, err
	}
	if err := write("role_mix_by_industry", RoleMixByIndustry(jobs)); err != nil {
		return nil, err
	}
	if err := write("summary_stats", []Summary{SummaryStats(jobs, runDate)}); err != nil {
		return nil, err
	}

	zap.L().Info("generated metrics",
		zap.String("run_date", model.FormatRunDate(runDate)),
		zap.Int("files", len(outputs)))

	return outputs, nil
}

func metricPath(dir, name string, runDate time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", name, model.FormatRunDate(runDate)))
}
