// Package metrics computes the per-run insight aggregations over the
// canonical dataset: skill demand sliced by role family and state, overall
// skill ranking, the role mix per industry, and run-level summary stats.
// Output ordering is deterministic so successive runs diff cleanly.
package metrics

import (
	"sort"
	"time"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// topSkillsLimit caps the overall skill ranking.
const topSkillsLimit = 100

// RoleFamilySkill is one (role family, skill) demand count.
type RoleFamilySkill struct {
	RoleFamily string `csv:"role_family"`
	Skill      string `csv:"skill"`
	JobCount   int    `csv:"job_count"`
}

// StateSkill is one (state, skill) demand count.
type StateSkill struct {
	State    string `csv:"state"`
	Skill    string `csv:"skill"`
	JobCount int    `csv:"job_count"`
}

// SkillCount is one skill's overall demand count.
type SkillCount struct {
	Skill    string `csv:"skill"`
	JobCount int    `csv:"job_count"`
}

// IndustryRole is one (industry, role family) count.
type IndustryRole struct {
	IndustryTag string `csv:"industry_tag"`
	RoleFamily  string `csv:"role_family"`
	JobCount    int    `csv:"job_count"`
}

// Summary is the single-row run overview.
type Summary struct {
	RunDate          string `csv:"run_date"`
	TotalJobs        int    `csv:"total_jobs"`
	GreenhouseJobs   int    `csv:"greenhouse_jobs"`
	LeverJobs        int    `csv:"lever_jobs"`
	UniqueCompanies  int    `csv:"unique_companies"`
	RemoteJobs       int    `csv:"remote_jobs"`
	StatesCovered    int    `csv:"states_covered"`
	JobsWithSkills   int    `csv:"jobs_with_skills"`
	JobsWithIndustry int    `csv:"jobs_with_industry"`
}

type pairKey struct {
	group string
	skill string
}

// SkillsByRoleFamily counts postings per (role family, skill). Jobs
// without a role family are excluded. Ordered by role family asc, count
// desc, skill asc.
func SkillsByRoleFamily(jobs []model.CanonicalJob) []RoleFamilySkill {
	counts := make(map[pairKey]int)
	for _, j := range jobs {
		if j.RoleFamily == "" {
			continue
		}
		for _, skill := range j.Skills {
			counts[pairKey{j.RoleFamily, skill}]++
		}
	}

	out := make([]RoleFamilySkill, 0, len(counts))
	for k, n := range counts {
		out = append(out, RoleFamilySkill{RoleFamily: k.group, Skill: k.skill, JobCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoleFamily != out[j].RoleFamily {
			return out[i].RoleFamily < out[j].RoleFamily
		}
		if out[i].JobCount != out[j].JobCount {
			return out[i].JobCount > out[j].JobCount
		}
		return out[i].Skill < out[j].Skill
	})
	return out
}

// SkillsByState counts postings per (state, skill). Jobs without a parsed
// state are excluded. Ordered by state asc, count desc, skill asc.
func SkillsByState(jobs []model.CanonicalJob) []StateSkill {
	counts := make(map[pairKey]int)
	for _, j := range jobs {
		if j.State == "" {
			continue
		}
		for _, skill := range j.Skills {
			counts[pairKey{j.State, skill}]++
		}
	}

	out := make([]StateSkill, 0, len(counts))
	for k, n := range counts {
		out = append(out, StateSkill{State: k.group, Skill: k.skill, JobCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		if out[i].JobCount != out[j].JobCount {
			return out[i].JobCount > out[j].JobCount
		}
		return out[i].Skill < out[j].Skill
	})
	return out
}

// TopSkills ranks skills by posting count across the whole slice, capped
// at limit (or all when limit <= 0). Ordered by count desc, skill asc.
func TopSkills(jobs []model.CanonicalJob, limit int) []SkillCount {
	counts := make(map[string]int)
	for _, j := range jobs {
		for _, skill := range j.Skills {
			counts[skill]++
		}
	}

	out := make([]SkillCount, 0, len(counts))
	for skill, n := range counts {
		out = append(out, SkillCount{Skill: skill, JobCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JobCount != out[j].JobCount {
			return out[i].JobCount > out[j].JobCount
		}
		return out[i].Skill < out[j].Skill
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RoleMixByIndustry counts postings per (industry, role family). Jobs
// missing either tag are excluded. Ordered by industry asc, count desc,
// role family asc.
func RoleMixByIndustry(jobs []model.CanonicalJob) []IndustryRole {
	counts := make(map[pairKey]int)
	for _, j := range jobs {
		if j.IndustryTag == "" || j.RoleFamily == "" {
			continue
		}
		counts[pairKey{j.IndustryTag, j.RoleFamily}]++
	}

	out := make([]IndustryRole, 0, len(counts))
	for k, n := range counts {
		out = append(out, IndustryRole{IndustryTag: k.group, RoleFamily: k.skill, JobCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IndustryTag != out[j].IndustryTag {
			return out[i].IndustryTag < out[j].IndustryTag
		}
		if out[i].JobCount != out[j].JobCount {
			return out[i].JobCount > out[j].JobCount
		}
		return out[i].RoleFamily < out[j].RoleFamily
	})
	return out
}

// SummaryStats computes the single-row run overview.
func SummaryStats(jobs []model.CanonicalJob, runDate time.Time) Summary {
	s := Summary{
		RunDate:   model.FormatRunDate(runDate),
		TotalJobs: len(jobs),
	}

	companies := make(map[string]struct{})
	states := make(map[string]struct{})
	for _, j := range jobs {
		switch j.Source {
		case model.SourceGreenhouse:
			s.GreenhouseJobs++
		case model.SourceLever:
			s.LeverJobs++
		}
		companies[j.CompanyID] = struct{}{}
		if j.State != "" {
			states[j.State] = struct{}{}
		}
		if j.IsRemote {
			s.RemoteJobs++
		}
		if len(j.Skills) > 0 {
			s.JobsWithSkills++
		}
		if j.IndustryTag != "" {
			s.JobsWithIndustry++
		}
	}

	s.UniqueCompanies = len(companies)
	s.StatesCovered = len(states)
	return s
}
