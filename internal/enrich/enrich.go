// Package enrich tags canonical jobs with role families, skills, and
// industries using keyword taxonomies. Matching is intentionally simple
// substring/word-boundary scoring; enrichment never rejects a job and only
// fills fields that are still unset.
package enrich

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/internal/textutil"
)

const (
	titleWeight  = 10
	descWeight   = 1
	domainWeight = 5

	// Industry scoring reads only the head of the description; full
	// postings repeat generic boilerplate that would swamp the signal.
	industryDescLimit = 1000
)

// Enricher applies all three taggers. It precompiles skill patterns at
// construction and is safe for concurrent use afterwards.
type Enricher struct {
	roles      []RoleFamily
	industries []Industry
	skills     []string
	skillPats  []*regexp.Regexp
}

// NewEnricher builds an Enricher from the given taxonomies. Slice order is
// preserved and used for tie-breaking.
func NewEnricher(roles []RoleFamily, skillGroups []SkillGroup, industries []Industry) *Enricher {
	e := &Enricher{
		roles:      lowerRoles(roles),
		industries: lowerIndustries(industries),
	}
	for _, g := range skillGroups {
		for _, s := range g.Skills {
			e.skills = append(e.skills, s)
			e.skillPats = append(e.skillPats, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(s)+`\b`))
		}
	}
	return e
}

// NewDefaultEnricher builds an Enricher from the built-in taxonomies.
func NewDefaultEnricher() *Enricher {
	return NewEnricher(DefaultRoleFamilies, DefaultSkillGroups, DefaultIndustries)
}

func lowerRoles(roles []RoleFamily) []RoleFamily {
	out := make([]RoleFamily, len(roles))
	for i, r := range roles {
		out[i] = RoleFamily{Name: r.Name, Keywords: lowerAll(r.Keywords)}
	}
	return out
}

func lowerIndustries(industries []Industry) []Industry {
	out := make([]Industry, len(industries))
	for i, ind := range industries {
		out[i] = Industry{Name: ind.Name, Keywords: lowerAll(ind.Keywords)}
	}
	return out
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}

// RoleFamily classifies a job into a role family from its title and
// description. Title hits weigh 10x description hits; the highest scoring
// family wins, ties going to taxonomy order. Empty string means no family
// matched.
func (e *Enricher) RoleFamily(title, description string) string {
	titleLower := strings.ToLower(textutil.Clean(title))
	descLower := strings.ToLower(textutil.Clean(description))

	best, bestScore := "", 0
	for _, family := range e.roles {
		score := 0
		for _, kw := range family.Keywords {
			if strings.Contains(titleLower, kw) {
				score += titleWeight
			}
			if strings.Contains(descLower, kw) {
				score += descWeight
			}
		}
		if score > bestScore {
			best, bestScore = family.Name, score
		}
	}
	return best
}

// Skills extracts the curated skills present in the text, matching each on
// word boundaries case-insensitively. The result is sorted and free of
// duplicates.
func (e *Enricher) Skills(text string) []string {
	cleaned := textutil.Clean(text)
	if cleaned == "" {
		return nil
	}

	var found []string
	for i, pat := range e.skillPats {
		if pat.MatchString(cleaned) {
			found = append(found, e.skills[i])
		}
	}
	sort.Strings(found)
	return found
}

// Industry tags a company with an industry and a 0-1 confidence. Company
// name and domain hits weigh 5, description hits 1; confidence is the
// winning score normalized against a full name+domain match.
func (e *Enricher) Industry(companyName, companyDomain, description string) (string, float64) {
	nameLower := strings.ToLower(companyName)
	domainLower := strings.ToLower(companyDomain)
	descLower := strings.ToLower(headRunes(description, industryDescLimit))

	best, bestScore := "", 0
	for _, ind := range e.industries {
		score := 0
		for _, kw := range ind.Keywords {
			if nameLower != "" && strings.Contains(nameLower, kw) {
				score += domainWeight
			}
			if domainLower != "" && strings.Contains(domainLower, kw) {
				score += domainWeight
			}
			if descLower != "" && strings.Contains(descLower, kw) {
				score += descWeight
			}
		}
		if score > bestScore {
			best, bestScore = ind.Name, score
		}
	}
	if best == "" {
		return "", 0
	}
	confidence := float64(bestScore) / 10.0
	if confidence > 1 {
		confidence = 1
	}
	return best, confidence
}

// Apply fills the enrichment fields of every job in place. Fields already
// populated are left alone, so re-running enrichment is safe.
func (e *Enricher) Apply(jobs []model.CanonicalJob) {
	var roleTagged, skillTagged, industryTagged int
	for i := range jobs {
		j := &jobs[i]
		if j.RoleFamily == "" {
			j.RoleFamily = e.RoleFamily(j.Title, j.Description)
		}
		if len(j.Skills) == 0 {
			j.Skills = e.Skills(j.Title + " " + j.Description)
		}
		if j.IndustryTag == "" {
			j.IndustryTag, j.IndustryConfidence = e.Industry(j.CompanyName, "", j.Description)
		}

		if j.RoleFamily != "" {
			roleTagged++
		}
		if len(j.Skills) > 0 {
			skillTagged++
		}
		if j.IndustryTag != "" {
			industryTagged++
		}
	}

	zap.L().Info("enriched postings",
		zap.Int("total", len(jobs)),
		zap.Int("role_family", roleTagged),
		zap.Int("skills", skillTagged),
		zap.Int("industry", industryTagged))
}

// headRunes returns the first n runes of s. Postings can carry multi-byte
// text, so the cut must not split a rune.
func headRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
