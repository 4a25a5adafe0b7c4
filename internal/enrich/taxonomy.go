package enrich

// RoleFamily is one entry of the role taxonomy. Order across the taxonomy
// matters: scoring ties resolve to the earliest family.
type RoleFamily struct {
	Name     string
	Keywords []string
}

// SkillGroup is one category of the curated skills list. Categories only
// organize the seed file; matching treats all skills as one flat list.
type SkillGroup struct {
	Category string
	Skills   []string
}

// Industry is one entry of the industry keyword mapping. Order across the
// mapping matters: scoring ties resolve to the earliest industry.
type Industry struct {
	Name     string
	Keywords []string
}

// DefaultRoleFamilies is the built-in role taxonomy, used when no seed file
// is configured.
var DefaultRoleFamilies = []RoleFamily{
	{Name: "Tech/Engineering", Keywords: []string{
		"software engineer", "engineer", "developer", "architect", "sre",
		"devops", "backend", "frontend", "full stack", "infrastructure",
		"security engineer", "cloud engineer",
	}},
	{Name: "Data/AI", Keywords: []string{
		"data scientist", "data engineer", "data analyst", "machine learning",
		"ml engineer", "ai engineer", "analytics", "business intelligence",
		"bi analyst",
	}},
	{Name: "Product/Design", Keywords: []string{
		"product manager", "product owner", "designer", "ux", "ui",
		"product designer", "design lead", "design manager",
	}},
	{Name: "Sales", Keywords: []string{
		"sales", "account executive", "business development", "bdr", "sdr",
		"sales rep", "account manager",
	}},
	{Name: "Marketing", Keywords: []string{
		"marketing", "growth", "content", "social media", "brand",
		"demand generation", "digital marketing", "marketing manager",
	}},
	{Name: "Customer Success", Keywords: []string{
		"customer success", "customer support", "support engineer",
		"solutions engineer", "technical account manager",
	}},
	{Name: "Finance", Keywords: []string{
		"finance", "accounting", "controller", "accountant",
		"financial analyst", "fp&a",
	}},
	{Name: "HR/Talent", Keywords: []string{
		"recruiter", "talent", "hr", "human resources", "people ops",
		"people partner",
	}},
	{Name: "Operations/Strategy", Keywords: []string{
		"operations", "strategy", "program manager", "project manager",
		"business ops", "chief of staff",
	}},
	{Name: "Legal/Compliance", Keywords: []string{
		"legal", "counsel", "lawyer", "compliance", "paralegal", "attorney",
	}},
}

// DefaultSkillGroups is the built-in curated skills list.
var DefaultSkillGroups = []SkillGroup{
	{Category: "programming_languages", Skills: []string{
		"Python", "JavaScript", "TypeScript", "Java", "C++", "C#", "Go",
		"Rust", "Ruby", "PHP", "Swift", "Kotlin", "Scala", "R", "SQL",
	}},
	{Category: "cloud_platforms", Skills: []string{
		"AWS", "Azure", "GCP", "Google Cloud", "Kubernetes", "Docker",
		"Terraform", "CloudFormation",
	}},
	{Category: "data_tools", Skills: []string{
		"Spark", "Hadoop", "Airflow", "dbt", "Snowflake", "BigQuery",
		"Redshift", "Databricks", "Kafka", "Flink",
	}},
	{Category: "ml_ai", Skills: []string{
		"TensorFlow", "PyTorch", "scikit-learn", "Keras", "LangChain",
		"Hugging Face", "OpenAI", "LLM", "GPT", "Computer Vision", "NLP",
	}},
	{Category: "bi_tools", Skills: []string{
		"Tableau", "Power BI", "Looker", "Qlik", "Metabase", "Mode",
	}},
	{Category: "sales_tools", Skills: []string{
		"Salesforce", "HubSpot", "Outreach", "SalesLoft", "Gong",
	}},
	{Category: "collaboration", Skills: []string{
		"Slack", "Jira", "Confluence", "Notion", "Asana", "Monday",
	}},
	{Category: "frameworks", Skills: []string{
		"React", "Angular", "Vue", "Django", "Flask", "FastAPI", "Spring",
		"Rails", "Node.js", ".NET",
	}},
}

// DefaultIndustries is the built-in industry keyword mapping.
var DefaultIndustries = []Industry{
	{Name: "Technology", Keywords: []string{
		"software", "saas", "cloud", "ai", "machine learning", "data",
		"tech", "platform", "api",
	}},
	{Name: "Financial Services", Keywords: []string{
		"fintech", "banking", "finance", "investment", "trading",
		"payments", "credit",
	}},
	{Name: "Healthcare", Keywords: []string{
		"health", "medical", "healthcare", "biotech", "pharma", "clinical",
		"patient",
	}},
	{Name: "E-commerce/Retail", Keywords: []string{
		"ecommerce", "e-commerce", "retail", "marketplace", "shopping",
		"consumer",
	}},
	{Name: "Media/Entertainment", Keywords: []string{
		"media", "entertainment", "gaming", "streaming", "content",
		"publishing",
	}},
	{Name: "Education", Keywords: []string{
		"education", "edtech", "learning", "university", "school",
		"training",
	}},
	{Name: "Real Estate", Keywords: []string{
		"real estate", "proptech", "property", "housing", "construction",
	}},
	{Name: "Transportation/Logistics", Keywords: []string{
		"transportation", "logistics", "delivery", "shipping",
		"supply chain", "mobility",
	}},
	{Name: "Energy", Keywords: []string{
		"energy", "renewable", "solar", "climate", "sustainability",
		"utilities",
	}},
	{Name: "Professional Services", Keywords: []string{
		"consulting", "legal", "accounting", "advisory",
		"professional services",
	}},
}
