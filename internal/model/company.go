package model

import "time"

// CompanySeed is one row of the companies seed file that drives ingestion.
type CompanySeed struct {
	CompanyName string `json:"company_name" csv:"company_name"`
	CareersURL  string `json:"careers_url" csv:"careers_url"`
	ATSType     Source `json:"ats_type" csv:"ats_type"`
	Identifier  string `json:"identifier" csv:"identifier"`
	IsPortfolio bool   `json:"is_portfolio" csv:"is_portfolio"`
	Notes       string `json:"notes,omitempty" csv:"notes"`
}

// DiscoveryMethod describes how a company's ATS presence was found.
type DiscoveryMethod string

const (
	MethodURLPattern     DiscoveryMethod = "url_pattern"
	MethodSubdomainProbe DiscoveryMethod = "subdomain_probe"
	MethodCareersScan    DiscoveryMethod = "careers_scan"
)

// DiscoveredCompany is the result of ATS discovery for a single company.
// Identifier is the board token (Greenhouse) or site slug (Lever) used to
// address the public postings API.
type DiscoveredCompany struct {
	CompanyName  string          `json:"company_name" csv:"company_name"`
	Domain       string          `json:"domain,omitempty" csv:"domain"`
	ATS          Source          `json:"ats" csv:"ats"`
	Identifier   string          `json:"identifier" csv:"identifier"`
	CareersURL   string          `json:"careers_url,omitempty" csv:"careers_url"`
	Method       DiscoveryMethod `json:"method" csv:"method"`
	Confidence   float64         `json:"confidence" csv:"confidence"`
	Verified     bool            `json:"verified" csv:"verified"`
	DiscoveredAt time.Time       `json:"discovered_at" csv:"discovered_at"`
}
