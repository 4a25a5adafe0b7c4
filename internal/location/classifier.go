// Package location parses raw job posting location strings and decides
// whether they are US-based.
package location

import (
	"fmt"
	"regexp"
	"strings"
)

// Confidence levels assigned by Classify. These values are persisted with
// every canonical row, so they are part of the stored-data contract.
const (
	confidenceState   = 0.9 // explicit state evidence (code or full name)
	confidenceCountry = 0.7 // country-level evidence only
	confidenceAssumed = 0.3 // unrecognized location accepted in non-strict mode
)

// Parse holds the components extracted from a raw location string. Empty
// strings mean the component was not found.
type Parse struct {
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	IsRemote   bool    `json:"is_remote"`
	IsUS       bool    `json:"is_us"`
	Confidence float64 `json:"confidence"`
}

// stateEntry pairs a USPS code with the full jurisdiction name.
type stateEntry struct {
	Code string
	Name string
}

// usStates lists the 50 states plus DC. Order matters: the full-name
// fallback scans names in this order, so for text containing overlapping
// names ("Virginia" inside "West Virginia") the earlier entry wins.
var usStates = []stateEntry{
	{"AL", "Alabama"},
	{"AK", "Alaska"},
	{"AZ", "Arizona"},
	{"AR", "Arkansas"},
	{"CA", "California"},
	{"CO", "Colorado"},
	{"CT", "Connecticut"},
	{"DE", "Delaware"},
	{"FL", "Florida"},
	{"GA", "Georgia"},
	{"HI", "Hawaii"},
	{"ID", "Idaho"},
	{"IL", "Illinois"},
	{"IN", "Indiana"},
	{"IA", "Iowa"},
	{"KS", "Kansas"},
	{"KY", "Kentucky"},
	{"LA", "Louisiana"},
	{"ME", "Maine"},
	{"MD", "Maryland"},
	{"MA", "Massachusetts"},
	{"MI", "Michigan"},
	{"MN", "Minnesota"},
	{"MS", "Mississippi"},
	{"MO", "Missouri"},
	{"MT", "Montana"},
	{"NE", "Nebraska"},
	{"NV", "Nevada"},
	{"NH", "New Hampshire"},
	{"NJ", "New Jersey"},
	{"NM", "New Mexico"},
	{"NY", "New York"},
	{"NC", "North Carolina"},
	{"ND", "North Dakota"},
	{"OH", "Ohio"},
	{"OK", "Oklahoma"},
	{"OR", "Oregon"},
	{"PA", "Pennsylvania"},
	{"RI", "Rhode Island"},
	{"SC", "South Carolina"},
	{"SD", "South Dakota"},
	{"TN", "Tennessee"},
	{"TX", "Texas"},
	{"UT", "Utah"},
	{"VT", "Vermont"},
	{"VA", "Virginia"},
	{"WA", "Washington"},
	{"WV", "West Virginia"},
	{"WI", "Wisconsin"},
	{"WY", "Wyoming"},
	{"DC", "District of Columbia"},
}

var remoteKeywords = []string{
	"remote",
	"work from home",
	"wfh",
	"anywhere",
	"distributed",
	"virtual",
}

var countryKeywords = []string{"united states", "usa", "u.s."}

// Classifier decides whether raw location strings are US-based. All lookup
// tables and patterns are compiled once by NewClassifier and never mutated,
// so a single Classifier is safe for concurrent use. The zero value is not
// usable.
type Classifier struct {
	codes      map[string]bool
	names      []stateEntry // lowercased full names in scan order
	statePat   *regexp.Regexp
	postalPat  *regexp.Regexp
	cityPrefix *regexp.Regexp
	cityPats   map[string]*regexp.Regexp
}

// NewClassifier builds a Classifier with compiled patterns for every
// jurisdiction.
func NewClassifier() *Classifier {
	c := &Classifier{
		codes: make(map[string]bool, len(usStates)),
		names: make([]stateEntry, 0, len(usStates)),
		// Two-letter code before an optional ZIP, then a comma or the end
		// of the text: "San Francisco, CA", "Boston, MA 02101".
		statePat:   regexp.MustCompile(`\b([A-Z]{2})\b(?:\s+\d{5})?(?:\s*,|\s*$)`),
		postalPat:  regexp.MustCompile(`\b(\d{5})\b`),
		cityPrefix: regexp.MustCompile(`(?i)^(Greater|Metro)\s+`),
		cityPats:   make(map[string]*regexp.Regexp, len(usStates)),
	}
	for _, s := range usStates {
		c.codes[s.Code] = true
		c.names = append(c.names, stateEntry{Code: s.Code, Name: strings.ToLower(s.Name)})
		c.cityPats[s.Code] = regexp.MustCompile(fmt.Sprintf(`(?i)^(.+?),\s*%s\b`, s.Code))
	}
	return c
}

// Classify parses a raw location string. Precedence: explicit state
// evidence (code or full name), then country-level markers, then the
// strict/non-strict default. Remote detection is independent of the US
// verdict: a posting can be remote and non-US, or on-site and US.
func (c *Classifier) Classify(locationText string, strict bool) Parse {
	var p Parse
	if locationText == "" {
		return p
	}
	text := strings.TrimSpace(locationText)

	p.IsRemote = c.isRemote(text)

	if code := c.extractStateCode(text); code != "" {
		p.State = code
		p.IsUS = true
		p.Confidence = confidenceState
		p.City = c.extractCity(text, code)
		p.PostalCode = c.extractPostalCode(text)
		return p
	}

	lower := strings.ToLower(text)
	for _, kw := range countryKeywords {
		if strings.Contains(lower, kw) {
			p.IsUS = true
			p.Confidence = confidenceCountry
			return p
		}
	}
	if strict {
		// Ambiguous strings ("Remote", "Global") are rejected, not guessed.
		return p
	}
	p.IsUS = true
	p.Confidence = confidenceAssumed
	return p
}

// ValidUS reports whether the location belongs in the US dataset. In
// strict mode only state- or country-level evidence passes.
func (c *Classifier) ValidUS(locationText string, strict bool) bool {
	p := c.Classify(locationText, strict)
	return p.IsUS && (!strict || p.Confidence >= confidenceCountry)
}

func (c *Classifier) isRemote(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range remoteKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractStateCode returns the first recognized two-letter code, falling
// back to a full-name substring scan.
func (c *Classifier) extractStateCode(text string) string {
	for _, m := range c.statePat.FindAllStringSubmatch(strings.ToUpper(text), -1) {
		if c.codes[m[1]] {
			return m[1]
		}
	}
	lower := strings.ToLower(text)
	for _, s := range c.names {
		if strings.Contains(lower, s.Name) {
			return s.Code
		}
	}
	return ""
}

// extractCity takes the text preceding the state token, or the part before
// the first comma when the "City, ST" pattern is absent.
func (c *Classifier) extractCity(text, stateCode string) string {
	if pat := c.cityPats[stateCode]; pat != nil {
		if m := pat.FindStringSubmatch(text); m != nil {
			city := strings.TrimSpace(m[1])
			return c.cityPrefix.ReplaceAllString(city, "")
		}
	}
	city := strings.TrimSpace(strings.SplitN(text, ",", 2)[0])
	if city != "" && !c.codes[strings.ToUpper(city)] {
		return city
	}
	return ""
}

func (c *Classifier) extractPostalCode(text string) string {
	if m := c.postalPat.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
