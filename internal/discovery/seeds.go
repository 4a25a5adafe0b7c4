package discovery

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DomainSeed is one company to probe for a hosted ATS board.
type DomainSeed struct {
	Domain      string `yaml:"domain"`
	CompanyName string `yaml:"company_name"`
}

// Seeds is the discovery seed file: domains to probe plus careers URLs
// already known to point at a board.
type Seeds struct {
	Domains          []DomainSeed `yaml:"domains"`
	KnownCareersURLs []string     `yaml:"known_careers_urls"`
}

// LoadSeeds reads a discovery seed YAML file.
func LoadSeeds(path string) (*Seeds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: read seed file %s", path)
	}

	var seeds Seeds
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, eris.Wrapf(err, "discovery: parse seed file %s", path)
	}

	return &seeds, nil
}
