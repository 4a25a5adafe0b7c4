package enrich

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Seed files are YAML mappings of name -> keyword list. Mapping order in
// the file is significant (it is the tie-break order), which a plain Go map
// would destroy, so the loaders walk yaml.Node pairs instead.

// LoadRoleTaxonomy reads a role taxonomy seed file. An empty path or a
// missing file falls back to the built-in taxonomy.
func LoadRoleTaxonomy(path string) ([]RoleFamily, error) {
	pairs, err := loadKeywordFile(path, "role_families")
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		return DefaultRoleFamilies, nil
	}
	out := make([]RoleFamily, len(pairs))
	for i, p := range pairs {
		out[i] = RoleFamily{Name: p.name, Keywords: p.values}
	}
	return out, nil
}

// LoadSkillGroups reads a skills seed file. An empty path or a missing file
// falls back to the built-in list.
func LoadSkillGroups(path string) ([]SkillGroup, error) {
	pairs, err := loadKeywordFile(path, "skills")
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		return DefaultSkillGroups, nil
	}
	out := make([]SkillGroup, len(pairs))
	for i, p := range pairs {
		out[i] = SkillGroup{Category: p.name, Skills: p.values}
	}
	return out, nil
}

// LoadIndustries reads an industry mapping seed file. An empty path or a
// missing file falls back to the built-in mapping.
func LoadIndustries(path string) ([]Industry, error) {
	pairs, err := loadKeywordFile(path, "industries")
	if err != nil {
		return nil, err
	}
	if pairs == nil {
		return DefaultIndustries, nil
	}
	out := make([]Industry, len(pairs))
	for i, p := range pairs {
		out[i] = Industry{Name: p.name, Keywords: p.values}
	}
	return out, nil
}

type keywordPair struct {
	name   string
	values []string
}

// loadKeywordFile returns the ordered name->keywords pairs under the given
// top-level section, or nil when the file or section is absent.
func loadKeywordFile(path, section string) ([]keywordPair, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("taxonomy seed file not found, using defaults",
				zap.String("path", path))
			return nil, nil
		}
		return nil, eris.Wrapf(err, "enrich: read %s", path)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "enrich: parse %s", path)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, eris.Errorf("enrich: %s: expected mapping at top level", path)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != section {
			continue
		}
		pairs, err := decodeKeywordPairs(root.Content[i+1])
		if err != nil {
			return nil, eris.Wrapf(err, "enrich: %s: section %q", path, section)
		}
		zap.L().Info("loaded taxonomy seed file",
			zap.String("path", path),
			zap.String("section", section),
			zap.Int("entries", len(pairs)))
		return pairs, nil
	}
	return nil, nil
}

func decodeKeywordPairs(node *yaml.Node) ([]keywordPair, error) {
	if node.Kind != yaml.MappingNode {
		return nil, eris.New("expected a mapping of name to keyword list")
	}
	var pairs []keywordPair
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			return nil, eris.Errorf("entry %q: expected a keyword list", key.Value)
		}
		var values []string
		if err := val.Decode(&values); err != nil {
			return nil, eris.Wrapf(err, "entry %q", key.Value)
		}
		pairs = append(pairs, keywordPair{name: key.Value, values: values})
	}
	return pairs, nil
}
