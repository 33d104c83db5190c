package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML shape of an on-disk rule table.
type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Label     string   `yaml:"label"`
	Keywords  []string `yaml:"keywords"`
	Patterns  []string `yaml:"patterns"`
	Tags      []string `yaml:"tags"`
	Category  string   `yaml:"category"`
	Relevance string   `yaml:"relevance"`
}

// LoadRules reads a YAML rule table and compiles its patterns. Rule order in
// the file is preserved; it is the classifier's tie-break order.
func LoadRules(path string) ([]Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f ruleFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		if spec.Label == "" {
			return nil, fmt.Errorf("%s: rule %d has no label", path, i)
		}
		r := Rule{
			Label:     spec.Label,
			Keywords:  spec.Keywords,
			Tags:      spec.Tags,
			Category:  spec.Category,
			Relevance: spec.Relevance,
		}
		for _, p := range spec.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%s: rule %q pattern %q: %w", path, spec.Label, p, err)
			}
			r.Patterns = append(r.Patterns, re)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// MustPatterns compiles a set of regex patterns for a built-in rule table.
// It panics on invalid patterns, which can only happen at init time.
func MustPatterns(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
