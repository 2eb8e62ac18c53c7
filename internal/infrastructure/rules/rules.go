// Package rules loads the keyword taxonomy, signal detector tables and the
// seed company directory from YAML.
package rules

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Keyword is a weighted phrase. Weight encodes specificity: multi-word,
// high-signal phrases carry more weight than generic single words.
type Keyword struct {
	Phrase string  `yaml:"phrase"`
	Weight float64 `yaml:"weight"`
}

// CategoryRule maps keyword evidence to one taxonomy category.
type CategoryRule struct {
	Name     string    `yaml:"name"`
	MinScore float64   `yaml:"minScore"`
	Keywords []Keyword `yaml:"keywords"`
}

// SignalRule drives one intent detector.
type SignalRule struct {
	Type        domain.SignalType `yaml:"type"`
	MinStrength float64           `yaml:"minStrength"`
	Keywords    []Keyword         `yaml:"keywords"`
}

// CompanySeed pre-populates the company directory on first boot.
type CompanySeed struct {
	Name    string   `yaml:"name"`
	Ticker  string   `yaml:"ticker"`
	Aliases []string `yaml:"aliases"`
}

type RuleSet struct {
	Categories []CategoryRule `yaml:"categories"`
	Signals    []SignalRule   `yaml:"signals"`
	Companies  []CompanySeed  `yaml:"companies"`
}

// Load reads the rule set from path, or the embedded defaults when path is
// empty. Rule order in the file is significant: classification ties break by
// declaration order.
func Load(path string) (*RuleSet, error) {
	raw := defaultsYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules file: %w", err)
		}
		raw = data
	}

	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if err := rs.validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (rs *RuleSet) validate() error {
	if len(rs.Categories) == 0 {
		return fmt.Errorf("rules: no categories defined")
	}
	for _, c := range rs.Categories {
		if c.Name == "" {
			return fmt.Errorf("rules: category with empty name")
		}
		if len(c.Keywords) == 0 {
			return fmt.Errorf("rules: category %q has no keywords", c.Name)
		}
	}
	for _, s := range rs.Signals {
		if !s.Type.Valid() {
			return fmt.Errorf("rules: unknown signal type %q", s.Type)
		}
		if len(s.Keywords) == 0 {
			return fmt.Errorf("rules: signal %q has no keywords", s.Type)
		}
	}
	for _, c := range rs.Companies {
		if c.Name == "" {
			return fmt.Errorf("rules: company seed with empty name")
		}
	}
	return nil
}
