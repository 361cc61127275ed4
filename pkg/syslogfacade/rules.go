package syslogfacade

import (
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSpec is one declarative rule as it appears in a YAML rule file: a
// disposition name (fail/ignore/match), the pattern to compile, and — for
// match rules only — the tag to count under.
type RuleSpec struct {
	Fail   string `yaml:"fail,omitempty"`
	Ignore string `yaml:"ignore,omitempty"`
	Match  string `yaml:"match,omitempty"`
	Tag    int    `yaml:"tag,omitempty"`
}

// RuleFile is the top-level shape of a YAML rule file: an ordered list of
// rule specs, applied to the Facade in file order.
type RuleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// LoadRules reads a YAML rule file from path and registers every rule it
// declares on f, in file order, for operators who'd rather declare
// fail/ignore/match lists than write Go call sites.
func LoadRules(f *Facade, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return LoadRulesBytes(f, data)
}

// LoadRulesBytes is LoadRules without a filesystem read, for callers that
// already have the YAML document in memory (e.g. embedded config).
func LoadRulesBytes(f *Facade, data []byte) error {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return err
	}

	for _, spec := range rf.Rules {
		var err error
		switch {
		case spec.Fail != "":
			err = f.Fail(spec.Fail)
		case spec.Ignore != "":
			err = f.Ignore(spec.Ignore)
		case spec.Match != "":
			err = f.Match(spec.Match, spec.Tag)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
