// SPDX-License-Identifier: Unlicense OR MIT

package rules

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Rules []*Rule `yaml:"rules"`
}

// Load reads a rule list from a yaml stream.
func Load(r io.Reader) ([]*Rule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("rules: decode: %w", err)
	}
	return f.Rules, nil
}

// LoadFile reads a rule list from path. A missing file yields an
// empty list.
func LoadFile(path string) ([]*Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Save writes the rule list, including any values updated by
// Remember policies.
func Save(w io.Writer, rules []*Rule) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(ruleFile{Rules: rules}); err != nil {
		return fmt.Errorf("rules: encode: %w", err)
	}
	return nil
}
