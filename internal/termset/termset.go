// Package termset provides controlled vocabularies used to validate
// column values on insertion. A term set is a named collection of
// permitted terms, typically loaded from a YAML vocabulary document.
package termset

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TermSet is a controlled vocabulary. The zero value is not usable; use
// New or Load.
type TermSet struct {
	name  string
	terms map[string]struct{}
}

// document is the on-disk YAML shape of a vocabulary.
type document struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// New creates a term set from an explicit list of terms.
func New(name string, terms ...string) *TermSet {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return &TermSet{name: name, terms: set}
}

// Load reads a vocabulary document from a YAML file.
func Load(path string) (*TermSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("termset: reading %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("termset: parsing %s: %w", path, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("termset: %s is missing a name", path)
	}
	return New(doc.Name, doc.Terms...), nil
}

// Name returns the vocabulary name.
func (ts *TermSet) Name() string { return ts.name }

// Validate reports whether the value is a member of the vocabulary.
// Non-string values are formatted with %v before lookup.
func (ts *TermSet) Validate(value any) bool {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}
	_, member := ts.terms[s]
	return member
}

// Terms returns the vocabulary's terms in sorted order.
func (ts *TermSet) Terms() []string {
	out := make([]string, 0, len(ts.terms))
	for t := range ts.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
