// Copyright © 2024 The ELPS authors

// Package problem loads practice problems and the problem index, and tracks
// which problems a user has completed.
package problem

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Problem is one practice exercise.
type Problem struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Difficulty  string    `json:"difficulty" yaml:"difficulty"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	Time        string    `json:"time,omitempty" yaml:"time,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Examples    []Example `json:"examples,omitempty" yaml:"examples,omitempty"`
	StarterCode string    `json:"starterCode,omitempty" yaml:"starterCode,omitempty"`
	HiddenCases []string  `json:"hiddenCases,omitempty" yaml:"hiddenCases,omitempty"`
}

// Example is a worked input/output pair shown with a problem.
type Example struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Decode unmarshals a document.  Files named *.yaml or *.yml are YAML, all
// others JSON.
func Decode(name string, b []byte, v interface{}) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(b, v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Load reads the problem document at path.
func Load(fs afero.Fs, path string) (*Problem, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	p := &Problem{}
	if err := Decode(path, b, p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%s: problem has no id", path)
	}
	return p, nil
}

var requiredPattern = regexp.MustCompile(`\(define\s+\(([^\s\)]+)`)

// RequiredFunctions returns the functions a solution must define: the first
// function defined by the starter code, if any.
func (p *Problem) RequiredFunctions() []string {
	m := requiredPattern.FindStringSubmatch(p.StarterCode)
	if m == nil {
		return nil
	}
	return []string{m[1]}
}

// MissingFunctions returns the required functions that none of the given
// definition forms define.
func (p *Problem) MissingFunctions(definitions []string) []string {
	var missing []string
	for _, name := range p.RequiredFunctions() {
		found := false
		for _, def := range definitions {
			if strings.Contains(def, "(define ("+name) || strings.Contains(def, "(define "+name) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	return missing
}
