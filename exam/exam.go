// Copyright © 2024 The ELPS authors

// Package exam loads exams, records answers and grades finished exams.
package exam

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/luthersystems/rktgrade/problem"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Item types.
const (
	TypeText     = "text"
	TypeCode     = "code"
	TypeSection  = "section"
	TypeQuestion = "question"
)

// Question prompts.
const (
	PromptText = "single-line-textbox"
	PromptCode = "code"
)

// Exam is a timed sequence of content and questions.
type Exam struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Time        string `json:"time,omitempty" yaml:"time,omitempty"`
	TotalPoints int    `json:"totalPoints,omitempty" yaml:"totalPoints,omitempty"`
	Content     []Item `json:"content" yaml:"content"`
}

// Item is one element of an exam.  A section holds nested items in Items;
// every other type keeps its text in Content.  Both are encoded in the
// document's content field.
type Item struct {
	Type        string `json:"type" yaml:"type"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Content     string `json:"-" yaml:"-"`
	Items       []Item `json:"-" yaml:"-"`

	Prompt       string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Points       int      `json:"points,omitempty" yaml:"points,omitempty"`
	Verification string   `json:"verification,omitempty" yaml:"verification,omitempty"`
	StarterCode  string   `json:"starterCode,omitempty" yaml:"starterCode,omitempty"`
	Precode      string   `json:"precode,omitempty" yaml:"precode,omitempty"`
	HiddenCases  []string `json:"hiddenCases,omitempty" yaml:"hiddenCases,omitempty"`
}

type itemFields Item

type jsonItem struct {
	itemFields
	Content json.RawMessage `json:"content,omitempty"`
}

// UnmarshalJSON decodes content as text or, for arrays, as nested items.
func (it *Item) UnmarshalJSON(b []byte) error {
	var raw jsonItem
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*it = Item(raw.itemFields)
	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		return nil
	}
	if raw.Content[0] == '[' {
		return json.Unmarshal(raw.Content, &it.Items)
	}
	return json.Unmarshal(raw.Content, &it.Content)
}

// MarshalJSON encodes Items or Content as the content field.
func (it Item) MarshalJSON() ([]byte, error) {
	raw := jsonItem{itemFields: itemFields(it)}
	var err error
	switch {
	case it.Items != nil:
		raw.Content, err = json.Marshal(it.Items)
	case it.Content != "":
		raw.Content, err = json.Marshal(it.Content)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalYAML decodes content as text or, for sequences, as nested items.
func (it *Item) UnmarshalYAML(value *yaml.Node) error {
	var fields itemFields
	if err := value.Decode(&fields); err != nil {
		return err
	}
	*it = Item(fields)
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value != "content" {
			continue
		}
		content := value.Content[i+1]
		if content.Kind == yaml.SequenceNode {
			return content.Decode(&it.Items)
		}
		return content.Decode(&it.Content)
	}
	return nil
}

// MaxPoints returns the points of a question.  Unset points count as 1.
func (it *Item) MaxPoints() int {
	if it.Points <= 0 {
		return 1
	}
	return it.Points
}

// Question is a question item with its position in the exam.  Questions are
// numbered from 1 in document order, sections included.
type Question struct {
	Number int
	*Item
}

// ID returns the key of the question's answer.
func (q Question) ID() string {
	return strconv.Itoa(q.Number)
}

// IsCode reports whether the question is answered with code.
func (q Question) IsCode() bool {
	return q.Prompt == PromptCode
}

// Questions returns the questions of e in order.
func (e *Exam) Questions() []Question {
	var qs []Question
	var walk func(items []Item)
	walk = func(items []Item) {
		for i := range items {
			it := &items[i]
			switch it.Type {
			case TypeQuestion:
				qs = append(qs, Question{Number: len(qs) + 1, Item: it})
			case TypeSection:
				walk(it.Items)
			}
		}
	}
	walk(e.Content)
	return qs
}

// Load reads the exam document at path.
func Load(fs afero.Fs, path string) (*Exam, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	e := &Exam{}
	if err := problem.Decode(path, b, e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		return nil, fmt.Errorf("%s: exam has no id", path)
	}
	return e, nil
}
