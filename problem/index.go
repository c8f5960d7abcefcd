// Copyright © 2024 The ELPS authors

package problem

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/luthersystems/rktgrade/logging"
	"github.com/luthersystems/rktgrade/store"
	"github.com/spf13/afero"
)

// IndexFile is the name of the index document in a problem directory.
const IndexFile = "index.json"

// Index lists the problem documents of a directory.
type Index struct {
	Problems   []string   `json:"problems" yaml:"problems"`
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Category is a problem category offered as a filter.
type Category struct {
	Name string `json:"name" yaml:"name"`
}

// Entry is a loaded problem together with its file and completion status.
type Entry struct {
	*Problem
	File      string
	Completed bool
}

// Catalog is the set of problems of one directory in index order.
type Catalog struct {
	Dir        string
	Entries    []*Entry
	Categories []Category
}

// LoadIndex reads the index document of dir.
func LoadIndex(fs afero.Fs, dir string) (*Index, error) {
	path := filepath.Join(dir, IndexFile)
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	idx := &Index{}
	if err := Decode(path, b, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// LoadCatalog loads every problem listed in the index of dir and reads its
// completion status from st.  Problems that fail to load are logged and
// skipped.
func LoadCatalog(ctx context.Context, fs afero.Fs, dir string, st store.Store) (*Catalog, error) {
	log := logging.FromContext(ctx)
	idx, err := LoadIndex(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("problem index: %w", err)
	}
	c := &Catalog{Dir: dir, Categories: idx.Categories}
	for _, file := range idx.Problems {
		p, err := Load(fs, filepath.Join(dir, file))
		if err != nil {
			log.Warn("Skipping problem", "file", file, "error", err)
			continue
		}
		done, err := store.GetBool(st, store.ProblemCompleted(p.ID))
		if err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, &Entry{Problem: p, File: file, Completed: done})
	}
	log.Debug("Loaded problems", "dir", dir, "count", len(c.Entries))
	return c, nil
}

// Find returns the entry with the given id or file name.
func (c *Catalog) Find(key string) (*Entry, bool) {
	for _, e := range c.Entries {
		if e.ID == key || e.File == key {
			return e, true
		}
	}
	return nil, false
}

// Status values accepted by Filter.
const (
	All        = "all"
	Completed  = "completed"
	Incomplete = "incomplete"
)

// Filter selects catalog entries.  Empty fields and All match everything.
type Filter struct {
	Difficulty string
	Category   string
	Status     string
}

func matchAll(s string) bool {
	return s == "" || s == All
}

// Match reports whether e passes the filter.
func (f Filter) Match(e *Entry) bool {
	if !matchAll(f.Difficulty) && e.Difficulty != f.Difficulty {
		return false
	}
	if !matchAll(f.Category) && e.Category != f.Category {
		return false
	}
	switch f.Status {
	case Completed:
		return e.Completed
	case Incomplete:
		return !e.Completed
	}
	return true
}

// Filter returns the entries matching f in index order.
func (c *Catalog) Filter(f Filter) []*Entry {
	var out []*Entry
	for _, e := range c.Entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Stats counts completed problems.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
}

// Stats summarizes the whole catalog regardless of any filter.
func (c *Catalog) Stats() Stats {
	s := Stats{Total: len(c.Entries)}
	for _, e := range c.Entries {
		if e.Completed {
			s.Completed++
		}
	}
	s.Remaining = s.Total - s.Completed
	return s
}

// SetCompleted records the completion status of the problem id in st and in
// the catalog.
func (c *Catalog) SetCompleted(st store.Store, id string, done bool) error {
	if err := store.SetBool(st, store.ProblemCompleted(id), done); err != nil {
		return err
	}
	if e, ok := c.Find(id); ok {
		e.Completed = done
	}
	return nil
}

// Toggle flips the completion status of the problem id.
func (c *Catalog) Toggle(st store.Store, id string) error {
	e, ok := c.Find(id)
	if !ok {
		return fmt.Errorf("unknown problem %q", id)
	}
	return c.SetCompleted(st, e.ID, !e.Completed)
}
