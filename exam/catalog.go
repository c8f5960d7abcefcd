// Copyright © 2024 The ELPS authors

package exam

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/luthersystems/rktgrade/logging"
	"github.com/luthersystems/rktgrade/problem"
	"github.com/luthersystems/rktgrade/store"
	"github.com/spf13/afero"
)

// Index lists the exam documents of a directory.
type Index struct {
	Exams []string `json:"exams" yaml:"exams"`
}

// Entry is a loaded exam with its file and persisted status.
type Entry struct {
	*Exam
	File string
	Status
}

// Percentage returns the graded score as a percentage of the exam's points.
func (e *Entry) Percentage() int {
	if e.Score == nil {
		return 0
	}
	return Percentage(*e.Score, e.TotalPoints)
}

// LoadCatalog loads every exam listed in the index of dir, in index order.
// Exams that fail to load are logged and skipped.
func LoadCatalog(ctx context.Context, fs afero.Fs, dir string, st store.Store) ([]*Entry, error) {
	log := logging.FromContext(ctx)
	path := filepath.Join(dir, problem.IndexFile)
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("exam index: %w", err)
	}
	var idx Index
	if err := problem.Decode(path, b, &idx); err != nil {
		return nil, fmt.Errorf("exam index: %w", err)
	}
	var entries []*Entry
	for _, file := range idx.Exams {
		e, err := Load(fs, filepath.Join(dir, file))
		if err != nil {
			log.Warn("Skipping exam", "file", file, "error", err)
			continue
		}
		status, err := LoadStatus(st, e.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &Entry{Exam: e, File: file, Status: status})
	}
	return entries, nil
}
