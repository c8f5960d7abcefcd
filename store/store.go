// Copyright © 2024 The ELPS authors

// Package store persists user progress: saved code, completion flags, exam
// answers and scores.  Values are strings keyed by a namespaced name such as
// problem_<id>_completed.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value stored at key.  The boolean is false when key
	// is absent.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	// Keys returns the stored keys beginning with prefix in sorted order.
	Keys(prefix string) ([]string, error)
}

// ProblemCompleted is the key of a problem's completion flag.
func ProblemCompleted(id string) string { return "problem_" + id + "_completed" }

// ProblemCode is the key of the code saved for a problem.
func ProblemCode(id string) string { return "problem_" + id + "_code" }

// ExamAnswers is the key of an exam's answer document.
func ExamAnswers(id string) string { return "exam_" + id + "_answers" }

// ExamCompleted is the key of an exam's completion flag.
func ExamCompleted(id string) string { return "exam_" + id + "_completed" }

// ExamScore is the key of an exam's total score.
func ExamScore(id string) string { return "exam_" + id + "_score" }

// GetBool reports whether key holds "true".  Absent keys are false.
func GetBool(s Store, key string) (bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	return v == "true", nil
}

// SetBool stores b at key as "true" or "false".
func SetBool(s Store, key string, b bool) error {
	return s.Set(key, strconv.FormatBool(b))
}

// GetInt returns the integer stored at key.  The boolean is false when key is
// absent.
func GetInt(s Store, key string) (int, bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("store: key %q: %w", key, err)
	}
	return n, true, nil
}

// GetJSON decodes the JSON document stored at key into v.  The boolean is
// false when key is absent, in which case v is untouched.
func GetJSON(s Store, key string, v interface{}) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("store: key %q: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v at key as a JSON document.
func SetJSON(s Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: key %q: %w", key, err)
	}
	return s.Set(key, string(b))
}

// FileStore keeps every key in a single JSON document on an afero.Fs.  The
// document is rewritten on every change.  A FileStore is safe for concurrent
// use within one process.
type FileStore struct {
	fs   afero.Fs
	path string

	mu   sync.Mutex
	data map[string]string
}

var _ Store = (*FileStore)(nil)

// Open loads the store document at path on fs.  A missing document is an
// empty store and is created by the first Set.
func Open(fs afero.Fs, path string) (*FileStore, error) {
	s := &FileStore{fs: fs, path: path, data: make(map[string]string)}
	b, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	return s, nil
}

// NewMemory returns an empty store held in memory.
func NewMemory() *FileStore {
	return &FileStore{fs: afero.NewMemMapFs(), path: "store.json", data: make(map[string]string)}
}

// Path returns the location of the store document.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements Store.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had := s.data[key]
	s.data[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.data[key] = old
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Delete implements Store.  Deleting an absent key is not an error.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.flush(); err != nil {
		s.data[key] = old
		return err
	}
	return nil
}

// Keys implements Store.
func (s *FileStore) Keys(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// flush writes the document to a temporary file and renames it over the
// previous one.
func (s *FileStore) flush() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o600); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
