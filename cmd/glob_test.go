// Copyright © 2024 The ELPS authors

package cmd

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.rkt",
		"src/solutions.rkt",
		"lib/utils.rkt",
	}
	result := filterExcludes(paths, []string{"solutions.rkt"})
	assert.Equal(t, []string{"src/main.rkt", "lib/utils.rkt"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.rkt",
		"build/output.rkt",
		"build/sub/deep.rkt",
		"lib/utils.rkt",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.rkt", "lib/utils.rkt"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.rkt",
		"src/generated_foo.rkt",
		"src/generated_bar.rkt",
		"lib/utils.rkt",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/main.rkt", "lib/utils.rkt"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/main.rkt",
		"build/output.rkt",
		"src/solutions.rkt",
		"lib/utils.rkt",
	}
	result := filterExcludes(paths, []string{"build", "solutions.rkt"})
	assert.Equal(t, []string{"src/main.rkt", "lib/utils.rkt"}, result)
}

func TestFilterExcludes_NoMatches(t *testing.T) {
	paths := []string{
		"src/main.rkt",
		"lib/utils.rkt",
	}
	result := filterExcludes(paths, []string{"nonexistent"})
	assert.Equal(t, []string{"src/main.rkt", "lib/utils.rkt"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.rkt"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/main.rkt"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	// filepath.Match on the full path
	assert.True(t, matchesAny("src/main.rkt", []string{"src/*.rkt"}))
	assert.False(t, matchesAny("lib/main.rkt", []string{"src/*.rkt"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/solutions.rkt", []string{"solutions.rkt"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/build/output.rkt", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.rkt", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	components := splitPath("a/b/c.rkt")
	assert.Contains(t, components, "c.rkt")
	assert.Contains(t, components, "b")
	assert.Contains(t, components, "a")
}

func TestExpandArgs(t *testing.T) {
	old := appFs
	t.Cleanup(func() { appFs = old })
	appFs = afero.NewMemMapFs()
	for _, path := range []string{"work/a.rkt", "work/sub/b.rkt", "work/notes.txt", "work/build/c.rkt"} {
		require.NoError(t, afero.WriteFile(appFs, path, []byte("(+ 1 2)"), 0o644))
	}

	files, err := expandArgs([]string{"work/...", "other.rkt"}, []string{"build"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"work/a.rkt", "work/sub/b.rkt", "other.rkt"}, files)

	_, err = expandArgs([]string{"missing/..."}, nil)
	assert.Error(t, err)
}
