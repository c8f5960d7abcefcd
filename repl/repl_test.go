// Copyright © 2018 The ELPS authors

package repl

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runReplWithString(t *testing.T, input string, opts ...Option) string {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	go func() {
		defer inW.Close() //nolint:errcheck // test cleanup
		_, _ = io.WriteString(inW, input)
	}()

	hist := filepath.Join(t.TempDir(), HistoryFileName)
	opts = append([]Option{WithStdin(inR), WithStderr(outW), WithHistoryFile(hist)}, opts...)
	go func() {
		RunRepl("rkt> ", opts...)
		inR.Close()  //nolint:errcheck,gosec // test cleanup
		outW.Close() //nolint:errcheck,gosec // test cleanup
	}()

	var output bytes.Buffer
	_, _ = io.Copy(&output, outR)
	outR.Close() //nolint:errcheck,gosec // test cleanup

	return output.String()
}

func TestEnsureHistoryFilePermissions_CreatesWithRestrictedMode(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, HistoryFileName)

	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err, "history file should be created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnsureHistoryFilePermissions_RestrictsExistingFile(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, HistoryFileName)

	err := os.WriteFile(histFile, []byte("(define x 1)"), 0644)
	require.NoError(t, err)

	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(histFile)
	require.NoError(t, err)
	assert.Equal(t, "(define x 1)", string(data))
}

func TestEnsureHistoryFilePermissions_EmptyPathNoOp(t *testing.T) {
	ensureHistoryFilePermissions("")
}

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		src  string
		more bool
	}{
		{"(+ 1 2)", false},
		{"(define (f x)", true},
		{"[let ([x 1]", true},
		{`(display "a`, true},
		{"(+ 1 2))", false},
		{"x", false},
	}
	for _, test := range tests {
		assert.Equal(t, test.more, needsMore(test.src), test.src)
	}
}

func TestRunRepl(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		opts     []Option
		expected string
	}{
		{
			name:     "Simple Addition",
			input:    "(+ 1 1)\n",
			expected: "2\n",
		},
		{
			name:     "Error",
			input:    "fnord\n",
			expected: "undefined",
		},
		{
			name:     "Multiline",
			input:    "(define (sq x)\n  (* x x))\n(sq 7)\n",
			expected: "49\n",
		},
		{
			name:     "Struct",
			input:    "(define-struct posn (x y))\n(posn-y (make-posn 1 2))\n",
			expected: "2\n",
		},
		{
			name:     "Output",
			input:    "(display \"hello\")\n",
			expected: "hello",
		},
		{
			name:     "Step Limit",
			input:    "(define (spin) (spin))\n(spin)\n",
			opts:     []Option{WithMaxSteps(10000)},
			expected: "step-limit",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := runReplWithString(t, tc.input, tc.opts...)
			require.Contains(t, got, tc.expected)
		})
	}
}
