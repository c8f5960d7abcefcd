// Copyright © 2018 The ELPS authors

package repl

import (
	"context"
	"io"
	"testing"

	"github.com/luthersystems/rktgrade/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolCompleter(t *testing.T) {
	ev, err := harness.NewLispEvaluator(context.Background(), io.Discard)
	require.NoError(t, err)
	_, err = ev.Eval(context.Background(), "(define (string-twice s) (string-append s s))")
	require.NoError(t, err)

	c := &symbolCompleter{env: ev.Env()}

	candidates, offset := c.Do([]rune("(de"), 3)
	assert.Equal(t, 2, offset)
	assert.Contains(t, candidates, []rune("fine"))

	candidates, offset = c.Do([]rune("(map string-tw"), 14)
	assert.Equal(t, 9, offset)
	assert.Equal(t, [][]rune{[]rune("ice")}, candidates)

	candidates, _ = c.Do([]rune("[zzz-nonexistent"), 16)
	assert.Empty(t, candidates)

	candidates, offset = c.Do([]rune("("), 1)
	assert.Empty(t, candidates)
	assert.Equal(t, 0, offset)
}
