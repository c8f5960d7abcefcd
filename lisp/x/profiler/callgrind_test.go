// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"bytes"
	"testing"

	"github.com/luthersystems/rktgrade/lisp/x/profiler"
	"github.com/stretchr/testify/assert"
)

func TestNewCallgrind(t *testing.T) {
	env := newEnv(t)
	var buf bytes.Buffer
	p := profiler.NewCallgrindProfiler(env.Runtime, &buf)
	runProgram(t, env, p)

	out := buf.String()
	assert.Contains(t, out, "events: Time_(ns) Memory_(bytes)")
	assert.Contains(t, out, "fn=(1) ENTRYPOINT")
	assert.Contains(t, out, "add-it")
	assert.Contains(t, out, "recurse-it")
	assert.Contains(t, out, "calls=1 0 0")
	assert.Contains(t, out, "summary ")
}
