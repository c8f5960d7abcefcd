// Copyright © 2024 The ELPS authors

package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/luthersystems/rktgrade/ast"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReader(t *testing.T) {
	r := NewReader()
	exprs, err := r.Read("test", strings.NewReader("(+ 1 2)"))
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, ast.List, exprs[0].Kind)
	assert.Equal(t, "(+ 1 2)", exprs[0].String())
	require.NotNil(t, exprs[0].Source)
	assert.Equal(t, "test", exprs[0].Source.File)
}

func TestNewReader_KeepsBrackets(t *testing.T) {
	r := NewReader()
	exprs, err := r.Read("test", strings.NewReader("[a b c]"))
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, "[a b c]", exprs[0].String())
}

func TestNewReader_Value(t *testing.T) {
	r := NewReader()
	exprs, err := r.Read("test", strings.NewReader("42"))
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	v := lisp.FromAST(exprs[0])
	assert.Equal(t, lisp.LInt, v.Type)
	assert.Equal(t, "42", v.String())
}

func TestNewReader_ParseError(t *testing.T) {
	r := NewReader()
	_, err := r.Read("test", strings.NewReader("(unclosed"))
	require.Error(t, err)
	var lerr *lisp.ErrorVal
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, lisp.CondUnmatchedSyntax, lerr.Condition())
}

func TestParseString(t *testing.T) {
	exprs, err := ParseString("prog", "(define x 1) ; one\n(display x)")
	require.NoError(t, err)
	require.Len(t, exprs, 2)
	assert.Equal(t, "(define x 1)", exprs[0].String())
	assert.Equal(t, "(display x)", exprs[1].String())
	assert.Equal(t, 2, exprs[1].Source.Line)
}
