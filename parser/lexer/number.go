// Copyright © 2018 The ELPS authors

package lexer

import (
	"github.com/luthersystems/rktgrade/parser/token"
	parsec "github.com/prataprc/goparsec"
)

/*
Numeric literals accepted by the reader.

	number   := fraction | decimal | integer
	fraction := /[+-]?[0-9]+/ '/' /[0-9]+/
	decimal  := /[+-]?/ (digits '.' digits? | '.' digits) exponent? | integer exponent
	exponent := /[eE][+-]?[0-9]+/
	integer  := /[+-]?[0-9]+/

Fractions are read as inexact numbers.
*/
var numberParser = newNumberParser()

func newNumberParser() parsec.Parser {
	fraction := parsec.Token(`[+-]?[0-9]+/[0-9]+`, "FRACTION")
	decimal := parsec.Token(`(?:[+-]?(?:[0-9]+\.[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?|[+-]?[0-9]+[eE][+-]?[0-9]+)`, "DECIMAL")
	integer := parsec.Token(`[+-]?[0-9]+`, "INTEGER")
	// Longer alternatives come first because OrdChoice does not backtrack
	// once an alternative succeeds.
	number := parsec.OrdChoice(nil, fraction, decimal, integer)
	return parsec.And(nil, number, parsec.End())
}

// ClassifyNumber returns token.INT or token.FLOAT when text is a numeric
// literal and token.SYMBOL otherwise.
func ClassifyNumber(text string) token.Type {
	if text == "" {
		return token.SYMBOL
	}
	root, _ := numberParser(parsec.NewScanner([]byte(text)))
	if root == nil {
		return token.SYMBOL
	}
	switch terminalName(root) {
	case "INTEGER":
		return token.INT
	case "DECIMAL", "FRACTION":
		return token.FLOAT
	}
	return token.SYMBOL
}

// terminalName finds the first named numeric terminal in a parse tree.
func terminalName(node parsec.ParsecNode) string {
	switch node := node.(type) {
	case *parsec.Terminal:
		switch node.GetName() {
		case "INTEGER", "DECIMAL", "FRACTION":
			return node.GetName()
		}
	case []parsec.ParsecNode:
		for _, n := range node {
			if name := terminalName(n); name != "" {
				return name
			}
		}
	}
	return ""
}
