// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"math/big"

	"github.com/luthersystems/rktgrade/parser/token"
	"github.com/nukata/goarith"
)

// LType is the type of an LVal
type LType uint

// Possible LValType values
const (
	// LInvalid (0) is not a valid lisp type.  The unassigned value of a
	// letrec binding is LInvalid.
	LInvalid LType = iota
	// LInt values are exact integers of arbitrary size stored in LVal.Num.
	LInt
	// LFloat values store a float64 in the LVal.Float field.
	LFloat
	// LString values store a string in the LVal.Str field.
	LString
	// LSymbol values store the symbol name in the LVal.Str field.
	LSymbol
	// LChar values store a rune in the LVal.Char field.
	LChar
	// LBool values store their truth in the LVal.Bool field.
	LBool
	// LNull is the empty list.
	LNull
	// LPair values store their car in Cells[0] and their cdr in Cells[1].
	LPair
	// LFun values use the following fields in an LVal:
	// 		LVal.Str      The name the function was defined with (if any)
	// 		LVal.Native   An *LFunData object
	//
	// A function defined in lisp (with define or lambda) uses the
	// LVal.Cells field to store its body expressions.
	LFun
	// LVoid is the result of expressions evaluated for effect.
	LVoid
	// LError values store the condition name in LVal.Str and the message
	// in LVal.Cells.  A copy of the call stack at the time of the error is
	// stored in LVal.Native.
	LError
	// LTypeMax is not a real type but represents a value numerically greater
	// than all valid LType values.
	LTypeMax
)

var lvalTypeStrings = []string{
	LInvalid: "INVALID",
	LInt:     "integer",
	LFloat:   "real",
	LString:  "string",
	LSymbol:  "symbol",
	LChar:    "char",
	LBool:    "boolean",
	LNull:    "empty",
	LPair:    "pair",
	LFun:     "procedure",
	LVoid:    "void",
	LError:   "error",
}

func (t LType) String() string {
	if t >= LType(len(lvalTypeStrings)) {
		return lvalTypeStrings[LInvalid]
	}
	return lvalTypeStrings[t]
}

// LFunType denotes special functions.
type LFunType uint8

// LFunType constants.  LFunNone indicates a normal function.
const (
	LFunNone LFunType = iota
	LFunSpecialOp
	// LFunApply marks apply, whose final argument is spread into the call.
	LFunApply
)

// LFunData holds what is needed to call a function.
type LFunData struct {
	// Builtin is set for functions implemented in Go.
	Builtin LBuiltin
	// Env is the defining environment of a closure.
	Env *LEnv
	// Params are the required parameter names of a closure and Rest the
	// name collecting surplus arguments, or "".
	Params []string
	Rest   string
	// MinArgs and MaxArgs bound the number of arguments.  MaxArgs is
	// negative for variadic functions.
	MinArgs int
	MaxArgs int
	FunType LFunType

	special specialOp
}

// LVal is a lisp value
type LVal struct {
	// Native is generic storage for data which cannot be represented as an
	// LVal (and thus can't be stored in Cells).
	Native interface{}

	// Source is the location of the expression the value was read from.
	Source *token.Location

	Type LType

	Num   goarith.Number
	Float float64
	Str   string
	Char  rune
	Bool  bool

	Cells []*LVal
}

var (
	nullVal  = &LVal{Type: LNull}
	voidVal  = &LVal{Type: LVoid}
	trueVal  = &LVal{Type: LBool, Bool: true}
	falseVal = &LVal{Type: LBool}
	// unassigned marks letrec bindings whose initializer has not run.
	unassigned = &LVal{Type: LInvalid}
)

// Null returns the empty list.
func Null() *LVal { return nullVal }

// Void returns the void value.
func Void() *LVal { return voidVal }

// Bool returns #t or #f.
func Bool(b bool) *LVal {
	if b {
		return trueVal
	}
	return falseVal
}

// Int returns an exact integer.
func Int(x int) *LVal {
	return &LVal{Type: LInt, Num: goarith.AsNumber(big.NewInt(int64(x)))}
}

// BigInt returns an exact integer.
func BigInt(x *big.Int) *LVal {
	return &LVal{Type: LInt, Num: goarith.AsNumber(x)}
}

// Number returns an exact integer holding n.
func Number(n goarith.Number) *LVal {
	return &LVal{Type: LInt, Num: n}
}

// Float returns an inexact real number.
func Float(x float64) *LVal {
	return &LVal{Type: LFloat, Float: x}
}

// String returns a string.
func String(s string) *LVal {
	return &LVal{Type: LString, Str: s}
}

// Symbol returns a symbol.
func Symbol(name string) *LVal {
	return &LVal{Type: LSymbol, Str: name}
}

// Char returns a character.
func Char(c rune) *LVal {
	return &LVal{Type: LChar, Char: c}
}

// Cons returns a new pair.
func Cons(car, cdr *LVal) *LVal {
	return &LVal{Type: LPair, Cells: []*LVal{car, cdr}}
}

// List returns a proper list of vs.
func List(vs ...*LVal) *LVal {
	return ListTail(vs, Null())
}

// ListTail returns the list of vs ending in tail.
func ListTail(vs []*LVal, tail *LVal) *LVal {
	lis := tail
	for i := len(vs) - 1; i >= 0; i-- {
		lis = Cons(vs[i], lis)
	}
	return lis
}

// Car returns the first element of a pair.
func (v *LVal) Car() *LVal { return v.Cells[0] }

// Cdr returns the rest of a pair.
func (v *LVal) Cdr() *LVal { return v.Cells[1] }

// IsNull reports whether v is the empty list.
func (v *LVal) IsNull() bool { return v.Type == LNull }

// IsNumeric reports whether v is a number.
func (v *LVal) IsNumeric() bool { return v.Type == LInt || v.Type == LFloat }

// IsTrue reports whether v counts as true.  Only #f is false.
func (v *LVal) IsTrue() bool { return !(v.Type == LBool && !v.Bool) }

// IsSpecialOp reports whether v is a special form.
func (v *LVal) IsSpecialOp() bool {
	return v.Type == LFun && v.FunData().FunType == LFunSpecialOp
}

// FunData returns the function data of an LFun.
func (v *LVal) FunData() *LFunData {
	fd, _ := v.Native.(*LFunData)
	return fd
}

// IsBuiltin reports whether v is a function implemented in Go.
func (v *LVal) IsBuiltin() bool {
	fd := v.FunData()
	return fd != nil && fd.Builtin != nil
}

// Slice returns the elements of a proper list.  The second result is false
// when v is not a proper list.
func (v *LVal) Slice() ([]*LVal, bool) {
	var vs []*LVal
	for ; v.Type == LPair; v = v.Cdr() {
		vs = append(vs, v.Car())
	}
	return vs, v.Type == LNull
}

// IsList reports whether v is a proper list.
func (v *LVal) IsList() bool {
	slow := v
	for {
		if v.Type == LNull {
			return true
		}
		if v.Type != LPair {
			return false
		}
		v = v.Cdr()
		if v.Type == LNull {
			return true
		}
		if v.Type != LPair {
			return false
		}
		v = v.Cdr()
		slow = slow.Cdr()
		if v == slow {
			return false
		}
	}
}

// Len returns the length of a proper list or -1.
func (v *LVal) Len() int {
	if !v.IsList() {
		return -1
	}
	n := 0
	for ; v.Type == LPair; v = v.Cdr() {
		n++
	}
	return n
}

// FunName returns the name a function was defined with.
func (v *LVal) FunName() string {
	if v.Type != LFun {
		return ""
	}
	return v.Str
}

// Docstring returns the documentation of a closure: a string literal that
// begins a body with more than one expression.
func (v *LVal) Docstring() string {
	if v.Type != LFun || v.IsBuiltin() || len(v.Cells) < 2 {
		return ""
	}
	if doc := v.Cells[0]; doc.Type == LString {
		return doc.Str
	}
	return ""
}

func (v *LVal) GoString() string {
	return fmt.Sprintf("#<%s %s>", v.Type, v.String())
}
