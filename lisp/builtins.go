// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// LBuiltin is a function that performs executes a lisp function.
type LBuiltin func(env *LEnv, args []*LVal) *LVal

// Formal argument markers.
const (
	OptArgSymbol = "&optional"
	VarArgSymbol = "&rest"
)

type langBuiltin struct {
	name    string
	formals []string
	fun     LBuiltin
}

// Formals returns a formal argument list.  Arguments following OptArgSymbol
// are optional and the argument following VarArgSymbol collects the rest.
func Formals(argSymbols ...string) []string {
	return argSymbols
}

func formalsArity(formals []string) (min, max int) {
	opt := false
	for _, f := range formals {
		switch f {
		case OptArgSymbol:
			opt = true
		case VarArgSymbol:
			return min, -1
		default:
			if !opt {
				min++
			}
			max++
		}
	}
	return min, max
}

var langBuiltins = []*langBuiltin{
	{"apply", Formals("fun", "arg", VarArgSymbol, "args"), nil},
	{"void", Formals(VarArgSymbol, "args"), builtinVoid},
	{"error", Formals("message", VarArgSymbol, "args"), builtinError},
	{"cons", Formals("a", "d"), builtinCons},
	{"car", Formals("p"), builtinCar},
	{"cdr", Formals("p"), builtinCdr},
	{"caar", Formals("p"), builtinCxr("caar", "aa")},
	{"cadr", Formals("p"), builtinCxr("cadr", "ad")},
	{"cdar", Formals("p"), builtinCxr("cdar", "da")},
	{"cddr", Formals("p"), builtinCxr("cddr", "dd")},
	{"caddr", Formals("p"), builtinCxr("caddr", "add")},
	{"cdddr", Formals("p"), builtinCxr("cdddr", "ddd")},
	{"cadddr", Formals("p"), builtinCxr("cadddr", "addd")},
	{"list", Formals(VarArgSymbol, "vs"), builtinList},
	{"list*", Formals("v", VarArgSymbol, "vs"), builtinListStar},
	{"append", Formals(VarArgSymbol, "lists"), builtinAppend},
	{"length", Formals("lst"), builtinLength},
	{"list-ref", Formals("lst", "pos"), builtinListRef},
	{"list-tail", Formals("lst", "pos"), builtinListTail},
	{"reverse", Formals("lst"), builtinReverse},
	{"memq", Formals("v", "lst"), builtinMem("memq", Eqv)},
	{"memv", Formals("v", "lst"), builtinMem("memv", Eqv)},
	{"assoc", Formals("v", "lst"), builtinAss("assoc", Equal)},
	{"assq", Formals("v", "lst"), builtinAss("assq", Eqv)},
	{"assv", Formals("v", "lst"), builtinAss("assv", Eqv)},
	{"null?", Formals("v"), builtinTypePred(LNull)},
	{"empty?", Formals("v"), builtinTypePred(LNull)},
	{"pair?", Formals("v"), builtinTypePred(LPair)},
	{"cons?", Formals("v"), builtinTypePred(LPair)},
	{"list?", Formals("v"), builtinIsList},
	{"number?", Formals("v"), builtinIsNumber},
	{"real?", Formals("v"), builtinIsNumber},
	{"rational?", Formals("v"), builtinIsRational},
	{"integer?", Formals("v"), builtinIsInteger},
	{"exact?", Formals("z"), builtinIsExact},
	{"inexact?", Formals("z"), builtinIsInexact},
	{"exact-integer?", Formals("v"), builtinTypePred(LInt)},
	{"exact-nonnegative-integer?", Formals("v"), builtinIsNatural},
	{"natural?", Formals("v"), builtinIsNatural},
	{"string?", Formals("v"), builtinTypePred(LString)},
	{"symbol?", Formals("v"), builtinTypePred(LSymbol)},
	{"char?", Formals("v"), builtinTypePred(LChar)},
	{"boolean?", Formals("v"), builtinTypePred(LBool)},
	{"procedure?", Formals("v"), builtinIsProcedure},
	{"void?", Formals("v"), builtinTypePred(LVoid)},
	{"not", Formals("v"), builtinNot},
	{"eq?", Formals("a", "b"), builtinEqv},
	{"eqv?", Formals("a", "b"), builtinEqv},
	{"equal?", Formals("a", "b"), builtinEqual},
	{"boolean=?", Formals("a", "b"), builtinBooleanEq},
	{"+", Formals(VarArgSymbol, "zs"), builtinAdd},
	{"-", Formals("z", VarArgSymbol, "zs"), builtinSub},
	{"*", Formals(VarArgSymbol, "zs"), builtinMul},
	{"/", Formals("z", VarArgSymbol, "zs"), builtinDiv},
	{"=", Formals("z", VarArgSymbol, "zs"), builtinNumCompare("=", func(c int) bool { return c == 0 })},
	{"<", Formals("x", VarArgSymbol, "xs"), builtinNumCompare("<", func(c int) bool { return c < 0 })},
	{">", Formals("x", VarArgSymbol, "xs"), builtinNumCompare(">", func(c int) bool { return c > 0 })},
	{"<=", Formals("x", VarArgSymbol, "xs"), builtinNumCompare("<=", func(c int) bool { return c <= 0 })},
	{">=", Formals("x", VarArgSymbol, "xs"), builtinNumCompare(">=", func(c int) bool { return c >= 0 })},
	{"quotient", Formals("n", "m"), builtinIntDiv("quotient", opQuotient)},
	{"remainder", Formals("n", "m"), builtinIntDiv("remainder", opRemainder)},
	{"modulo", Formals("n", "m"), builtinIntDiv("modulo", opModulo)},
	{"abs", Formals("x"), builtinAbs},
	{"max", Formals("x", VarArgSymbol, "xs"), builtinMinMax("max", 1)},
	{"min", Formals("x", VarArgSymbol, "xs"), builtinMinMax("min", -1)},
	{"gcd", Formals(VarArgSymbol, "ns"), builtinGcd},
	{"lcm", Formals(VarArgSymbol, "ns"), builtinLcm},
	{"expt", Formals("z", "w"), builtinExpt},
	{"sqrt", Formals("z"), builtinSqrt},
	{"exp", Formals("z"), builtinFloatFun("exp", math.Exp)},
	{"log", Formals("z"), builtinLog},
	{"sin", Formals("z"), builtinFloatFun("sin", math.Sin)},
	{"cos", Formals("z"), builtinFloatFun("cos", math.Cos)},
	{"tan", Formals("z"), builtinFloatFun("tan", math.Tan)},
	{"asin", Formals("z"), builtinFloatFun("asin", math.Asin)},
	{"acos", Formals("z"), builtinFloatFun("acos", math.Acos)},
	{"atan", Formals("y", OptArgSymbol, "x"), builtinAtan},
	{"floor", Formals("x"), builtinRound("floor", math.Floor)},
	{"ceiling", Formals("x"), builtinRound("ceiling", math.Ceil)},
	{"round", Formals("x"), builtinRound("round", roundEven)},
	{"truncate", Formals("x"), builtinRound("truncate", math.Trunc)},
	{"exact->inexact", Formals("z"), builtinExactToInexact},
	{"inexact->exact", Formals("z"), builtinInexactToExact},
	{"exact", Formals("z"), builtinInexactToExact},
	{"inexact", Formals("z"), builtinExactToInexact},
	{"exact-round", Formals("x"), builtinExactRound("exact-round", roundEven)},
	{"exact-floor", Formals("x"), builtinExactRound("exact-floor", math.Floor)},
	{"exact-ceiling", Formals("x"), builtinExactRound("exact-ceiling", math.Ceil)},
	{"number->string", Formals("z"), builtinNumberToString},
	{"string->number", Formals("s"), builtinStringToNumber},
	{"random", Formals(OptArgSymbol, "k"), builtinRandom},
	{"symbol->string", Formals("sym"), builtinSymbolToString},
	{"string->symbol", Formals("str"), builtinStringToSymbol},
	{"symbol=?", Formals("a", "b"), builtinSymbolEq},
	{"string-length", Formals("str"), builtinStringLength},
	{"string-append", Formals(VarArgSymbol, "strs"), builtinStringAppend},
	{"substring", Formals("str", "start", OptArgSymbol, "end"), builtinSubstring},
	{"string-ref", Formals("str", "k"), builtinStringRef},
	{"string=?", Formals("a", "b", VarArgSymbol, "strs"), builtinStringCompare("string=?", false, func(c int) bool { return c == 0 })},
	{"string<?", Formals("a", "b", VarArgSymbol, "strs"), builtinStringCompare("string<?", false, func(c int) bool { return c < 0 })},
	{"string>?", Formals("a", "b", VarArgSymbol, "strs"), builtinStringCompare("string>?", false, func(c int) bool { return c > 0 })},
	{"string<=?", Formals("a", "b", VarArgSymbol, "strs"), builtinStringCompare("string<=?", false, func(c int) bool { return c <= 0 })},
	{"string>=?", Formals("a", "b", VarArgSymbol, "strs"), builtinStringCompare("string>=?", false, func(c int) bool { return c >= 0 })},
	{"string-ci=?", Formals("a", "b", VarArgSymbol, "strs"), builtinStringCompare("string-ci=?", true, func(c int) bool { return c == 0 })},
	{"string-upcase", Formals("str"), builtinStringMap("string-upcase", strings.ToUpper)},
	{"string-downcase", Formals("str"), builtinStringMap("string-downcase", strings.ToLower)},
	{"string-trim", Formals("str"), builtinStringMap("string-trim", strings.TrimSpace)},
	{"string->list", Formals("str"), builtinStringToList},
	{"list->string", Formals("lst"), builtinListToString},
	{"string", Formals(VarArgSymbol, "chars"), builtinString},
	{"make-string", Formals("k", OptArgSymbol, "char"), builtinMakeString},
	{"string-copy", Formals("str"), builtinStringMap("string-copy", func(s string) string { return s })},
	{"string-contains?", Formals("s", "contained"), builtinStringTest("string-contains?", strings.Contains)},
	{"string-prefix?", Formals("s", "prefix"), builtinStringTest("string-prefix?", strings.HasPrefix)},
	{"string-suffix?", Formals("s", "suffix"), builtinStringTest("string-suffix?", strings.HasSuffix)},
	{"string-split", Formals("str", OptArgSymbol, "sep"), builtinStringSplit},
	{"string-join", Formals("strs", OptArgSymbol, "sep"), builtinStringJoin},
	{"char->integer", Formals("char"), builtinCharToInteger},
	{"integer->char", Formals("k"), builtinIntegerToChar},
	{"char-upcase", Formals("char"), builtinCharMap("char-upcase", unicode.ToUpper)},
	{"char-downcase", Formals("char"), builtinCharMap("char-downcase", unicode.ToLower)},
	{"char-alphabetic?", Formals("char"), builtinCharTest("char-alphabetic?", unicode.IsLetter)},
	{"char-numeric?", Formals("char"), builtinCharTest("char-numeric?", unicode.IsDigit)},
	{"char-whitespace?", Formals("char"), builtinCharTest("char-whitespace?", unicode.IsSpace)},
	{"char-upper-case?", Formals("char"), builtinCharTest("char-upper-case?", unicode.IsUpper)},
	{"char-lower-case?", Formals("char"), builtinCharTest("char-lower-case?", unicode.IsLower)},
	{"char=?", Formals("a", "b", VarArgSymbol, "chars"), builtinCharCompare("char=?", func(c int) bool { return c == 0 })},
	{"char<?", Formals("a", "b", VarArgSymbol, "chars"), builtinCharCompare("char<?", func(c int) bool { return c < 0 })},
	{"char>?", Formals("a", "b", VarArgSymbol, "chars"), builtinCharCompare("char>?", func(c int) bool { return c > 0 })},
	{"display", Formals("v"), builtinDisplay},
	{"displayln", Formals("v"), builtinDisplayln},
	{"write", Formals("v"), builtinWrite},
	{"print", Formals("v"), builtinWrite},
	{"newline", Formals(), builtinNewline},
	{"format", Formals("form", VarArgSymbol, "vs"), builtinFormat},
	{"printf", Formals("form", VarArgSymbol, "vs"), builtinPrintf},
}

// builtinValues holds the builtin procedures by name.  Expansions built by
// the evaluator refer to these values directly.
var builtinValues = map[string]*LVal{}

func init() {
	for _, b := range langBuiltins {
		builtinValues[b.name] = b.value()
	}
	builtinValues["apply"].FunData().FunType = LFunApply
	for _, b := range testBuiltins {
		builtinValues[b.name] = b.value()
	}
}

func (b *langBuiltin) value() *LVal {
	min, max := formalsArity(b.formals)
	return &LVal{
		Type: LFun,
		Str:  b.name,
		Native: &LFunData{
			Builtin: b.fun,
			MinArgs: min,
			MaxArgs: max,
		},
	}
}

// AddBuiltins binds the builtin procedures in env.
func (env *LEnv) AddBuiltins() {
	for name, v := range builtinValues {
		env.Scope[name] = v
	}
}

// Builtin returns a procedure implemented in Go.
func Builtin(name string, fun LBuiltin, formals ...string) *LVal {
	return (&langBuiltin{name, formals, fun}).value()
}

func contractError(name string, expected string, given *LVal) *LVal {
	return Errorf(CondTypeError, "%s: contract violation, expected: %s, given: %s", name, expected, given).LVal()
}

func builtinVoid(env *LEnv, args []*LVal) *LVal {
	return Void()
}

// builtinError raises a user-error.  (error 'who "format" v ...) formats its
// message like format and prefixes it with who.  (error "msg" v ...) appends
// the written values to the message.
func builtinError(env *LEnv, args []*LVal) *LVal {
	first := args[0]
	switch first.Type {
	case LSymbol:
		if len(args) == 1 {
			return Errorf(CondUserError, "%s", first.Str).LVal()
		}
		if args[1].Type != LString {
			return contractError("error", "string?", args[1])
		}
		msg, lerr := formatString("error", args[1].Str, args[2:])
		if lerr != nil {
			return lerr
		}
		return Errorf(CondUserError, "%s: %s", first.Str, msg).LVal()
	case LString:
		var b strings.Builder
		b.WriteString(first.Str)
		for _, v := range args[1:] {
			b.WriteString(" ")
			b.WriteString(v.String())
		}
		return Errorf(CondUserError, "%s", b.String()).LVal()
	}
	return contractError("error", "(or/c symbol? string?)", first)
}

func builtinCons(env *LEnv, args []*LVal) *LVal {
	return Cons(args[0], args[1])
}

func builtinCar(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LPair {
		return contractError("car", "pair?", args[0])
	}
	return args[0].Car()
}

func builtinCdr(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LPair {
		return contractError("cdr", "pair?", args[0])
	}
	return args[0].Cdr()
}

// builtinCxr composes car and cdr.  path lists the operations in the order
// they appear in the name, so they are applied right to left.
func builtinCxr(name, path string) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		v := args[0]
		for i := len(path) - 1; i >= 0; i-- {
			if v.Type != LPair {
				return contractError(name, "pair?", args[0])
			}
			if path[i] == 'a' {
				v = v.Car()
			} else {
				v = v.Cdr()
			}
		}
		return v
	}
}

func builtinList(env *LEnv, args []*LVal) *LVal {
	return List(args...)
}

func builtinListStar(env *LEnv, args []*LVal) *LVal {
	return ListTail(args[:len(args)-1], args[len(args)-1])
}

func builtinAppend(env *LEnv, args []*LVal) *LVal {
	if len(args) == 0 {
		return Null()
	}
	ret := args[len(args)-1]
	for i := len(args) - 2; i >= 0; i-- {
		elems, ok := args[i].Slice()
		if !ok {
			return contractError("append", "list?", args[i])
		}
		ret = ListTail(elems, ret)
	}
	return ret
}

func builtinLength(env *LEnv, args []*LVal) *LVal {
	n := args[0].Len()
	if n < 0 {
		return contractError("length", "list?", args[0])
	}
	return Int(n)
}

func indexArg(name string, v *LVal) (int, *LVal) {
	if v.Type != LInt || sign(v) < 0 {
		return 0, contractError(name, "exact-nonnegative-integer?", v)
	}
	i, ok := IntValue(v)
	if !ok {
		return 0, Errorf(CondTypeError, "%s: index is too large: %s", name, v).LVal()
	}
	return i, nil
}

func builtinListRef(env *LEnv, args []*LVal) *LVal {
	k, lerr := indexArg("list-ref", args[1])
	if lerr != nil {
		return lerr
	}
	v := args[0]
	for i := 0; i < k; i++ {
		if v.Type != LPair {
			break
		}
		v = v.Cdr()
	}
	if v.Type != LPair {
		return Errorf(CondTypeError, "list-ref: index too large for list, index: %d, in: %s", k, args[0]).LVal()
	}
	return v.Car()
}

func builtinListTail(env *LEnv, args []*LVal) *LVal {
	k, lerr := indexArg("list-tail", args[1])
	if lerr != nil {
		return lerr
	}
	v := args[0]
	for i := 0; i < k; i++ {
		if v.Type != LPair {
			return Errorf(CondTypeError, "list-tail: index too large for list, index: %d, in: %s", k, args[0]).LVal()
		}
		v = v.Cdr()
	}
	return v
}

func builtinReverse(env *LEnv, args []*LVal) *LVal {
	elems, ok := args[0].Slice()
	if !ok {
		return contractError("reverse", "list?", args[0])
	}
	ret := Null()
	for _, v := range elems {
		ret = Cons(v, ret)
	}
	return ret
}

func builtinMem(name string, eq func(a, b *LVal) bool) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		v := args[1]
		for ; v.Type == LPair; v = v.Cdr() {
			if eq(args[0], v.Car()) {
				return v
			}
		}
		if v.Type != LNull {
			return contractError(name, "list?", args[1])
		}
		return Bool(false)
	}
}

func builtinAss(name string, eq func(a, b *LVal) bool) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		v := args[1]
		for ; v.Type == LPair; v = v.Cdr() {
			entry := v.Car()
			if entry.Type != LPair {
				return Errorf(CondTypeError, "%s: non-pair found in list: %s", name, entry).LVal()
			}
			if eq(args[0], entry.Car()) {
				return entry
			}
		}
		if v.Type != LNull {
			return contractError(name, "list?", args[1])
		}
		return Bool(false)
	}
}

func builtinTypePred(t LType) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		return Bool(args[0].Type == t)
	}
}

func builtinIsList(env *LEnv, args []*LVal) *LVal {
	return Bool(args[0].IsList())
}

func builtinIsNumber(env *LEnv, args []*LVal) *LVal {
	return Bool(args[0].IsNumeric())
}

func builtinIsRational(env *LEnv, args []*LVal) *LVal {
	v := args[0]
	if v.Type == LFloat {
		return Bool(!math.IsInf(v.Float, 0) && !math.IsNaN(v.Float))
	}
	return Bool(v.Type == LInt)
}

func builtinIsInteger(env *LEnv, args []*LVal) *LVal {
	return Bool(isInteger(args[0]))
}

func builtinIsExact(env *LEnv, args []*LVal) *LVal {
	if !args[0].IsNumeric() {
		return contractError("exact?", "number?", args[0])
	}
	return Bool(args[0].Type == LInt)
}

func builtinIsInexact(env *LEnv, args []*LVal) *LVal {
	if !args[0].IsNumeric() {
		return contractError("inexact?", "number?", args[0])
	}
	return Bool(args[0].Type == LFloat)
}

func builtinIsNatural(env *LEnv, args []*LVal) *LVal {
	return Bool(isExactInteger(args[0]) && sign(args[0]) >= 0)
}

func builtinIsProcedure(env *LEnv, args []*LVal) *LVal {
	return Bool(args[0].Type == LFun && !args[0].IsSpecialOp())
}

func builtinNot(env *LEnv, args []*LVal) *LVal {
	return Bool(!args[0].IsTrue())
}

func builtinEqv(env *LEnv, args []*LVal) *LVal {
	return Bool(Eqv(args[0], args[1]))
}

func builtinEqual(env *LEnv, args []*LVal) *LVal {
	return Bool(Equal(args[0], args[1]))
}

func builtinBooleanEq(env *LEnv, args []*LVal) *LVal {
	for _, v := range args {
		if v.Type != LBool {
			return contractError("boolean=?", "boolean?", v)
		}
	}
	return Bool(args[0].Bool == args[1].Bool)
}

// Eqv reports whether a and b are the same value.  Numbers are the same
// when they have the same exactness and are numerically equal.
func Eqv(a, b *LVal) bool {
	if a == b {
		return true
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case LInt, LFloat:
		return numEqual(a, b)
	case LSymbol:
		return a.Str == b.Str
	case LChar:
		return a.Char == b.Char
	case LBool:
		return a.Bool == b.Bool
	case LNull, LVoid:
		return true
	case LString:
		return a.Str == "" && b.Str == ""
	}
	return false
}

// Equal reports whether a and b are structurally equal.  Numbers compare by
// value regardless of exactness, so 2 and 2.0 are equal.
func Equal(a, b *LVal) bool {
	for {
		if a == b {
			return true
		}
		if a.IsNumeric() && b.IsNumeric() {
			return numEqual(a, b)
		}
		if a.Type != b.Type {
			return false
		}
		switch a.Type {
		case LString:
			return a.Str == b.Str
		case LPair:
			if !Equal(a.Car(), b.Car()) {
				return false
			}
			a, b = a.Cdr(), b.Cdr()
		default:
			return Eqv(a, b)
		}
	}
}

func numArgs(name string, args []*LVal) *LVal {
	for _, v := range args {
		if !v.IsNumeric() {
			return contractError(name, "number?", v)
		}
	}
	return nil
}

func builtinAdd(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("+", args); lerr != nil {
		return lerr
	}
	sum := Int(0)
	for _, v := range args {
		sum = numAdd(sum, v)
	}
	return sum
}

func builtinSub(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("-", args); lerr != nil {
		return lerr
	}
	if len(args) == 1 {
		return numNeg(args[0])
	}
	diff := args[0]
	for _, v := range args[1:] {
		diff = numSub(diff, v)
	}
	return diff
}

func builtinMul(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("*", args); lerr != nil {
		return lerr
	}
	prod := Int(1)
	for _, v := range args {
		prod = numMul(prod, v)
	}
	return prod
}

func builtinDiv(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("/", args); lerr != nil {
		return lerr
	}
	if len(args) == 1 {
		args = []*LVal{Int(1), args[0]}
	}
	q := args[0]
	for _, v := range args[1:] {
		var ok bool
		q, ok = numDiv(q, v)
		if !ok {
			return Errorf(CondArithmeticError, "/: division by zero").LVal()
		}
	}
	return q
}

func builtinNumCompare(name string, test func(int) bool) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if lerr := numArgs(name, args); lerr != nil {
			return lerr
		}
		for i := 1; i < len(args); i++ {
			if name == "=" && !numEqual(args[i-1], args[i]) {
				return Bool(false)
			}
			if !test(numCmp(args[i-1], args[i])) {
				return Bool(false)
			}
		}
		return Bool(true)
	}
}

func builtinIntDiv(name string, op intDivOp) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		for _, v := range args {
			if !isInteger(v) {
				return contractError(name, "integer?", v)
			}
		}
		v, ok := intDiv(op, args[0], args[1])
		if !ok {
			return Errorf(CondArithmeticError, "%s: undefined for 0", name).LVal()
		}
		return v
	}
}

func builtinAbs(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("abs", args); lerr != nil {
		return lerr
	}
	return numAbs(args[0])
}

func builtinMinMax(name string, want int) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if lerr := numArgs(name, args); lerr != nil {
			return lerr
		}
		best := args[0]
		inexact := best.Type == LFloat
		for _, v := range args[1:] {
			inexact = inexact || v.Type == LFloat
			if numCmp(v, best) == want {
				best = v
			}
		}
		if inexact {
			return exactToInexact(best)
		}
		return best
	}
}

func builtinGcd(env *LEnv, args []*LVal) *LVal {
	ret := Int(0)
	for _, v := range args {
		if !isInteger(v) {
			return contractError("gcd", "rational?", v)
		}
		ret = numGcd(ret, v)
	}
	return ret
}

func builtinLcm(env *LEnv, args []*LVal) *LVal {
	ret := Int(1)
	for _, v := range args {
		if !isInteger(v) {
			return contractError("lcm", "rational?", v)
		}
		if sign(v) == 0 {
			return numMul(v, Int(0))
		}
		g := numGcd(ret, v)
		prod := numAbs(numMul(ret, v))
		ret, _ = intDiv(opQuotient, prod, g)
	}
	return ret
}

func builtinExpt(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("expt", args); lerr != nil {
		return lerr
	}
	if args[0].Type == LInt && sign(args[0]) == 0 && args[1].Type == LInt && sign(args[1]) < 0 {
		return Errorf(CondArithmeticError, "expt: undefined for 0 and a negative exponent").LVal()
	}
	return numExpt(args[0], args[1])
}

func builtinSqrt(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("sqrt", args); lerr != nil {
		return lerr
	}
	return numSqrt(args[0])
}

func builtinFloatFun(name string, fn func(float64) float64) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if lerr := numArgs(name, args); lerr != nil {
			return lerr
		}
		if args[0].Type == LInt && sign(args[0]) == 0 && name != "cos" && name != "acos" {
			if name == "exp" {
				return Int(1)
			}
			return Int(0)
		}
		return Float(fn(floatValue(args[0])))
	}
}

func builtinLog(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("log", args); lerr != nil {
		return lerr
	}
	if args[0].Type == LInt {
		switch {
		case sign(args[0]) == 0:
			return Errorf(CondArithmeticError, "log: undefined for 0").LVal()
		case Equal(args[0], Int(1)):
			return Int(0)
		}
	}
	return Float(math.Log(floatValue(args[0])))
}

func builtinAtan(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("atan", args); lerr != nil {
		return lerr
	}
	if len(args) == 2 {
		return Float(math.Atan2(floatValue(args[0]), floatValue(args[1])))
	}
	return Float(math.Atan(floatValue(args[0])))
}

func builtinRound(name string, fn func(float64) float64) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if lerr := numArgs(name, args); lerr != nil {
			return lerr
		}
		return numRound(args[0], fn)
	}
}

func builtinExactRound(name string, fn func(float64) float64) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if lerr := numArgs(name, args); lerr != nil {
			return lerr
		}
		v, ok := inexactToExact(numRound(args[0], fn))
		if !ok {
			return contractError(name, "rational?", args[0])
		}
		return v
	}
}

func builtinExactToInexact(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("exact->inexact", args); lerr != nil {
		return lerr
	}
	return exactToInexact(args[0])
}

func builtinInexactToExact(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("inexact->exact", args); lerr != nil {
		return lerr
	}
	v, ok := inexactToExact(args[0])
	if !ok {
		return Errorf(CondArithmeticError, "inexact->exact: no exact representation for %s", args[0]).LVal()
	}
	return v
}

func builtinNumberToString(env *LEnv, args []*LVal) *LVal {
	if lerr := numArgs("number->string", args); lerr != nil {
		return lerr
	}
	return String(args[0].String())
}

func builtinStringToNumber(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LString {
		return contractError("string->number", "string?", args[0])
	}
	text := strings.TrimSpace(args[0].Str)
	if v, ok := ParseInt(text); ok {
		return v
	}
	if text != "" && strings.IndexFunc(text, func(c rune) bool { return unicode.IsDigit(c) }) >= 0 {
		if v, ok := ParseFloat(text); ok {
			return v
		}
	}
	return Bool(false)
}

func builtinRandom(env *LEnv, args []*LVal) *LVal {
	if len(args) == 0 {
		return Float(env.Runtime.Rand.Float64())
	}
	k, ok := IntValue(args[0])
	if args[0].Type != LInt || !ok || k <= 0 {
		return contractError("random", "exact-positive-integer?", args[0])
	}
	return Int(env.Runtime.Rand.Intn(k))
}

func builtinSymbolToString(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LSymbol {
		return contractError("symbol->string", "symbol?", args[0])
	}
	return String(args[0].Str)
}

func builtinStringToSymbol(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LString {
		return contractError("string->symbol", "string?", args[0])
	}
	return Symbol(args[0].Str)
}

func builtinSymbolEq(env *LEnv, args []*LVal) *LVal {
	for _, v := range args {
		if v.Type != LSymbol {
			return contractError("symbol=?", "symbol?", v)
		}
	}
	return Bool(args[0].Str == args[1].Str)
}

func stringArgs(name string, args []*LVal) *LVal {
	for _, v := range args {
		if v.Type != LString {
			return contractError(name, "string?", v)
		}
	}
	return nil
}

func builtinStringLength(env *LEnv, args []*LVal) *LVal {
	if lerr := stringArgs("string-length", args); lerr != nil {
		return lerr
	}
	return Int(len([]rune(args[0].Str)))
}

func builtinStringAppend(env *LEnv, args []*LVal) *LVal {
	if lerr := stringArgs("string-append", args); lerr != nil {
		return lerr
	}
	var b strings.Builder
	for _, v := range args {
		b.WriteString(v.Str)
	}
	return String(b.String())
}

func builtinSubstring(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LString {
		return contractError("substring", "string?", args[0])
	}
	runes := []rune(args[0].Str)
	start, lerr := indexArg("substring", args[1])
	if lerr != nil {
		return lerr
	}
	end := len(runes)
	if len(args) > 2 {
		end, lerr = indexArg("substring", args[2])
		if lerr != nil {
			return lerr
		}
	}
	if start > end || end > len(runes) {
		return Errorf(CondTypeError, "substring: index is out of range, start: %d, end: %d, valid range: [0, %d], string: %s",
			start, end, len(runes), args[0]).LVal()
	}
	return String(string(runes[start:end]))
}

func builtinStringRef(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LString {
		return contractError("string-ref", "string?", args[0])
	}
	k, lerr := indexArg("string-ref", args[1])
	if lerr != nil {
		return lerr
	}
	runes := []rune(args[0].Str)
	if k >= len(runes) {
		return Errorf(CondTypeError, "string-ref: index is out of range, index: %d, valid range: [0, %d], string: %s",
			k, len(runes)-1, args[0]).LVal()
	}
	return Char(runes[k])
}

func builtinStringCompare(name string, fold bool, test func(int) bool) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if lerr := stringArgs(name, args); lerr != nil {
			return lerr
		}
		for i := 1; i < len(args); i++ {
			a, b := args[i-1].Str, args[i].Str
			if fold {
				a, b = strings.ToLower(a), strings.ToLower(b)
			}
			if !test(strings.Compare(a, b)) {
				return Bool(false)
			}
		}
		return Bool(true)
	}
}

func builtinStringMap(name string, fn func(string) string) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if lerr := stringArgs(name, args); lerr != nil {
			return lerr
		}
		return String(fn(args[0].Str))
	}
}

func builtinStringTest(name string, fn func(s, t string) bool) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if lerr := stringArgs(name, args); lerr != nil {
			return lerr
		}
		return Bool(fn(args[0].Str, args[1].Str))
	}
}

func builtinStringToList(env *LEnv, args []*LVal) *LVal {
	if lerr := stringArgs("string->list", args); lerr != nil {
		return lerr
	}
	var chars []*LVal
	for _, c := range args[0].Str {
		chars = append(chars, Char(c))
	}
	return List(chars...)
}

func builtinListToString(env *LEnv, args []*LVal) *LVal {
	elems, ok := args[0].Slice()
	if !ok {
		return contractError("list->string", "(listof char?)", args[0])
	}
	return builtinString(env, elems)
}

func builtinString(env *LEnv, args []*LVal) *LVal {
	var b strings.Builder
	for _, v := range args {
		if v.Type != LChar {
			return contractError("string", "char?", v)
		}
		b.WriteRune(v.Char)
	}
	return String(b.String())
}

func builtinMakeString(env *LEnv, args []*LVal) *LVal {
	k, lerr := indexArg("make-string", args[0])
	if lerr != nil {
		return lerr
	}
	c := ' '
	if len(args) > 1 {
		if args[1].Type != LChar {
			return contractError("make-string", "char?", args[1])
		}
		c = args[1].Char
	}
	return String(strings.Repeat(string(c), k))
}

func builtinStringSplit(env *LEnv, args []*LVal) *LVal {
	if lerr := stringArgs("string-split", args); lerr != nil {
		return lerr
	}
	var parts []string
	if len(args) > 1 {
		for _, p := range strings.Split(args[0].Str, args[1].Str) {
			if p != "" {
				parts = append(parts, p)
			}
		}
	} else {
		parts = strings.Fields(args[0].Str)
	}
	vs := make([]*LVal, len(parts))
	for i, p := range parts {
		vs[i] = String(p)
	}
	return List(vs...)
}

func builtinStringJoin(env *LEnv, args []*LVal) *LVal {
	elems, ok := args[0].Slice()
	if !ok {
		return contractError("string-join", "(listof string?)", args[0])
	}
	if lerr := stringArgs("string-join", elems); lerr != nil {
		return lerr
	}
	sep := " "
	if len(args) > 1 {
		if args[1].Type != LString {
			return contractError("string-join", "string?", args[1])
		}
		sep = args[1].Str
	}
	strs := make([]string, len(elems))
	for i, v := range elems {
		strs[i] = v.Str
	}
	return String(strings.Join(strs, sep))
}

func builtinCharToInteger(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LChar {
		return contractError("char->integer", "char?", args[0])
	}
	return Int(int(args[0].Char))
}

func builtinIntegerToChar(env *LEnv, args []*LVal) *LVal {
	k, ok := IntValue(args[0])
	if args[0].Type != LInt || !ok || k < 0 || k > unicode.MaxRune {
		return contractError("integer->char", "valid-unicode-scalar-value?", args[0])
	}
	return Char(rune(k))
}

func builtinCharMap(name string, fn func(rune) rune) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if args[0].Type != LChar {
			return contractError(name, "char?", args[0])
		}
		return Char(fn(args[0].Char))
	}
}

func builtinCharTest(name string, fn func(rune) bool) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		if args[0].Type != LChar {
			return contractError(name, "char?", args[0])
		}
		return Bool(fn(args[0].Char))
	}
}

func builtinCharCompare(name string, test func(int) bool) LBuiltin {
	return func(env *LEnv, args []*LVal) *LVal {
		for _, v := range args {
			if v.Type != LChar {
				return contractError(name, "char?", v)
			}
		}
		for i := 1; i < len(args); i++ {
			c := 0
			switch a, b := args[i-1].Char, args[i].Char; {
			case a < b:
				c = -1
			case a > b:
				c = 1
			}
			if !test(c) {
				return Bool(false)
			}
		}
		return Bool(true)
	}
}

func (env *LEnv) stdout(s string) *LVal {
	if _, err := fmt.Fprint(env.Runtime.Stdout, s); err != nil {
		return ErrorCondition(CondUserError, err).LVal()
	}
	return Void()
}

func builtinDisplay(env *LEnv, args []*LVal) *LVal {
	return env.stdout(Display(args[0]))
}

func builtinDisplayln(env *LEnv, args []*LVal) *LVal {
	return env.stdout(Display(args[0]) + "\n")
}

func builtinWrite(env *LEnv, args []*LVal) *LVal {
	return env.stdout(args[0].String())
}

func builtinNewline(env *LEnv, args []*LVal) *LVal {
	return env.stdout("\n")
}

func builtinFormat(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LString {
		return contractError("format", "string?", args[0])
	}
	s, lerr := formatString("format", args[0].Str, args[1:])
	if lerr != nil {
		return lerr
	}
	return String(s)
}

func builtinPrintf(env *LEnv, args []*LVal) *LVal {
	if args[0].Type != LString {
		return contractError("printf", "string?", args[0])
	}
	s, lerr := formatString("printf", args[0].Str, args[1:])
	if lerr != nil {
		return lerr
	}
	return env.stdout(s)
}

// formatString expands the directives ~a (display), ~s and ~v (write), ~n
// and ~% (newline) and ~~ (tilde).
func formatString(name string, form string, args []*LVal) (string, *LVal) {
	var b strings.Builder
	used := 0
	next := func() (*LVal, bool) {
		if used >= len(args) {
			return nil, false
		}
		used++
		return args[used-1], true
	}
	runes := []rune(form)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '~' {
			b.WriteRune(c)
			continue
		}
		i++
		if i >= len(runes) {
			return "", Errorf(CondTypeError, "%s: ill-formed pattern string, tag `~` at end of string", name).LVal()
		}
		switch unicode.ToLower(runes[i]) {
		case 'a':
			v, ok := next()
			if !ok {
				return "", formatArityError(name, form, len(args))
			}
			b.WriteString(Display(v))
		case 's', 'v':
			v, ok := next()
			if !ok {
				return "", formatArityError(name, form, len(args))
			}
			b.WriteString(v.String())
		case 'n', '%':
			b.WriteString("\n")
		case '~':
			b.WriteString("~")
		default:
			return "", Errorf(CondTypeError, "%s: ill-formed pattern string, tag `~%c` not allowed", name, runes[i]).LVal()
		}
	}
	if used != len(args) {
		return "", formatArityError(name, form, len(args))
	}
	return b.String(), nil
}

func formatArityError(name string, form string, given int) *LVal {
	return Errorf(CondArityError, "%s: format string requires a different number of arguments, given %d, format string: %s",
		name, given, quoteString(form)).LVal()
}

// structProcedures returns the constructor, predicate and accessors of a
// struct declared at run time.
func structProcedures(name string, fields []*LVal) []*LVal {
	tag := Symbol(name)
	marker := Symbol("struct-instance")
	// Accessors check the instance marker only, not the tag.
	isInstance := func(v *LVal) bool {
		return v.Type == LPair && v.Cdr().Type == LPair && Eqv(v.Cdr().Car(), marker)
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Str
	}
	procs := []*LVal{
		Builtin("make-"+name, func(env *LEnv, args []*LVal) *LVal {
			return Cons(tag, Cons(marker, List(args...)))
		}, names...),
		Builtin(name+"?", func(env *LEnv, args []*LVal) *LVal {
			return Bool(isInstance(args[0]) && Eqv(args[0].Car(), tag))
		}, "obj"),
	}
	for i, f := range names {
		i := i
		procs = append(procs, Builtin(name+"-"+f, func(env *LEnv, args []*LVal) *LVal {
			if !isInstance(args[0]) {
				return Bool(false)
			}
			return builtinListRef(env, []*LVal{args[0].Cdr().Cdr(), Int(i)})
		}, "obj"))
	}
	return procs
}
