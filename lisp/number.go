// Copyright © 2024 The ELPS authors

package lisp

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nukata/goarith"
)

// Exact integers are goarith numbers, which promote to big integers on
// overflow.  Inexact numbers are plain float64 values.

var zero = goarith.AsNumber(big.NewInt(0))

// ParseInt returns the exact integer written as text.
func ParseInt(text string) (*LVal, bool) {
	z := new(big.Int)
	if _, ok := z.SetString(strings.TrimPrefix(text, "+"), 10); !ok {
		return nil, false
	}
	return BigInt(z), true
}

// ParseFloat returns the inexact number written as text.  Fractions n/d are
// read as inexact.
func ParseFloat(text string) (*LVal, bool) {
	if num, den, ok := strings.Cut(text, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return nil, false
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return nil, false
		}
		return Float(n / d), true
	}
	switch text {
	case "+inf.0":
		return Float(math.Inf(1)), true
	case "-inf.0":
		return Float(math.Inf(-1)), true
	case "+nan.0", "-nan.0":
		return Float(math.NaN()), true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, false
	}
	return Float(f), true
}

func numText(n goarith.Number) string {
	return fmt.Sprint(n)
}

func toBig(n goarith.Number) *big.Int {
	z, ok := new(big.Int).SetString(numText(n), 10)
	if !ok {
		return new(big.Int)
	}
	return z
}

// floatValue returns v as a float64.  v must be numeric.
func floatValue(v *LVal) float64 {
	if v.Type == LFloat {
		return v.Float
	}
	f, _ := new(big.Float).SetInt(toBig(v.Num)).Float64()
	return f
}

// IntValue returns v as an int when v is an exact integer (or an integral
// float) small enough to fit.
func IntValue(v *LVal) (int, bool) {
	switch v.Type {
	case LInt:
		i, err := strconv.Atoi(numText(v.Num))
		return i, err == nil
	case LFloat:
		if v.Float == math.Trunc(v.Float) && math.Abs(v.Float) < 1<<53 {
			return int(v.Float), true
		}
	}
	return 0, false
}

func sign(v *LVal) int {
	if v.Type == LFloat {
		switch {
		case v.Float < 0:
			return -1
		case v.Float > 0:
			return 1
		}
		return 0
	}
	return v.Num.Cmp(zero)
}

func isExactInteger(v *LVal) bool {
	return v.Type == LInt
}

func isInteger(v *LVal) bool {
	switch v.Type {
	case LInt:
		return true
	case LFloat:
		return !math.IsInf(v.Float, 0) && v.Float == math.Trunc(v.Float)
	}
	return false
}

// numAdd, numSub and numMul keep exact results exact.  Any inexact operand
// makes the result inexact.
func numAdd(a, b *LVal) *LVal {
	if a.Type == LInt && b.Type == LInt {
		return Number(a.Num.Add(b.Num))
	}
	return Float(floatValue(a) + floatValue(b))
}

func numSub(a, b *LVal) *LVal {
	if a.Type == LInt && b.Type == LInt {
		return Number(a.Num.Sub(b.Num))
	}
	return Float(floatValue(a) - floatValue(b))
}

func numMul(a, b *LVal) *LVal {
	if a.Type == LInt && b.Type == LInt {
		return Number(a.Num.Mul(b.Num))
	}
	return Float(floatValue(a) * floatValue(b))
}

// numDiv divides exactly when the quotient is an integer.  Other exact
// quotients become inexact since the dialect has no rationals.
func numDiv(a, b *LVal) (*LVal, bool) {
	if a.Type == LInt && b.Type == LInt {
		if sign(b) == 0 {
			return nil, false
		}
		q, r := new(big.Int).QuoRem(toBig(a.Num), toBig(b.Num), new(big.Int))
		if r.Sign() == 0 {
			return BigInt(q), true
		}
		return Float(floatValue(a) / floatValue(b)), true
	}
	if b.Type == LInt && sign(b) == 0 {
		return nil, false
	}
	return Float(floatValue(a) / floatValue(b)), true
}

// numCmp compares two numbers.
func numCmp(a, b *LVal) int {
	if a.Type == LInt && b.Type == LInt {
		return a.Num.Cmp(b.Num)
	}
	x, y := floatValue(a), floatValue(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func numEqual(a, b *LVal) bool {
	if a.Type == LFloat && math.IsNaN(a.Float) || b.Type == LFloat && math.IsNaN(b.Float) {
		return false
	}
	return numCmp(a, b) == 0
}

func numNeg(a *LVal) *LVal {
	if a.Type == LInt {
		return Number(zero.Sub(a.Num))
	}
	return Float(-a.Float)
}

func numAbs(a *LVal) *LVal {
	if sign(a) < 0 {
		return numNeg(a)
	}
	return a
}

type intDivOp uint8

const (
	opQuotient intDivOp = iota
	opRemainder
	opModulo
)

// intDiv implements quotient, remainder and modulo.  Both operands must be
// integers.  The result is inexact if either operand is.
func intDiv(op intDivOp, a, b *LVal) (*LVal, bool) {
	if a.Type == LFloat || b.Type == LFloat {
		x, y := floatValue(a), floatValue(b)
		if y == 0 {
			return nil, false
		}
		switch op {
		case opQuotient:
			return Float(math.Trunc(x / y)), true
		case opRemainder:
			return Float(math.Mod(x, y)), true
		default:
			m := math.Mod(x, y)
			if m != 0 && (m < 0) != (y < 0) {
				m += y
			}
			return Float(m), true
		}
	}
	x, y := toBig(a.Num), toBig(b.Num)
	if y.Sign() == 0 {
		return nil, false
	}
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	switch op {
	case opQuotient:
		return BigInt(q), true
	case opRemainder:
		return BigInt(r), true
	default:
		if r.Sign() != 0 && r.Sign() != y.Sign() {
			r.Add(r, y)
		}
		return BigInt(r), true
	}
}

func numGcd(a, b *LVal) *LVal {
	if a.Type == LFloat || b.Type == LFloat {
		x, y := math.Abs(floatValue(a)), math.Abs(floatValue(b))
		for y != 0 {
			x, y = y, math.Mod(x, y)
		}
		return Float(x)
	}
	x, y := toBig(a.Num), toBig(b.Num)
	return BigInt(new(big.Int).GCD(nil, nil, x.Abs(x), y.Abs(y)))
}

func numSqrt(a *LVal) *LVal {
	if a.Type == LInt && sign(a) >= 0 {
		x := toBig(a.Num)
		r := new(big.Int).Sqrt(x)
		if new(big.Int).Mul(r, r).Cmp(x) == 0 {
			return BigInt(r)
		}
	}
	return Float(math.Sqrt(floatValue(a)))
}

func numExpt(a, b *LVal) *LVal {
	if a.Type == LInt && b.Type == LInt && sign(b) >= 0 {
		return BigInt(new(big.Int).Exp(toBig(a.Num), toBig(b.Num), nil))
	}
	return Float(math.Pow(floatValue(a), floatValue(b)))
}

// numRound applies fn to inexact numbers.  Exact integers are returned
// unchanged.
func numRound(a *LVal, fn func(float64) float64) *LVal {
	if a.Type == LInt {
		return a
	}
	return Float(fn(a.Float))
}

// roundEven rounds to the nearest integer, ties to even.
func roundEven(x float64) float64 {
	return math.RoundToEven(x)
}

func exactToInexact(a *LVal) *LVal {
	if a.Type == LFloat {
		return a
	}
	return Float(floatValue(a))
}

func inexactToExact(a *LVal) (*LVal, bool) {
	if a.Type == LInt {
		return a, true
	}
	if math.IsInf(a.Float, 0) || math.IsNaN(a.Float) || a.Float != math.Trunc(a.Float) {
		return nil, false
	}
	z, _ := new(big.Float).SetFloat64(a.Float).Int(nil)
	return BigInt(z), true
}

// formatFloat prints inexact numbers the way Racket does: integral values
// keep a trailing ".0" and infinities are +inf.0 and -inf.0.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf.0"
	case math.IsInf(f, -1):
		return "-inf.0"
	case math.IsNaN(f):
		return "+nan.0"
	}
	var s string
	if abs := math.Abs(f); abs == 0 || (abs >= 1e-7 && abs < 1e21) {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'g', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
