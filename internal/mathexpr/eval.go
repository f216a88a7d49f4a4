// Package mathexpr evaluates plain arithmetic without executing anything else.
//
// Input is parsed into a tree first; the whole tree is rejected if any node
// is not a number, a parenthesis, unary +/- or one of + - * / % **.
package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

var (
	// ErrNotEvaluable reports input outside the arithmetic grammar.
	ErrNotEvaluable = errors.New("expression not evaluable")
	// ErrDivisionByZero reports a zero divisor for /, % or a negative power of zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNonFinite reports an infinite or NaN result.
	ErrNonFinite = errors.New("result is not a finite number")
)

// Value is an integer or a float.
type Value struct {
	i       int64
	f       float64
	isFloat bool
}

// Int returns an integer Value.
func Int(n int64) Value { return Value{i: n} }

// Float returns a float Value.
func Float(f float64) Value { return Value{f: f, isFloat: true} }

// IsFloat reports whether v holds a float.
func (v Value) IsFloat() bool { return v.isFloat }

// Float64 returns v as a float64.
func (v Value) Float64() float64 {
	if v.isFloat {
		return v.f
	}
	return float64(v.i)
}

// Int64 returns the integer value and whether v is an integer.
func (v Value) Int64() (int64, bool) { return v.i, !v.isFloat }

// String formats integers plainly and floats with at least one decimal place.
func (v Value) String() string {
	if !v.isFloat {
		return strconv.FormatInt(v.i, 10)
	}
	s := strconv.FormatFloat(v.f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Eval parses and evaluates src.
func Eval(src string) (Value, error) {
	tree, err := Parse(src)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrNotEvaluable, err)
	}
	if bad := allowed(tree); bad != nil {
		return Value{}, fmt.Errorf("%w: disallowed %T", ErrNotEvaluable, bad)
	}
	v, err := eval(tree)
	if err != nil {
		return Value{}, err
	}
	if v.isFloat && (math.IsInf(v.f, 0) || math.IsNaN(v.f)) {
		return Value{}, ErrNonFinite
	}
	return v, nil
}

func eval(n Node) (Value, error) {
	switch n := n.(type) {
	case *NumberLit:
		return n.Value, nil
	case *ParenExpr:
		return eval(n.X)
	case *UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return Value{}, err
		}
		if n.Op == "+" {
			return x, nil
		}
		return negate(x), nil
	case *BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return Value{}, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return Value{}, err
		}
		return binary(n.Op, x, y)
	}
	return Value{}, fmt.Errorf("%w: disallowed %T", ErrNotEvaluable, n)
}

func negate(x Value) Value {
	if x.isFloat {
		return Float(-x.f)
	}
	if x.i == math.MinInt64 {
		return Float(-float64(x.i))
	}
	return Int(-x.i)
}

func binary(op string, x, y Value) (Value, error) {
	switch op {
	case "+":
		if !x.isFloat && !y.isFloat {
			if s := x.i + y.i; (s > x.i) == (y.i > 0) {
				return Int(s), nil
			}
		}
		return Float(x.Float64() + y.Float64()), nil
	case "-":
		if !x.isFloat && !y.isFloat {
			if d := x.i - y.i; (d < x.i) == (y.i > 0) {
				return Int(d), nil
			}
		}
		return Float(x.Float64() - y.Float64()), nil
	case "*":
		if !x.isFloat && !y.isFloat {
			if p, ok := mulInt(x.i, y.i); ok {
				return Int(p), nil
			}
		}
		return Float(x.Float64() * y.Float64()), nil
	case "/":
		if y.Float64() == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Float(x.Float64() / y.Float64()), nil
	case "%":
		return modulo(x, y)
	case "**":
		return power(x, y)
	}
	return Value{}, fmt.Errorf("%w: operator %q", ErrNotEvaluable, op)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	ua, ub := absU(a), absU(b)
	hi, lo := bits.Mul64(ua, ub)
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		return int64(-lo), true //nolint:gosec // bounded above
	}
	if lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func absU(a int64) uint64 {
	if a < 0 {
		return uint64(-(a + 1)) + 1
	}
	return uint64(a)
}

// modulo follows floor semantics: the result takes the sign of the divisor.
func modulo(x, y Value) (Value, error) {
	if y.Float64() == 0 {
		return Value{}, ErrDivisionByZero
	}
	if !x.isFloat && !y.isFloat {
		if y.i == -1 {
			return Int(0), nil
		}
		r := x.i % y.i
		if r != 0 && (r < 0) != (y.i < 0) {
			r += y.i
		}
		return Int(r), nil
	}
	a, b := x.Float64(), y.Float64()
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return Float(r), nil
}

func power(x, y Value) (Value, error) {
	if !x.isFloat && !y.isFloat && y.i >= 0 {
		if r, ok := powInt(x.i, y.i); ok {
			return Int(r), nil
		}
		return Float(math.Pow(float64(x.i), float64(y.i))), nil
	}
	base, exp := x.Float64(), y.Float64()
	if base == 0 && exp < 0 {
		return Value{}, ErrDivisionByZero
	}
	r := math.Pow(base, exp)
	if math.IsNaN(r) {
		return Value{}, ErrNonFinite
	}
	return Float(r), nil
}

func powInt(base, exp int64) (int64, bool) {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			var ok bool
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp > 0 {
			var ok bool
			if base, ok = mulInt(base, base); !ok {
				return 0, false
			}
		}
	}
	return result, true
}
