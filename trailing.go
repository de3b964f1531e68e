package bvtrail

import (
	"fmt"
	"math/big"
)

// Range bounds the number of trailing zero bits of an expression.
//
// Every value the expression can take has a trailing-zero count t with
// Min <= t <= Max. A value of zero counts as having width trailing zeros.
type Range struct {
	Min uint
	Max uint
}

// String returns the string representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// Disjoint returns true if no count lies in both r and other.
func (r Range) Disjoint(other Range) bool {
	return r.Min > other.Max || other.Min > r.Max
}

// unknownRange returns the range carrying no information for expr.
func unknownRange(expr Expr) Range {
	return Range{Min: 0, Max: ExprWidth(expr)}
}

// Analyze returns the trailing-zero range of expr, descending at most depth
// levels into its structure. Results are memoized until Reset.
func (c *Canceller) Analyze(expr Expr, depth uint) Range {
	c.mustOpen()
	assert(depth <= MaxDepth, "analyze: depth exceeds %d: %d", MaxDepth, depth)
	return c.analyze(expr, depth)
}

func (c *Canceller) analyze(expr Expr, depth uint) Range {
	if depth == 0 {
		return unknownRange(expr)
	}
	if r, ok := c.cache.get(depth, expr); ok {
		return r
	}

	r := c.analyzeCore(expr, depth)
	assert(r.Min <= r.Max, "analyze: min > max: %s %s", r, expr)
	assert(r.Max <= ExprWidth(expr), "analyze: max > width: %s %s", r, expr)

	c.cache.put(depth, expr, r)
	return r
}

func (c *Canceller) analyzeCore(expr Expr, depth uint) Range {
	switch expr := expr.(type) {
	case *NumeralExpr:
		n := countTrailing(expr.Value, expr.Width)
		return Range{Min: n, Max: n}
	case *AddExpr:
		return c.analyzeAdd(expr, depth)
	case *MulExpr:
		return c.analyzeMul(expr, depth)
	case *ConcatExpr:
		return c.analyzeConcat(expr, depth)
	default:
		return unknownRange(expr)
	}
}

// analyzeAdd bounds a sum by its weakest addend. The sum is known to be odd
// when every addend is known odd or known even and an odd number are odd.
func (c *Canceller) analyzeAdd(expr *AddExpr, depth uint) Range {
	if depth <= 1 {
		return unknownRange(expr)
	}

	min := expr.Width // empty sum is zero
	knownParity, odd := true, false
	for _, arg := range expr.Args {
		r := c.analyze(arg, depth-1)
		if r.Min < min {
			min = r.Min
		}

		knownParity = knownParity && (r.Max == 0 || r.Min > 0)
		if knownParity && r.Max == 0 {
			odd = !odd
		}
		if !knownParity && min == 0 {
			break // no more information can be gained
		}
	}

	if knownParity && odd {
		return Range{Min: min, Max: 0}
	}
	return Range{Min: min, Max: expr.Width}
}

// analyzeMul only inspects the first factor, where normalization places
// any numeral coefficient.
func (c *Canceller) analyzeMul(expr *MulExpr, depth uint) Range {
	if depth <= 1 {
		return unknownRange(expr)
	} else if len(expr.Args) == 0 {
		return Range{} // empty product is one
	}

	r := c.analyze(expr.Args[0], depth-1)
	if len(expr.Args) > 1 {
		r.Max = expr.Width
	}
	return r
}

// analyzeConcat accumulates from the least significant argument while the
// arguments below are entirely zero.
func (c *Canceller) analyzeConcat(expr *ConcatExpr, depth uint) Range {
	if depth <= 1 {
		return unknownRange(expr)
	}

	var r Range
	updateMin, updateMax := true, true
	for i := len(expr.Args) - 1; i >= 0 && updateMax; i-- {
		arg := expr.Args[i]
		sz := ExprWidth(arg)
		tmp := c.analyze(arg, depth-1)
		assert(tmp.Min != sz || tmp.Max == sz, "analyze: concat arg range %s inconsistent with width %d", tmp, sz)

		r.Max += tmp.Max
		if updateMin {
			r.Min += tmp.Min
		}
		updateMin = updateMin && tmp.Min == sz
		updateMax = updateMax && tmp.Max == sz
	}
	return r
}

// countTrailing returns the number of trailing zero bits of v, at most max.
func countTrailing(v *big.Int, max uint) uint {
	if v.Sign() == 0 {
		return max
	}
	if n := v.TrailingZeroBits(); n < max {
		return n
	}
	return max
}

// removeTrailing divides v by two while it is even, at most max times.
// Returns the quotient and the number of divisions performed.
func removeTrailing(v *big.Int, max uint) (*big.Int, uint) {
	n := countTrailing(v, max)
	return new(big.Int).Rsh(v, n), n
}
