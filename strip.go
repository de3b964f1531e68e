package bvtrail

import (
	"log"
)

// Strip removes up to n trailing zero bits from expr, descending at most
// depth levels. It returns the reduced expression and the number of bits
// removed. The result is nil when every bit of expr was removed.
//
// Callers should only request bits that Analyze certified at the same or a
// greater depth; Strip never removes bits it cannot prove are zero.
func (c *Canceller) Strip(expr Expr, n, depth uint) (Expr, uint) {
	c.mustOpen()
	assert(depth <= MaxDepth, "strip: depth exceeds %d: %d", MaxDepth, depth)
	return c.strip(expr, n, depth)
}

func (c *Canceller) strip(expr Expr, n, depth uint) (Expr, uint) {
	result, removed := c.stripCore(expr, n, depth)
	assert(removed <= n, "strip: removed %d of %d requested bits", removed, n)
	if result == nil {
		assert(removed == ExprWidth(expr), "strip: consumed %d of %d bits", removed, ExprWidth(expr))
		log.Printf("[strip] %s -> [empty]", expr)
	} else if removed > 0 {
		assert(ExprWidth(result) == ExprWidth(expr)-removed, "strip: width mismatch: %d != %d-%d", ExprWidth(result), ExprWidth(expr), removed)
		log.Printf("[strip] %s -> %s", expr, result)
	}
	return result, removed
}

func (c *Canceller) stripCore(expr Expr, n, depth uint) (Expr, uint) {
	if depth == 0 || n == 0 {
		return expr, 0
	}

	switch expr := expr.(type) {
	case *NumeralExpr:
		return c.stripNumeral(expr, n)
	case *AddExpr:
		return c.stripAdd(expr, n, depth)
	case *MulExpr:
		return c.stripMul(expr, n, depth)
	case *ConcatExpr:
		return c.stripConcat(expr, n, depth)
	default:
		return expr, 0
	}
}

func (c *Canceller) stripNumeral(expr *NumeralExpr, n uint) (Expr, uint) {
	max := n
	if max > expr.Width {
		max = expr.Width
	}
	v, removed := removeTrailing(expr.Value, max)

	switch {
	case removed == expr.Width:
		return nil, removed
	case removed == 0:
		return expr, 0
	default:
		return c.g.NumeralBig(v, expr.Width-removed), removed
	}
}

// stripAdd removes the same number of bits from every addend.
func (c *Canceller) stripAdd(expr *AddExpr, n, depth uint) (Expr, uint) {
	if depth <= 1 {
		return expr, 0
	}

	toRemove := c.analyze(expr, depth).Min
	if toRemove > n {
		toRemove = n
	}
	if toRemove == 0 {
		return expr, 0
	} else if toRemove == expr.Width {
		return nil, toRemove
	}

	args := make([]Expr, len(expr.Args))
	for i, arg := range expr.Args {
		other, removed := c.strip(arg, toRemove, depth-1)
		assert(removed == toRemove, "strip: add arg %d removed %d of %d certified bits: %s", i, removed, toRemove, arg)
		args[i] = other
	}
	return c.g.Add(expr.Width-toRemove, args...), toRemove
}

// stripMul divides the first factor and truncates the others, which is
// exact modulo the reduced width.
func (c *Canceller) stripMul(expr *MulExpr, n, depth uint) (Expr, uint) {
	if depth <= 1 || len(expr.Args) == 0 {
		return expr, 0
	}

	coefficient, removed := c.strip(expr.Args[0], n, depth-1)
	if removed == 0 {
		return expr, 0
	}
	width := expr.Width - removed
	if width == 0 {
		return nil, removed
	}

	args := make([]Expr, 0, len(expr.Args))
	if num, ok := coefficient.(*NumeralExpr); !ok || !num.IsOne() {
		args = append(args, coefficient)
	}
	for _, arg := range expr.Args[1:] {
		args = append(args, c.g.Low(arg, width))
	}

	switch len(args) {
	case 0:
		return c.g.Numeral(1, width), removed
	case 1:
		return args[0], removed
	default:
		return c.g.Mul(width, args...), removed
	}
}

// stripConcat consumes arguments from the least significant end until the
// requested bits are removed or an argument is only partially consumed.
func (c *Canceller) stripConcat(expr *ConcatExpr, n, depth uint) (Expr, uint) {
	if depth <= 1 {
		return expr, 0
	}

	var removed uint
	var last Expr
	i := len(expr.Args)
	for i > 0 && removed < n {
		i--
		arg := expr.Args[i]
		other, rm := c.strip(arg, n-removed, depth-1)
		removed += rm
		last = other
		if rm < ExprWidth(arg) {
			break
		}
	}

	if removed == 0 {
		return expr, 0
	} else if removed == expr.Width {
		return nil, removed
	}

	args := copyArgs(expr.Args[:i])
	if last != nil {
		args = append(args, last)
	}
	if len(args) == 1 {
		return args[0], removed
	}
	return c.g.Concat(args...), removed
}
