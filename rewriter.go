package bvtrail

import (
	"fmt"
	"log"
)

// DefaultMaxSteps is the default number of cancellations applied to a single
// equality before the rewriter gives up.
const DefaultMaxSteps = 16

// Rewriter applies trailing-zero cancellation to every equality in a formula.
type Rewriter struct {
	c *Canceller

	// Maximum number of cancellations applied to one equality.
	MaxSteps int

	// If set, every rewrite is proven equivalent to its input.
	Checker Checker
}

// NewRewriter returns a new instance of Rewriter using c.
func NewRewriter(c *Canceller) *Rewriter {
	return &Rewriter{
		c:        c,
		MaxSteps: DefaultMaxSteps,
	}
}

// Rewrite returns expr with every equality between bit-vectors simplified.
func (r *Rewriter) Rewrite(expr Expr) (Expr, error) {
	return WalkExpr(r.c.Graph(), r, expr)
}

// Visit rewrites a single equality until cancellation makes no more progress.
// Implements ExprVisitor.
func (r *Rewriter) Visit(expr Expr) (Expr, error) {
	for i := 0; ; i++ {
		eq, ok := expr.(*BinaryExpr)
		if !ok || eq.Op != EQ {
			return expr, nil
		} else if i >= r.MaxSteps {
			return nil, fmt.Errorf("%s: %w", expr, ErrRewriteLimit)
		}

		result := r.c.Cancel(eq.LHS, eq.RHS)
		log.Printf("[rewrite] %s: %s -> %s", result.Outcome, expr, result.Expr)

		if r.Checker != nil && result.Expr != expr {
			if ok, err := r.Checker.Equivalent(expr, result.Expr); err != nil {
				return nil, err
			} else if !ok {
				return nil, fmt.Errorf("%s -> %s: %w", expr, result.Expr, ErrRewriteUnsound)
			}
		}

		switch result.Status() {
		case RewriteAgain:
			expr = result.Expr
		default:
			return result.Expr, nil
		}
	}
}
