package bvtrail_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/benbjohnson/bvtrail"
	"github.com/google/go-cmp/cmp"
)

func TestRewriter_Rewrite(t *testing.T) {
	t.Run("Equality", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		expr := MustParseExpr(t, g, "(eq (mul (const 4 4) (var x 4)) (mul (const 12 4) (var x 4)))")
		if other, err := bvtrail.NewRewriter(c).Rewrite(expr); err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff("(eq (extract (var x 4) 0 2) (mul (const 3 2) (extract (var x 4) 0 2)))", other.String()); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Nested", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		expr := MustParseExpr(t, g, `(and
			(eq (mul (const 4 4) (var x 4)) (mul (const 12 4) (var x 4)))
			(eq (mul (const 2 4) (var y 4)) (const 1 4))
		)`)
		if other, err := bvtrail.NewRewriter(c).Rewrite(expr); err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff("(and (eq (extract (var x 4) 0 2) (mul (const 3 2) (extract (var x 4) 0 2))) (const 0 1))", other.String()); diff != "" {
			t.Fatal(diff)
		}
	})

	// The first cancellation exposes bits the depth budget hid.
	t.Run("MultiStep", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		expr := MustParseExpr(t, g, `(eq
			(concat (mul (mul (mul (const 4 4) (var y 4)) (var z 4)) (var w 4)) (const 0 4))
			(const 0 8)
		)`)
		r := bvtrail.NewRewriter(c)
		r.Checker = &evalChecker{t: t, names: []string{"y", "z", "w"}}
		if other, err := r.Rewrite(expr); err != nil {
			t.Fatal(err)
		} else if diff := cmp.Diff(
			"(eq (mul (mul (extract (var y 4) 0 2) (extract (var z 4) 0 2)) (extract (var w 4) 0 2)) (const 0 2))",
			other.String(),
		); diff != "" {
			t.Fatal(diff)
		} else if n := r.Checker.(*evalChecker).n; n != 2 {
			t.Fatalf("unexpected check count: %d", n)
		}
	})

	t.Run("NoEquality", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		expr := MustParseExpr(t, g, "(ult (mul (const 4 4) (var x 4)) (var y 4))")
		if other, err := bvtrail.NewRewriter(c).Rewrite(expr); err != nil {
			t.Fatal(err)
		} else if other != expr {
			t.Fatalf("unexpected expr: %s", other)
		}
	})

	t.Run("ErrRewriteLimit", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		expr := MustParseExpr(t, g, "(eq (concat (mul (mul (mul (const 4 4) (var y 4)) (var z 4)) (var w 4)) (const 0 4)) (const 0 8))")
		r := bvtrail.NewRewriter(c)
		r.MaxSteps = 1
		if _, err := r.Rewrite(expr); !errors.Is(err, bvtrail.ErrRewriteLimit) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrRewriteUnsound", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		expr := MustParseExpr(t, g, "(eq (mul (const 4 4) (var x 4)) (const 8 4))")
		r := bvtrail.NewRewriter(c)
		r.Checker = checkerFunc(func(a, b bvtrail.Expr) (bool, error) { return false, nil })
		if _, err := r.Rewrite(expr); !errors.Is(err, bvtrail.ErrRewriteUnsound) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrChecker", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		errMarker := errors.New("marker")
		expr := MustParseExpr(t, g, "(eq (mul (const 4 4) (var x 4)) (const 8 4))")
		r := bvtrail.NewRewriter(c)
		r.Checker = checkerFunc(func(a, b bvtrail.Expr) (bool, error) { return false, errMarker })
		if _, err := r.Rewrite(expr); err != errMarker {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// evalChecker proves equivalence by evaluating both formulas under every
// assignment of 4-bit variables.
type evalChecker struct {
	t     testing.TB
	names []string
	n     int
}

func (c *evalChecker) Equivalent(a, b bvtrail.Expr) (bool, error) {
	c.n++
	values := make(map[string]*big.Int)
	var check func(i int) bool
	check = func(i int) bool {
		if i == len(c.names) {
			return MustEvaluate(c.t, a, values).Cmp(MustEvaluate(c.t, b, values)) == 0
		}
		for v := int64(0); v < 16; v++ {
			values[c.names[i]] = big.NewInt(v)
			if !check(i + 1) {
				return false
			}
		}
		return true
	}
	return check(0), nil
}

type checkerFunc func(a, b bvtrail.Expr) (bool, error)

func (fn checkerFunc) Equivalent(a, b bvtrail.Expr) (bool, error) { return fn(a, b) }
