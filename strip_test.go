package bvtrail_test

import (
	"math/big"
	"testing"

	"github.com/benbjohnson/bvtrail"
	"github.com/google/go-cmp/cmp"
)

func TestCanceller_Strip(t *testing.T) {
	t.Run("Numeral", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		if expr, n := c.Strip(g.Numeral(12, 8), 1, 1); n != 1 || expr != bvtrail.Expr(g.Numeral(6, 7)) {
			t.Fatalf("unexpected result: %s, %d", expr, n)
		} else if expr, n := c.Strip(g.Numeral(12, 8), 5, 1); n != 2 || expr != bvtrail.Expr(g.Numeral(3, 6)) {
			t.Fatalf("unexpected result: %s, %d", expr, n)
		} else if expr, n := c.Strip(g.Numeral(0, 8), 8, 1); n != 8 || expr != nil {
			t.Fatalf("unexpected result: %v, %d", expr, n)
		} else if expr, n := c.Strip(g.Numeral(0, 8), 3, 1); n != 3 || expr != bvtrail.Expr(g.Numeral(0, 5)) {
			t.Fatalf("unexpected result: %s, %d", expr, n)
		}
	})

	t.Run("Unchanged", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		x := g.Var("x", 8)
		for _, tt := range []struct {
			name  string
			expr  bvtrail.Expr
			n     uint
			depth uint
		}{
			{"ZeroBits", g.Numeral(8, 8), 0, 4},
			{"ZeroDepth", g.Numeral(8, 8), 3, 0},
			{"Opaque", x, 3, 4},
			{"OddNumeral", g.Numeral(7, 8), 3, 4},
			{"ShallowAdd", g.Add(8, g.Numeral(4, 8), g.Numeral(8, 8)), 2, 1},
			{"ShallowMul", g.Mul(8, g.Numeral(4, 8), x), 2, 1},
			{"ShallowConcat", g.Concat(x, g.Numeral(0, 8)), 2, 1},
			{"EmptyMul", g.Mul(8), 2, 4},
			{"OddCoefficient", g.Mul(8, g.Numeral(3, 8), x), 2, 4},
			{"OddSum", g.Add(8, g.Numeral(1, 8), g.Numeral(4, 8)), 2, 4},
		} {
			t.Run(tt.name, func(t *testing.T) {
				if expr, n := c.Strip(tt.expr, tt.n, tt.depth); n != 0 || expr != tt.expr {
					t.Fatalf("unexpected result: %v, %d", expr, n)
				}
			})
		}
	})

	t.Run("Add", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		x := g.Var("x", 8)
		expr, n := c.Strip(g.Add(8, g.Mul(8, g.Numeral(8, 8), x), g.Numeral(4, 8)), 3, 3)
		if n != 2 {
			t.Fatalf("unexpected removed: %d", n)
		} else if diff := cmp.Diff("(add (mul (const 2 6) (extract (var x 8) 0 6)) (const 1 6))", expr.String()); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("EmptyAdd", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		if expr, n := c.Strip(g.Add(8), 3, 2); n != 3 || expr != bvtrail.Expr(g.Add(5)) {
			t.Fatalf("unexpected result: %v, %d", expr, n)
		} else if expr, n := c.Strip(g.Add(8), 8, 2); n != 8 || expr != nil {
			t.Fatalf("unexpected result: %v, %d", expr, n)
		}
	})

	t.Run("Mul", func(t *testing.T) {
		t.Run("UnitCoefficient", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			x := g.Var("x", 4)
			if expr, n := c.Strip(g.Mul(4, g.Numeral(4, 4), x), 2, 2); n != 2 {
				t.Fatalf("unexpected removed: %d", n)
			} else if diff := cmp.Diff("(extract (var x 4) 0 2)", expr.String()); diff != "" {
				t.Fatal(diff)
			}
		})
		t.Run("Coefficient", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			x, y := g.Var("x", 8), g.Var("y", 8)
			if expr, n := c.Strip(g.Mul(8, g.Numeral(12, 8), x, y), 8, 2); n != 2 {
				t.Fatalf("unexpected removed: %d", n)
			} else if diff := cmp.Diff("(mul (const 3 6) (extract (var x 8) 0 6) (extract (var y 8) 0 6))", expr.String()); diff != "" {
				t.Fatal(diff)
			}
		})
		t.Run("OnlyCoefficient", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			if expr, n := c.Strip(g.Mul(8, g.Numeral(16, 8)), 4, 2); n != 4 || expr != bvtrail.Expr(g.Numeral(1, 4)) {
				t.Fatalf("unexpected result: %v, %d", expr, n)
			}
		})
		t.Run("ZeroCoefficient", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			if expr, n := c.Strip(g.Mul(8, g.Numeral(0, 8), g.Var("x", 8)), 8, 2); n != 8 || expr != nil {
				t.Fatalf("unexpected result: %v, %d", expr, n)
			}
		})
	})

	t.Run("Concat", func(t *testing.T) {
		t.Run("ConsumeLow", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			expr, n := c.Strip(g.Concat(g.Numeral(1, 4), g.Numeral(0, 4)), 4, 2)
			if n != 4 || expr != bvtrail.Expr(g.Numeral(1, 4)) {
				t.Fatalf("unexpected result: %v, %d", expr, n)
			}
		})
		t.Run("PartialLow", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			x := g.Var("x", 4)
			expr, n := c.Strip(g.Concat(x, g.Numeral(0, 4)), 3, 2)
			if n != 3 {
				t.Fatalf("unexpected removed: %d", n)
			} else if diff := cmp.Diff("(concat (var x 4) (const 0 1))", expr.String()); diff != "" {
				t.Fatal(diff)
			}
		})
		t.Run("AcrossChildren", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			x := g.Var("x", 4)
			expr, n := c.Strip(g.Concat(x, g.Numeral(4, 4), g.Numeral(0, 2)), 8, 2)
			if n != 4 {
				t.Fatalf("unexpected removed: %d", n)
			} else if diff := cmp.Diff("(concat (var x 4) (const 1 2))", expr.String()); diff != "" {
				t.Fatal(diff)
			}
		})
		t.Run("NeverOverStrip", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			// Requesting three bits must not take three more from the
			// second child after the first yields two.
			expr, n := c.Strip(g.Concat(g.Numeral(0, 4), g.Numeral(0, 2)), 3, 2)
			if n != 3 || expr != bvtrail.Expr(g.Numeral(0, 3)) {
				t.Fatalf("unexpected result: %v, %d", expr, n)
			}
		})
		t.Run("AllZero", func(t *testing.T) {
			g := bvtrail.NewGraph()
			c := bvtrail.NewCanceller(g)
			defer MustCloseCanceller(c)

			if expr, n := c.Strip(g.Concat(g.Numeral(0, 4), g.Numeral(0, 2)), 6, 2); n != 6 || expr != nil {
				t.Fatalf("unexpected result: %v, %d", expr, n)
			}
		})
	})

	t.Run("ErrDepth", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)
		MustPanic(t, func() { c.Strip(g.Numeral(8, 8), 1, bvtrail.MaxDepth+1) })
	})

	// Stripping preserves the value: e == e' << removed, or e == 0 when
	// consumed entirely.
	t.Run("PreservesValue", func(t *testing.T) {
		g := bvtrail.NewGraph()
		c := bvtrail.NewCanceller(g)
		defer MustCloseCanceller(c)

		assignments := Assignments()
		for _, expr := range Corpus(g) {
			for depth := uint(0); depth <= bvtrail.MaxDepth; depth++ {
				for n := uint(0); n <= 4; n++ {
					out, removed := c.Strip(expr, n, depth)
					if removed > n {
						t.Fatalf("%s: removed %d of %d", expr, removed, n)
					} else if removed == 0 {
						if out != expr {
							t.Fatalf("%s: rebuilt without removing bits: %v", expr, out)
						}
						continue
					}

					for _, values := range assignments {
						want := MustEvaluate(t, expr, values)
						got := new(big.Int)
						if out != nil {
							got.Lsh(MustEvaluate(t, out, values), removed)
						}
						if want.Cmp(got) != 0 {
							t.Fatalf("%s -> %v (n=%d depth=%d): %s != %s values=%s", expr, out, n, depth, got, want, Dump(values))
						}
					}
				}
			}
		}
	})
}
