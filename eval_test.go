package bvtrail_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/benbjohnson/bvtrail"
)

func TestExprEvaluator_Evaluate(t *testing.T) {
	g := bvtrail.NewGraph()
	x, y := g.Var("x", 8), g.Var("y", 8)
	ee := bvtrail.NewExprEvaluator(map[string]*big.Int{
		"x": big.NewInt(200),
		"y": big.NewInt(3),
	})

	for _, tt := range []struct {
		name  string
		expr  bvtrail.Expr
		value int64
	}{
		{"Numeral", g.Numeral(42, 8), 42},
		{"Var", x, 200},
		{"Add/Wrap", g.Add(8, x, x), 144},
		{"Add/Empty", g.Add(8), 0},
		{"Mul/Wrap", g.Mul(8, x, y), 88},
		{"Mul/Empty", g.Mul(8), 1},
		{"Concat", g.Concat(y, g.Numeral(1, 4)), 0x31},
		{"Extract", g.Extract(x, 3, 4), 9},
		{"Sub/Wrap", g.Binary(bvtrail.SUB, y, x), 59},
		{"UDiv", g.Binary(bvtrail.UDIV, x, y), 66},
		{"UDiv/Zero", g.Binary(bvtrail.UDIV, x, g.Numeral(0, 8)), 255},
		{"URem", g.Binary(bvtrail.UREM, x, y), 2},
		{"URem/Zero", g.Binary(bvtrail.UREM, x, g.Numeral(0, 8)), 200},
		{"And", g.Binary(bvtrail.AND, x, y), 0},
		{"Or", g.Binary(bvtrail.OR, x, y), 203},
		{"Xor", g.Binary(bvtrail.XOR, x, g.Numeral(0xFF, 8)), 55},
		{"Shl", g.Binary(bvtrail.SHL, y, g.Numeral(7, 8)), 128},
		{"Shl/Overflow", g.Binary(bvtrail.SHL, y, g.Numeral(8, 8)), 0},
		{"Lshr", g.Binary(bvtrail.LSHR, x, y), 25},
		{"Eq", g.Eq(x, y), 0},
		{"Ult", g.Binary(bvtrail.ULT, y, x), 1},
		{"Ule", g.Binary(bvtrail.ULE, x, y), 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if v, err := ee.Evaluate(tt.expr); err != nil {
				t.Fatal(err)
			} else if v.Int64() != tt.value {
				t.Fatalf("unexpected value: %s", v)
			}
		})
	}

	t.Run("ErrUnboundVariable", func(t *testing.T) {
		if _, err := ee.Evaluate(g.Add(8, x, g.Var("z", 8))); !errors.Is(err, bvtrail.ErrUnboundVariable) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("TruncateBinding", func(t *testing.T) {
		ee := bvtrail.NewExprEvaluator(map[string]*big.Int{"z": big.NewInt(0x1F)})
		if v, err := ee.Evaluate(g.Var("z", 4)); err != nil {
			t.Fatal(err)
		} else if v.Int64() != 0xF {
			t.Fatalf("unexpected value: %s", v)
		}
	})
}
