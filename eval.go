package bvtrail

import (
	"fmt"
	"math/big"
)

// ExprEvaluator evaluates expressions using known variable values.
type ExprEvaluator struct {
	m map[string]*big.Int // mapping of variable name to value
}

// NewExprEvaluator returns a new instance of ExprEvaluator with the given variable values.
func NewExprEvaluator(values map[string]*big.Int) *ExprEvaluator {
	m := make(map[string]*big.Int, len(values))
	for name, v := range values {
		m[name] = v
	}
	return &ExprEvaluator{m: m}
}

// Evaluate evaluates expr to its unsigned value.
// Returns an error if an unbound variable is encountered.
func (ee *ExprEvaluator) Evaluate(expr Expr) (*big.Int, error) {
	switch expr := expr.(type) {
	case *NumeralExpr:
		return new(big.Int).Set(expr.Value), nil

	case *VarExpr:
		v, ok := ee.m[expr.Name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", expr.Name, ErrUnboundVariable)
		}
		return truncate(new(big.Int).Set(v), expr.Width), nil

	case *AddExpr:
		sum := new(big.Int)
		for _, arg := range expr.Args {
			v, err := ee.Evaluate(arg)
			if err != nil {
				return nil, err
			}
			sum.Add(sum, v)
		}
		return truncate(sum, expr.Width), nil

	case *MulExpr:
		product := big.NewInt(1)
		for _, arg := range expr.Args {
			v, err := ee.Evaluate(arg)
			if err != nil {
				return nil, err
			}
			product.Mul(product, v)
		}
		return truncate(product, expr.Width), nil

	case *ConcatExpr:
		result := new(big.Int)
		for _, arg := range expr.Args {
			v, err := ee.Evaluate(arg)
			if err != nil {
				return nil, err
			}
			result.Lsh(result, ExprWidth(arg))
			result.Or(result, v)
		}
		return result, nil

	case *ExtractExpr:
		v, err := ee.Evaluate(expr.Expr)
		if err != nil {
			return nil, err
		}
		return truncate(v.Rsh(v, expr.Offset), expr.Width), nil

	case *BinaryExpr:
		lhs, err := ee.Evaluate(expr.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := ee.Evaluate(expr.RHS)
		if err != nil {
			return nil, err
		}
		return evalBinary(expr.Op, lhs, rhs, ExprWidth(expr.LHS)), nil

	default:
		return nil, fmt.Errorf("invalid expression type: %T", expr)
	}
}

// evalBinary applies op to operands of the given width.
// Division by zero follows SMT-LIB: udiv yields all ones and urem yields lhs.
func evalBinary(op BinaryOp, lhs, rhs *big.Int, width uint) *big.Int {
	v := new(big.Int)
	switch op {
	case SUB:
		v.Sub(lhs, rhs)
	case UDIV:
		if rhs.Sign() == 0 {
			return v.Sub(pow2(width), big.NewInt(1))
		}
		v.Quo(lhs, rhs)
	case UREM:
		if rhs.Sign() == 0 {
			return v.Set(lhs)
		}
		v.Rem(lhs, rhs)
	case AND:
		v.And(lhs, rhs)
	case OR:
		v.Or(lhs, rhs)
	case XOR:
		v.Xor(lhs, rhs)
	case SHL:
		if !rhs.IsUint64() || rhs.Uint64() >= uint64(width) {
			return v
		}
		v.Lsh(lhs, uint(rhs.Uint64()))
	case LSHR:
		if !rhs.IsUint64() || rhs.Uint64() >= uint64(width) {
			return v
		}
		v.Rsh(lhs, uint(rhs.Uint64()))
	case EQ:
		return boolInt(lhs.Cmp(rhs) == 0)
	case ULT:
		return boolInt(lhs.Cmp(rhs) < 0)
	case ULE:
		return boolInt(lhs.Cmp(rhs) <= 0)
	default:
		panic(fmt.Sprintf("unreachable: %s", op))
	}
	return truncate(v, width)
}

// truncate reduces v modulo 2^width in place.
func truncate(v *big.Int, width uint) *big.Int {
	return v.Mod(v, pow2(width))
}

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}
