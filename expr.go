package bvtrail

import (
	"fmt"
	"math/big"
	"strings"
)

// Expr represents a node in an expression graph.
//
// Expressions are created by a Graph and are immutable once created. Two
// expressions built by the same graph from the same parts are the same node,
// so identity comparison is structural comparison.
type Expr interface {
	ID() uint64
	String() string
	base() *node
}

// node holds the bookkeeping shared by every expression kind.
type node struct {
	id   uint64
	hash uint64
	refs int
}

// ID returns the graph-unique identifier of the expression.
func (n *node) ID() uint64 { return n.id }

func (n *node) base() *node { return n }

// ExprWidth returns the bit width of the expression.
func ExprWidth(expr Expr) uint {
	switch expr := expr.(type) {
	case *NumeralExpr:
		return expr.Width
	case *VarExpr:
		return expr.Width
	case *AddExpr:
		return expr.Width
	case *MulExpr:
		return expr.Width
	case *ConcatExpr:
		return expr.Width
	case *ExtractExpr:
		return expr.Width
	case *BinaryExpr:
		if expr.Op.IsCompare() {
			return WidthBool
		}
		return ExprWidth(expr.LHS)
	default:
		panic(fmt.Sprintf("unreachable: %T", expr))
	}
}

// Children returns the operands of expr in order. Leaves have no children.
func Children(expr Expr) []Expr {
	switch expr := expr.(type) {
	case *AddExpr:
		return expr.Args
	case *MulExpr:
		return expr.Args
	case *ConcatExpr:
		return expr.Args
	case *ExtractExpr:
		return []Expr{expr.Expr}
	case *BinaryExpr:
		return []Expr{expr.LHS, expr.RHS}
	default:
		return nil
	}
}

// NumeralExpr represents a bit-vector constant.
type NumeralExpr struct {
	node
	Value *big.Int // always in [0, 2^Width)
	Width uint
}

// String returns the string representation of the expression.
func (e *NumeralExpr) String() string {
	return fmt.Sprintf("(const %s %d)", e.Value.String(), e.Width)
}

// IsOne returns true if the numeral has the value 1.
func (e *NumeralExpr) IsOne() bool {
	return e.Value.BitLen() == 1
}

// IsZero returns true if the numeral has the value 0.
func (e *NumeralExpr) IsZero() bool {
	return e.Value.Sign() == 0
}

// IsTrue returns true if this is a boolean true expression.
func (e *NumeralExpr) IsTrue() bool {
	return e.Width == WidthBool && !e.IsZero()
}

// IsFalse returns true if this is a boolean false expression.
func (e *NumeralExpr) IsFalse() bool {
	return e.Width == WidthBool && e.IsZero()
}

// VarExpr represents a free bit-vector symbol.
type VarExpr struct {
	node
	Name  string
	Width uint
}

// String returns the string representation of the expression.
func (e *VarExpr) String() string {
	return fmt.Sprintf("(var %s %d)", e.Name, e.Width)
}

// AddExpr represents the modular sum of its arguments.
// An empty sum denotes zero.
type AddExpr struct {
	node
	Args  []Expr
	Width uint
}

// String returns the string representation of the expression.
func (e *AddExpr) String() string {
	return formatApp("add", e.Args)
}

// MulExpr represents the modular product of its arguments.
// An empty product denotes one.
type MulExpr struct {
	node
	Args  []Expr
	Width uint
}

// String returns the string representation of the expression.
func (e *MulExpr) String() string {
	return formatApp("mul", e.Args)
}

// ConcatExpr represents the concatenation of its arguments.
// Args are ordered from the most significant to the least significant.
type ConcatExpr struct {
	node
	Args  []Expr
	Width uint
}

// String returns the string representation of the expression.
func (e *ConcatExpr) String() string {
	return formatApp("concat", e.Args)
}

// ExtractExpr represents the extraction of a set of bits at a given offset/width.
type ExtractExpr struct {
	node
	Expr   Expr
	Offset uint
	Width  uint
}

// String returns the string representation of the expression.
func (e *ExtractExpr) String() string {
	return fmt.Sprintf("(extract %s %d %d)", e.Expr, e.Offset, e.Width)
}

// BinaryOp represents a binary expression operation.
type BinaryOp int

// BinaryExpr operations.
//
// Addition and multiplication are n-ary and have their own expression types.
const (
	arithmetic_op_begin = BinaryOp(iota)
	SUB
	UDIV
	UREM
	AND
	OR
	XOR
	SHL
	LSHR
	arithmetic_op_end

	compare_op_begin
	EQ
	ULT
	ULE
	compare_op_end
)

var binaryOps = [...]string{
	SUB:  "sub",
	UDIV: "udiv",
	UREM: "urem",
	AND:  "and",
	OR:   "or",
	XOR:  "xor",
	SHL:  "shl",
	LSHR: "lshr",
	EQ:   "eq",
	ULT:  "ult",
	ULE:  "ule",
}

// String returns the string representation of the operation.
func (op BinaryOp) String() string {
	if op >= 0 && op < BinaryOp(len(binaryOps)) && binaryOps[op] != "" {
		return binaryOps[op]
	}
	return fmt.Sprintf("BinaryOp<%d>", op)
}

// IsArithmetic returns true if op is an arithmetic operator.
func (op BinaryOp) IsArithmetic() bool {
	return op > arithmetic_op_begin && op < arithmetic_op_end
}

// IsCompare returns true if op is a comparison operator.
func (op BinaryOp) IsCompare() bool {
	return op > compare_op_begin && op < compare_op_end
}

// lookupBinaryOp returns the operation with the given name.
func lookupBinaryOp(name string) (BinaryOp, bool) {
	for op, s := range binaryOps {
		if s != "" && s == name {
			return BinaryOp(op), true
		}
	}
	return 0, false
}

// BinaryExpr represents an operation on two expressions.
// Its structure is opaque to the trailing-zero analysis.
type BinaryExpr struct {
	node
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

// String returns the string representation of the expression.
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Op, e.LHS, e.RHS)
}

func formatApp(name string, args []Expr) string {
	var buf strings.Builder
	buf.WriteByte('(')
	buf.WriteString(name)
	for _, arg := range args {
		buf.WriteByte(' ')
		buf.WriteString(arg.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// IsNumeralExpr returns true if expr is an instance of NumeralExpr.
func IsNumeralExpr(expr Expr) bool {
	_, ok := expr.(*NumeralExpr)
	return ok
}

// IsConstantTrue returns true if expr is a boolean true numeral.
func IsConstantTrue(expr Expr) bool {
	tmp, ok := expr.(*NumeralExpr)
	return ok && tmp.IsTrue()
}

// IsConstantFalse returns true if expr is a boolean false numeral.
func IsConstantFalse(expr Expr) bool {
	tmp, ok := expr.(*NumeralExpr)
	return ok && tmp.IsFalse()
}

// ExprVisitor represents a visitor that can be passed to WalkExpr().
type ExprVisitor interface {
	// Executed after the children of expr have been visited and rebuilt.
	// Return a different expression to replace it.
	Visit(expr Expr) (Expr, error)
}

// WalkExpr rebuilds expr bottom-up, letting v replace every node after its
// children have been replaced. Shared subexpressions are visited once.
func WalkExpr(g *Graph, v ExprVisitor, expr Expr) (Expr, error) {
	return walkExpr(g, v, expr, make(map[uint64]Expr))
}

func walkExpr(g *Graph, v ExprVisitor, expr Expr, seen map[uint64]Expr) (Expr, error) {
	if other, ok := seen[expr.ID()]; ok {
		return other, nil
	}

	children := Children(expr)
	var args []Expr
	for i, child := range children {
		other, err := walkExpr(g, v, child, seen)
		if err != nil {
			return nil, err
		}
		if other != child && args == nil {
			args = make([]Expr, len(children))
			copy(args, children[:i])
		}
		if args != nil {
			args[i] = other
		}
	}

	rebuilt := expr
	if args != nil {
		rebuilt = g.rebuild(expr, args)
	}
	other, err := v.Visit(rebuilt)
	if err != nil {
		return nil, err
	}
	seen[expr.ID()] = other
	return other, nil
}
