package bvtrail

import (
	"encoding/binary"
	"math/big"

	"github.com/cespare/xxhash/v2"
)

// Expression kinds, used only for hashing.
const (
	kindNumeral = byte(iota + 1)
	kindVar
	kindAdd
	kindMul
	kindConcat
	kindExtract
	kindBinary
)

// Graph owns a set of hash-consed expressions.
//
// Every constructor returns the existing node when a structurally identical
// node has already been built. Nodes carry a reference count: each node holds
// a reference on its children, and callers may take additional references
// with IncRef to keep a node interned across Sweep.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	seq   uint64
	n     int
	table map[uint64][]Expr // hash buckets
}

// NewGraph returns a new, empty expression graph.
func NewGraph() *Graph {
	return &Graph{table: make(map[uint64][]Expr)}
}

// Len returns the number of interned expressions.
func (g *Graph) Len() int { return g.n }

// Numeral returns a numeral of the given width. The value is truncated to width bits.
func (g *Graph) Numeral(value uint64, width uint) *NumeralExpr {
	return g.NumeralBig(new(big.Int).SetUint64(value), width)
}

// NumeralBig returns a numeral of the given width. The value is reduced
// modulo 2^width, so negative values wrap around.
func (g *Graph) NumeralBig(value *big.Int, width uint) *NumeralExpr {
	assert(width > 0, "numeral width cannot be zero")
	v := new(big.Int).Mod(value, pow2(width))

	h := newHasher(kindNumeral, width)
	h.bytes(v.Bytes())
	return g.intern(&NumeralExpr{Value: v, Width: width}, h.sum()).(*NumeralExpr)
}

// Bool returns the boolean constant for value.
func (g *Graph) Bool(value bool) *NumeralExpr {
	if value {
		return g.Numeral(1, WidthBool)
	}
	return g.Numeral(0, WidthBool)
}

// True returns the boolean constant true.
func (g *Graph) True() *NumeralExpr { return g.Bool(true) }

// False returns the boolean constant false.
func (g *Graph) False() *NumeralExpr { return g.Bool(false) }

// Var returns the named symbol of the given width.
func (g *Graph) Var(name string, width uint) *VarExpr {
	assert(name != "", "var name required")
	assert(width > 0, "var width cannot be zero: %s", name)

	h := newHasher(kindVar, width)
	h.bytes([]byte(name))
	return g.intern(&VarExpr{Name: name, Width: width}, h.sum()).(*VarExpr)
}

// Add returns the sum of args. All args must have the given width.
func (g *Graph) Add(width uint, args ...Expr) *AddExpr {
	assert(width > 0, "add width cannot be zero")
	assertArgWidths("add", width, args)
	args = copyArgs(args)
	return g.intern(&AddExpr{Args: args, Width: width}, hashApp(kindAdd, width, args)).(*AddExpr)
}

// Mul returns the product of args. All args must have the given width.
func (g *Graph) Mul(width uint, args ...Expr) *MulExpr {
	assert(width > 0, "mul width cannot be zero")
	assertArgWidths("mul", width, args)
	args = copyArgs(args)
	return g.intern(&MulExpr{Args: args, Width: width}, hashApp(kindMul, width, args)).(*MulExpr)
}

// Concat returns the concatenation of args, most significant first.
func (g *Graph) Concat(args ...Expr) *ConcatExpr {
	assert(len(args) > 0, "concat requires at least one argument")
	var width uint
	for _, arg := range args {
		width += ExprWidth(arg)
	}
	args = copyArgs(args)
	return g.intern(&ConcatExpr{Args: args, Width: width}, hashApp(kindConcat, width, args)).(*ConcatExpr)
}

// Extract returns width bits of expr starting at offset.
//
// Extracting the full width returns expr, numerals are folded, and nested
// extractions are collapsed.
func (g *Graph) Extract(expr Expr, offset, width uint) Expr {
	kw := ExprWidth(expr)
	assert(width > 0, "extract width cannot be zero")
	assert(offset+width <= kw, "extract out of bounds: %d+%d > %d", offset, width, kw)

	if offset == 0 && width == kw {
		return expr
	}

	switch expr := expr.(type) {
	case *NumeralExpr:
		return g.NumeralBig(new(big.Int).Rsh(expr.Value, offset), width)
	case *ExtractExpr:
		return g.Extract(expr.Expr, expr.Offset+offset, width)
	}

	h := newHasher(kindExtract, width)
	h.uint(uint64(offset))
	h.uint(expr.ID())
	return g.intern(&ExtractExpr{Expr: expr, Offset: offset, Width: width}, h.sum())
}

// Low returns the low width bits of expr.
func (g *Graph) Low(expr Expr, width uint) Expr {
	return g.Extract(expr, 0, width)
}

// Binary returns the binary operation op applied to lhs and rhs.
//
// Equalities between identical nodes or between numerals are folded to
// boolean constants.
func (g *Graph) Binary(op BinaryOp, lhs, rhs Expr) Expr {
	assert(op.IsArithmetic() || op.IsCompare(), "invalid binary op: %s", op)
	lw, rw := ExprWidth(lhs), ExprWidth(rhs)
	assert(lw == rw, "binary expr width mismatch: op=%s %d != %d", op, lw, rw)

	if op == EQ {
		if lhs == rhs {
			return g.True()
		}
		if x, ok := lhs.(*NumeralExpr); ok {
			if y, ok := rhs.(*NumeralExpr); ok {
				return g.Bool(x.Value.Cmp(y.Value) == 0)
			}
		}
	}

	h := newHasher(kindBinary, lw)
	h.uint(uint64(op))
	h.uint(lhs.ID())
	h.uint(rhs.ID())
	return g.intern(&BinaryExpr{Op: op, LHS: lhs, RHS: rhs}, h.sum())
}

// Eq returns the equality of lhs and rhs.
func (g *Graph) Eq(lhs, rhs Expr) Expr {
	return g.Binary(EQ, lhs, rhs)
}

// rebuild returns an expression of the same kind as expr with new operands.
func (g *Graph) rebuild(expr Expr, args []Expr) Expr {
	switch expr := expr.(type) {
	case *AddExpr:
		return g.Add(expr.Width, args...)
	case *MulExpr:
		return g.Mul(expr.Width, args...)
	case *ConcatExpr:
		return g.Concat(args...)
	case *ExtractExpr:
		return g.Extract(args[0], expr.Offset, expr.Width)
	case *BinaryExpr:
		return g.Binary(expr.Op, args[0], args[1])
	default:
		assert(len(args) == 0, "rebuild: %T has no operands", expr)
		return expr
	}
}

// IncRef adds a reference to expr.
func (g *Graph) IncRef(expr Expr) {
	expr.base().refs++
}

// DecRef removes a reference from expr. Panic if expr has no references.
func (g *Graph) DecRef(expr Expr) {
	n := expr.base()
	assert(n.refs > 0, "decref: no references held: %s", expr)
	n.refs--
}

// RefCount returns the number of references held on expr.
func (g *Graph) RefCount(expr Expr) int {
	return expr.base().refs
}

// Sweep removes every unreferenced expression from the graph and returns
// the number of expressions removed. Removing an expression releases its
// references on its children, which may cascade.
//
// Expressions removed by Sweep stay valid values, but an identical
// expression built afterwards is a new node with a new ID.
func (g *Graph) Sweep() int {
	var queue []Expr
	for _, bucket := range g.table {
		for _, e := range bucket {
			if e.base().refs == 0 {
				queue = append(queue, e)
			}
		}
	}

	var removed int
	for len(queue) > 0 {
		e := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if !g.remove(e) {
			continue
		}
		removed++

		for _, child := range Children(e) {
			g.DecRef(child)
			if child.base().refs == 0 {
				queue = append(queue, child)
			}
		}
	}
	return removed
}

// remove deletes e from its hash bucket. Returns false if e was not interned.
func (g *Graph) remove(e Expr) bool {
	h := e.base().hash
	bucket := g.table[h]
	for i := range bucket {
		if bucket[i] != e {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(g.table, h)
		} else {
			g.table[h] = bucket
		}
		g.n--
		return true
	}
	return false
}

// intern returns the existing node equal to e, or registers e as a new node.
func (g *Graph) intern(e Expr, h uint64) Expr {
	for _, other := range g.table[h] {
		if shallowEqual(e, other) {
			return other
		}
	}

	g.seq++
	n := e.base()
	n.id, n.hash = g.seq, h
	for _, child := range Children(e) {
		g.IncRef(child)
	}
	g.table[h] = append(g.table[h], e)
	g.n++
	return e
}

// shallowEqual returns true if a and b have the same kind, payload and
// identical children.
func shallowEqual(a, b Expr) bool {
	switch a := a.(type) {
	case *NumeralExpr:
		b, ok := b.(*NumeralExpr)
		return ok && a.Width == b.Width && a.Value.Cmp(b.Value) == 0
	case *VarExpr:
		b, ok := b.(*VarExpr)
		return ok && a.Width == b.Width && a.Name == b.Name
	case *AddExpr:
		b, ok := b.(*AddExpr)
		return ok && a.Width == b.Width && sameArgs(a.Args, b.Args)
	case *MulExpr:
		b, ok := b.(*MulExpr)
		return ok && a.Width == b.Width && sameArgs(a.Args, b.Args)
	case *ConcatExpr:
		b, ok := b.(*ConcatExpr)
		return ok && sameArgs(a.Args, b.Args)
	case *ExtractExpr:
		b, ok := b.(*ExtractExpr)
		return ok && a.Offset == b.Offset && a.Width == b.Width && a.Expr == b.Expr
	case *BinaryExpr:
		b, ok := b.(*BinaryExpr)
		return ok && a.Op == b.Op && a.LHS == b.LHS && a.RHS == b.RHS
	default:
		return false
	}
}

func sameArgs(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyArgs(args []Expr) []Expr {
	other := make([]Expr, len(args))
	copy(other, args)
	return other
}

func assertArgWidths(op string, width uint, args []Expr) {
	for i, arg := range args {
		w := ExprWidth(arg)
		assert(w == width, "%s: arg %d width mismatch: %d != %d", op, i, w, width)
	}
}

func hashApp(kind byte, width uint, args []Expr) uint64 {
	h := newHasher(kind, width)
	for _, arg := range args {
		h.uint(arg.ID())
	}
	return h.sum()
}

// hasher accumulates the identity of a node for hash-consing.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newHasher(kind byte, width uint) *hasher {
	h := &hasher{d: xxhash.New()}
	h.d.Write([]byte{kind})
	h.uint(uint64(width))
	return h
}

func (h *hasher) uint(v uint64) {
	binary.BigEndian.PutUint64(h.buf[:], v)
	h.d.Write(h.buf[:])
}

func (h *hasher) bytes(b []byte) {
	h.uint(uint64(len(b)))
	h.d.Write(b)
}

func (h *hasher) sum() uint64 { return h.d.Sum64() }

// pow2 returns 2^n.
func pow2(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}
