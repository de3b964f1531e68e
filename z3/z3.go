//go:build z3
// +build z3

package z3

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/benbjohnson/bvtrail"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
#include <stdio.h>
*/
import "C"

var (
	ErrTimeout  = errors.New("z3: timeout")
	ErrCanceled = errors.New("z3: canceled")
)

// Ensure checker implements interface.
var _ bvtrail.Checker = (*Checker)(nil)

// Checker proves formulas equivalent using an embedded Z3 solver.
type Checker struct {
	ctx   *Context
	stats Stats
}

// NewChecker returns a new instance of Checker.
func NewChecker() *Checker {
	return &Checker{
		ctx: NewContext(),
	}
}

// Close deletes the underlying Z3 context.
func (c *Checker) Close() error {
	return c.ctx.Close()
}

// Stats returns statistics for the checker.
func (c *Checker) Stats() Stats {
	return c.stats
}

// Equivalent returns true if a and b agree under every assignment.
// Both must be boolean formulas or bit-vector terms of the same width.
func (c *Checker) Equivalent(a, b bvtrail.Expr) (equivalent bool, err error) {
	t := time.Now()
	defer func() {
		c.stats.CheckN++
		c.stats.CheckTime += time.Since(t)
	}()

	if aw, bw := bvtrail.ExprWidth(a), bvtrail.ExprWidth(b); aw != bw {
		return false, fmt.Errorf("z3: width mismatch: %d != %d", aw, bw)
	}

	solver := C.Z3_mk_solver(c.ctx.raw)
	if err := c.ctx.err("Z3_mk_solver"); err != nil {
		return false, err
	}
	C.Z3_solver_inc_ref(c.ctx.raw, solver)
	defer C.Z3_solver_dec_ref(c.ctx.raw, solver)

	// Assert that the two sides differ; unsat means they never do.
	var x, y C.Z3_ast
	if bvtrail.ExprWidth(a) == bvtrail.WidthBool {
		if x, err = c.ctx.toBoolAST(a); err != nil {
			return false, err
		} else if y, err = c.ctx.toBoolAST(b); err != nil {
			return false, err
		}
	} else {
		if x, err = c.ctx.toAST(a); err != nil {
			return false, err
		} else if y, err = c.ctx.toAST(b); err != nil {
			return false, err
		}
	}
	eq := C.Z3_mk_eq(c.ctx.raw, x, y)
	if err := c.ctx.err("Z3_mk_eq"); err != nil {
		return false, err
	}
	ne := C.Z3_mk_not(c.ctx.raw, eq)
	if err := c.ctx.err("Z3_mk_not"); err != nil {
		return false, err
	}
	C.Z3_solver_assert(c.ctx.raw, solver, ne)
	if err := c.ctx.err("Z3_solver_assert"); err != nil {
		return false, err
	}

	ret := C.Z3_solver_check(c.ctx.raw, solver)
	if err := c.ctx.err("Z3_solver_check"); err != nil {
		return false, err
	} else if ret == C.Z3_L_FALSE {
		return true, nil
	} else if ret == C.Z3_L_TRUE {
		return false, nil
	}

	reason := C.GoString(C.Z3_solver_get_reason_unknown(c.ctx.raw, solver))
	switch {
	case strings.Contains(reason, "timeout"):
		return false, ErrTimeout
	case strings.Contains(reason, "canceled"):
		return false, ErrCanceled
	default:
		return false, fmt.Errorf("z3: %s", reason)
	}
}

// Context represents a Z3 context object that is used for constructing expressions.
type Context struct {
	raw C.Z3_context
}

// NewContext returns a new instance of Context.
func NewContext() *Context {
	config := C.Z3_mk_config()
	defer C.Z3_del_config(config)

	raw := C.Z3_mk_context(config)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &Context{raw: raw}
}

// Close deletes the underlying Z3 context.
func (ctx *Context) Close() error {
	C.Z3_del_context(ctx.raw)
	return nil
}

// err returns the error for the last API call. Returns nil if last call was successful.
func (ctx *Context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

// toBoolAST returns a Z3 boolean for a 1-bit expression.
// Comparisons map directly to Z3 predicates; other terms are compared to 1.
func (ctx *Context) toBoolAST(expr bvtrail.Expr) (C.Z3_ast, error) {
	switch expr := expr.(type) {
	case *bvtrail.NumeralExpr:
		if expr.IsTrue() {
			return C.Z3_mk_true(ctx.raw), ctx.err("Z3_mk_true")
		}
		return C.Z3_mk_false(ctx.raw), ctx.err("Z3_mk_false")
	case *bvtrail.BinaryExpr:
		if expr.Op.IsCompare() {
			return ctx.toCompareAST(expr)
		}
	}

	bv, err := ctx.toAST(expr)
	if err != nil {
		return nil, err
	}
	one, err := ctx.makeNumeral("1", bvtrail.WidthBool)
	if err != nil {
		return nil, err
	}
	return C.Z3_mk_eq(ctx.raw, bv, one), ctx.err("Z3_mk_eq")
}

// toAST returns a Z3 bit-vector term for expr.
func (ctx *Context) toAST(expr bvtrail.Expr) (C.Z3_ast, error) {
	switch expr := expr.(type) {
	case *bvtrail.NumeralExpr:
		return ctx.makeNumeral(expr.Value.String(), expr.Width)
	case *bvtrail.VarExpr:
		return ctx.toVarAST(expr)
	case *bvtrail.AddExpr:
		return ctx.toNaryAST(expr.Args, expr.Width, "0", func(x, y C.Z3_ast) C.Z3_ast {
			return C.Z3_mk_bvadd(ctx.raw, x, y)
		})
	case *bvtrail.MulExpr:
		return ctx.toNaryAST(expr.Args, expr.Width, "1", func(x, y C.Z3_ast) C.Z3_ast {
			return C.Z3_mk_bvmul(ctx.raw, x, y)
		})
	case *bvtrail.ConcatExpr:
		return ctx.toNaryAST(expr.Args, expr.Width, "", func(x, y C.Z3_ast) C.Z3_ast {
			return C.Z3_mk_concat(ctx.raw, x, y)
		})
	case *bvtrail.ExtractExpr:
		return ctx.toExtractAST(expr)
	case *bvtrail.BinaryExpr:
		if expr.Op.IsCompare() {
			return ctx.toBoolBVAST(expr)
		}
		return ctx.toBinaryAST(expr)
	default:
		return nil, fmt.Errorf("z3.Context.toAST: invalid expression type: %T", expr)
	}
}

func (ctx *Context) toVarAST(expr *bvtrail.VarExpr) (C.Z3_ast, error) {
	t, err := ctx.makeBVSort(expr.Width)
	if err != nil {
		return nil, err
	}
	cname := C.CString(varName(expr))
	defer C.free(unsafe.Pointer(cname))
	sym := C.Z3_mk_string_symbol(ctx.raw, cname)
	return C.Z3_mk_const(ctx.raw, sym, t), ctx.err("Z3_mk_const")
}

// toNaryAST folds args left to right with fn. An empty list yields the identity numeral.
func (ctx *Context) toNaryAST(args []bvtrail.Expr, width uint, identity string, fn func(x, y C.Z3_ast) C.Z3_ast) (C.Z3_ast, error) {
	if len(args) == 0 {
		return ctx.makeNumeral(identity, width)
	}

	result, err := ctx.toAST(args[0])
	if err != nil {
		return nil, err
	}
	for _, arg := range args[1:] {
		other, err := ctx.toAST(arg)
		if err != nil {
			return nil, err
		}
		result = fn(result, other)
		if err := ctx.err("Z3_mk_app"); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (ctx *Context) toExtractAST(expr *bvtrail.ExtractExpr) (C.Z3_ast, error) {
	src, err := ctx.toAST(expr.Expr)
	if err != nil {
		return nil, err
	}
	return C.Z3_mk_extract(ctx.raw, C.uint(expr.Offset+expr.Width-1), C.uint(expr.Offset), src), ctx.err("Z3_mk_extract")
}

func (ctx *Context) toBinaryAST(expr *bvtrail.BinaryExpr) (C.Z3_ast, error) {
	lhs, err := ctx.toAST(expr.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := ctx.toAST(expr.RHS)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case bvtrail.SUB:
		return C.Z3_mk_bvsub(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsub")
	case bvtrail.UDIV:
		return C.Z3_mk_bvudiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvudiv")
	case bvtrail.UREM:
		return C.Z3_mk_bvurem(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvurem")
	case bvtrail.AND:
		return C.Z3_mk_bvand(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvand")
	case bvtrail.OR:
		return C.Z3_mk_bvor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvor")
	case bvtrail.XOR:
		return C.Z3_mk_bvxor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvxor")
	case bvtrail.SHL:
		return C.Z3_mk_bvshl(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvshl")
	case bvtrail.LSHR:
		return C.Z3_mk_bvlshr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvlshr")
	default:
		return nil, fmt.Errorf("z3.Context.toBinaryAST: invalid op: %s", expr.Op)
	}
}

// toCompareAST returns the Z3 predicate for a comparison.
func (ctx *Context) toCompareAST(expr *bvtrail.BinaryExpr) (C.Z3_ast, error) {
	var lhs, rhs C.Z3_ast
	var err error
	if bvtrail.ExprWidth(expr.LHS) == bvtrail.WidthBool && expr.Op == bvtrail.EQ {
		// Compare booleans as booleans so nested equalities stay predicates.
		if lhs, err = ctx.toBoolAST(expr.LHS); err != nil {
			return nil, err
		} else if rhs, err = ctx.toBoolAST(expr.RHS); err != nil {
			return nil, err
		}
		return C.Z3_mk_eq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_eq")
	}

	if lhs, err = ctx.toAST(expr.LHS); err != nil {
		return nil, err
	} else if rhs, err = ctx.toAST(expr.RHS); err != nil {
		return nil, err
	}

	switch expr.Op {
	case bvtrail.EQ:
		return C.Z3_mk_eq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_eq")
	case bvtrail.ULT:
		return C.Z3_mk_bvult(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvult")
	case bvtrail.ULE:
		return C.Z3_mk_bvule(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvule")
	default:
		return nil, fmt.Errorf("z3.Context.toCompareAST: invalid op: %s", expr.Op)
	}
}

// toBoolBVAST converts a comparison used as a 1-bit term into ite(p, 1, 0).
func (ctx *Context) toBoolBVAST(expr *bvtrail.BinaryExpr) (C.Z3_ast, error) {
	cond, err := ctx.toCompareAST(expr)
	if err != nil {
		return nil, err
	}
	one, err := ctx.makeNumeral("1", bvtrail.WidthBool)
	if err != nil {
		return nil, err
	}
	zero, err := ctx.makeNumeral("0", bvtrail.WidthBool)
	if err != nil {
		return nil, err
	}
	return C.Z3_mk_ite(ctx.raw, cond, one, zero), ctx.err("Z3_mk_ite")
}

func (ctx *Context) makeBVSort(width uint) (C.Z3_sort, error) {
	return C.Z3_mk_bv_sort(ctx.raw, C.uint(width)), ctx.err("Z3_mk_bv_sort")
}

// makeNumeral returns a bit-vector numeral from its decimal representation.
func (ctx *Context) makeNumeral(value string, width uint) (C.Z3_ast, error) {
	t, err := ctx.makeBVSort(width)
	if err != nil {
		return nil, err
	}
	cvalue := C.CString(value)
	defer C.free(unsafe.Pointer(cvalue))
	return C.Z3_mk_numeral(ctx.raw, cvalue, t), ctx.err("Z3_mk_numeral")
}

func varName(expr *bvtrail.VarExpr) string {
	return fmt.Sprintf("%s_%d", expr.Name, expr.Width)
}

// Error represents an error from the Z3 API.
type Error struct {
	Code    int
	Op      string
	Message string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Code)
}

// Possible error codes.
const (
	ErrorCodeOK = iota
	ErrorCodeSortError
	ErrorCodeIOB
	ErrorCodeInvalidArg
	ErrorCodeParserError
	ErrorCodeNoParser
	ErrorCodeInvalidPattern
	ErrorCodeMemoutFail
	ErrorCodeFileAccessError
	ErrorCodeInternalFatal
	ErrorCodeInvalidUsage
	ErrorCodeDecRefError
	ErrorCodeException
)

// Stats reports checker activity.
type Stats struct {
	CheckN    int
	CheckTime time.Duration
}
