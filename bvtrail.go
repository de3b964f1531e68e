// Package bvtrail simplifies bit-vector equalities by cancelling trailing
// zero bits that both sides provably share.
package bvtrail

import (
	"errors"
	"fmt"
)

// Standard widths.
const (
	WidthBool = 1
	Width8    = 8
	Width16   = 16
	Width32   = 32
	Width64   = 64
)

// MaxDepth is the recursion budget used when cancelling equalities.
const MaxDepth = 4

var (
	ErrUnboundVariable = errors.New("variable not bound")
	ErrRewriteLimit    = errors.New("rewrite step limit reached")
	ErrRewriteUnsound  = errors.New("rewrite not equivalent to original")
)

// Checker proves that two boolean formulas are equivalent.
type Checker interface {
	// Returns true if a and b evaluate to the same value under every
	// assignment of their variables.
	Equivalent(a, b Expr) (bool, error)
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
