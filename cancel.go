package bvtrail

import (
	"fmt"
	"log"
)

// RewriteStatus tells a rewriting engine what to do with a result.
type RewriteStatus int

const (
	// RewriteFailed means no simplification was found.
	RewriteFailed RewriteStatus = iota

	// RewriteDone means the result is final.
	RewriteDone

	// RewriteAgain means the result should be simplified again.
	RewriteAgain
)

var rewriteStatuses = [...]string{
	RewriteFailed: "failed",
	RewriteDone:   "done",
	RewriteAgain:  "again",
}

// String returns the string representation of the status.
func (s RewriteStatus) String() string {
	if s >= 0 && int(s) < len(rewriteStatuses) {
		return rewriteStatuses[s]
	}
	return fmt.Sprintf("RewriteStatus<%d>", s)
}

// Outcome is the conclusion Cancel reached about an equality.
type Outcome int

const (
	NoProgress Outcome = iota
	Unsat
	TrivialTrue
	Rewritten
)

var outcomes = [...]string{
	NoProgress:  "no-progress",
	Unsat:       "unsat",
	TrivialTrue: "trivial-true",
	Rewritten:   "rewritten",
}

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomes) {
		return outcomes[o]
	}
	return fmt.Sprintf("Outcome<%d>", o)
}

// Result is the result of cancelling trailing zeros from an equality.
type Result struct {
	Outcome Outcome
	Expr    Expr // replacement for the equality

	// Set only when Outcome is Rewritten.
	LHS  Expr
	RHS  Expr
	Bits uint // number of bits stripped from each side
}

// Status returns the rewrite status corresponding to the outcome.
func (r Result) Status() RewriteStatus {
	switch r.Outcome {
	case Unsat, TrivialTrue:
		return RewriteDone
	case Rewritten:
		return RewriteAgain
	default:
		return RewriteFailed
	}
}

// Canceller removes trailing zero bits shared by both sides of an equality.
//
// A Canceller memoizes its analysis per depth and expression. The memo holds
// references on the graph nodes it mentions until Reset or Close. It is not
// safe for concurrent use.
type Canceller struct {
	g      *Graph
	cache  *rangeCache
	closed bool
}

// NewCanceller returns a new instance of Canceller over the given graph.
func NewCanceller(g *Graph) *Canceller {
	return &Canceller{
		g:     g,
		cache: newRangeCache(g),
	}
}

// Graph returns the graph the canceller builds expressions in.
func (c *Canceller) Graph() *Graph { return c.g }

// Reset clears the analysis cache and releases the references it held.
func (c *Canceller) Reset() {
	c.mustOpen()
	c.cache.reset()
}

// Close releases the analysis cache. The canceller cannot be used afterward.
func (c *Canceller) Close() error {
	if c.closed {
		return nil
	}
	c.cache.reset()
	c.closed = true
	return nil
}

// Stats returns statistics for the analysis cache.
func (c *Canceller) Stats() Stats {
	return Stats{
		Hits:    c.cache.hits,
		Misses:  c.cache.misses,
		Entries: c.cache.len(),
	}
}

func (c *Canceller) mustOpen() {
	assert(!c.closed, "canceller closed")
}

// Cancel simplifies the equality lhs == rhs by its trailing zero bits.
// Both sides must have the same width.
func (c *Canceller) Cancel(lhs, rhs Expr) Result {
	c.mustOpen()
	width := ExprWidth(lhs)
	assert(width == ExprWidth(rhs), "cancel: width mismatch: %d != %d", width, ExprWidth(rhs))

	r1 := c.analyze(lhs, MaxDepth)
	r2 := c.analyze(rhs, MaxDepth)
	log.Printf("[cancel] %s %s = %s %s", lhs, r1, rhs, r2)

	if r1.Disjoint(r2) {
		return Result{Outcome: Unsat, Expr: c.g.False()}
	}

	m := r1.Min
	if r2.Min < m {
		m = r2.Min
	}
	if m == 0 {
		return Result{Outcome: NoProgress, Expr: c.g.Eq(lhs, rhs)}
	} else if m == width {
		return Result{Outcome: TrivialTrue, Expr: c.g.True()}
	}

	out1, n1 := c.strip(lhs, m, MaxDepth)
	out2, n2 := c.strip(rhs, m, MaxDepth)
	assert(n1 == m && n2 == m, "cancel: stripped %d/%d of %d certified bits", n1, n2, m)

	return Result{
		Outcome: Rewritten,
		Expr:    c.g.Eq(out1, out2),
		LHS:     out1,
		RHS:     out2,
		Bits:    m,
	}
}

// Stats reports analysis cache activity.
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}
