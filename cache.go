package bvtrail

import (
	"github.com/benbjohnson/immutable"
)

// rangeCache memoizes trailing-zero ranges by depth and expression ID.
//
// Every cached expression holds a graph reference for as long as its entry
// exists so the node cannot be swept while the cache refers to it.
type rangeCache struct {
	g      *Graph
	tables [MaxDepth + 1]*immutable.SortedMap // expression id -> *rangeEntry

	hits   int
	misses int
}

type rangeEntry struct {
	expr Expr
	r    Range
}

func newRangeCache(g *Graph) *rangeCache {
	c := &rangeCache{g: g}
	for i := range c.tables {
		c.tables[i] = immutable.NewSortedMap(&uint64Comparer{})
	}
	return c
}

// get returns the cached range for expr at depth.
func (c *rangeCache) get(depth uint, expr Expr) (Range, bool) {
	assert(depth <= MaxDepth, "cache depth out of range: %d", depth)
	if v, ok := c.tables[depth].Get(expr.ID()); ok {
		c.hits++
		return v.(*rangeEntry).r, true
	}
	c.misses++
	return Range{}, false
}

// put stores the range for expr at depth and takes a reference on expr.
func (c *rangeCache) put(depth uint, expr Expr, r Range) {
	assert(depth <= MaxDepth, "cache depth out of range: %d", depth)
	if _, ok := c.tables[depth].Get(expr.ID()); ok {
		return
	}
	c.g.IncRef(expr)
	c.tables[depth] = c.tables[depth].Set(expr.ID(), &rangeEntry{expr: expr, r: r})
}

// len returns the number of entries across all depths.
func (c *rangeCache) len() int {
	var n int
	for _, m := range c.tables {
		n += m.Len()
	}
	return n
}

// reset drops every entry and releases the references they held.
func (c *rangeCache) reset() {
	for i, m := range c.tables {
		itr := m.Iterator()
		for !itr.Done() {
			_, v := itr.Next()
			c.g.DecRef(v.(*rangeEntry).expr)
		}
		c.tables[i] = immutable.NewSortedMap(&uint64Comparer{})
	}
}

// uint64Comparer compares two 64-bit unsigned integers. Implements immutable.Comparer.
type uint64Comparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a uint64.
func (c *uint64Comparer) Compare(a, b interface{}) int {
	if i, j := a.(uint64), b.(uint64); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}
