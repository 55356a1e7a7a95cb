package biome

import (
	"fmt"
	"math"
)

// Axes of a climate point, in the order they are stored in a Point and in the parameter ranges of a Node.
const (
	AxisTemperature = iota
	AxisHumidity
	AxisContinentalness
	AxisErosion
	AxisDepth
	AxisWeirdness
	AxisOffset

	axisCount
)

// ParameterRange is an inclusive range of quantized climate values on one axis.
type ParameterRange struct {
	Min, Max int64
}

// Span returns a ParameterRange from min to max, both given as unquantized climate values.
func Span(min, max float64) ParameterRange {
	return ParameterRange{Min: Quantize(min), Max: Quantize(max)}
}

// Exact returns a ParameterRange that holds the single unquantized value v.
func Exact(v float64) ParameterRange {
	q := Quantize(v)
	return ParameterRange{Min: q, Max: q}
}

// distance returns how far v lies outside the range. It is 0 for values inside it.
func (r ParameterRange) distance(v int64) int64 {
	if v > r.Max {
		return v - r.Max
	}
	if v < r.Min {
		return r.Min - v
	}
	return 0
}

// mid returns the centre of the range, rounded towards zero.
func (r ParameterRange) mid() int64 {
	return (r.Min + r.Max) / 2
}

// union returns the smallest range that holds both r and o.
func (r ParameterRange) union(o ParameterRange) ParameterRange {
	return ParameterRange{Min: min(r.Min, o.Min), Max: max(r.Max, o.Max)}
}

// String ...
func (r ParameterRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Point is a quantized climate point: temperature, humidity, continentalness, erosion, depth, weirdness and a
// final offset axis that is always 0 for queries.
type Point [axisCount]int64

// Quantize converts a climate value into the fixed point scale used by points and ranges. The multiplication
// is done in single precision so that the result matches stored parameter tables.
func Quantize(v float64) int64 {
	return int64(float32(v) * 10000)
}

// Node is a node of a biome parameter tree. A leaf carries a Biome, a branch carries children whose ranges
// are all enclosed by the branch's own ranges.
type Node struct {
	Params   [axisCount]ParameterRange
	Biome    *Biome
	Children []*Node
}

// Leaf reports if the node is a leaf.
func (n *Node) Leaf() bool {
	return n.Biome != nil
}

// distance returns the squared distance from p to the box spanned by the node's ranges.
func (n *Node) distance(p Point) int64 {
	var d int64
	for i, r := range n.Params {
		a := r.distance(p[i])
		d += a * a
	}
	return d
}

// nearest walks the subtree rooted at n and returns the first leaf, in depth first order, whose distance to p
// is strictly below best. Subtrees whose box lies at least best away are never entered.
func (n *Node) nearest(p Point, found *Node, best int64) (*Node, int64) {
	if n.Leaf() {
		if d := n.distance(p); d < best {
			return n, d
		}
		return found, best
	}
	for _, child := range n.Children {
		if child.distance(p) >= best {
			continue
		}
		found, best = child.nearest(p, found, best)
	}
	return found, best
}

// Tree is an immutable biome parameter tree. It resolves every Point to exactly one biome: the biome of the
// nearest leaf, the first one in depth first order when several leaves are equally near.
type Tree struct {
	root   *Node
	leaves int
}

// NewTree returns a Tree with the root passed. NewTree panics if the tree holds no leaves.
func NewTree(root *Node) *Tree {
	t := &Tree{root: root}
	t.leaves = countLeaves(root)
	if t.leaves == 0 {
		panic("biome: parameter tree without leaves")
	}
	return t
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node {
	return t.root
}

// Len returns the number of leaves in the tree.
func (t *Tree) Len() int {
	return t.leaves
}

// Cursor remembers the leaf of the previous lookup in a Tree. Lookups of nearby points pass the same Cursor
// so that the search can start with a tight bound. A Cursor is not safe for concurrent use and should be
// kept per goroutine. Its contents only affect the cost of a lookup, never the result.
type Cursor struct {
	tree *Tree
	leaf *Node
}

// Last returns the leaf found by the previous lookup made with the Cursor, or nil if there was none.
func (c *Cursor) Last() *Node {
	if c == nil {
		return nil
	}
	return c.leaf
}

// Reset clears the Cursor.
func (c *Cursor) Reset() {
	c.tree, c.leaf = nil, nil
}

// Get returns the biome of the leaf nearest to p. c may be nil. If not nil, the leaf found is stored in it.
func (t *Tree) Get(p Point, c *Cursor) *Biome {
	return t.Lookup(p, c).Biome
}

// Lookup returns the leaf nearest to p. c may be nil.
func (t *Tree) Lookup(p Point, c *Cursor) *Node {
	best := int64(math.MaxInt64)
	if c != nil && c.tree == t && c.leaf != nil {
		// The previous leaf is a candidate, so the nearest leaf can be no further away than it. The bound is
		// one above its distance so that an earlier leaf at the same distance is still accepted.
		if d := c.leaf.distance(p); d < math.MaxInt64 {
			best = d + 1
		}
	}
	leaf, _ := t.root.nearest(p, nil, best)
	if leaf == nil {
		panic(fmt.Sprintf("biome: no leaf found for point %v", p))
	}
	if c != nil {
		c.tree, c.leaf = t, leaf
	}
	return leaf
}

// countLeaves returns the number of leaves below n.
func countLeaves(n *Node) int {
	if n == nil {
		return 0
	}
	if n.Leaf() {
		return 1
	}
	c := 0
	for _, child := range n.Children {
		c += countLeaves(child)
	}
	return c
}
