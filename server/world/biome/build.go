package biome

import (
	"cmp"
	"errors"
	"math"
	"slices"
)

// ErrNoEntries is returned by Build when it is passed an empty parameter list.
var ErrNoEntries = errors.New("biome: no parameter entries")

// childrenPerNode is the maximum number of children of a branch built by Build.
const childrenPerNode = 6

// Entry is one row of a climate parameter list: the ranges a point must fall in for the Biome to be chosen.
type Entry struct {
	Params [axisCount]ParameterRange
	Biome  *Biome
}

// Build constructs a Tree from a climate parameter list. Nodes are grouped into branches of at most six
// children. At each level the nodes are split along the axis that produces the smallest total extent of the
// resulting groups.
func Build(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	nodes := make([]*Node, len(entries))
	for i, e := range entries {
		if e.Biome == nil {
			return nil, ErrUnknownBiome
		}
		nodes[i] = &Node{Params: e.Params, Biome: e.Biome}
	}
	return NewTree(build(nodes)), nil
}

// MustBuild calls Build and panics if an error is returned.
func MustBuild(entries []Entry) *Tree {
	t, err := Build(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// build groups nodes into a single subtree. nodes is reordered in place.
func build(nodes []*Node) *Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	if len(nodes) <= childrenPerNode {
		slices.SortStableFunc(nodes, func(a, b *Node) int {
			return cmp.Compare(absMidSum(a), absMidSum(b))
		})
		return branch(nodes)
	}

	bestCost, bestAxis := int64(math.MaxInt64), -1
	var buckets []*Node
	for axis := 0; axis < axisCount; axis++ {
		sortNodes(nodes, axis, false)
		b := bucketize(nodes)

		var c int64
		for _, n := range b {
			c += extent(n.Params)
		}
		if bestCost > c {
			bestCost, bestAxis, buckets = c, axis, b
		}
	}
	sortNodes(buckets, bestAxis, true)

	children := make([]*Node, len(buckets))
	for i, b := range buckets {
		children[i] = build(b.Children)
	}
	return branch(children)
}

// branch returns a branch node holding children, with ranges spanning all of them.
func branch(children []*Node) *Node {
	n := &Node{Params: children[0].Params, Children: children}
	for _, child := range children[1:] {
		for i := range n.Params {
			n.Params[i] = n.Params[i].union(child.Params[i])
		}
	}
	return n
}

// bucketize splits nodes, in order, into branches of the largest power of six smaller than len(nodes).
func bucketize(nodes []*Node) []*Node {
	size := int(math.Pow(childrenPerNode, math.Floor(math.Log(float64(len(nodes))-0.01)/math.Log(childrenPerNode))))

	var buckets []*Node
	for start := 0; start < len(nodes); start += size {
		end := min(start+size, len(nodes))
		// The bucket gets its own slice so that sorting it later leaves nodes untouched.
		buckets = append(buckets, branch(slices.Clone(nodes[start:end])))
	}
	return buckets
}

// sortNodes stably sorts nodes by the centres of their ranges, starting with axis and moving on to the next
// axes on ties. If abs is true, the absolute values of the centres are compared.
func sortNodes(nodes []*Node, axis int, abs bool) {
	key := func(n *Node, a int) int64 {
		m := n.Params[a].mid()
		if abs && m < 0 {
			return -m
		}
		return m
	}
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		for i := 0; i < axisCount; i++ {
			k := (axis + i) % axisCount
			if c := cmp.Compare(key(a, k), key(b, k)); c != 0 {
				return c
			}
		}
		return 0
	})
}

// absMidSum returns the sum of the absolute centres of all ranges of n.
func absMidSum(n *Node) int64 {
	var s int64
	for _, r := range n.Params {
		m := r.mid()
		if m < 0 {
			m = -m
		}
		s += m
	}
	return s
}

// extent returns the sum of the widths of all ranges passed.
func extent(params [axisCount]ParameterRange) int64 {
	var s int64
	for _, r := range params {
		w := r.Max - r.Min
		if w < 0 {
			w = -w
		}
		s += w
	}
	return s
}
