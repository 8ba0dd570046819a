// Package spatial provides a static 2D k-d tree over building centroids.
//
// The tree is built once from the full population and is read-only
// afterwards, so a single Index may be shared by any number of concurrent
// readers without locking.
package spatial

import (
	"container/heap"
	"math"
	"sort"

	"github.com/solarrank/solarrank/pkg/building"
)

// Entry is one indexed point. Ref is the caller's position for the building
// in its population slice; the index never holds the Building itself.
type Entry struct {
	ID    string
	Ref   int
	Point building.Point
}

// Neighbor is a query hit with its distance from the query centre.
type Neighbor struct {
	Entry
	Distance float64
}

const nilNode int32 = -1

type node struct {
	entry       int32 // index into Index.entries
	left, right int32
	axis        uint8 // 0 = x, 1 = y
}

// Index is an arena-backed k-d tree. Nodes refer to their children by
// position in the arena.
type Index struct {
	entries []Entry
	nodes   []node
	root    int32
	depth   int
}

// Build constructs a balanced tree from entries. The splitting axis
// alternates x, y per level and each level splits at the median.
func Build(entries []Entry) *Index {
	idx := &Index{
		entries: append([]Entry(nil), entries...),
		nodes:   make([]node, 0, len(entries)),
		root:    nilNode,
	}
	if len(entries) == 0 {
		return idx
	}

	order := make([]int32, len(entries))
	for i := range order {
		order[i] = int32(i)
	}
	idx.root = idx.build(order, 0)
	return idx
}

func (idx *Index) build(order []int32, depth int) int32 {
	if len(order) == 0 {
		return nilNode
	}
	if depth+1 > idx.depth {
		idx.depth = depth + 1
	}

	axis := uint8(depth % 2)
	mid := len(order) / 2
	idx.selectNth(order, mid, axis)

	id := int32(len(idx.nodes))
	idx.nodes = append(idx.nodes, node{entry: order[mid], axis: axis})

	left := idx.build(order[:mid], depth+1)
	right := idx.build(order[mid+1:], depth+1)
	idx.nodes[id].left = left
	idx.nodes[id].right = right
	return id
}

func (idx *Index) coord(e int32, axis uint8) float64 {
	if axis == 0 {
		return idx.entries[e].Point.X
	}
	return idx.entries[e].Point.Y
}

func (idx *Index) less(a, b int32, axis uint8) bool {
	ca, cb := idx.coord(a, axis), idx.coord(b, axis)
	if ca != cb {
		return ca < cb
	}
	return a < b
}

// selectNth partially orders order so that order[n] holds the element that
// would be there after a full sort, with smaller elements before it and
// larger after (Hoare quickselect, middle pivot).
func (idx *Index) selectNth(order []int32, n int, axis uint8) {
	lo, hi := 0, len(order)-1
	for lo < hi {
		pivot := order[lo+(hi-lo)/2]
		i, j := lo, hi
		for i <= j {
			for idx.less(order[i], pivot, axis) {
				i++
			}
			for idx.less(pivot, order[j], axis) {
				j--
			}
			if i <= j {
				order[i], order[j] = order[j], order[i]
				i++
				j--
			}
		}
		switch {
		case n <= j:
			hi = j
		case n >= i:
			lo = i
		default:
			return
		}
	}
}

// Len returns the number of indexed points.
func (idx *Index) Len() int { return len(idx.entries) }

// Depth returns the height of the tree; 0 for an empty index.
func (idx *Index) Depth() int { return idx.depth }

func dist(a, b building.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func axisDelta(p building.Point, split float64, axis uint8) float64 {
	if axis == 0 {
		return p.X - split
	}
	return p.Y - split
}

// WithinRadius returns every point at distance <= r from center. The
// boundary is inclusive. Results are in no particular order.
func (idx *Index) WithinRadius(center building.Point, r float64) []Neighbor {
	if idx.root == nilNode || r < 0 || math.IsNaN(r) {
		return nil
	}

	var out []Neighbor
	stack := []int32{idx.root}
	for len(stack) > 0 {
		n := idx.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		e := idx.entries[n.entry]
		if d := dist(center, e.Point); d <= r {
			out = append(out, Neighbor{Entry: e, Distance: d})
		}

		delta := axisDelta(center, idx.coord(n.entry, n.axis), n.axis)
		near, far := n.left, n.right
		if delta > 0 {
			near, far = n.right, n.left
		}
		// points equal on the split axis may sit on either side
		if far != nilNode && math.Abs(delta) <= r {
			stack = append(stack, far)
		}
		if near != nilNode {
			stack = append(stack, near)
		}
	}
	return out
}

type candidate struct {
	entry int32
	d     float64
}

// worse reports whether a ranks after b: farther, or equally far and
// inserted later.
func worse(a, b candidate) bool {
	if a.d != b.d {
		return a.d > b.d
	}
	return a.entry > b.entry
}

// maxHeap keeps the current k best with the worst on top.
type maxHeap []candidate

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

// Nearest returns the k points closest to center, sorted by increasing
// distance with ties in insertion order. k larger than Len returns every
// point; k <= 0 returns nothing.
func (idx *Index) Nearest(center building.Point, k int) []Neighbor {
	if idx.root == nilNode || k <= 0 {
		return nil
	}
	if k > len(idx.entries) {
		k = len(idx.entries)
	}

	h := make(maxHeap, 0, k)
	var visit func(int32)
	visit = func(id int32) {
		if id == nilNode {
			return
		}
		n := idx.nodes[id]
		c := candidate{entry: n.entry, d: dist(center, idx.entries[n.entry].Point)}
		if h.Len() < k {
			heap.Push(&h, c)
		} else if worse(h[0], c) {
			h[0] = c
			heap.Fix(&h, 0)
		}

		delta := axisDelta(center, idx.coord(n.entry, n.axis), n.axis)
		near, far := n.left, n.right
		if delta > 0 {
			near, far = n.right, n.left
		}
		visit(near)
		if h.Len() < k || math.Abs(delta) <= h[0].d {
			visit(far)
		}
	}
	visit(idx.root)

	sort.Slice(h, func(i, j int) bool { return worse(h[j], h[i]) })
	out := make([]Neighbor, len(h))
	for i, c := range h {
		out[i] = Neighbor{Entry: idx.entries[c.entry], Distance: c.d}
	}
	return out
}
