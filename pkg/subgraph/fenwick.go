package subgraph

import "math/bits"

// fenwick is a binary indexed tree over non-negative int64 weights that
// supports point updates and weighted selection in O(log n).
type fenwick struct {
	tree []int64 // 1-indexed
	sum  int64
	top  int // largest power of two <= n
}

func newFenwick(n int) *fenwick {
	f := &fenwick{tree: make([]int64, n+1)}
	if n > 0 {
		f.top = 1 << (bits.Len(uint(n)) - 1)
	}
	return f
}

func (f *fenwick) add(i int, delta int64) {
	f.sum += delta
	for i++; i < len(f.tree); i += i & -i {
		f.tree[i] += delta
	}
}

func (f *fenwick) total() int64 {
	return f.sum
}

// find returns the index i such that prefix(i) <= target < prefix(i+1),
// where prefix(i) is the sum of weights [0, i). target must lie in
// [0, total()).
func (f *fenwick) find(target int64) int {
	pos := 0
	for step := f.top; step > 0; step >>= 1 {
		if next := pos + step; next < len(f.tree) && f.tree[next] <= target {
			pos = next
			target -= f.tree[next]
		}
	}
	return pos
}
