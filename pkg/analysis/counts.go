package analysis

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"github.com/tidwall/btree"

	"github.com/cnclabs/kgsample/pkg/knowledge"
)

func tripleLess(a, b knowledge.Triple) bool {
	if a.Head != b.Head {
		return a.Head < b.Head
	}
	if a.Relation != b.Relation {
		return a.Relation < b.Relation
	}
	return a.Tail < b.Tail
}

// UniqueTriples returns the distinct triples in lexicographic
// (head, relation, tail) order.
func UniqueTriples(triples []knowledge.Triple) []knowledge.Triple {
	set := btree.NewBTreeGOptions(tripleLess, btree.Options{NoLocks: true})
	for _, t := range triples {
		set.Set(t)
	}
	out := make([]knowledge.Triple, 0, set.Len())
	set.Scan(func(t knowledge.Triple) bool {
		out = append(out, t)
		return true
	})
	return out
}

// TripleSetHash computes a hex sha512 digest of the triple set that is
// invariant to order and to duplicates.
func TripleSetHash(triples []knowledge.Triple) string {
	var sb strings.Builder
	for _, t := range UniqueTriples(triples) {
		sb.WriteString(t.String())
	}
	sum := sha512.Sum512([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// IDCounts counts occurrences of every id in [0, numIDs). A non-positive
// numIDs defaults to the largest id plus one.
func IDCounts(ids []int64, numIDs int64) []int64 {
	if numIDs <= 0 {
		for _, id := range ids {
			numIDs = max(numIDs, id+1)
		}
	}
	counts := make([]int64, numIDs)
	for _, id := range ids {
		counts[id]++
	}
	return counts
}

// RelationCount is the number of triples using one relation.
type RelationCount struct {
	RelationID int64
	Count      int64
}

// RelationCounts returns the frequency of every relation in use, sorted by
// relation id.
func RelationCounts(triples []knowledge.Triple) []RelationCount {
	ids := make([]int64, len(triples))
	for i, t := range triples {
		ids[i] = t.Relation
	}
	var out []RelationCount
	for r, c := range IDCounts(ids, 0) {
		if c > 0 {
			out = append(out, RelationCount{RelationID: int64(r), Count: c})
		}
	}
	return out
}

// EntityCounts returns how often each entity in [0, numEntities) occurs as
// head or tail.
func EntityCounts(triples []knowledge.Triple, numEntities int64) []int64 {
	ids := make([]int64, 0, 2*len(triples))
	for _, t := range triples {
		ids = append(ids, t.Head, t.Tail)
	}
	return IDCounts(ids, numEntities)
}
