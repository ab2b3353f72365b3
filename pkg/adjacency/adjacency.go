// Package adjacency builds a compressed, undirected adjacency list over a
// set of id-mapped triples, in the spirit of the CSR sparse matrix format.
//
// For entity e the incident edges are
//
//	Pairs[Offsets[e] : Offsets[e]+Degrees[e]]
//
// where every Pair holds the triple index and the entity on the other end.
// A triple contributes one pair to its head and one to its tail, so a
// self-loop (h == t) contributes two pairs to the same entity.
package adjacency

import (
	"errors"
	"fmt"

	"github.com/cnclabs/kgsample/pkg/knowledge"
)

var (
	// ErrDegreeSum is returned when the degrees do not add up to twice the
	// number of triples.
	ErrDegreeSum = errors.New("adjacency: sum of degrees differs from 2 * num_triples")

	// ErrInvalidOffsets is returned when offsets are not the exclusive prefix
	// sum of degrees or point outside the pair array.
	ErrInvalidOffsets = errors.New("adjacency: offsets are not a valid prefix sum")

	// ErrIDOutOfRange is returned when a triple references an entity at or
	// beyond the declared number of entities.
	ErrIDOutOfRange = errors.New("adjacency: entity id out of range")
)

// Pair is one entry of the compressed adjacency list.
type Pair struct {
	// Edge is the index of the triple in the source triple set.
	Edge int64
	// Neighbor is the entity on the other end of the edge.
	Neighbor int64
}

// Compressed is the read-only CSR view of a triple set.
type Compressed struct {
	Degrees []int64
	Offsets []int64
	Pairs   []Pair

	numTriples int64
}

// Compress builds the compressed adjacency list. A non-positive numEntities
// defaults to the largest entity id plus one.
func Compress(triples []knowledge.Triple, numEntities int64) (*Compressed, error) {
	if numEntities <= 0 {
		numEntities = knowledge.NumEntityIDs(triples)
	}

	c := &Compressed{
		Degrees:    make([]int64, numEntities),
		Offsets:    make([]int64, numEntities),
		Pairs:      make([]Pair, 2*len(triples)),
		numTriples: int64(len(triples)),
	}

	// count first so the flat array can be filled in place
	for i, t := range triples {
		if t.Head < 0 || t.Head >= numEntities || t.Tail < 0 || t.Tail >= numEntities {
			return nil, fmt.Errorf("%w: triple %d %v, num_entities=%d", ErrIDOutOfRange, i, t, numEntities)
		}
		c.Degrees[t.Head]++
		c.Degrees[t.Tail]++
	}

	var running int64
	for e, d := range c.Degrees {
		c.Offsets[e] = running
		running += d
	}
	if running != 2*c.numTriples {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDegreeSum, running, 2*c.numTriples)
	}

	// cursor[e] is the next free slot of e's segment; triples are visited in
	// index order so each segment stays sorted by edge index.
	cursor := make([]int64, numEntities)
	copy(cursor, c.Offsets)
	for i, t := range triples {
		edge := int64(i)
		c.Pairs[cursor[t.Head]] = Pair{Edge: edge, Neighbor: t.Tail}
		cursor[t.Head]++
		c.Pairs[cursor[t.Tail]] = Pair{Edge: edge, Neighbor: t.Head}
		cursor[t.Tail]++
	}

	return c, nil
}

// NumEntities returns the number of rows in the structure.
func (c *Compressed) NumEntities() int64 {
	return int64(len(c.Degrees))
}

// NumEdges returns the number of triples the structure was built from.
func (c *Compressed) NumEdges() int64 {
	return c.numTriples
}

// Neighbors returns the adjacency segment of entity e. The returned slice
// aliases the internal array and must not be modified.
func (c *Compressed) Neighbors(e int64) []Pair {
	if e < 0 || e >= int64(len(c.Degrees)) {
		return nil
	}
	start := c.Offsets[e]
	return c.Pairs[start : start+c.Degrees[e]]
}

// Validate re-checks the structural invariants: degree sum, exclusive
// prefix sum and bounds.
func (c *Compressed) Validate() error {
	if len(c.Offsets) != len(c.Degrees) {
		return fmt.Errorf("%w: %d offsets for %d degrees", ErrInvalidOffsets, len(c.Offsets), len(c.Degrees))
	}
	var running int64
	for e, d := range c.Degrees {
		if d < 0 {
			return fmt.Errorf("%w: negative degree at entity %d", ErrInvalidOffsets, e)
		}
		if c.Offsets[e] != running {
			return fmt.Errorf("%w: offsets[%d]=%d, want %d", ErrInvalidOffsets, e, c.Offsets[e], running)
		}
		running += d
	}
	if running != 2*c.numTriples {
		return fmt.Errorf("%w: got %d, want %d", ErrDegreeSum, running, 2*c.numTriples)
	}
	if running != int64(len(c.Pairs)) {
		return fmt.Errorf("%w: segments cover %d pairs, array holds %d", ErrInvalidOffsets, running, len(c.Pairs))
	}
	for i, p := range c.Pairs {
		if p.Edge < 0 || p.Edge >= c.numTriples || p.Neighbor < 0 || p.Neighbor >= int64(len(c.Degrees)) {
			return fmt.Errorf("%w: pair %d %+v", ErrIDOutOfRange, i, p)
		}
	}
	return nil
}
