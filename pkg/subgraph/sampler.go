// Package subgraph draws mini-batches of triples whose entities form a
// connected subgraph, as used for relational message passing.
//
// Growth starts at a random entity and repeatedly takes an unpicked edge
// incident to the entities picked so far, choosing the entity in proportion
// to its remaining unpicked edges. When the current component has no edges
// left the sampler reseeds at a fresh entity, so sampling always terminates
// on disconnected graphs.
package subgraph

import (
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"

	"github.com/cnclabs/kgsample/pkg/adjacency"
	"github.com/cnclabs/kgsample/pkg/logger"
	"github.com/cnclabs/kgsample/pkg/metrics"
)

var (
	// ErrNilAdjacency is returned when no adjacency structure is supplied.
	ErrNilAdjacency = errors.New("subgraph: adjacency is nil")

	// ErrInvalidSampleSize is returned when the sample size is below one or
	// exceeds the number of triples.
	ErrInvalidSampleSize = errors.New("subgraph: sample size out of range")
)

// Option configures a GraphSampler.
type Option func(*GraphSampler)

// WithSeed seeds the sampler's PCG source.
func WithSeed(seed uint64) Option {
	return func(s *GraphSampler) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithSource uses src for every random draw.
func WithSource(src rand.Source) Option {
	return func(s *GraphSampler) {
		if src != nil {
			s.rng = rand.New(src)
		}
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *GraphSampler) {
		s.metrics = c
	}
}

// GraphSampler yields connected samples of triple indices. It is not safe
// for concurrent use.
type GraphSampler struct {
	adj        *adjacency.Compressed
	numSamples int64
	rng        *rand.Rand
	metrics    *metrics.Collector
}

// NewGraphSampler creates a sampler yielding numSamples distinct triple
// indices per sample.
func NewGraphSampler(adj *adjacency.Compressed, numSamples int64, opts ...Option) (*GraphSampler, error) {
	if adj == nil {
		return nil, ErrNilAdjacency
	}
	if numSamples < 1 || numSamples > adj.NumEdges() {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidSampleSize, numSamples, adj.NumEdges())
	}

	s := &GraphSampler{adj: adj, numSamples: numSamples}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	logger.Debug("Graph sampler ready",
		"entities", adj.NumEntities(),
		"triples", adj.NumEdges(),
		"num_samples", numSamples,
	)
	return s, nil
}

// NumSamples returns the number of triple indices per sample.
func (s *GraphSampler) NumSamples() int64 {
	return s.numSamples
}

// Sample returns a lazy sequence of NumSamples distinct triple indices.
// Every iteration starts a new growth process from a fresh random entity.
func (s *GraphSampler) Sample() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		g := newGrowth(s.adj, s.rng)
		for n := int64(0); n < s.numSamples; n++ {
			edge, reseeded := g.next()
			if reseeded {
				s.metrics.IncGraphReseed()
			}
			s.metrics.IncGraphSample()
			if !yield(edge) {
				return
			}
		}
	}
}

// Batch collects one sample.
func (s *GraphSampler) Batch() []int64 {
	out := make([]int64, 0, s.numSamples)
	for edge := range s.Sample() {
		out = append(out, edge)
	}
	return out
}

// growth is the per-sample state. work is a private copy of the pair array
// in which each entity segment is split into an active prefix of unpicked
// slots followed by removed ones.
type growth struct {
	rng     *rand.Rand
	offsets []int64
	work    []adjacency.Pair
	owner   []int64    // owner[pos] is the entity whose segment holds pos
	slots   [][2]int64 // positions of the two slots of every edge
	active  []int64    // unpicked slots per entity

	picked   []bool
	frontier *fenwick // active counts of picked entities
	open     *fenwick // 1 for every entity with active slots
}

func newGrowth(adj *adjacency.Compressed, rng *rand.Rand) *growth {
	n := int(adj.NumEntities())
	g := &growth{
		rng:      rng,
		offsets:  adj.Offsets,
		work:     make([]adjacency.Pair, len(adj.Pairs)),
		owner:    make([]int64, len(adj.Pairs)),
		slots:    make([][2]int64, adj.NumEdges()),
		active:   make([]int64, n),
		picked:   make([]bool, n),
		frontier: newFenwick(n),
		open:     newFenwick(n),
	}
	copy(g.work, adj.Pairs)
	copy(g.active, adj.Degrees)

	seen := make([]uint8, adj.NumEdges())
	for e := range n {
		start := adj.Offsets[e]
		for pos := start; pos < start+adj.Degrees[e]; pos++ {
			g.owner[pos] = int64(e)
			edge := g.work[pos].Edge
			g.slots[edge][seen[edge]] = pos
			seen[edge]++
		}
		if adj.Degrees[e] > 0 {
			g.open.add(e, 1)
		}
	}
	return g
}

// next picks one unpicked edge. The caller guarantees that one exists.
func (g *growth) next() (edge int64, reseeded bool) {
	var v int
	if g.frontier.total() > 0 {
		v = g.frontier.find(g.rng.Int64N(g.frontier.total()))
	} else {
		v = g.open.find(g.rng.Int64N(g.open.total()))
		g.pick(v)
		reseeded = true
	}

	pos := g.offsets[v] + g.rng.Int64N(g.active[v])
	p := g.work[pos]
	g.remove(p.Edge)
	g.pick(int(p.Neighbor))
	return p.Edge, reseeded
}

func (g *growth) pick(v int) {
	if g.picked[v] {
		return
	}
	g.picked[v] = true
	g.frontier.add(v, g.active[v])
}

// remove deactivates both slots of edge. The higher position goes first so
// that removing a self-loop never moves its second slot.
func (g *growth) remove(edge int64) {
	a, b := g.slots[edge][0], g.slots[edge][1]
	if a < b {
		a, b = b, a
	}
	g.removeSlot(a)
	g.removeSlot(b)
}

func (g *growth) removeSlot(pos int64) {
	v := g.owner[pos]
	last := g.offsets[v] + g.active[v] - 1
	g.swap(pos, last)
	g.active[v]--
	if g.picked[v] {
		g.frontier.add(int(v), -1)
	}
	if g.active[v] == 0 {
		g.open.add(int(v), -1)
	}
}

func (g *growth) swap(i, j int64) {
	if i == j {
		return
	}
	ei, ej := g.work[i].Edge, g.work[j].Edge
	g.work[i], g.work[j] = g.work[j], g.work[i]
	g.retarget(ei, i, j)
	g.retarget(ej, j, i)
}

func (g *growth) retarget(edge, from, to int64) {
	if g.slots[edge][0] == from {
		g.slots[edge][0] = to
	} else {
		g.slots[edge][1] = to
	}
}
