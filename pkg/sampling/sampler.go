package sampling

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cnclabs/kgsample/pkg/alias"
	"github.com/cnclabs/kgsample/pkg/knowledge"
	"github.com/cnclabs/kgsample/pkg/metrics"
)

// Side names the corrupted position of a negative triple.
type Side int

const (
	SideHead Side = iota
	SideTail
)

func (s Side) String() string {
	if s == SideHead {
		return "head"
	}
	return "tail"
}

// NegativeSampler produces corrupted batches from positive batches.
type NegativeSampler interface {
	// Sample returns len(positive)*NumNegsPerPos() negatives and, if
	// filtering is enabled, a mask flagging known true triples (nil
	// otherwise).
	Sample(positive []knowledge.Triple) ([]knowledge.Triple, []bool)

	// NumNegsPerPos returns the number of negatives per positive.
	NumNegsPerPos() int
}

// Sampler is the concrete negative sampler behind all built-in kinds.
type Sampler struct {
	kind          Kind
	numEntities   int64
	numNegsPerPos int

	rng *rand.Rand

	// headChoice[r] decides the side for relation r; relations outside
	// the table use fallback.
	headChoice []distuv.Bernoulli
	fallback   distuv.Bernoulli

	// degree is non-nil for the degree-weighted scheme.
	degree     *alias.Table
	maxRedraws int

	filterer Filterer
	metrics  *metrics.Collector
}

var _ NegativeSampler = (*Sampler)(nil)

func newSampler(kind Kind, kg *knowledge.KnowledgeGraph, o Options) (*Sampler, error) {
	if kg == nil {
		return nil, ErrNilGraph
	}
	if kg.NumEntities < 2 {
		return nil, ErrTooFewEntities
	}
	return &Sampler{
		kind:          kind,
		numEntities:   kg.NumEntities,
		numNegsPerPos: o.NumNegsPerPos,
		rng:           rand.New(o.Source),
		fallback:      distuv.Bernoulli{P: 0.5, Src: o.Source},
		maxRedraws:    o.MaxRedraws,
		filterer:      o.Filterer,
		metrics:       o.Metrics,
	}, nil
}

// Kind reports which scheme the sampler implements.
func (s *Sampler) Kind() Kind {
	return s.kind
}

// NumNegsPerPos returns the number of negatives per positive.
func (s *Sampler) NumNegsPerPos() int {
	return s.numNegsPerPos
}

// NumEntities returns the size of the replacement id range.
func (s *Sampler) NumEntities() int64 {
	return s.numEntities
}

// HeadProbability returns the probability that a positive with the given
// relation is corrupted on the head.
func (s *Sampler) HeadProbability(relation int64) float64 {
	if relation >= 0 && relation < int64(len(s.headChoice)) {
		return s.headChoice[relation].P
	}
	return s.fallback.P
}

// Sample implements NegativeSampler.
func (s *Sampler) Sample(positive []knowledge.Triple) ([]knowledge.Triple, []bool) {
	k := s.numNegsPerPos
	negatives := make([]knowledge.Triple, len(positive)*k)

	var heads, tails, collisions int
	for i, p := range positive {
		for j := 0; j < k; j++ {
			n := p
			if s.chooseSide(p.Relation) == SideHead {
				var c int
				n.Head, c = s.replacement(p.Head)
				collisions += c
				heads++
			} else {
				var c int
				n.Tail, c = s.replacement(p.Tail)
				collisions += c
				tails++
			}
			negatives[i*k+j] = n
		}
	}

	name := s.kind.String()
	s.metrics.ObserveBatch(name, len(positive))
	s.metrics.AddNegatives(name, SideHead.String(), heads)
	s.metrics.AddNegatives(name, SideTail.String(), tails)
	s.metrics.AddCollisions(name, collisions)

	if s.filterer == nil {
		return negatives, nil
	}

	mask := make([]bool, len(negatives))
	filtered := 0
	for i, n := range negatives {
		if s.filterer.Contains(n) {
			mask[i] = true
			filtered++
		}
	}
	s.metrics.AddFiltered(name, filtered)

	return negatives, mask
}

func (s *Sampler) chooseSide(relation int64) Side {
	b := s.fallback
	if relation >= 0 && relation < int64(len(s.headChoice)) {
		b = s.headChoice[relation]
	}
	if b.Rand() == 1 {
		return SideHead
	}
	return SideTail
}

// replacement draws an entity id different from orig and reports how many
// draws collided with orig.
func (s *Sampler) replacement(orig int64) (int64, int) {
	collisions := 0
	if s.degree != nil {
		for i := 0; i < s.maxRedraws; i++ {
			if c := s.degree.Sample(s.rng); c != orig {
				return c, collisions
			}
			collisions++
		}
	}

	// uniform over [0, n) \ {orig}
	x := s.rng.Int64N(s.numEntities - 1)
	if x >= orig {
		x++
	}
	return x, collisions
}

// Compact drops the negatives flagged by mask. A nil mask returns the
// negatives unchanged.
func Compact(negatives []knowledge.Triple, mask []bool) []knowledge.Triple {
	if mask == nil {
		return negatives
	}
	out := make([]knowledge.Triple, 0, len(negatives))
	for i, n := range negatives {
		if !mask[i] {
			out = append(out, n)
		}
	}
	return out
}
