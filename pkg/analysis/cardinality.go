// Package analysis computes descriptive statistics over id-mapped triples:
// relation cardinality types, relation patterns with support and
// confidence, id counts and an order-invariant triple set hash.
package analysis

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/cnclabs/kgsample/pkg/knowledge"
)

// Relation cardinality types.
const (
	OneToOne   = "one-to-one"
	OneToMany  = "one-to-many"
	ManyToOne  = "many-to-one"
	ManyToMany = "many-to-many"
)

// PatternMatch is a relation together with a pattern type, the pattern's
// support and its confidence.
type PatternMatch struct {
	RelationID int64
	Pattern    string
	Support    int
	Confidence float64
}

// RelationStats summarizes how one relation connects heads and tails.
type RelationStats struct {
	RelationID int64
	// NumHeads and NumTails count distinct heads and tails.
	NumHeads int
	NumTails int
	// TailsPerHead is the mean number of distinct tails per distinct head.
	TailsPerHead float64
	// HeadsPerTail is the mean number of distinct heads per distinct tail.
	HeadsPerTail float64
	// HeadInjective is the fraction of heads with exactly one tail.
	HeadInjective float64
	// TailInjective is the fraction of tails with exactly one head.
	TailInjective float64
}

// CardinalityStats computes RelationStats for every relation that occurs
// in triples, sorted by relation id. Duplicate triples are counted once.
func CardinalityStats(triples []knowledge.Triple) []RelationStats {
	tailsOf := make(map[int64]map[int64]map[int64]struct{})
	headsOf := make(map[int64]map[int64]map[int64]struct{})
	for _, t := range triples {
		addNested(tailsOf, t.Relation, t.Head, t.Tail)
		addNested(headsOf, t.Relation, t.Tail, t.Head)
	}

	relations := make([]int64, 0, len(tailsOf))
	for r := range tailsOf {
		relations = append(relations, r)
	}
	slices.Sort(relations)

	out := make([]RelationStats, 0, len(relations))
	for _, r := range relations {
		tph, headInj := fanOut(tailsOf[r])
		hpt, tailInj := fanOut(headsOf[r])
		out = append(out, RelationStats{
			RelationID:    r,
			NumHeads:      len(tailsOf[r]),
			NumTails:      len(headsOf[r]),
			TailsPerHead:  tph,
			HeadsPerTail:  hpt,
			HeadInjective: headInj,
			TailInjective: tailInj,
		})
	}
	return out
}

// fanOut returns the mean set size and the fraction of sets of size one.
func fanOut(sets map[int64]map[int64]struct{}) (mean, injective float64) {
	sizes := make([]float64, 0, len(sets))
	single := make([]float64, 0, len(sets))
	for _, s := range sets {
		sizes = append(sizes, float64(len(s)))
		if len(s) <= 1 {
			single = append(single, 1)
		} else {
			single = append(single, 0)
		}
	}
	if len(sizes) == 0 {
		return 0, 0
	}
	return stat.Mean(sizes, nil), stat.Mean(single, nil)
}

func addNested(m map[int64]map[int64]map[int64]struct{}, a, b, c int64) {
	inner, ok := m[a]
	if !ok {
		inner = make(map[int64]map[int64]struct{})
		m[a] = inner
	}
	set, ok := inner[b]
	if !ok {
		set = make(map[int64]struct{})
		inner[b] = set
	}
	set[c] = struct{}{}
}

// RelationCardinalityTypes soft-classifies every relation into the four
// cardinality types. For each relation the confidences of the four types
// sum to one; entries with zero confidence are dropped.
func RelationCardinalityTypes(triples []knowledge.Triple) []PatternMatch {
	var out []PatternMatch
	for _, s := range CardinalityStats(triples) {
		support := s.NumHeads + s.NumTails
		candidates := []PatternMatch{
			{s.RelationID, OneToOne, support, s.HeadInjective * s.TailInjective},
			{s.RelationID, OneToMany, support, (1 - s.HeadInjective) * s.TailInjective},
			{s.RelationID, ManyToOne, support, s.HeadInjective * (1 - s.TailInjective)},
			{s.RelationID, ManyToMany, support, (1 - s.HeadInjective) * (1 - s.TailInjective)},
		}
		for _, c := range candidates {
			if c.Confidence > 0 {
				out = append(out, c)
			}
		}
	}
	return out
}
