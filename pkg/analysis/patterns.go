package analysis

import (
	"cmp"
	"iter"
	"slices"

	"github.com/cnclabs/kgsample/pkg/knowledge"
	"github.com/cnclabs/kgsample/pkg/logger"
)

// Relation pattern types, following the RotatE taxonomy.
const (
	Symmetry     = "symmetry"
	AntiSymmetry = "anti-symmetry"
	Inversion    = "inversion"
	Composition  = "composition"
)

type entityPair struct {
	h, t int64
}

type pairSet map[entityPair]struct{}

// indexPairs groups the (head, tail) pairs of each relation.
func indexPairs(triples []knowledge.Triple) map[int64]pairSet {
	pairs := make(map[int64]pairSet)
	for _, t := range triples {
		s, ok := pairs[t.Relation]
		if !ok {
			s = make(pairSet)
			pairs[t.Relation] = s
		}
		s[entityPair{t.Head, t.Tail}] = struct{}{}
	}
	return pairs
}

func sortedRelations(pairs map[int64]pairSet) []int64 {
	out := make([]int64, 0, len(pairs))
	for r := range pairs {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// UnaryPatterns yields symmetry, r(x, y) => r(y, x), and anti-symmetry,
// r(x, y) => not r(y, x), for every relation.
func UnaryPatterns(triples []knowledge.Triple) iter.Seq[PatternMatch] {
	return func(yield func(PatternMatch) bool) {
		logger.Debug("Evaluating unary patterns", "patterns", "symmetry, anti-symmetry")
		pairs := indexPairs(triples)
		for _, r := range sortedRelations(pairs) {
			ht := pairs[r]
			support := len(ht)
			reversed := 0
			for p := range ht {
				if _, ok := ht[entityPair{p.t, p.h}]; ok {
					reversed++
				}
			}
			if !yield(PatternMatch{r, Symmetry, support, float64(reversed) / float64(support)}) {
				return
			}
			if !yield(PatternMatch{r, AntiSymmetry, support, float64(support-reversed) / float64(support)}) {
				return
			}
		}
	}
}

// BinaryPatterns yields inversion, r'(x, y) => r(y, x), for every ordered
// pair of distinct relations. The match is reported for the implied r with
// the support of r'.
func BinaryPatterns(triples []knowledge.Triple) iter.Seq[PatternMatch] {
	return func(yield func(PatternMatch) bool) {
		logger.Debug("Evaluating binary patterns", "patterns", "inversion")
		pairs := indexPairs(triples)
		relations := sortedRelations(pairs)
		for _, r1 := range relations {
			ht1 := pairs[r1]
			for _, r := range relations {
				if r == r1 {
					continue
				}
				ht := pairs[r]
				hits := 0
				for p := range ht1 {
					if _, ok := ht[entityPair{p.t, p.h}]; ok {
						hits++
					}
				}
				if !yield(PatternMatch{r, Inversion, len(ht1), float64(hits) / float64(len(ht1))}) {
					return
				}
			}
		}
	}
}

// CompositionCandidates returns all relation pairs (r1, r2) with at least
// one entity e such that (h, r1, e) and (e, r2, t) are both triples.
func CompositionCandidates(triples []knowledge.Triple) [][2]int64 {
	ins := make(map[int64]map[int64]struct{})
	outs := make(map[int64]map[int64]struct{})
	for _, t := range triples {
		addSet(outs, t.Head, t.Relation)
		addSet(ins, t.Tail, t.Relation)
	}

	seen := make(map[[2]int64]struct{})
	for e, r1s := range ins {
		for r1 := range r1s {
			for r2 := range outs[e] {
				seen[[2]int64{r1, r2}] = struct{}{}
			}
		}
	}

	out := make([][2]int64, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b [2]int64) int {
		return cmp.Or(cmp.Compare(a[0], b[0]), cmp.Compare(a[1], b[1]))
	})
	return out
}

func addSet(m map[int64]map[int64]struct{}, k, v int64) {
	s, ok := m[k]
	if !ok {
		s = make(map[int64]struct{})
		m[k] = s
	}
	s[v] = struct{}{}
}

// TernaryPatterns yields composition, r1(x, y) and r2(y, z) => r(x, z),
// for every candidate pair (r1, r2) and every relation r.
func TernaryPatterns(triples []knowledge.Triple) iter.Seq[PatternMatch] {
	return func(yield func(PatternMatch) bool) {
		candidates := CompositionCandidates(triples)
		logger.Debug("Evaluating ternary patterns", "patterns", "composition", "candidates", len(candidates))

		pairs := indexPairs(triples)
		relations := sortedRelations(pairs)

		// adj[r][h] = tails of h under r
		adj := make(map[int64]map[int64][]int64)
		for r, ht := range pairs {
			byHead := make(map[int64][]int64)
			for p := range ht {
				byHead[p.h] = append(byHead[p.h], p.t)
			}
			adj[r] = byHead
		}

		for _, c := range candidates {
			r1, r2 := c[0], c[1]
			lhs := make(pairSet)
			for p := range pairs[r1] {
				for _, z := range adj[r2][p.t] {
					lhs[entityPair{p.h, z}] = struct{}{}
				}
			}
			support := len(lhs)
			if support == 0 {
				continue
			}
			for _, r := range relations {
				ht := pairs[r]
				hits := 0
				for p := range lhs {
					if _, ok := ht[p]; ok {
						hits++
					}
				}
				if !yield(PatternMatch{r, Composition, support, float64(hits) / float64(support)}) {
					return
				}
			}
		}
	}
}

// Patterns chains UnaryPatterns, BinaryPatterns and TernaryPatterns.
func Patterns(triples []knowledge.Triple) iter.Seq[PatternMatch] {
	return func(yield func(PatternMatch) bool) {
		for _, seq := range []iter.Seq[PatternMatch]{
			UnaryPatterns(triples),
			BinaryPatterns(triples),
			TernaryPatterns(triples),
		} {
			for m := range seq {
				if !yield(m) {
					return
				}
			}
		}
	}
}

// Skyline keeps, per (relation, pattern), only the matches not dominated
// by another match with both larger support and larger confidence.
func Skyline(matches iter.Seq[PatternMatch]) []PatternMatch {
	type key struct {
		relation int64
		pattern  string
	}
	type point struct {
		support    int
		confidence float64
	}

	groups := make(map[key]map[point]struct{})
	var order []key
	for m := range matches {
		k := key{m.RelationID, m.Pattern}
		g, ok := groups[k]
		if !ok {
			g = make(map[point]struct{})
			groups[k] = g
			order = append(order, k)
		}
		g[point{m.Support, m.Confidence}] = struct{}{}
	}

	var out []PatternMatch
	for _, k := range order {
		points := make([]point, 0, len(groups[k]))
		for p := range groups[k] {
			points = append(points, p)
		}
		// decreasing support, then decreasing confidence
		slices.SortFunc(points, func(a, b point) int {
			return cmp.Or(cmp.Compare(b.support, a.support), cmp.Compare(b.confidence, a.confidence))
		})
		largest := -1.0
		for _, p := range points {
			if p.confidence > largest {
				out = append(out, PatternMatch{k.relation, k.pattern, p.support, p.confidence})
				largest = p.confidence
			}
		}
	}
	return out
}

// RelationPatternTypes categorizes relations by symmetry, anti-symmetry,
// inversion and composition. Zero-confidence matches are dropped, only the
// support/confidence skyline is kept, and the result is sorted by pattern,
// relation, confidence and support.
func RelationPatternTypes(triples []knowledge.Triple) []PatternMatch {
	nonZero := func(yield func(PatternMatch) bool) {
		for m := range Patterns(triples) {
			if m.Confidence > 0 && !yield(m) {
				return
			}
		}
	}

	out := Skyline(nonZero)
	slices.SortFunc(out, func(a, b PatternMatch) int {
		return cmp.Or(
			cmp.Compare(a.Pattern, b.Pattern),
			cmp.Compare(a.RelationID, b.RelationID),
			cmp.Compare(a.Confidence, b.Confidence),
			cmp.Compare(a.Support, b.Support),
		)
	})
	return out
}
