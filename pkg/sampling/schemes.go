package sampling

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cnclabs/kgsample/pkg/alias"
	"github.com/cnclabs/kgsample/pkg/analysis"
	"github.com/cnclabs/kgsample/pkg/knowledge"
	"github.com/cnclabs/kgsample/pkg/logger"
)

// NewBasic creates a sampler that corrupts the head or the tail with equal
// probability and draws replacements uniformly.
func NewBasic(kg *knowledge.KnowledgeGraph, opts ...Option) (*Sampler, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	s, err := newSampler(KindBasic, kg, o)
	if err != nil {
		return nil, err
	}

	logger.Debug("Basic negative sampler ready",
		"entities", s.numEntities,
		"num_negs_per_pos", s.numNegsPerPos,
	)
	return s, nil
}

// NewBernoulli creates a sampler that corrupts the head of a positive with
// relation r with probability tph/(tph+hpt), where tph is the mean number
// of distinct tails per head and hpt the mean number of distinct heads per
// tail of r in kg.Triples. Relations without training triples use 0.5.
func NewBernoulli(kg *knowledge.KnowledgeGraph, opts ...Option) (*Sampler, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	s, err := newSampler(KindBernoulli, kg, o)
	if err != nil {
		return nil, err
	}

	probs := CorruptionProbabilities(kg.Triples, kg.NumRelations)
	s.headChoice = make([]distuv.Bernoulli, len(probs))
	for r, p := range probs {
		s.headChoice[r] = distuv.Bernoulli{P: p, Src: o.Source}
	}

	logger.Debug("Bernoulli negative sampler ready",
		"entities", s.numEntities,
		"relations", len(probs),
		"num_negs_per_pos", s.numNegsPerPos,
	)
	return s, nil
}

// CorruptionProbabilities returns, for every relation id in
// [0, numRelations), the Bernoulli head-corruption probability
// tph/(tph+hpt). A non-positive numRelations defaults to the largest
// relation id plus one.
func CorruptionProbabilities(triples []knowledge.Triple, numRelations int64) []float64 {
	if numRelations <= 0 {
		numRelations = knowledge.NumRelationIDs(triples)
	}
	probs := make([]float64, numRelations)
	for r := range probs {
		probs[r] = 0.5
	}
	for _, st := range analysis.CardinalityStats(triples) {
		if st.RelationID < 0 || st.RelationID >= numRelations {
			continue
		}
		if denom := st.TailsPerHead + st.HeadsPerTail; denom > 0 {
			probs[st.RelationID] = st.TailsPerHead / denom
		}
	}
	return probs
}

// NewDegree creates a sampler that chooses the side like NewBasic but draws
// replacements proportionally to entity degree raised to the configured
// power (0.75 by default). Entities that never occur are never drawn, except
// through the uniform fallback used after MaxRedraws collisions.
func NewDegree(kg *knowledge.KnowledgeGraph, opts ...Option) (*Sampler, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	s, err := newSampler(KindDegree, kg, o)
	if err != nil {
		return nil, err
	}

	counts := analysis.EntityCounts(kg.Triples, kg.NumEntities)
	weights := make([]float64, len(counts))
	for i, c := range counts {
		weights[i] = float64(c)
	}
	s.degree = alias.New(weights, o.Power)

	logger.Debug("Degree negative sampler ready",
		"entities", s.numEntities,
		"power", o.Power,
		"max_redraws", s.maxRedraws,
	)
	return s, nil
}
