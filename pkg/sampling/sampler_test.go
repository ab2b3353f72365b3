package sampling_test

import (
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/kgsample/pkg/knowledge"
	"github.com/cnclabs/kgsample/pkg/metrics"
	"github.com/cnclabs/kgsample/pkg/sampling"
)

func mustGraph(t testing.TB, triples []knowledge.Triple, numEntities, numRelations int64) *knowledge.KnowledgeGraph {
	t.Helper()
	kg, err := knowledge.FromMapped(triples, numEntities, numRelations)
	require.NoError(t, err)
	return kg
}

func cycle3(t testing.TB) *knowledge.KnowledgeGraph {
	return mustGraph(t, []knowledge.Triple{
		{Head: 0, Relation: 0, Tail: 1},
		{Head: 1, Relation: 0, Tail: 2},
		{Head: 2, Relation: 0, Tail: 0},
	}, 3, 1)
}

func randomGraph(t testing.TB, seed uint64, numEntities, numRelations int64, n int) *knowledge.KnowledgeGraph {
	rng := rand.New(rand.NewPCG(seed, seed))
	triples := make([]knowledge.Triple, n)
	for i := range triples {
		triples[i] = knowledge.Triple{
			Head:     rng.Int64N(numEntities),
			Relation: rng.Int64N(numRelations),
			Tail:     rng.Int64N(numEntities),
		}
	}
	return mustGraph(t, triples, numEntities, numRelations)
}

func randomBatch(kg *knowledge.KnowledgeGraph, seed uint64, size int) []knowledge.Triple {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	batch := make([]knowledge.Triple, size)
	for i := range batch {
		batch[i] = kg.Triples[rng.IntN(len(kg.Triples))]
	}
	return batch
}

type constructor func(*knowledge.KnowledgeGraph, ...sampling.Option) (*sampling.Sampler, error)

var constructors = map[string]constructor{
	"basic":     sampling.NewBasic,
	"bernoulli": sampling.NewBernoulli,
	"degree":    sampling.NewDegree,
}

// requireCorruption asserts that every negative differs from its source in
// exactly one of head or tail, keeps the relation and stays in bounds.
func requireCorruption(t *testing.T, positive, negative []knowledge.Triple, k int, numEntities int64) {
	t.Helper()
	require.Len(t, negative, len(positive)*k)
	for i, p := range positive {
		for j := 0; j < k; j++ {
			n := negative[i*k+j]
			require.Equal(t, p.Relation, n.Relation, "relation changed at %d/%d", i, j)
			headChanged := n.Head != p.Head
			tailChanged := n.Tail != p.Tail
			require.True(t, headChanged != tailChanged, "exactly one side must change: %v -> %v", p, n)
			require.GreaterOrEqual(t, n.Head, int64(0))
			require.Less(t, n.Head, numEntities)
			require.GreaterOrEqual(t, n.Tail, int64(0))
			require.Less(t, n.Tail, numEntities)
		}
	}
}

func TestSample_CycleScenario(t *testing.T) {
	s, err := sampling.NewBasic(cycle3(t), sampling.WithNumNegsPerPos(2), sampling.WithSeed(1))
	require.NoError(t, err)

	positive := []knowledge.Triple{{Head: 0, Relation: 0, Tail: 1}}
	for round := 0; round < 50; round++ {
		negative, mask := s.Sample(positive)
		assert.Nil(t, mask)
		require.Len(t, negative, 2)
		for _, n := range negative {
			assert.EqualValues(t, 0, n.Relation)
		}
		requireCorruption(t, positive, negative, 2, 3)
	}
}

func TestSample_PropertiesAllKinds(t *testing.T) {
	kg := randomGraph(t, 3, 40, 5, 300)
	for name, newSampler := range constructors {
		t.Run(name, func(t *testing.T) {
			s, err := newSampler(kg, sampling.WithNumNegsPerPos(10), sampling.WithSeed(42))
			require.NoError(t, err)
			assert.Equal(t, 10, s.NumNegsPerPos())
			assert.Equal(t, name, s.Kind().String())

			for round := uint64(0); round < 5; round++ {
				positive := randomBatch(kg, round, 16)
				negative, _ := s.Sample(positive)
				requireCorruption(t, positive, negative, 10, kg.NumEntities)
			}
		})
	}
}

func TestSample_EmptyBatch(t *testing.T) {
	s, err := sampling.NewBernoulli(cycle3(t), sampling.WithNumNegsPerPos(3))
	require.NoError(t, err)
	negative, mask := s.Sample(nil)
	assert.Empty(t, negative)
	assert.Nil(t, mask)
}

func TestSample_TwoEntitiesAlwaysSwap(t *testing.T) {
	kg := mustGraph(t, []knowledge.Triple{{Head: 0, Relation: 0, Tail: 1}}, 2, 1)
	s, err := sampling.NewBasic(kg, sampling.WithNumNegsPerPos(8), sampling.WithSeed(9))
	require.NoError(t, err)

	negative, _ := s.Sample(kg.Triples)
	for _, n := range negative {
		// the only replacement for 0 is 1 and vice versa
		assert.Contains(t, []knowledge.Triple{{Head: 1, Relation: 0, Tail: 1}, {Head: 0, Relation: 0, Tail: 0}}, n)
	}
}

func TestBasic_HalfHeadHalfTail(t *testing.T) {
	kg := randomGraph(t, 5, 50, 3, 200)
	s, err := sampling.NewBasic(kg, sampling.WithNumNegsPerPos(50), sampling.WithSeed(7))
	require.NoError(t, err)

	positive := randomBatch(kg, 1, 200)
	negative, _ := s.Sample(positive)

	heads := 0
	for i, n := range negative {
		if n.Head != positive[i/50].Head {
			heads++
		}
	}
	assert.InDelta(t, 0.5, float64(heads)/float64(len(negative)), 0.02)
}

func TestSample_Reproducible(t *testing.T) {
	kg := randomGraph(t, 11, 30, 4, 100)
	positive := randomBatch(kg, 2, 32)

	a, err := sampling.NewBernoulli(kg, sampling.WithNumNegsPerPos(4), sampling.WithSeed(123))
	require.NoError(t, err)
	b, err := sampling.NewBernoulli(kg, sampling.WithNumNegsPerPos(4), sampling.WithSeed(123))
	require.NoError(t, err)

	first, _ := a.Sample(positive)
	same, _ := b.Sample(positive)
	assert.Equal(t, first, same)

	// the generator advances across calls rather than being reseeded
	second, _ := a.Sample(positive)
	assert.NotEqual(t, first, second)
}

func TestNew_ConfigurationErrors(t *testing.T) {
	for name, newSampler := range constructors {
		t.Run(name, func(t *testing.T) {
			_, err := newSampler(nil)
			assert.ErrorIs(t, err, sampling.ErrNilGraph)

			_, err = newSampler(cycle3(t), sampling.WithNumNegsPerPos(0))
			assert.ErrorIs(t, err, sampling.ErrInvalidNumNegatives)

			single := mustGraph(t, []knowledge.Triple{{Head: 0, Relation: 0, Tail: 0}}, 1, 1)
			_, err = newSampler(single)
			assert.ErrorIs(t, err, sampling.ErrTooFewEntities)

			_, err = newSampler(cycle3(t), sampling.WithPower(-1))
			assert.ErrorIs(t, err, sampling.ErrOptionViolation)

			_, err = newSampler(cycle3(t), sampling.WithMaxRedraws(-1))
			assert.ErrorIs(t, err, sampling.ErrOptionViolation)
		})
	}
}

func TestSample_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	s, err := sampling.NewBasic(cycle3(t), sampling.WithNumNegsPerPos(5), sampling.WithSeed(3), sampling.WithMetrics(collector))
	require.NoError(t, err)

	negative, _ := s.Sample(cycle3(t).Triples)
	require.Len(t, negative, 15)

	heads := testutil.ToFloat64(collector.NegativesTotal.WithLabelValues("basic", "head"))
	tails := testutil.ToFloat64(collector.NegativesTotal.WithLabelValues("basic", "tail"))
	assert.Equal(t, 15.0, heads+tails)
}
