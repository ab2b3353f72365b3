package sampling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/kgsample/pkg/knowledge"
	"github.com/cnclabs/kgsample/pkg/sampling"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"bernoulli":                "bernoulli",
		"BernoulliNegativeSampler": "bernoulli",
		"Bernoulli-Sampler":        "bernoulli",
		"basic_negative_sampler":   "basic",
		"Degree Sampler":           "degree",
		"sampler":                  "sampler",
	}
	for in, want := range cases {
		assert.Equal(t, want, sampling.NormalizeName(in), in)
	}
}

func TestParseKind(t *testing.T) {
	k, err := sampling.ParseKind("BasicNegativeSampler")
	require.NoError(t, err)
	assert.Equal(t, sampling.KindBasic, k)

	k, err = sampling.ParseKind("DEGREE")
	require.NoError(t, err)
	assert.Equal(t, sampling.KindDegree, k)

	_, err = sampling.ParseKind("pseudo-typed")
	assert.ErrorIs(t, err, sampling.ErrUnknownKind)

	assert.Equal(t, "kind(42)", sampling.Kind(42).String())
}

func TestRegistry(t *testing.T) {
	r := sampling.NewRegistry()
	_, err := r.Build(sampling.KindBasic, cycle3(t))
	assert.ErrorIs(t, err, sampling.ErrUnknownKind)

	require.NoError(t, r.RegisterDefaults())
	assert.Equal(t, []sampling.Kind{sampling.KindBasic, sampling.KindBernoulli, sampling.KindDegree}, r.Kinds())

	err = r.RegisterDefaults()
	assert.ErrorIs(t, err, sampling.ErrDuplicateKind)

	err = r.Register(sampling.Kind(9), nil)
	assert.ErrorIs(t, err, sampling.ErrOptionViolation)

	s, err := r.BuildByName("bernoulli_negative_sampler", cycle3(t), sampling.WithNumNegsPerPos(3))
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumNegsPerPos())
	negative, _ := s.Sample(cycle3(t).Triples)
	assert.Len(t, negative, 9)

	_, err = r.BuildByName("unknown", cycle3(t))
	assert.ErrorIs(t, err, sampling.ErrUnknownKind)

	// constructor errors pass through untouched
	_, err = r.Build(sampling.KindDegree, nil)
	assert.ErrorIs(t, err, sampling.ErrNilGraph)
}

func TestRegistry_CustomKind(t *testing.T) {
	const kindFixed sampling.Kind = 100
	r := sampling.NewRegistry()
	err := r.Register(kindFixed, func(kg *knowledge.KnowledgeGraph, opts ...sampling.Option) (sampling.NegativeSampler, error) {
		return sampling.NewBasic(kg, append(opts, sampling.WithSeed(1))...)
	})
	require.NoError(t, err)

	s, err := r.Build(kindFixed, cycle3(t))
	require.NoError(t, err)
	assert.Equal(t, 1, s.NumNegsPerPos())
}
