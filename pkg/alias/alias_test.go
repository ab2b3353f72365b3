package alias_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/cnclabs/kgsample/pkg/alias"
)

func TestNew_EncodesDistribution(t *testing.T) {
	weights := []float64{1, 2, 3, 0, 4}
	tbl := alias.New(weights, 1.0)
	require.Equal(t, 5, tbl.Len())

	want := []float64{0.1, 0.2, 0.3, 0, 0.4}
	assert.True(t, floats.EqualApprox(want, tbl.Probabilities(), 1e-9), "got %v", tbl.Probabilities())
}

func TestNew_Power(t *testing.T) {
	weights := []float64{1, 16}
	tbl := alias.New(weights, 0.5)

	// 1^0.5 = 1, 16^0.5 = 4
	assert.True(t, floats.EqualApprox([]float64{0.2, 0.8}, tbl.Probabilities(), 1e-9))
}

func TestNew_AllZeroIsUniform(t *testing.T) {
	tbl := alias.New([]float64{0, 0, 0, 0}, 0.75)
	assert.True(t, floats.EqualApprox([]float64{0.25, 0.25, 0.25, 0.25}, tbl.Probabilities(), 1e-12))
}

func TestSample_Empty(t *testing.T) {
	tbl := alias.New(nil, 1.0)
	assert.EqualValues(t, -1, tbl.Sample(rand.New(rand.NewPCG(1, 1))))
}

func TestSample_Frequencies(t *testing.T) {
	weights := []float64{5, 1, 0, 4}
	tbl := alias.New(weights, 1.0)
	rng := rand.New(rand.NewPCG(42, 42))

	const draws = 200000
	counts := make([]float64, len(weights))
	for i := 0; i < draws; i++ {
		counts[tbl.Sample(rng)]++
	}
	floats.Scale(1.0/draws, counts)

	want := []float64{0.5, 0.1, 0, 0.4}
	for i := range want {
		assert.InDelta(t, want[i], counts[i], 0.01, "id %d", i)
	}
	assert.Zero(t, counts[2])
	assert.False(t, math.IsNaN(floats.Sum(counts)))
}
