// Package alias implements Walker's alias method (Vose's variant) for O(1)
// sampling from a fixed discrete distribution.
package alias

import (
	"math"
	"math/rand/v2"
)

// entry is one bucket of the alias table.
type entry struct {
	prob  float64
	alias int64
}

// Table is an immutable alias table over the ids [0, Len()).
type Table struct {
	entries []entry
}

// New builds an alias table for weights raised to power. Non-positive
// weights get probability zero; if every weight is zero the table falls
// back to the uniform distribution.
func New(weights []float64, power float64) *Table {
	n := len(weights)
	t := &Table{entries: make([]entry, n)}
	if n == 0 {
		return t
	}

	// Apply power transformation and normalize
	sum := 0.0
	norm := make([]float64, n)
	for i, w := range weights {
		if w > 0 {
			norm[i] = math.Pow(w, power)
		}
		sum += norm[i]
	}

	if sum == 0 {
		for i := range t.entries {
			t.entries[i] = entry{prob: 1.0, alias: int64(i)}
		}
		return t
	}

	for i := range norm {
		norm[i] = norm[i] * float64(n) / sum
	}

	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, p := range norm {
		if p < 1.0 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		l := small[len(small)-1]
		small = small[:len(small)-1]

		g := large[len(large)-1]
		large = large[:len(large)-1]

		t.entries[l] = entry{prob: norm[l], alias: int64(g)}

		norm[g] = norm[g] + norm[l] - 1.0
		if norm[g] < 1.0 {
			small = append(small, g)
		} else {
			large = append(large, g)
		}
	}

	// leftovers are 1.0 up to rounding
	for _, g := range large {
		t.entries[g] = entry{prob: 1.0, alias: int64(g)}
	}
	for _, l := range small {
		t.entries[l] = entry{prob: 1.0, alias: int64(l)}
	}

	return t
}

// Len returns the number of outcomes.
func (t *Table) Len() int {
	return len(t.entries)
}

// Sample draws one id. It returns -1 for an empty table.
func (t *Table) Sample(rng *rand.Rand) int64 {
	n := len(t.entries)
	if n == 0 {
		return -1
	}

	i := rng.IntN(n)
	if rng.Float64() < t.entries[i].prob {
		return int64(i)
	}
	return t.entries[i].alias
}

// Probabilities reconstructs the sampling distribution encoded by the table.
func (t *Table) Probabilities() []float64 {
	n := len(t.entries)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	share := 1.0 / float64(n)
	for i, e := range t.entries {
		out[i] += share * e.prob
		out[e.alias] += share * (1 - e.prob)
	}
	return out
}
