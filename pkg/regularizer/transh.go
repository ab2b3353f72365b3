package regularizer

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Defaults of the TransH soft constraints.
const (
	DefaultTransHWeight  = 0.05
	DefaultTransHEpsilon = 1e-5
)

// TransH enforces the soft constraints of the TransH model: entity
// embeddings stay inside the unit ball and relation translations stay
// orthogonal to the relation hyperplane normals.
type TransH struct {
	accumulator
	epsilon float64
}

// NewTransH creates a TransH regularizer.
func NewTransH(weight, epsilon float64) (*TransH, error) {
	if weight <= 0 || epsilon < 0 {
		return nil, fmt.Errorf("%w: weight=%v epsilon=%v", ErrInvalidParameter, weight, epsilon)
	}
	return &TransH{accumulator: accumulator{weight: weight}, epsilon: epsilon}, nil
}

// Update expects the head, tail, relation translation and hyperplane
// normal tensors, in that order.
//
//	sum relu(|h|^2 - 1) + sum relu(|t|^2 - 1) + sum relu(sum((w_r * d_r/|d_r|)^2) - eps)
func (r *TransH) Update(tensors ...[][]float64) error {
	if len(tensors) != 4 {
		return fmt.Errorf("%w: got %d", ErrTensorCount, len(tensors))
	}
	h, t, w, d := tensors[0], tensors[1], tensors[2], tensors[3]
	if len(w) != len(d) {
		return fmt.Errorf("%w: %d translations for %d normals", ErrInvalidParameter, len(w), len(d))
	}

	sum := unitBall(h) + unitBall(t)
	for i := range w {
		if len(w[i]) != len(d[i]) {
			return fmt.Errorf("%w: row %d has widths %d and %d", ErrInvalidParameter, i, len(w[i]), len(d[i]))
		}
		normal := slices.Clone(d[i])
		if n := floats.Norm(normal, 2); n > 0 {
			floats.Scale(1/n, normal)
		}
		floats.Mul(normal, w[i])
		sum += relu(floats.Dot(normal, normal) - r.epsilon)
	}
	r.term += sum
	return nil
}

func unitBall(x [][]float64) float64 {
	sum := 0.0
	for _, row := range x {
		n := floats.Norm(row, 2)
		sum += relu(n*n - 1)
	}
	return sum
}

func relu(v float64) float64 {
	return max(v, 0)
}
