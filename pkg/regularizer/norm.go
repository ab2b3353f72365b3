package regularizer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Lp penalizes the mean Lp norm of the rows of each tensor.
type Lp struct {
	accumulator
	p         float64
	normalize bool
}

// NewLp creates an Lp regularizer. With normalize the norm is divided by
// the expected norm growth in the dimension d: d for p=1 and sqrt(d) for
// p=2, which makes the weight independent of the embedding width.
func NewLp(weight, p float64, normalize bool) (*Lp, error) {
	if weight <= 0 || p <= 0 {
		return nil, fmt.Errorf("%w: weight=%v p=%v", ErrInvalidParameter, weight, p)
	}
	if normalize && p != 1 && p != 2 {
		return nil, fmt.Errorf("%w: got p=%v", ErrUnsupportedNorm, p)
	}
	return &Lp{accumulator: accumulator{weight: weight}, p: p, normalize: normalize}, nil
}

// P returns the norm order.
func (r *Lp) P() float64 {
	return r.p
}

// Penalty implements Penalizer.
func (r *Lp) Penalty(x [][]float64) (float64, error) {
	value := rowMean(x, func(row []float64) float64 {
		return floats.Norm(row, r.p)
	})
	if !r.normalize || len(x) == 0 {
		return value, nil
	}
	d := float64(width(x))
	if d == 0 {
		return 0, nil
	}
	if r.p == 1 {
		return value / d, nil
	}
	return value / math.Sqrt(d), nil
}

// Update implements Regularizer.
func (r *Lp) Update(tensors ...[][]float64) error {
	return r.update(r.Penalty, tensors)
}

// PowerSum penalizes the mean over rows of sum_i |x_i|^p.
type PowerSum struct {
	accumulator
	p         float64
	normalize bool
}

// NewPowerSum creates a PowerSum regularizer. With normalize the value is
// divided by the vector dimension.
func NewPowerSum(weight, p float64, normalize bool) (*PowerSum, error) {
	if weight <= 0 || p <= 0 {
		return nil, fmt.Errorf("%w: weight=%v p=%v", ErrInvalidParameter, weight, p)
	}
	return &PowerSum{accumulator: accumulator{weight: weight}, p: p, normalize: normalize}, nil
}

// Penalty implements Penalizer.
func (r *PowerSum) Penalty(x [][]float64) (float64, error) {
	value := rowMean(x, func(row []float64) float64 {
		s := 0.0
		for _, v := range row {
			s += math.Pow(math.Abs(v), r.p)
		}
		return s
	})
	if r.normalize {
		if d := width(x); d > 0 {
			value /= float64(d)
		}
	}
	return value, nil
}

// Update implements Regularizer.
func (r *PowerSum) Update(tensors ...[][]float64) error {
	return r.update(r.Penalty, tensors)
}
