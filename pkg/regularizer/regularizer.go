// Package regularizer accumulates penalty terms over embedding tensors.
//
// A tensor is a batch of vectors given as [][]float64; every penalty is
// computed per row and reduced over the batch. A Regularizer collects terms
// across Update calls until Reset, and Term reports the accumulated value
// scaled by the regularizer's weight.
package regularizer

import (
	"errors"
)

var (
	// ErrUnsupportedNorm is returned when dimension normalization is
	// requested for an Lp norm other than p=1 or p=2.
	ErrUnsupportedNorm = errors.New("regularizer: normalization only supported for p=1 and p=2")

	// ErrTensorCount is returned when TransH receives anything but exactly
	// four tensors.
	ErrTensorCount = errors.New("regularizer: expects exactly four tensors")

	// ErrCombineNo is returned when a no-op regularizer is combined.
	ErrCombineNo = errors.New("regularizer: cannot combine a no-op regularizer")

	// ErrInvalidParameter is returned for non-positive weights, norms or an
	// empty combination.
	ErrInvalidParameter = errors.New("regularizer: invalid parameter")

	// ErrUnknownRegularizer is returned for a name that is not registered.
	ErrUnknownRegularizer = errors.New("regularizer: unknown regularizer")

	// ErrDuplicateRegularizer is returned when a name is registered twice.
	ErrDuplicateRegularizer = errors.New("regularizer: regularizer already registered")
)

// Regularizer accumulates a weighted penalty.
type Regularizer interface {
	// Update adds the penalty of the given tensors to the running term.
	Update(tensors ...[][]float64) error

	// Term returns the running term multiplied by Weight.
	Term() float64

	// Reset sets the running term back to zero.
	Reset()

	// Weight returns the overall regularization weight.
	Weight() float64
}

// Penalizer is a Regularizer whose term is a sum of independent per-tensor
// penalties. Only Penalizers can be combined.
type Penalizer interface {
	Regularizer

	// Penalty returns the unweighted penalty of one tensor.
	Penalty(x [][]float64) (float64, error)
}

// accumulator holds the weight and running term shared by all regularizers.
type accumulator struct {
	weight float64
	term   float64
}

func (a *accumulator) Term() float64 {
	return a.term * a.weight
}

func (a *accumulator) Reset() {
	a.term = 0
}

func (a *accumulator) Weight() float64 {
	return a.weight
}

// update sums p over tensors and adds the result to the running term. The
// term is left untouched if any tensor fails.
func (a *accumulator) update(p func([][]float64) (float64, error), tensors [][][]float64) error {
	sum := 0.0
	for _, x := range tensors {
		v, err := p(x)
		if err != nil {
			return err
		}
		sum += v
	}
	a.term += sum
	return nil
}

// No never penalizes anything.
type No struct {
	accumulator
}

// NewNo returns a no-op regularizer with weight one.
func NewNo() *No {
	return &No{accumulator{weight: 1}}
}

// Update implements Regularizer; it ignores its input.
func (*No) Update(...[][]float64) error {
	return nil
}

// Penalty implements Penalizer and is always zero.
func (*No) Penalty([][]float64) (float64, error) {
	return 0, nil
}

// rowMean averages f over the rows of x. An empty tensor yields zero.
func rowMean(x [][]float64, f func([]float64) float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, row := range x {
		sum += f(row)
	}
	return sum / float64(len(x))
}

// width returns the vector dimension of x.
func width(x [][]float64) int {
	if len(x) == 0 {
		return 0
	}
	return len(x[0])
}
