package regularizer

import (
	"fmt"
)

// Combined is a convex combination of penalizers. The penalty of a tensor
// is sum_i w_i * p_i(x) / sum_i w_i where w_i is the weight of member i.
type Combined struct {
	accumulator
	members []Penalizer
	norm    float64
}

// NewCombined combines members under an overall weight.
func NewCombined(totalWeight float64, members ...Penalizer) (*Combined, error) {
	if totalWeight <= 0 {
		return nil, fmt.Errorf("%w: total weight %v", ErrInvalidParameter, totalWeight)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: nothing to combine", ErrInvalidParameter)
	}

	sum := 0.0
	for i, m := range members {
		if _, ok := m.(*No); ok {
			return nil, fmt.Errorf("%w: member %d", ErrCombineNo, i)
		}
		sum += m.Weight()
	}

	return &Combined{
		accumulator: accumulator{weight: totalWeight},
		members:     members,
		norm:        1 / sum,
	}, nil
}

// Members returns the combined penalizers.
func (r *Combined) Members() []Penalizer {
	return r.members
}

// Penalty implements Penalizer.
func (r *Combined) Penalty(x [][]float64) (float64, error) {
	sum := 0.0
	for _, m := range r.members {
		v, err := m.Penalty(x)
		if err != nil {
			return 0, err
		}
		sum += m.Weight() * v
	}
	return r.norm * sum, nil
}

// Update implements Regularizer.
func (r *Combined) Update(tensors ...[][]float64) error {
	return r.update(r.Penalty, tensors)
}
