package regularizer

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cnclabs/kgsample/pkg/logger"
)

// DefaultName is the regularizer built for an empty name.
const DefaultName = "no"

// Params carries the hyperparameters understood by the built-in
// constructors. Zero values select the defaults: weight 1 (0.05 for
// TransH), p=2 and epsilon 1e-5.
type Params struct {
	Weight    float64
	P         float64
	Normalize bool
	Epsilon   float64

	// Members are the penalizers of a combined regularizer.
	Members []Penalizer
}

func (p Params) weightOr(def float64) float64 {
	if p.Weight == 0 {
		return def
	}
	return p.Weight
}

func (p Params) norm() float64 {
	if p.P == 0 {
		return 2
	}
	return p.P
}

// Constructor builds a regularizer from Params.
type Constructor func(Params) (Regularizer, error)

// NormalizeName lower-cases name, drops separators and strips a trailing
// "regularizer", so "LpRegularizer", "lp" and "Lp-Regularizer" all
// normalize to "lp".
func NormalizeName(name string) string {
	n := strings.ToLower(name)
	n = strings.NewReplacer("_", "", "-", "", " ", "").Replace(n)
	if trimmed, ok := strings.CutSuffix(n, "regularizer"); ok && trimmed != "" {
		return trimmed
	}
	return n
}

// Registry maps normalized names to constructors. The zero value is not
// usable; create one with NewRegistry.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under the normalized form of name.
func (r *Registry) Register(name string, c Constructor) error {
	key := NormalizeName(name)
	if c == nil || key == "" {
		return fmt.Errorf("%w: cannot register %q", ErrInvalidParameter, name)
	}
	if _, ok := r.constructors[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRegularizer, key)
	}
	r.constructors[key] = c
	return nil
}

// RegisterDefaults registers no, lp, powersum, transh and combined.
func (r *Registry) RegisterDefaults() error {
	defaults := map[string]Constructor{
		"no": func(Params) (Regularizer, error) {
			return NewNo(), nil
		},
		"lp": func(p Params) (Regularizer, error) {
			return wrap(NewLp(p.weightOr(1), p.norm(), p.Normalize))
		},
		"powersum": func(p Params) (Regularizer, error) {
			return wrap(NewPowerSum(p.weightOr(1), p.norm(), p.Normalize))
		},
		"transh": func(p Params) (Regularizer, error) {
			eps := p.Epsilon
			if eps == 0 {
				eps = DefaultTransHEpsilon
			}
			return wrap(NewTransH(p.weightOr(DefaultTransHWeight), eps))
		},
		"combined": func(p Params) (Regularizer, error) {
			return wrap(NewCombined(p.weightOr(1), p.Members...))
		},
	}
	for _, name := range slices.Sorted(maps.Keys(defaults)) {
		if err := r.Register(name, defaults[name]); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.constructors))
}

// Build constructs the regularizer registered under name. An empty name
// builds DefaultName.
func (r *Registry) Build(name string, p Params) (Regularizer, error) {
	key := NormalizeName(name)
	if key == "" {
		key = DefaultName
	}
	c, ok := r.constructors[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegularizer, name)
	}
	reg, err := c(p)
	if err != nil {
		return nil, err
	}
	logger.Debug("Regularizer ready", "name", key, "weight", reg.Weight())
	return reg, nil
}

// wrap keeps a failed constructor from returning a non-nil interface.
func wrap[T Regularizer](reg T, err error) (Regularizer, error) {
	if err != nil {
		return nil, err
	}
	return reg, nil
}
