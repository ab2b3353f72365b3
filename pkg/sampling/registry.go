package sampling

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cnclabs/kgsample/pkg/knowledge"
)

// Kind enumerates the built-in negative sampling schemes.
type Kind int

const (
	KindBasic Kind = iota + 1
	KindBernoulli
	KindDegree
)

var kindNames = map[Kind]string{
	KindBasic:     "basic",
	KindBernoulli: "bernoulli",
	KindDegree:    "degree",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// NormalizeName lower-cases name, drops separators and strips a trailing
// "negativesampler" or "sampler", so "BernoulliNegativeSampler",
// "bernoulli" and "Bernoulli-Sampler" all normalize to "bernoulli".
func NormalizeName(name string) string {
	n := strings.ToLower(name)
	n = strings.NewReplacer("_", "", "-", "", " ", "").Replace(n)
	for _, suffix := range []string{"negativesampler", "sampler"} {
		if trimmed, ok := strings.CutSuffix(n, suffix); ok && trimmed != "" {
			return trimmed
		}
	}
	return n
}

// ParseKind resolves a sampler name to its Kind.
func ParseKind(name string) (Kind, error) {
	n := NormalizeName(name)
	for k, v := range kindNames {
		if v == n {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Constructor builds a negative sampler for a knowledge graph.
type Constructor func(kg *knowledge.KnowledgeGraph, opts ...Option) (NegativeSampler, error)

// Registry maps sampler kinds to constructors. The zero value is not
// usable; create one with NewRegistry.
type Registry struct {
	constructors map[Kind]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[Kind]Constructor)}
}

// Register adds a constructor for kind.
func (r *Registry) Register(kind Kind, c Constructor) error {
	if c == nil {
		return fmt.Errorf("%w: nil constructor for %s", ErrOptionViolation, kind)
	}
	if _, ok := r.constructors[kind]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	r.constructors[kind] = c
	return nil
}

// RegisterDefaults registers the basic, bernoulli and degree schemes.
func (r *Registry) RegisterDefaults() error {
	defaults := []struct {
		kind Kind
		fn   func(*knowledge.KnowledgeGraph, ...Option) (*Sampler, error)
	}{
		{KindBasic, NewBasic},
		{KindBernoulli, NewBernoulli},
		{KindDegree, NewDegree},
	}
	for _, d := range defaults {
		fn := d.fn
		err := r.Register(d.kind, func(kg *knowledge.KnowledgeGraph, opts ...Option) (NegativeSampler, error) {
			s, err := fn(kg, opts...)
			if err != nil {
				return nil, err
			}
			return s, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Kinds returns the registered kinds in ascending order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.constructors))
	for k := range r.constructors {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Build constructs the sampler registered for kind.
func (r *Registry) Build(kind Kind, kg *knowledge.KnowledgeGraph, opts ...Option) (NegativeSampler, error) {
	c, ok := r.constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return c(kg, opts...)
}

// BuildByName resolves name with ParseKind and builds the sampler.
func (r *Registry) BuildByName(name string, kg *knowledge.KnowledgeGraph, opts ...Option) (NegativeSampler, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return r.Build(kind, kg, opts...)
}
