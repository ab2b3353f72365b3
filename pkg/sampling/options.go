package sampling

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/cnclabs/kgsample/pkg/metrics"
)

// Sentinel errors returned at construction time.
var (
	// ErrNilGraph is returned when no knowledge graph is supplied.
	ErrNilGraph = errors.New("sampling: knowledge graph is nil")

	// ErrInvalidNumNegatives is returned when fewer than one negative per
	// positive is requested.
	ErrInvalidNumNegatives = errors.New("sampling: num_negs_per_pos must be at least 1")

	// ErrTooFewEntities is returned when the graph has fewer than two
	// entities, so no replacement differing from the original exists.
	ErrTooFewEntities = errors.New("sampling: at least two entities are required")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("sampling: invalid option supplied")

	// ErrUnknownKind is returned when a sampler name or kind is not registered.
	ErrUnknownKind = errors.New("sampling: unknown sampler kind")

	// ErrDuplicateKind is returned when a kind is registered twice.
	ErrDuplicateKind = errors.New("sampling: sampler kind already registered")
)

// Defaults for the degree-weighted scheme.
const (
	DefaultPower      = 0.75
	DefaultMaxRedraws = 10
)

// Option configures a Sampler via functional arguments. Invalid options are
// recorded and surfaced as ErrOptionViolation by the constructor.
type Option func(*Options)

// Options holds the sampler configuration.
type Options struct {
	// NumNegsPerPos is the number of negatives drawn per positive.
	NumNegsPerPos int

	// Source drives every random draw of the sampler. If nil a randomly
	// seeded PCG source is used.
	Source rand.Source

	// Filterer, if set, flags negatives that are known true triples.
	Filterer Filterer

	// Metrics receives sampling counters; nil disables instrumentation.
	Metrics *metrics.Collector

	// Power is the exponent applied to entity degrees by the degree scheme.
	Power float64

	// MaxRedraws bounds how often the degree scheme redraws after hitting
	// the original id before falling back to a uniform remap.
	MaxRedraws int

	err error
}

// DefaultOptions returns one negative per positive, no filtering and no
// metrics.
func DefaultOptions() Options {
	return Options{
		NumNegsPerPos: 1,
		Power:         DefaultPower,
		MaxRedraws:    DefaultMaxRedraws,
	}
}

// WithNumNegsPerPos sets the number of negatives per positive. Values below
// one are rejected with ErrInvalidNumNegatives.
func WithNumNegsPerPos(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.err = fmt.Errorf("%w: got %d", ErrInvalidNumNegatives, n)
			return
		}
		o.NumNegsPerPos = n
	}
}

// WithSeed seeds the sampler's PCG source.
func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Source = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
}

// WithSource uses src for every random draw.
func WithSource(src rand.Source) Option {
	return func(o *Options) {
		if src != nil {
			o.Source = src
		}
	}
}

// WithFilterer enables the filter mask.
func WithFilterer(f Filterer) Option {
	return func(o *Options) {
		o.Filterer = f
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Options) {
		o.Metrics = c
	}
}

// WithPower sets the degree exponent of the degree scheme. It must be
// non-negative.
func WithPower(p float64) Option {
	return func(o *Options) {
		if p < 0 {
			o.err = fmt.Errorf("%w: power cannot be negative (%v)", ErrOptionViolation, p)
			return
		}
		o.Power = p
	}
}

// WithMaxRedraws bounds the redraws of the degree scheme.
func WithMaxRedraws(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.err = fmt.Errorf("%w: max redraws cannot be negative (%d)", ErrOptionViolation, n)
			return
		}
		o.MaxRedraws = n
	}
}

func buildOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return o, o.err
	}
	if o.Source == nil {
		o.Source = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return o, nil
}
