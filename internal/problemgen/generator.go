package problemgen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownOperation is returned for an operation name outside
	// AllOperations.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidRange is returned when min > max, a bound is negative or
	// max exceeds MaxOperand.
	ErrInvalidRange = errors.New("invalid operand range")
)

// MaxOperand bounds operand ranges so products and draw widths stay well
// inside int.
const MaxOperand = 1 << 15

// Generator produces randomized arithmetic questions. It is safe for
// concurrent use.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	unique bool
	newID  func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes generation deterministic. Intended for tests.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithUnique makes GenerateSet avoid repeating a fact within one set while
// the level's fact space still has unused facts.
func WithUnique() Option {
	return func(g *Generator) { g.unique = true }
}

// New creates a Generator seeded from the clock unless WithSeed is given.
func New(opts ...Option) *Generator {
	now := uint64(time.Now().UnixNano())
	g := &Generator{
		rng:   rand.New(rand.NewPCG(now, now>>1)),
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate produces a single question for op with operands drawn from
// [min, max].
//
// Subtraction draws the subtrahend from [min, num1] so the result is never
// negative. Division builds the dividend as divisor × multiple so the
// result is always whole; a zero divisor is coerced to 1.
func (g *Generator) Generate(op Operation, min, max int) (Question, error) {
	if !op.Valid() {
		return Question{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if err := checkRange(min, max); err != nil {
		return Question{}, err
	}

	g.mu.Lock()
	f := g.fact(op, min, max)
	g.mu.Unlock()

	return g.question(f), nil
}

// GenerateSet produces count questions. Facts may repeat unless the
// generator was built WithUnique. A non-positive count yields an empty set.
func (g *Generator) GenerateSet(op Operation, count, min, max int) ([]Question, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if err := checkRange(min, max); err != nil {
		return nil, err
	}
	if count <= 0 {
		return []Question{}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// A fact is retried a bounded number of times before a duplicate is
	// accepted, so small ranges still fill the set.
	const maxRedraws = 32

	seen := make(map[string]bool, count)
	out := make([]Question, 0, count)
	for len(out) < count {
		f := g.fact(op, min, max)
		if g.unique {
			for i := 0; i < maxRedraws && seen[f.Key()]; i++ {
				f = g.fact(op, min, max)
			}
			seen[f.Key()] = true
		}
		out = append(out, g.question(f))
	}
	return out, nil
}

// fact draws one fact. Callers hold g.mu.
func (g *Generator) fact(op Operation, min, max int) Fact {
	switch op {
	case OpSubtraction:
		n1 := g.between(min, max)
		return Fact{Operation: op, Num1: n1, Num2: g.between(min, n1)}
	case OpDivision:
		divisor := g.between(min, max)
		if divisor == 0 {
			divisor = 1
		}
		multiple := g.between(min, max)
		return Fact{Operation: op, Num1: divisor * multiple, Num2: divisor}
	default:
		return Fact{Operation: op, Num1: g.between(min, max), Num2: g.between(min, max)}
	}
}

func checkRange(min, max int) error {
	if min < 0 || min > max || max > MaxOperand {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, min, max)
	}
	return nil
}

// between returns a uniform int in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) question(f Fact) Question {
	return Question{
		ID:     g.newID(),
		Fact:   f,
		Answer: f.Answer(),
	}
}
