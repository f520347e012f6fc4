// Package levels holds the fixed catalog of practice levels.
package levels

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

//go:embed levels.yaml
var catalogYAML []byte

// ErrNotFound is returned by Get for an unknown level id.
var ErrNotFound = errors.New("level not found")

// Level parameterizes the question generator and buckets performance
// records for mastery reporting.
type Level struct {
	ID          string               `yaml:"id" json:"id"`
	Name        string               `yaml:"name" json:"name"`
	Operation   problemgen.Operation `yaml:"operation" json:"operation"`
	Min         int                  `yaml:"min" json:"min"`
	Max         int                  `yaml:"max" json:"max"`
	Description string               `yaml:"description" json:"description"`
}

// Catalog is an ordered, read-only set of levels.
type Catalog struct {
	levels []Level
	byID   map[string]int
}

// Default returns the built-in catalog. It panics only if the embedded
// YAML is malformed, which the package tests guard against.
func Default() *Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("levels: embedded catalog: %v", err))
	}
	return c
}

// Parse builds a Catalog from YAML and validates every entry.
func Parse(data []byte) (*Catalog, error) {
	var ls []Level
	if err := yaml.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("parse levels: %w", err)
	}

	c := &Catalog{levels: ls, byID: make(map[string]int, len(ls))}
	for i, l := range ls {
		if l.ID == "" {
			return nil, fmt.Errorf("level %d: missing id", i)
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("level %q: duplicate id", l.ID)
		}
		if !l.Operation.Valid() {
			return nil, fmt.Errorf("level %q: unknown operation %q", l.ID, l.Operation)
		}
		if l.Min < 0 || l.Min > l.Max || l.Max > problemgen.MaxOperand {
			return nil, fmt.Errorf("level %q: invalid range [%d, %d]", l.ID, l.Min, l.Max)
		}
		c.byID[l.ID] = i
	}
	return c, nil
}

// All returns the levels in display order.
func (c *Catalog) All() []Level {
	out := make([]Level, len(c.levels))
	copy(out, c.levels)
	return out
}

// Get looks up a level by id.
func (c *Catalog) Get(id string) (Level, error) {
	i, ok := c.byID[id]
	if !ok {
		return Level{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.levels[i], nil
}

// ByOperation returns the levels drilling op.
func (c *Catalog) ByOperation(op problemgen.Operation) []Level {
	var out []Level
	for _, l := range c.levels {
		if l.Operation == op {
			out = append(out, l)
		}
	}
	return out
}

// FactSpace enumerates every distinct fact the generator can produce for
// the level, sorted by key.
func (l Level) FactSpace() []problemgen.Fact {
	seen := map[string]problemgen.Fact{}
	add := func(a, b int) {
		f := problemgen.Fact{Operation: l.Operation, Num1: a, Num2: b}
		seen[f.Key()] = f
	}

	for a := l.Min; a <= l.Max; a++ {
		switch l.Operation {
		case problemgen.OpSubtraction:
			for b := l.Min; b <= a; b++ {
				add(a, b)
			}
		case problemgen.OpDivision:
			divisor := a
			if divisor == 0 {
				divisor = 1
			}
			for m := l.Min; m <= l.Max; m++ {
				add(divisor*m, divisor)
			}
		default:
			for b := l.Min; b <= l.Max; b++ {
				add(a, b)
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]problemgen.Fact, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

// Contains reports whether f belongs to the level's fact space.
func (l Level) Contains(f problemgen.Fact) bool {
	if f.Operation != l.Operation {
		return false
	}
	switch l.Operation {
	case problemgen.OpSubtraction:
		return f.Num1 >= l.Min && f.Num1 <= l.Max && f.Num2 >= l.Min && f.Num2 <= f.Num1
	case problemgen.OpDivision:
		if f.Num2 == 0 || f.Num1%f.Num2 != 0 {
			return false
		}
		m := f.Num1 / f.Num2
		inDivisors := (f.Num2 >= l.Min && f.Num2 <= l.Max) || (f.Num2 == 1 && l.Min == 0)
		return inDivisors && m >= l.Min && m <= l.Max
	default:
		return f.Num1 >= l.Min && f.Num1 <= l.Max && f.Num2 >= l.Min && f.Num2 <= l.Max
	}
}

// MasteryPercent returns the share (0-100) of the level's fact space whose
// key is present in mastered.
func (l Level) MasteryPercent(mastered map[string]bool) float64 {
	space := l.FactSpace()
	if len(space) == 0 {
		return 0
	}
	n := 0
	for _, f := range space {
		if mastered[f.Key()] {
			n++
		}
	}
	return float64(n) * 100 / float64(len(space))
}
