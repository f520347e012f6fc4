// Package badges derives achievement badges from streak and mastery
// aggregates.
package badges

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

//go:embed badges.yaml
var definitionsYAML []byte

// Kind selects the rule a definition is evaluated with.
type Kind string

const (
	KindStreak           Kind = "streak"
	KindFirstMastery     Kind = "first_mastery"
	KindOperationMastery Kind = "operation_mastery"
)

// Definition is one row of the badge table.
type Definition struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Icon        string               `yaml:"icon"`
	Kind        Kind                 `yaml:"kind"`
	Threshold   int                  `yaml:"threshold"`
	Operation   problemgen.Operation `yaml:"operation,omitempty"`
}

// Progress is partial credit toward a badge.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Badge is an evaluated definition.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Completed   bool      `json:"completed"`
	Progress    *Progress `json:"progress,omitempty"`
}

// DefaultDefinitions returns the built-in badge table.
func DefaultDefinitions() []Definition {
	defs, err := ParseDefinitions(definitionsYAML)
	if err != nil {
		panic(fmt.Sprintf("badges: embedded definitions: %v", err))
	}
	return defs
}

// ParseDefinitions decodes and validates a badge table.
func ParseDefinitions(data []byte) ([]Definition, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse badges: %w", err)
	}

	seen := map[string]bool{}
	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("badge %d: missing id", i)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("badge %q: duplicate id", d.ID)
		}
		seen[d.ID] = true
		if d.Threshold <= 0 {
			return nil, fmt.Errorf("badge %q: threshold must be positive", d.ID)
		}
		switch d.Kind {
		case KindStreak, KindFirstMastery:
		case KindOperationMastery:
			if !d.Operation.Valid() {
				return nil, fmt.Errorf("badge %q: unknown operation %q", d.ID, d.Operation)
			}
		default:
			return nil, fmt.Errorf("badge %q: unknown kind %q", d.ID, d.Kind)
		}
	}
	return defs, nil
}
