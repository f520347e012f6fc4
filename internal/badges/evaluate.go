package badges

import "github.com/abhisek/mathdrill/internal/problemgen"

// Stats are the aggregates every rule is evaluated against.
type Stats struct {
	CurrentStreak       int
	MasteredByOperation map[problemgen.Operation]int
}

// TotalMastered sums mastered facts over all operations.
func (s Stats) TotalMastered() int {
	n := 0
	for _, c := range s.MasteredByOperation {
		n += c
	}
	return n
}

// Evaluate recomputes every badge from stats. Rules are independent, so
// any subset can be completed at once.
func Evaluate(defs []Definition, stats Stats) []Badge {
	out := make([]Badge, 0, len(defs))
	for _, d := range defs {
		var have int
		switch d.Kind {
		case KindStreak:
			have = stats.CurrentStreak
		case KindFirstMastery:
			have = stats.TotalMastered()
		case KindOperationMastery:
			have = stats.MasteredByOperation[d.Operation]
		}

		b := Badge{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			Completed:   have >= d.Threshold,
		}
		if !b.Completed && d.Threshold > 1 {
			b.Progress = &Progress{Current: max(have, 0), Total: d.Threshold}
		}
		out = append(out, b)
	}
	return out
}

// Completed filters badges down to the completed ones.
func Completed(badges []Badge) []Badge {
	var out []Badge
	for _, b := range badges {
		if b.Completed {
			out = append(out, b)
		}
	}
	return out
}

// NewlyEarned returns the completed badges whose ids are not in known.
// Re-detecting a known badge never counts as new.
func NewlyEarned(known map[string]bool, current []Badge) []Badge {
	var out []Badge
	for _, b := range current {
		if b.Completed && !known[b.ID] {
			out = append(out, b)
		}
	}
	return out
}
