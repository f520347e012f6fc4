package session

import (
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
)

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	ID       string
	Level    levels.Level
	Phase    Phase
	Err      error
	Index    int
	Total    int
	Correct  int
	Input    string
	Question problemgen.Question
	// Flags is the projected performance of the current question's fact.
	Flags     mastery.Flags
	Pending   int
	Warnings  []string
	Advisory  string
	Abandoned bool
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		Level:     s.level,
		Phase:     s.phase,
		Err:       s.err,
		Index:     s.index,
		Total:     len(s.questions),
		Correct:   s.correct,
		Input:     s.input,
		Pending:   s.pending,
		Warnings:  append([]string(nil), s.warnings...),
		Advisory:  s.advisory,
		Abandoned: s.abandoned,
	}
	if s.index < len(s.questions) {
		snap.Question = s.questions[s.index]
		snap.Flags = s.projected[snap.Question.Fact.Key()]
	}
	return snap
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Pending returns the number of answer writes not yet confirmed.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// ConfirmedFlags returns the persisted flags for f.
func (s *Session) ConfirmedFlags(f problemgen.Fact) (mastery.Flags, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fl, ok := s.confirmed[f.Key()]
	return fl, ok
}

// ProjectedFlags returns flags including unconfirmed answers.
func (s *Session) ProjectedFlags(f problemgen.Fact) mastery.Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projected[f.Key()]
}
