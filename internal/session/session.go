package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/logging"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
)

// Session runs one pass over a generated question set. Methods are safe
// for concurrent use, though the terminal UI drives it from a single
// goroutine and only runs WriteFuncs and Complete elsewhere.
type Session struct {
	mu sync.Mutex

	id       string
	deps     Deps
	cfg      Config
	log      *logging.Logger
	identity auth.Identity
	level    levels.Level

	phase     Phase
	err       error
	questions []problemgen.Question
	index     int
	input     string
	correct   int
	abandoned bool

	startedAt   time.Time
	activatedAt time.Time
	feedbackAt  time.Time
	endedAt     time.Time

	// confirmed holds flags as last persisted; projected adds answers
	// whose writes have not come back yet.
	confirmed map[string]mastery.Flags
	projected map[string]mastery.Flags
	inflight  map[string]int
	pending   int

	warnings []string
	advisory string

	completeOnce sync.Once
	summary      *Summary
}

// New creates a session in PhaseLoading.
func New(deps Deps, cfg Config) *Session {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		deps:      deps,
		cfg:       cfg,
		log:       logging.OrNop(deps.Logger).With("session", id),
		phase:     PhaseLoading,
		confirmed: make(map[string]mastery.Flags),
		projected: make(map[string]mastery.Flags),
		inflight:  make(map[string]int),
	}
}

// Start generates the question set for level and, for signed-in users,
// attaches existing per-fact flags. Only generation failures are fatal.
func (s *Session) Start(ctx context.Context, identity auth.Identity, level levels.Level, now time.Time) error {
	s.mu.Lock()
	if s.phase != PhaseLoading {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	s.identity = identity
	s.level = level
	s.mu.Unlock()

	qs, err := s.generate(level)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.phase = PhaseError
		s.err = err
		s.log.Warn("question generation failed", "level", level.ID, "error", err)
		return err
	}

	var flags map[string]mastery.Flags
	var lookupErr error
	if !identity.IsAnonymous() && s.deps.Tracker != nil {
		facts := make([]problemgen.Fact, len(qs))
		for i, q := range qs {
			facts[i] = q.Fact
		}
		flags, lookupErr = s.deps.Tracker.Lookup(ctx, identity.UserID, facts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = qs
	for k, f := range flags {
		s.confirmed[k] = f
		s.projected[k] = f
	}
	if lookupErr != nil {
		s.log.Warn("performance lookup failed", "user", identity.UserID, "error", lookupErr)
		s.warnings = append(s.warnings, "Could not load your past results.")
	}
	if identity.IsAnonymous() {
		s.advisory = s.deps.Advisory.Take()
	}
	s.phase = PhaseActive
	s.startedAt = now
	s.activatedAt = now
	return nil
}

func (s *Session) generate(level levels.Level) ([]problemgen.Question, error) {
	if s.deps.Questions == nil {
		return nil, ErrNoQuestions
	}
	qs, err := s.deps.Questions.GenerateSet(level.Operation, s.cfg.Size, level.Min, level.Max)
	if err != nil {
		return nil, fmt.Errorf("generate %s questions: %w", level.ID, err)
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}
	return qs, nil
}

// Input appends a digit to the answer buffer. It reports whether the
// buffer changed; non-digits and overflow are ignored.
func (s *Session) Input(r rune) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseActive || s.abandoned {
		return false
	}
	if r < '0' || r > '9' || len(s.input) >= problemgen.MaxAnswerDigits {
		return false
	}
	s.input += string(r)
	return true
}

// Backspace removes the last digit.
func (s *Session) Backspace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseActive && len(s.input) > 0 {
		s.input = s.input[:len(s.input)-1]
	}
}

// Clear empties the answer buffer.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseActive {
		s.input = ""
	}
}

// Submit grades the buffered answer and moves to PhaseFeedback. The
// returned WriteFunc persists the answer; it is nil for anonymous users.
func (s *Session) Submit(now time.Time) (Feedback, WriteFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.abandoned {
		return Feedback{}, nil, ErrAbandoned
	}
	if s.phase != PhaseActive {
		return Feedback{}, nil, ErrWrongPhase
	}
	if s.input == "" {
		return Feedback{}, nil, ErrEmptyInput
	}
	given, err := problemgen.ParseAnswer(s.input)
	if err != nil {
		return Feedback{}, nil, err
	}

	q := &s.questions[s.index]
	elapsed := now.Sub(s.activatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	correct := problemgen.Check(*q, given)

	q.Answered = true
	q.UserAnswer = given
	q.IsCorrect = correct
	q.TimeToAnswer = elapsed
	if correct {
		s.correct++
	}

	key := q.Fact.Key()
	s.projected[key] = project(s.projected[key], correct, elapsed)
	s.phase = PhaseFeedback
	s.feedbackAt = now

	fb := Feedback{
		QuestionID: q.ID,
		Fact:       q.Fact,
		Correct:    correct,
		Given:      given,
		Expected:   q.Answer,
		Elapsed:    elapsed,
		Last:       s.index == len(s.questions)-1,
	}

	if s.identity.IsAnonymous() || s.deps.Tracker == nil {
		return fb, nil, nil
	}

	s.inflight[key]++
	s.pending++
	tracker, userID, sessionID, qid, fact := s.deps.Tracker, s.identity.UserID, s.id, q.ID, q.Fact
	write := func(ctx context.Context) WriteResult {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()
		rec, err := tracker.RecordAnswer(ctx, userID, fact, correct, elapsed)
		return WriteResult{SessionID: sessionID, QuestionID: qid, Fact: fact, Record: rec, Err: err}
	}
	return fb, write, nil
}

// Confirm folds a finished write back into the session. Results for
// other sessions are ignored.
func (s *Session) Confirm(res WriteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.SessionID != s.id {
		return
	}

	key := res.Fact.Key()
	if s.inflight[key] > 0 {
		s.inflight[key]--
	}
	if s.pending > 0 {
		s.pending--
	}

	if res.Err != nil {
		s.log.Warn("answer not saved", "fact", res.Fact.String(), "error", res.Err)
		s.warnings = append(s.warnings, fmt.Sprintf("Progress not saved for %s.", res.Fact))
		if s.inflight[key] == 0 {
			s.projected[key] = s.confirmed[key]
		}
		return
	}

	flags := res.Record.Flags()
	s.confirmed[key] = flags
	if s.inflight[key] == 0 {
		s.projected[key] = flags
	}
}

// Advance leaves PhaseFeedback for the next question or PhaseComplete.
// Feedback must have been showing for at least FeedbackDelay.
func (s *Session) Advance(now time.Time) (Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.abandoned {
		return s.phase, ErrAbandoned
	}
	if s.phase != PhaseFeedback {
		return s.phase, ErrWrongPhase
	}
	if now.Sub(s.feedbackAt) < FeedbackDelay {
		return s.phase, ErrTooEarly
	}

	s.input = ""
	if s.index >= len(s.questions)-1 {
		s.phase = PhaseComplete
		s.endedAt = now
		return s.phase, nil
	}
	s.index++
	s.activatedAt = now
	s.phase = PhaseActive
	return s.phase, nil
}

// FeedbackLeft is how much longer the current feedback must show.
func (s *Session) FeedbackLeft(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseFeedback {
		return 0
	}
	return max(FeedbackDelay-now.Sub(s.feedbackAt), 0)
}

// Abandon stops progression. In-flight writes still land.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandoned = true
}

// Complete runs the end-of-session updates once. Later calls return the
// same Summary.
func (s *Session) Complete(ctx context.Context, now time.Time) (Summary, error) {
	s.mu.Lock()
	if s.phase != PhaseComplete {
		s.mu.Unlock()
		return Summary{}, ErrWrongPhase
	}
	s.mu.Unlock()

	s.completeOnce.Do(func() { s.finish(ctx, now) })

	s.mu.Lock()
	defer s.mu.Unlock()
	sum := *s.summary
	sum.Warnings = append([]string(nil), s.warnings...)
	return sum, nil
}

func (s *Session) finish(ctx context.Context, now time.Time) {
	s.mu.Lock()
	sum := Summary{
		SessionID: s.id,
		LevelID:   s.level.ID,
		Correct:   s.correct,
		Total:     len(s.questions),
		Duration:  s.endedAt.Sub(s.startedAt),
		Questions: append([]problemgen.Question(nil), s.questions...),
		Advisory:  s.advisory,
	}
	identity := s.identity
	s.mu.Unlock()

	if sum.Total > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Total)
	}

	var warnings []string
	if !identity.IsAnonymous() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()
		warnings = RecordCompletion(ctx, s.deps, identity.UserID, now, &sum)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, warnings...)
	s.summary = &sum
}

// project applies one answer to flags without touching storage.
func project(f mastery.Flags, correct bool, elapsed time.Duration) mastery.Flags {
	rec := mastery.Record{
		Attempts:             f.Attempts,
		CorrectAttempts:      f.CorrectAttempts,
		FastCorrectAttempts:  f.FastCorrectAttempts,
		ConsecutiveIncorrect: f.ConsecutiveIncorrect,
	}
	return mastery.Apply(rec, correct, elapsed, time.Time{}).Flags()
}
