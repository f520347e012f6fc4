package session

import (
	"time"

	sess "github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/tutor"
)

// Every message carries the session id so results that arrive after the
// screen was left are dropped by whichever screen is active.

type startedMsg struct {
	SessionID string
	Err       error
}

type writeDoneMsg struct {
	Result sess.WriteResult
}

// advanceMsg fires FeedbackDelay after an answer. At is when the timer
// fired; Index drops a tick left over from an earlier question.
type advanceMsg struct {
	SessionID string
	Index     int
	At        time.Time
}

type completedMsg struct {
	SessionID string
	Summary   sess.Summary
	Err       error
}

type helpMsg struct {
	SessionID string
	FactKey   string
	Help      tutor.Help
	Err       error
}
