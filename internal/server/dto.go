package server

import (
	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/store"
	"github.com/abhisek/mathdrill/internal/streak"
	"github.com/abhisek/mathdrill/internal/tutor"
)

type levelDTO struct {
	levels.Level
	FactCount int `json:"fact_count"`
}

type questionDTO struct {
	ID        string               `json:"id"`
	Operation problemgen.Operation `json:"operation"`
	Num1      int                  `json:"num1"`
	Num2      int                  `json:"num2"`
	Text      string               `json:"text"`
	Answer    int                  `json:"answer"`
	Flags     *mastery.Flags       `json:"flags,omitempty"`
	Status    mastery.Status       `json:"status,omitempty"`
}

func newQuestionDTO(q problemgen.Question, flags map[string]mastery.Flags) questionDTO {
	dto := questionDTO{
		ID:        q.ID,
		Operation: q.Fact.Operation,
		Num1:      q.Fact.Num1,
		Num2:      q.Fact.Num2,
		Text:      q.Text(),
		Answer:    q.Answer,
	}
	if flags != nil {
		f := flags[q.Fact.Key()]
		dto.Flags = &f
		dto.Status = mastery.StatusOf(f)
	}
	return dto
}

type sessionDTO struct {
	SessionID string        `json:"session_id"`
	Level     levels.Level  `json:"level"`
	Questions []questionDTO `json:"questions"`
}

type answerRequest struct {
	Operation problemgen.Operation `json:"operation"`
	Num1      *int                 `json:"num1"`
	Num2      *int                 `json:"num2"`
	Answer    *int                 `json:"answer"`
	ElapsedMs int64                `json:"elapsed_ms"`
}

type answerDTO struct {
	Correct  bool           `json:"correct"`
	Expected int            `json:"expected"`
	Record   mastery.Record `json:"record"`
	Flags    mastery.Flags  `json:"flags"`
	Status   mastery.Status `json:"status"`
}

type completeRequest struct {
	SessionID  string `json:"session_id"`
	LevelID    string `json:"level_id"`
	Total      int    `json:"total"`
	Correct    int    `json:"correct"`
	DurationMs int64  `json:"duration_ms"`
}

type streakDTO struct {
	Current   int    `json:"current"`
	Longest   int    `json:"longest"`
	LastDate  string `json:"last_practice_date"`
	Changed   bool   `json:"changed"`
	Milestone bool   `json:"milestone"`
}

func newStreakDTO(r *streak.Result) *streakDTO {
	if r == nil {
		return nil
	}
	return &streakDTO{
		Current:   r.State.CurrentStreak,
		Longest:   r.State.LongestStreak,
		LastDate:  r.State.LastPracticeDate.String(),
		Changed:   r.Changed,
		Milestone: r.Milestone,
	}
}

type goalDTO struct {
	Target        int  `json:"target"`
	Current       int  `json:"current"`
	Completed     bool `json:"completed"`
	JustCompleted bool `json:"just_completed"`
}

func newGoalDTO(u *goals.Update) *goalDTO {
	if u == nil {
		return nil
	}
	return &goalDTO{
		Target:        u.Goal.Target,
		Current:       u.Goal.Current,
		Completed:     u.Goal.Completed(),
		JustCompleted: u.JustCompleted,
	}
}

type completionDTO struct {
	SessionID string         `json:"session_id"`
	Accuracy  float64        `json:"accuracy"`
	Streak    *streakDTO     `json:"streak"`
	NewBadges []badges.Badge `json:"new_badges"`
	Goal      *goalDTO       `json:"goal"`
	Warnings  []string       `json:"warnings"`
}

type recentSessionDTO struct {
	SessionID   string `json:"session_id"`
	LevelID     string `json:"level_id"`
	Total       int    `json:"total"`
	Correct     int    `json:"correct"`
	DurationMs  int64  `json:"duration_ms"`
	CompletedAt string `json:"completed_at"`
}

// progressDTO replaces the overview's recent sessions with their wire
// form; the outer field shadows the embedded one.
type progressDTO struct {
	*progress.Overview
	Recent []recentSessionDTO `json:"recent_sessions"`
}

func newProgressDTO(ov *progress.Overview) progressDTO {
	out := progressDTO{Overview: ov, Recent: make([]recentSessionDTO, 0, len(ov.Recent))}
	for _, e := range ov.Recent {
		out.Recent = append(out.Recent, newRecentSessionDTO(e))
	}
	return out
}

func newRecentSessionDTO(e store.SessionEventData) recentSessionDTO {
	return recentSessionDTO{
		SessionID:   e.SessionID,
		LevelID:     e.LevelID,
		Total:       e.Total,
		Correct:     e.Correct,
		DurationMs:  e.Duration.Milliseconds(),
		CompletedAt: e.CompletedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

type askRequest struct {
	Question string `json:"question"`
}

type askDTO struct {
	Answer string `json:"answer"`
}

type helpRequest struct {
	Operation problemgen.Operation `json:"operation"`
	Num1      *int                 `json:"num1"`
	Num2      *int                 `json:"num2"`
}

type helpDTO struct {
	Explanation string           `json:"explanation"`
	Strategies  []tutor.Strategy `json:"strategies"`
	Tip         string           `json:"tip"`
}
