package server

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/tutor"
)

func (s *Server) health(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

func (s *Server) listLevels(c *gin.Context) {
	all := s.deps.Catalog.All()
	out := make([]levelDTO, len(all))
	for i, l := range all {
		out[i] = levelDTO{Level: l, FactCount: len(l.FactSpace())}
	}
	respondOK(c, out)
}

func (s *Server) startSession(c *gin.Context) {
	var req struct {
		LevelID string `json:"level_id"`
		Count   int    `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	level, err := s.deps.Catalog.Get(strings.TrimSpace(req.LevelID))
	if err != nil {
		if errors.Is(err, levels.ErrNotFound) {
			respondError(c, http.StatusNotFound, codeNotFound, err.Error())
			return
		}
		respondError(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	count := req.Count
	if count <= 0 {
		count = s.cfg.SessionSize
	}
	if count > MaxQuestions {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "count is too large")
		return
	}

	qs, err := s.deps.Questions.GenerateSet(level.Operation, count, level.Min, level.Max)
	if err != nil {
		s.log.Error("question generation failed", "level", level.ID, "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, "could not generate questions")
		return
	}

	var flags map[string]mastery.Flags
	if id := auth.FromContext(c.Request.Context()); !id.IsAnonymous() && s.deps.Tracker != nil {
		facts := make([]problemgen.Fact, len(qs))
		for i, q := range qs {
			facts[i] = q.Fact
		}
		flags, err = s.deps.Tracker.Lookup(c.Request.Context(), id.UserID, facts)
		if err != nil {
			s.log.Warn("flag lookup failed", "user_id", id.UserID, "error", err)
			flags = nil
		}
	}

	out := sessionDTO{SessionID: uuid.NewString(), Level: level, Questions: make([]questionDTO, len(qs))}
	for i, q := range qs {
		out.Questions[i] = newQuestionDTO(q, flags)
	}
	respondOK(c, out)
}

// parseFact validates the operands of an answer or help request.
func parseFact(op problemgen.Operation, num1, num2 *int) (problemgen.Fact, bool) {
	if num1 == nil || num2 == nil || !op.Valid() {
		return problemgen.Fact{}, false
	}
	f := problemgen.Fact{Operation: op, Num1: *num1, Num2: *num2}
	if f.Num1 < 0 || f.Num2 < 0 || f.Num1 > problemgen.MaxOperand || f.Num2 > problemgen.MaxOperand ||
		(op == problemgen.OpDivision && f.Num2 == 0) {
		return problemgen.Fact{}, false
	}
	return f, true
}

// maxElapsedMs is the largest elapsed_ms that fits in a time.Duration.
const maxElapsedMs = math.MaxInt64 / int64(time.Millisecond)

func (s *Server) submitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	fact, ok := parseFact(req.Operation, req.Num1, req.Num2)
	if !ok || req.Answer == nil || *req.Answer < 0 {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "operation, num1, num2 and answer are required")
		return
	}
	if req.ElapsedMs < 0 || req.ElapsedMs > maxElapsedMs {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "elapsed_ms is out of range")
		return
	}
	if s.deps.Tracker == nil {
		respondError(c, http.StatusServiceUnavailable, codeNotSaved, "progress tracking is disabled")
		return
	}

	id := auth.FromContext(c.Request.Context())
	expected := fact.Answer()
	correct := *req.Answer == expected
	elapsed := time.Duration(req.ElapsedMs) * time.Millisecond

	rec, err := s.deps.Tracker.RecordAnswer(c.Request.Context(), id.UserID, fact, correct, elapsed)
	if err != nil {
		s.log.Error("record answer failed", "user_id", id.UserID, "fact", fact.Key(), "error", err)
		respondError(c, http.StatusInternalServerError, codeNotSaved, "progress not saved")
		return
	}
	flags := rec.Flags()
	respondOK(c, answerDTO{
		Correct:  correct,
		Expected: expected,
		Record:   rec,
		Flags:    flags,
		Status:   mastery.StatusOf(flags),
	})
}

func (s *Server) completeSession(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	if req.Total < 0 || req.Correct < 0 || req.Correct > req.Total || req.DurationMs < 0 || req.DurationMs > maxElapsedMs {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "correct must be between 0 and total")
		return
	}
	if req.LevelID != "" {
		if _, err := s.deps.Catalog.Get(req.LevelID); err != nil {
			respondError(c, http.StatusNotFound, codeNotFound, err.Error())
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	id := auth.FromContext(c.Request.Context())
	sum := session.Summary{
		SessionID: req.SessionID,
		LevelID:   req.LevelID,
		Correct:   req.Correct,
		Total:     req.Total,
		Duration:  time.Duration(req.DurationMs) * time.Millisecond,
	}
	if sum.Total > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Total)
	}

	deps := session.Deps{
		Streaks: s.deps.Streaks,
		Badges:  s.deps.Badges,
		Goals:   s.deps.Goals,
		Events:  s.deps.Events,
		Logger:  s.deps.Logger,
	}
	warnings := session.RecordCompletion(c.Request.Context(), deps, id.UserID, s.deps.Now(), &sum)
	if warnings == nil {
		warnings = []string{}
	}

	respondOK(c, completionDTO{
		SessionID: sum.SessionID,
		Accuracy:  sum.Accuracy,
		Streak:    newStreakDTO(sum.Streak),
		NewBadges: sum.NewBadges,
		Goal:      newGoalDTO(sum.Goal),
		Warnings:  warnings,
	})
}

func (s *Server) getProgress(c *gin.Context) {
	if s.deps.Progress == nil {
		respondError(c, http.StatusServiceUnavailable, codeInternal, "progress is unavailable")
		return
	}
	id := auth.FromContext(c.Request.Context())
	ov, err := s.deps.Progress.Load(c.Request.Context(), id.UserID, s.deps.Now())
	if err != nil {
		s.log.Error("load progress failed", "user_id", id.UserID, "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, "could not load progress")
		return
	}
	respondOK(c, newProgressDTO(ov))
}

func (s *Server) askQuestion(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "Question is required")
		return
	}
	if s.deps.Tutor == nil {
		respondError(c, http.StatusServiceUnavailable, codeAIUnavailable, "the tutor is not configured")
		return
	}

	answer, err := s.deps.Tutor.AskQuestion(c.Request.Context(), req.Question)
	if err != nil {
		s.tutorError(c, err)
		return
	}
	respondOK(c, askDTO{Answer: answer})
}

func (s *Server) questionHelp(c *gin.Context) {
	var req helpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "Missing required parameters")
		return
	}
	fact, ok := parseFact(req.Operation, req.Num1, req.Num2)
	if !ok {
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "Missing required parameters")
		return
	}
	if s.deps.Tutor == nil {
		respondError(c, http.StatusServiceUnavailable, codeAIUnavailable, "the tutor is not configured")
		return
	}

	h, err := s.deps.Tutor.QuestionHelp(c.Request.Context(), fact)
	if err != nil {
		s.tutorError(c, err)
		return
	}
	respondOK(c, helpDTO{Explanation: h.Markdown(), Strategies: h.Strategies, Tip: h.Tip})
}

func (s *Server) tutorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tutor.ErrEmptyQuestion), errors.Is(err, tutor.ErrQuestionTooLong),
		errors.Is(err, tutor.ErrInvalidFact):
		respondError(c, http.StatusBadRequest, codeInvalidRequest, err.Error())
	case errors.Is(err, tutor.ErrUnavailable):
		respondError(c, http.StatusServiceUnavailable, codeAIUnavailable, "the tutor is not configured")
	default:
		s.log.Error("tutor request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusBadGateway, codeAIError, "the tutor could not answer right now")
	}
}
