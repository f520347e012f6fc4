package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathdrill/internal/auth"
	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/store"
	"github.com/abhisek/mathdrill/internal/streak"
	"github.com/abhisek/mathdrill/internal/tutor"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

type harness struct {
	srv      *Server
	verifier *auth.Verifier
	llm      *llm.MockProvider
	token    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:server_%s?mode=memory", name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	catalog := levels.Default()
	streaks := streak.NewEvaluator(st.StreakRepo(), time.UTC)
	badgeSvc := badges.NewService(nil, st.BadgeRepo(), streaks)
	goalSvc := goals.NewService(st.GoalRepo(), 3, time.UTC)
	mock := llm.NewMockProvider()
	verifier := auth.NewVerifier("test-secret", "mathdrill")

	srv := New(Deps{
		Catalog:   catalog,
		Questions: problemgen.New(problemgen.WithSeed(7)),
		Tracker:   mastery.NewTracker(st.PerformanceRepo()),
		Streaks:   streaks,
		Badges:    badgeSvc,
		Goals:     goalSvc,
		Events:    st.EventRepo(),
		Progress: &progress.Loader{
			Catalog:     catalog,
			Performance: st.PerformanceRepo(),
			Streaks:     streaks,
			Badges:      badgeSvc,
			Goals:       goalSvc,
			Sessions:    st,
		},
		Tutor:     tutor.New(mock),
		LLMEvents: st.LLMEvents(),
		Verifier:  verifier,
		Now:       func() time.Time { return fixedNow },
	}, Config{SessionSize: 5})

	token, err := verifier.Issue("kid-1", time.Hour)
	require.NoError(t, err)
	return &harness{srv: srv, verifier: verifier, llm: mock, token: token}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func intp(n int) *int { return &n }

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestListLevels(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(t, http.MethodGet, "/api/levels", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]levelDTO](t, env.Data)
	require.Len(t, got, len(levels.Default().All()))
	assert.Equal(t, "addition-0-4", got[0].ID)
	assert.Equal(t, 25, got[0].FactCount)
}

func TestStartSession(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/api/sessions", "", map[string]any{"level_id": "addition-0-4", "count": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[sessionDTO](t, env.Data)
	assert.NotEmpty(t, got.SessionID)
	require.Len(t, got.Questions, 3)
	for _, q := range got.Questions {
		assert.Equal(t, problemgen.OpAddition, q.Operation)
		assert.True(t, q.Num1 >= 0 && q.Num1 <= 4 && q.Num2 >= 0 && q.Num2 <= 4)
		assert.Equal(t, q.Num1+q.Num2, q.Answer)
		assert.Nil(t, q.Flags, "anonymous sessions carry no flags")
	}
}

func TestStartSession_FlagsForSignedInUser(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/api/sessions", h.token, map[string]any{"level_id": "multiplication-5-9"})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[sessionDTO](t, env.Data)
	require.Len(t, got.Questions, 5)
	for _, q := range got.Questions {
		require.NotNil(t, q.Flags)
		assert.Equal(t, mastery.StatusNew, q.Status)
	}
}

func TestStartSession_Errors(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/api/sessions", "", map[string]any{"level_id": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeNotFound, env.Error.Code)

	rec, _ = h.do(t, http.MethodPost, "/api/sessions", "", map[string]any{"level_id": "addition-0-4", "count": MaxQuestions + 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(t, http.MethodPost, "/api/sessions", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAnswer_RequiresAuth(t *testing.T) {
	h := newHarness(t)
	body := answerRequest{Operation: problemgen.OpAddition, Num1: intp(3), Num2: intp(4), Answer: intp(7), ElapsedMs: 900}

	rec, env := h.do(t, http.MethodPost, "/api/answers", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeUnauthorized, env.Error.Code)

	rec, _ = h.do(t, http.MethodPost, "/api/answers", "not-a-jwt", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := auth.NewVerifier("other-secret", "mathdrill")
	forged, err := other.Issue("kid-1", time.Hour)
	require.NoError(t, err)
	rec, _ = h.do(t, http.MethodPost, "/api/answers", forged, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitAnswer(t *testing.T) {
	h := newHarness(t)

	body := answerRequest{Operation: problemgen.OpAddition, Num1: intp(3), Num2: intp(4), Answer: intp(7), ElapsedMs: 900}
	rec, env := h.do(t, http.MethodPost, "/api/answers", h.token, body)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[answerDTO](t, env.Data)
	assert.True(t, got.Correct)
	assert.Equal(t, 7, got.Expected)
	assert.Equal(t, "kid-1", got.Record.UserID)
	assert.Equal(t, 1, got.Flags.Attempts)
	assert.Equal(t, 1, got.Flags.FastCorrectAttempts)
	assert.Equal(t, mastery.StatusLearning, got.Status)

	wrong := body
	wrong.Answer = intp(8)
	for i := 0; i < 2; i++ {
		rec, env = h.do(t, http.MethodPost, "/api/answers", h.token, wrong)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	got = decode[answerDTO](t, env.Data)
	assert.False(t, got.Correct)
	assert.Equal(t, 3, got.Flags.Attempts)
	assert.True(t, got.Flags.IsStruggling)
	assert.Equal(t, mastery.StatusStruggling, got.Status)
}

func TestSubmitAnswer_LongestElapsedIsSlow(t *testing.T) {
	h := newHarness(t)

	body := answerRequest{Operation: problemgen.OpAddition, Num1: intp(3), Num2: intp(4), Answer: intp(7), ElapsedMs: maxElapsedMs}
	rec, env := h.do(t, http.MethodPost, "/api/answers", h.token, body)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[answerDTO](t, env.Data)
	assert.True(t, got.Correct)
	assert.Equal(t, 1, got.Flags.Attempts)
	assert.Zero(t, got.Flags.FastCorrectAttempts)
}

func TestSubmitAnswer_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		body answerRequest
	}{
		{"missing answer", answerRequest{Operation: problemgen.OpAddition, Num1: intp(1), Num2: intp(2)}},
		{"missing operand", answerRequest{Operation: problemgen.OpAddition, Num1: intp(1), Answer: intp(3)}},
		{"unknown operation", answerRequest{Operation: "power", Num1: intp(1), Num2: intp(2), Answer: intp(1)}},
		{"divide by zero", answerRequest{Operation: problemgen.OpDivision, Num1: intp(4), Num2: intp(0), Answer: intp(0)}},
		{"negative elapsed", answerRequest{Operation: problemgen.OpAddition, Num1: intp(1), Num2: intp(2), Answer: intp(3), ElapsedMs: -5}},
		{"elapsed overflows duration", answerRequest{Operation: problemgen.OpAddition, Num1: intp(1), Num2: intp(2), Answer: intp(3), ElapsedMs: 9223372036855}},
		{"operand too large", answerRequest{Operation: problemgen.OpMultiplication, Num1: intp(math.MaxInt), Num2: intp(2), Answer: intp(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := h.do(t, http.MethodPost, "/api/answers", h.token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, codeInvalidRequest, env.Error.Code)
		})
	}
}

func TestCompleteSession(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(t, http.MethodPost, "/api/sessions/complete", "", completeRequest{Total: 5, Correct: 4})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := completeRequest{SessionID: "s-1", LevelID: "addition-0-4", Total: 5, Correct: 4, DurationMs: 30000}
	rec, env := h.do(t, http.MethodPost, "/api/sessions/complete", h.token, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[completionDTO](t, env.Data)
	assert.Equal(t, "s-1", got.SessionID)
	assert.InDelta(t, 0.8, got.Accuracy, 1e-9)
	require.NotNil(t, got.Streak)
	assert.Equal(t, 1, got.Streak.Current)
	assert.True(t, got.Streak.Changed)
	assert.Equal(t, "2026-03-10", got.Streak.LastDate)
	require.NotNil(t, got.Goal)
	assert.Equal(t, 1, got.Goal.Current)
	assert.Equal(t, 3, got.Goal.Target)
	assert.Empty(t, got.Warnings)

	var ids []string
	for _, b := range got.NewBadges {
		ids = append(ids, b.ID)
	}
	assert.Contains(t, ids, "first-day-streak")

	req.SessionID = "s-2"
	rec, env = h.do(t, http.MethodPost, "/api/sessions/complete", h.token, req)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[completionDTO](t, env.Data)
	assert.False(t, got.Streak.Changed, "second session on the same day")
	assert.Equal(t, 1, got.Streak.Current)
	assert.Empty(t, got.NewBadges)
	assert.Equal(t, 2, got.Goal.Current)
}

func TestCompleteSession_Validation(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(t, http.MethodPost, "/api/sessions/complete", h.token, completeRequest{Total: 2, Correct: 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(t, http.MethodPost, "/api/sessions/complete", h.token, completeRequest{Total: 1, Correct: 1, DurationMs: 9223372036855})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(t, http.MethodPost, "/api/sessions/complete", h.token, completeRequest{LevelID: "nope", Total: 1, Correct: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProgress(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(t, http.MethodGet, "/api/progress", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	answer := answerRequest{Operation: problemgen.OpAddition, Num1: intp(2), Num2: intp(2), Answer: intp(4), ElapsedMs: 500}
	rec, _ = h.do(t, http.MethodPost, "/api/answers", h.token, answer)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = h.do(t, http.MethodPost, "/api/sessions/complete", h.token,
		completeRequest{SessionID: "s-1", LevelID: "addition-0-4", Total: 1, Correct: 1, DurationMs: 2500})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := h.do(t, http.MethodGet, "/api/progress", h.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		UserID string `json:"user_id"`
		Streak struct {
			Current     int  `json:"current"`
			ActiveToday bool `json:"active_today"`
		} `json:"streak"`
		Totals struct {
			Attempts int `json:"attempts"`
		} `json:"totals"`
		Goal struct {
			Current int `json:"current"`
		} `json:"goal"`
		Recent []recentSessionDTO `json:"recent_sessions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "kid-1", got.UserID)
	assert.Equal(t, 1, got.Streak.Current)
	assert.True(t, got.Streak.ActiveToday)
	assert.Equal(t, 1, got.Totals.Attempts)
	assert.Equal(t, 1, got.Goal.Current)
	require.Len(t, got.Recent, 1)
	assert.Equal(t, "s-1", got.Recent[0].SessionID)
	assert.Equal(t, int64(2500), got.Recent[0].DurationMs)
}

func TestAskMathQuestion(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/api/ask-math-question", "", askRequest{Question: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Question is required", env.Error.Message)

	h.llm.AddResponse(llm.MockText("Multiplying is repeated adding."))
	rec, env = h.do(t, http.MethodPost, "/api/ask-math-question", "", askRequest{Question: "What is multiplication?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Multiplying is repeated adding.", decode[askDTO](t, env.Data).Answer)

	h.llm.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	rec, env = h.do(t, http.MethodPost, "/api/ask-math-question", "", askRequest{Question: "What is division?"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeAIError, env.Error.Code)
}

func TestGetQuestionHelp(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/api/get-question-help", "", map[string]any{"operation": "addition", "num1": 8})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Missing required parameters", env.Error.Message)

	h.llm.AddResponse(llm.MockResponse{Content: json.RawMessage(`{
	  "strategies": [{"name": "Make ten", "explanation": "Take 2 from 5 to make 10.", "example": "8 + 2 + 3 = 13"}],
	  "tip": "Tens are friendly numbers."
	}`)})
	rec, env = h.do(t, http.MethodPost, "/api/get-question-help", "", map[string]any{"operation": "addition", "num1": 8, "num2": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[helpDTO](t, env.Data)
	assert.Contains(t, got.Explanation, "Make ten")
	require.Len(t, got.Strategies, 1)
	assert.Equal(t, "Tens are friendly numbers.", got.Tip)
}

func TestTutorRoutes_NoTutor(t *testing.T) {
	h := newHarness(t)
	h.srv.deps.Tutor = nil

	rec, env := h.do(t, http.MethodPost, "/api/ask-math-question", "", askRequest{Question: "What is 2 + 2?"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeAIUnavailable, env.Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/ask-math-question", nil)
	req.Header.Set("Origin", "https://kids.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), "x-client-info")
}

type fakePruner struct {
	cutoff time.Time
	calls  int
}

func (p *fakePruner) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	p.calls++
	p.cutoff = cutoff
	return 3, nil
}

func TestPruneLLMEvents(t *testing.T) {
	p := &fakePruner{}
	srv := New(Deps{
		Catalog:   levels.Default(),
		Questions: problemgen.New(),
		LLMEvents: p,
		Now:       func() time.Time { return fixedNow },
	}, Config{LLMRetention: 48 * time.Hour})

	srv.pruneLLMEvents()
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, fixedNow.Add(-48*time.Hour), p.cutoff)

	require.NoError(t, srv.StartJobs())
	srv.StopJobs()
}
