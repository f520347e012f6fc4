package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/progress"
	"github.com/abhisek/mathdrill/internal/store"
)

func TestParseFact(t *testing.T) {
	tests := []struct {
		args []string
		want problemgen.Fact
	}{
		{[]string{"3", "+", "5"}, problemgen.Fact{Operation: problemgen.OpAddition, Num1: 3, Num2: 5}},
		{[]string{"9", "-", "4"}, problemgen.Fact{Operation: problemgen.OpSubtraction, Num1: 9, Num2: 4}},
		{[]string{"7", "x", "8"}, problemgen.Fact{Operation: problemgen.OpMultiplication, Num1: 7, Num2: 8}},
		{[]string{"7", "×", "8"}, problemgen.Fact{Operation: problemgen.OpMultiplication, Num1: 7, Num2: 8}},
		{[]string{"56", "÷", "8"}, problemgen.Fact{Operation: problemgen.OpDivision, Num1: 56, Num2: 8}},
		{[]string{"6", "division", "3"}, problemgen.Fact{Operation: problemgen.OpDivision, Num1: 6, Num2: 3}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := parseFact(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFact_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"a", "+", "1"},
		{"1", "+", "b"},
		{"1", "%", "2"},
	} {
		_, err := parseFact(args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "gpt-4o", truncate("gpt-4o", 10))
	assert.Equal(t, "claude", truncate("claude-haiku", 6))
	assert.Equal(t, "×÷", truncate("×÷+", 2))
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0015", formatCost(0.0015))
	assert.Equal(t, "$1.25", formatCost(1.25))
}

func llmEvent(purpose, model string, in, out int, ms int64) store.LLMRequestEvent {
	return store.LLMRequestEvent{LLMRequestEventData: store.LLMRequestEventData{
		Purpose: purpose, Model: model, InputTokens: in, OutputTokens: out, LatencyMs: ms, Success: true,
	}}
}

func TestAggregateUsage(t *testing.T) {
	events := []store.LLMRequestEvent{
		llmEvent("question-help", "gpt-4o-mini", 100, 50, 300),
		llmEvent("ask-question", "gpt-4o", 200, 100, 1000),
		llmEvent("question-help", "gpt-4o-mini", 120, 60, 500),
	}

	got := aggregateUsage(events, func(e store.LLMRequestEvent) string { return e.Purpose })
	require.Len(t, got, 2)
	assert.Equal(t, "ask-question", got[0].Key)
	assert.Equal(t, "question-help", got[1].Key)
	assert.Equal(t, 2, got[1].Calls)
	assert.Equal(t, 220, got[1].InputTokens)
	assert.Equal(t, 110, got[1].OutputTokens)
	assert.Equal(t, int64(400), got[1].AvgLatencyMs())
}

func TestPrintLLMUsage(t *testing.T) {
	var buf bytes.Buffer
	printLLMUsage(&buf, []store.LLMRequestEvent{
		llmEvent("ask-question", "gpt-4o", 1000, 500, 800),
		llmEvent("ask-question", "homegrown-model", 10, 10, 100),
	})
	out := buf.String()
	assert.Contains(t, out, "Usage by Purpose")
	assert.Contains(t, out, "TOTAL (partial)")
	assert.Contains(t, out, "Pricing unavailable for: homegrown-model")

	buf.Reset()
	printLLMUsage(&buf, nil)
	assert.Equal(t, "No LLM usage recorded yet.\n", buf.String())
}

func TestPrintOverview(t *testing.T) {
	catalog := levels.Default()
	level := catalog.All()[0]
	ov := &progress.Overview{
		UserID: "ada",
		Streak: progress.StreakView{Current: 3, Longest: 7, NextMilestone: 5},
		Goal:   goals.Goal{Target: 10, Current: 10},
		Totals: progress.Totals{Facts: 4, Attempts: 20, Correct: 15, Mastered: 1, Accuracy: 0.75},
		Levels: []progress.LevelProgress{{Level: level, Mastered: 1, Total: 25, Percent: 4}},
		Badges: []badges.Badge{
			{ID: "streak-3", Name: "On a Roll", Description: "Practice 3 days in a row", Icon: "flame", Completed: true},
			{ID: "streak-7", Name: "Week Warrior", Description: "Practice 7 days in a row", Icon: "flame",
				Progress: &badges.Progress{Current: 3, Total: 7}},
		},
		Struggling: []mastery.Record{{
			Fact:                 problemgen.Fact{Operation: problemgen.OpMultiplication, Num1: 7, Num2: 8},
			Answer:               56,
			ConsecutiveIncorrect: 3,
		}},
	}

	var buf bytes.Buffer
	printOverview(&buf, ov)
	out := buf.String()

	assert.Contains(t, out, "Learner:   ada")
	assert.Contains(t, out, "3 days (best 7, next milestone 5)")
	assert.Contains(t, out, "10/10 sessions, reached")
	assert.Contains(t, out, "20 (75% correct)")
	assert.Contains(t, out, level.Name)
	assert.Contains(t, out, "(3/7)")
	assert.Contains(t, out, "7 × 8 = 56   3 wrong in a row")
}

func TestLevelsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"levels", "--db", "file:cmd_levels?mode=memory"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "addition-0-4")
	assert.Contains(t, out.String(), "Addition 0-4")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "mathdrill "+version+"\n", out.String())
}
